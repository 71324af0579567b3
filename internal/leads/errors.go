package leads

import "errors"

var (
	// ErrMissingContact is returned when both email and phone are missing;
	// one of them is the deduplication key, so no lead can be stored.
	ErrMissingContact = errors.New("either email or phone is required")

	// ErrConsentRequired is returned when a lead is submitted without
	// explicit marketing consent.
	ErrConsentRequired = errors.New("explicit consent is required")

	// ErrLeadNotFound is returned when a lead is not found.
	ErrLeadNotFound = errors.New("lead not found")
)
