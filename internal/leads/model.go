package leads

import (
	"strings"
	"time"
)

// interactionLimit caps the per-lead interaction log; the oldest entries are
// evicted past the bound.
const interactionLimit = 100

// Interaction is one contact event appended to a lead's history.
type Interaction struct {
	At      time.Time `json:"at"`
	Channel string    `json:"channel"`
	Tags    []string  `json:"tags,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Lead is a durable contact record, deduplicated by email or phone.
type Lead struct {
	ID               string        `json:"id"`
	Name             string        `json:"name,omitempty"`
	Email            string        `json:"email,omitempty"`
	Phone            string        `json:"phone,omitempty"`
	Language         string        `json:"language,omitempty"`
	Channel          string        `json:"channel,omitempty"`
	MarketingConsent bool          `json:"marketing_consent"`
	CreatedAt        time.Time     `json:"created_at"`
	LastMessageAt    time.Time     `json:"last_message_at"`
	Interactions     []Interaction `json:"interactions"`
}

// LastInteraction returns the most recent interaction, if any.
func (l *Lead) LastInteraction() (Interaction, bool) {
	if len(l.Interactions) == 0 {
		return Interaction{}, false
	}
	return l.Interactions[len(l.Interactions)-1], true
}

// UpsertRequest carries one qualifying interaction into the store.
type UpsertRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Language string   `json:"language"`
	Channel  string   `json:"channel"`
	Tags     []string `json:"tags"`
	Message  string   `json:"message"`
	// MarketingConsent only overwrites the stored value when explicitly
	// provided.
	MarketingConsent *bool `json:"marketing_consent"`
}

// Validate checks that the request carries a deduplication key.
func (r *UpsertRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" && strings.TrimSpace(r.Phone) == "" {
		return ErrMissingContact
	}
	return nil
}

// NormalizedEmail lowercases the email for case-insensitive matching.
func (r *UpsertRequest) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(r.Email))
}

// apply merges the request into an existing lead: scalar fields overwrite
// only when the new value is non-empty, consent only when provided, the
// last-message timestamp is always refreshed and the interaction log is
// appended within its bound.
func (l *Lead) apply(req *UpsertRequest, now time.Time) {
	if req.Name != "" {
		l.Name = req.Name
	}
	if req.Email != "" {
		l.Email = req.NormalizedEmail()
	}
	if req.Phone != "" {
		l.Phone = req.Phone
	}
	if req.Language != "" {
		l.Language = req.Language
	}
	if req.Channel != "" {
		l.Channel = req.Channel
	}
	if req.MarketingConsent != nil {
		l.MarketingConsent = *req.MarketingConsent
	}
	l.LastMessageAt = now
	l.Interactions = append(l.Interactions, Interaction{
		At:      now,
		Channel: req.Channel,
		Tags:    req.Tags,
		Message: req.Message,
	})
	if len(l.Interactions) > interactionLimit {
		l.Interactions = l.Interactions[len(l.Interactions)-interactionLimit:]
	}
}

// newLead creates a lead from a first qualifying interaction.
func newLead(id string, req *UpsertRequest, now time.Time) *Lead {
	lead := &Lead{
		ID:        id,
		Name:      req.Name,
		Email:     req.NormalizedEmail(),
		Phone:     req.Phone,
		Language:  req.Language,
		Channel:   req.Channel,
		CreatedAt: now,
	}
	if req.MarketingConsent != nil {
		lead.MarketingConsent = *req.MarketingConsent
	}
	lead.LastMessageAt = now
	lead.Interactions = []Interaction{{
		At:      now,
		Channel: req.Channel,
		Tags:    req.Tags,
		Message: req.Message,
	}}
	return lead
}
