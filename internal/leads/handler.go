package leads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nereadiving/dive-ai-assistant/pkg/logging"
)

// Notifier is told about every captured lead; implementations are
// best-effort and must not block the response.
type Notifier interface {
	LeadCaptured(ctx context.Context, lead *Lead)
}

// Handler handles HTTP requests for leads.
type Handler struct {
	repo     Repository
	notifier Notifier
	logger   *logging.Logger
}

// NewHandler creates a leads handler. notifier may be nil.
func NewHandler(repo Repository, notifier Notifier, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, notifier: notifier, logger: logger}
}

// SubmitLeadRequest is the body for POST /leads. Contact is free text; it is
// split into email/phone when the explicit fields are absent.
type SubmitLeadRequest struct {
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Language string `json:"language"`
	Activity string `json:"activity"`
	Message  string `json:"message"`
	Channel  string `json:"channel"`
	Consent  bool   `json:"consent"`
}

// CreateLead handles POST /leads. Submissions without explicit consent are
// rejected with consent_required.
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	var req SubmitLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("leads: failed to decode request", "error", err)
		h.writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	if !req.Consent {
		h.writeError(w, http.StatusBadRequest, "consent_required")
		return
	}

	email, phone := req.Email, req.Phone
	if email == "" && phone == "" && req.Contact != "" {
		if strings.Contains(req.Contact, "@") {
			email = strings.TrimSpace(req.Contact)
		} else {
			phone = strings.TrimSpace(req.Contact)
		}
	}

	channel := req.Channel
	if channel == "" {
		channel = "web_form"
	}
	var tags []string
	if req.Activity != "" {
		tags = append(tags, req.Activity)
	}

	consent := true
	upsert := &UpsertRequest{
		Name:             req.Name,
		Email:            email,
		Phone:            phone,
		Language:         req.Language,
		Channel:          channel,
		Tags:             tags,
		Message:          req.Message,
		MarketingConsent: &consent,
	}

	lead, err := h.repo.Upsert(r.Context(), upsert)
	if err != nil {
		if errors.Is(err, ErrMissingContact) {
			h.writeError(w, http.StatusBadRequest, "contact_required")
			return
		}
		h.logger.Error("leads: upsert failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "lead_error")
		return
	}

	h.logger.Info("lead captured", "id", lead.ID, "channel", channel)
	if h.notifier != nil {
		h.notifier.LeadCaptured(r.Context(), lead)
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ListLeads handles GET /admin/leads.
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	all, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("leads: list failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "list_failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"leads": all,
		"count": len(all),
	})
}

// ExportCSV handles GET /admin/leads/export.csv.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	all, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("leads: list for export failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "export_failed")
		return
	}
	data, err := ExportCSV(all)
	if err != nil {
		h.logger.Error("leads: csv render failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "export_failed")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="leads.csv"`)
	_, _ = w.Write(data)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("leads: failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code string) {
	h.writeJSON(w, status, map[string]string{"error": code})
}
