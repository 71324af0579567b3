package conversation

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nereadiving/dive-ai-assistant/pkg/logging"
)

const maxChatBodyBytes = 16 * 1024

// Handler exposes the conversation engine over HTTP.
type Handler struct {
	engine   *Engine
	sessions SessionRepository
	logger   *logging.Logger
}

// NewHandler creates the chat HTTP handler.
func NewHandler(engine *Engine, sessions SessionRepository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, sessions: sessions, logger: logger}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Channel   string `json:"channel,omitempty"`
}

// Chat handles POST /chat: one visitor message in, one assistant answer out.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeChatError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	channel := req.Channel
	if channel == "" {
		channel = "webchat"
	}

	answer := h.engine.ProcessMessage(r.Context(), MessageRequest{
		SessionID: req.SessionID,
		Text:      req.Message,
		Channel:   channel,
	})
	writeChatJSON(w, http.StatusOK, answer)
}

// History handles GET /chat/history?session_id=... and returns the bounded
// transcript kept for the session.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		writeChatError(w, http.StatusBadRequest, "missing_session_id", "session_id query parameter is required")
		return
	}

	session, err := h.sessions.GetOrCreate(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("history load failed", "error", err, "session_id", sessionID)
		writeChatError(w, http.StatusInternalServerError, "history_unavailable", "could not load session history")
		return
	}

	writeChatJSON(w, http.StatusOK, map[string]any{
		"session_id": session.ID,
		"language":   session.Language,
		"state":      session.State,
		"history":    session.History,
	})
}

func writeChatJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeChatError(w http.ResponseWriter, status int, code, message string) {
	writeChatJSON(w, status, map[string]string{"error": code, "message": message})
}
