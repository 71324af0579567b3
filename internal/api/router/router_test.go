package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nereadiving/dive-ai-assistant/internal/channels/whatsapp"
	"github.com/nereadiving/dive-ai-assistant/internal/conversation"
	"github.com/nereadiving/dive-ai-assistant/internal/knowledge"
	"github.com/nereadiving/dive-ai-assistant/internal/leads"
	"github.com/nereadiving/dive-ai-assistant/internal/webchat"
	"github.com/nereadiving/dive-ai-assistant/pkg/logging"
)

type echoLLM struct{}

func (echoLLM) Complete(ctx context.Context, req conversation.LLMRequest) (conversation.LLMResponse, error) {
	return conversation.LLMResponse{Text: "Las inmersiones guiadas salen cada mañana."}, nil
}

func newTestRouter(t *testing.T, adminSecret string) http.Handler {
	t.Helper()

	logger := logging.New("error")
	base, err := knowledge.Load("")
	if err != nil {
		t.Fatalf("failed to load knowledge base: %v", err)
	}

	leadRepo := leads.NewInMemoryRepository()
	sessions := conversation.NewMemorySessionRepository()
	engine := conversation.NewEngine(base, echoLLM{}, sessions, leadRepo, nil, nil, logger, conversation.EngineConfig{})

	cfg := &Config{
		Logger:         logger,
		ChatHandler:    conversation.NewHandler(engine, sessions, logger),
		LeadsHandler:   leads.NewHandler(leadRepo, nil, logger),
		WebchatHandler: webchat.NewHandler(engine, logger),
		WhatsAppAdapter: whatsapp.NewAdapter(whatsapp.Config{
			AccessToken:   "token",
			PhoneNumberID: "pn_1",
			AppSecret:     "app-secret",
			VerifyToken:   "verify-me",
		}, engine, logger),
		AdminAuthSecret: adminSecret,
	}

	return New(cfg)
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterChatEndpoint(t *testing.T) {
	router := newTestRouter(t, "")

	body, err := json.Marshal(map[string]string{
		"session_id": "router-session",
		"message":    "hola, ¿qué ofrecéis?",
	})
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	var resp struct {
		SessionID string `json:"session_id"`
		Text      string `json:"answer"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode chat response: %v", err)
	}
	if resp.SessionID != "router-session" {
		t.Errorf("expected session_id 'router-session', got %q", resp.SessionID)
	}
	if resp.Text == "" {
		t.Error("expected a non-empty reply")
	}
}

func TestRouterLeadsEndpoint(t *testing.T) {
	router := newTestRouter(t, "")

	body, err := json.Marshal(leads.SubmitLeadRequest{
		Name:    "Router Test",
		Email:   "router@example.com",
		Phone:   "+34600112233",
		Message: "Quiero hacer un bautismo",
		Consent: true,
	})
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/leads", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
}

func TestRouterWhatsAppVerification(t *testing.T) {
	router := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if rr.Body.String() != "12345" {
		t.Errorf("expected challenge echo, got %q", rr.Body.String())
	}
}

func TestRouterWidgetServed(t *testing.T) {
	router := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/webchat/widget.js", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/javascript" {
		t.Errorf("expected javascript content type, got %q", ct)
	}
}

func TestRouterAdminRequiresToken(t *testing.T) {
	router := newTestRouter(t, "admin-secret")

	req := httptest.NewRequest(http.MethodGet, "/admin/leads", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d without token, got %d", http.StatusUnauthorized, rr.Code)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("admin-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/leads", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d with token, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
}

func TestRouterAdminDisabledWithoutSecret(t *testing.T) {
	router := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/admin/leads", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}
