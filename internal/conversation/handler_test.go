package conversation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*Handler, *InMemorySetup) {
	t.Helper()
	engine, setup := newTestEngine(t, &scriptedLLMClient{resp: LLMResponse{Text: "ok"}})
	return NewHandler(engine, setup.Sessions, nil), setup
}

func TestHandler_Chat(t *testing.T) {
	handler, _ := newTestHandler(t)

	body := `{"session_id": "web-1", "message": "quiero reservar un bautismo"}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Chat(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var answer Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	require.Equal(t, "web-1", answer.SessionID)
	require.Equal(t, StateAskName, answer.State)
	require.Equal(t, "es", answer.Language)
	require.NotEmpty(t, answer.Text)
}

func TestHandler_ChatAssignsSessionID(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message": "hola"}`))
	rec := httptest.NewRecorder()
	handler.Chat(rec, req)

	var answer Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	require.NotEmpty(t, answer.SessionID)
}

func TestHandler_ChatRejectsInvalidJSON(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	handler.Chat(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid_json")
}

func TestHandler_History(t *testing.T) {
	handler, _ := newTestHandler(t)

	chat := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"session_id": "web-2", "message": "cuanto cuesta el curso"}`))
	handler.Chat(httptest.NewRecorder(), chat)

	req := httptest.NewRequest(http.MethodGet, "/chat/history?session_id=web-2", nil)
	rec := httptest.NewRecorder()
	handler.History(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		SessionID string        `json:"session_id"`
		History   []ChatMessage `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "web-2", payload.SessionID)
	require.Len(t, payload.History, 2)
	require.Equal(t, ChatRoleUser, payload.History[0].Role)
}

func TestHandler_HistoryRequiresSessionID(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/chat/history", nil)
	rec := httptest.NewRecorder()
	handler.History(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "missing_session_id")
}
