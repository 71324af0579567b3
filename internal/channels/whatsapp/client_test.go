package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendTextMessage(t *testing.T) {
	var received SendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer test_token" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		if !strings.HasPrefix(r.URL.Path, "/pn_1/messages") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatal(err)
		}
		resp := SendResponse{Messages: []SentMessage{{ID: "wamid.XYZ"}}}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient("test_token", "pn_1")
	client.SetGraphAPIBase(server.URL)

	resp, err := client.SendTextMessage(context.Background(), "34600112233", "Hola desde el asistente")
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Messages) != 1 || resp.Messages[0].ID != "wamid.XYZ" {
		t.Errorf("unexpected response: %#v", resp)
	}
	if received.To != "34600112233" {
		t.Errorf("sent to = %s, want 34600112233", received.To)
	}
	if received.Text.Body != "Hola desde el asistente" {
		t.Errorf("sent text = %q", received.Text.Body)
	}
	if received.MessagingProduct != "whatsapp" || received.Type != "text" {
		t.Errorf("unexpected envelope: %#v", received)
	}
}

func TestSendTextMessageAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := SendResponse{
			Error: &SendError{Code: 190, Message: "Invalid OAuth access token", Type: "OAuthException"},
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient("bad_token", "pn_1")
	client.SetGraphAPIBase(server.URL)

	_, err := client.SendTextMessage(context.Background(), "34600112233", "test")
	if err == nil {
		t.Fatal("expected error for API error response")
	}
}
