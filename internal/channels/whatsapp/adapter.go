package whatsapp

import (
	"context"
	"net/http"
	"time"

	"github.com/nereadiving/dive-ai-assistant/internal/conversation"
	"github.com/nereadiving/dive-ai-assistant/pkg/logging"
)

// replyTimeout bounds the full inbound-to-outbound cycle for one message.
const replyTimeout = 30 * time.Second

// MessageSender sends an outbound WhatsApp message. *Client satisfies it;
// tests substitute a recorder.
type MessageSender interface {
	SendTextMessage(ctx context.Context, to, text string) (*SendResponse, error)
}

// Adapter is the WhatsApp channel adapter: inbound webhooks feed the
// conversation engine and the reply goes back out through the Cloud API.
// The sender's phone number is the session identity, so a visitor keeps
// their conversational context across messages.
type Adapter struct {
	client  MessageSender
	webhook *WebhookHandler
	engine  *conversation.Engine
	logger  *logging.Logger
}

// Config carries the Meta app credentials for the adapter.
type Config struct {
	AccessToken   string
	PhoneNumberID string
	AppSecret     string
	VerifyToken   string
	GraphAPIBase  string
}

// NewAdapter creates a WhatsApp adapter wired to the conversation engine.
func NewAdapter(cfg Config, engine *conversation.Engine, logger *logging.Logger) *Adapter {
	if logger == nil {
		logger = logging.Default()
	}

	client := NewClient(cfg.AccessToken, cfg.PhoneNumberID)
	if cfg.GraphAPIBase != "" {
		client.SetGraphAPIBase(cfg.GraphAPIBase)
	}

	a := &Adapter{
		client: client,
		engine: engine,
		logger: logger,
	}
	a.webhook = NewWebhookHandler(cfg.VerifyToken, cfg.AppSecret, a.onInbound)
	return a
}

// HandleVerification handles GET /webhooks/whatsapp (Meta challenge).
func (a *Adapter) HandleVerification(w http.ResponseWriter, r *http.Request) {
	a.webhook.HandleVerification(w, r)
}

// HandleWebhook handles POST /webhooks/whatsapp (inbound messages).
func (a *Adapter) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	a.webhook.HandleInbound(w, r)
}

// onInbound runs after the webhook has been acknowledged, so a slow reply
// cannot trigger Meta's retry policy.
func (a *Adapter) onInbound(msg ParsedInboundMessage) {
	a.logger.Info("whatsapp: inbound message",
		"sender_id", msg.SenderID,
		"message_id", msg.MessageID,
	)

	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()

	answer := a.engine.ProcessMessage(ctx, conversation.MessageRequest{
		SessionID: sessionID(msg.SenderID),
		Text:      msg.Text,
		Channel:   "whatsapp",
	})

	if _, err := a.client.SendTextMessage(ctx, msg.SenderID, answer.Text); err != nil {
		a.logger.Error("whatsapp: failed to send reply",
			"recipient_id", msg.SenderID,
			"error", err,
		)
	}
}

// sessionID builds the canonical session id for a WhatsApp sender.
func sessionID(waID string) string {
	return "whatsapp:" + waID
}
