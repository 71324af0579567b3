package conversation

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/nereadiving/dive-ai-assistant/internal/knowledge"
	"github.com/nereadiving/dive-ai-assistant/internal/leads"
	"github.com/nereadiving/dive-ai-assistant/internal/observability/metrics"
	"github.com/nereadiving/dive-ai-assistant/pkg/logging"
)

// minNameLength is the minimum-content predicate for the collected name: a
// single character never advances the flow.
const minNameLength = 2

// LeadNotifier is told about leads captured by the guided flow.
type LeadNotifier interface {
	LeadCaptured(ctx context.Context, lead *leads.Lead)
}

// MessageRequest is one inbound visitor message.
type MessageRequest struct {
	SessionID string
	Text      string
	Channel   string
}

// Answer is the controller's reply for one message.
type Answer struct {
	SessionID string    `json:"session_id"`
	Text      string    `json:"answer"`
	Language  string    `json:"language"`
	State     FlowState `json:"state"`
}

// EngineConfig tunes the conversation controller.
type EngineConfig struct {
	Model           string
	LLMTimeout      time.Duration
	MaxTokens       int32
	HistoryLimit    int
	RepeatAfterDone bool
}

// Engine is the per-session conversation controller: it applies the
// slot-filling state machine, grounds generation in the knowledge base and
// persists a lead when the flow completes. Internal failures degrade to
// deterministic texts; ProcessMessage never surfaces them to the caller.
type Engine struct {
	base     *knowledge.Base
	llm      LLMClient
	sessions SessionRepository
	leads    leads.Repository
	notifier LeadNotifier
	metrics  *metrics.ConversationMetrics
	logger   *logging.Logger
	locks    *sessionLocks
	cfg      EngineConfig
}

// NewEngine creates a conversation engine. notifier and metrics may be nil.
func NewEngine(base *knowledge.Base, llm LLMClient, sessions SessionRepository, leadRepo leads.Repository, notifier LeadNotifier, m *metrics.ConversationMetrics, logger *logging.Logger, cfg EngineConfig) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 12 * time.Second
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 12
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 512
	}
	return &Engine{
		base:     base,
		llm:      llm,
		sessions: sessions,
		leads:    leadRepo,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		locks:    newSessionLocks(),
		cfg:      cfg,
	}
}

// ProcessMessage handles one visitor message and returns the assistant's
// answer. Messages for the same session are serialized; distinct sessions
// run in parallel.
func (e *Engine) ProcessMessage(ctx context.Context, req MessageRequest) *Answer {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	mu := e.locks.lock(sessionID)
	defer mu.Unlock()

	session, err := e.sessions.GetOrCreate(ctx, sessionID)
	if err != nil {
		// Degrade to a transient session rather than failing the visitor.
		e.logger.Error("session load failed, using transient session", "error", err, "session_id", sessionID)
		session = NewSession(sessionID)
	}
	if req.Channel != "" {
		session.Channel = req.Channel
	}

	text := strings.TrimSpace(req.Text)

	// Language is decided on the first message and fixed afterwards.
	if session.Language == "" {
		session.Language = DetectLanguage(text)
	}

	if text == "" {
		// Clarify without touching flow state or history.
		return &Answer{
			SessionID: sessionID,
			Text:      clarifyingPrompt(session.Language),
			Language:  session.Language,
			State:     session.State,
		}
	}

	e.detectActivity(session, Normalize(text))

	reply := e.step(ctx, session, text)

	if !session.Greeted {
		reply = greeting(session.Language) + " " + reply
		session.Greeted = true
	}

	session.AppendExchange(text, reply, e.cfg.HistoryLimit)
	if err := e.sessions.Save(ctx, session); err != nil {
		e.logger.Error("session save failed", "error", err, "session_id", sessionID)
	}

	e.metrics.ObserveMessage(session.Channel, session.Language, string(session.State))

	return &Answer{
		SessionID: sessionID,
		Text:      reply,
		Language:  session.Language,
		State:     session.State,
	}
}

// detectActivity keeps the selected activity sticky: passive keyword matches
// only fill an empty slot, and only an explicit override phrase re-opens it.
func (e *Engine) detectActivity(session *Session, normalized string) {
	facts := e.base.ForLanguage(session.Language)

	if session.Activity == "" {
		if id, ok := DetectActivity(facts, normalized); ok {
			session.Activity = id
		}
		return
	}

	if IsActivityOverride(session.Language, normalized) {
		if id, ok := DetectActivity(facts, normalized); ok {
			session.Activity = id
		} else {
			// Override requested without naming a new activity; clear the
			// slot so the next mention re-selects.
			session.Activity = ""
		}
	}
}

// step runs one transition of the slot-filling machine and returns the reply.
func (e *Engine) step(ctx context.Context, session *Session, text string) string {
	lang := session.Language

	switch session.State {
	case StateAskName:
		if !isPlausibleName(text) {
			return reAskNamePrompt(lang)
		}
		session.Name = text
		session.State = StateAskContact
		return askContactPrompt(lang, text)

	case StateAskContact:
		session.Contact = text
		session.State = StateDone
		e.captureLead(ctx, session, text)
		activityName := ""
		if act, ok := e.base.Activity(lang, session.Activity); ok {
			activityName = act.Name
		}
		return confirmationText(lang, session.Name, activityName, e.base.ForLanguage(lang).Contact.BookingURL)

	case StateDone:
		if e.cfg.RepeatAfterDone && HasBookingIntent(lang, Normalize(text)) {
			session.State = StateAskName
			return askNamePrompt(lang)
		}
		return e.generate(ctx, session, text)

	default: // StateCollectingInfo
		if HasBookingIntent(lang, Normalize(text)) {
			session.State = StateAskName
			return askNamePrompt(lang)
		}
		return e.generate(ctx, session, text)
	}
}

// isPlausibleName is the minimum-content predicate for the name slot.
func isPlausibleName(text string) bool {
	if len([]rune(text)) < minNameLength {
		return false
	}
	for _, r := range text {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// generate runs the knowledge-grounded generation path with a bounded
// timeout; any failure degrades to a deterministic templated fallback.
func (e *Engine) generate(ctx context.Context, session *Session, text string) string {
	llmCtx, cancel := context.WithTimeout(ctx, e.cfg.LLMTimeout)
	defer cancel()

	req := LLMRequest{
		Model:       e.cfg.Model,
		System:      buildSystemPrompt(e.base, session),
		Messages:    buildMessages(session, text),
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: 0.3,
	}

	start := time.Now()
	resp, err := e.llm.Complete(llmCtx, req)
	if err != nil {
		e.metrics.ObserveLLM("error", time.Since(start).Seconds())
		e.metrics.ObserveFallback()
		e.logger.Warn("generation unavailable, serving templated fallback",
			"error", err, "session_id", session.ID)
		return e.fallbackText(session)
	}
	e.metrics.ObserveLLM("ok", time.Since(start).Seconds())

	out := stripLeadingGreeting(session.Language, resp.Text)
	if out == "" {
		e.metrics.ObserveFallback()
		return e.fallbackText(session)
	}
	return out
}

// fallbackText composes a reply from known facts when generation fails.
func (e *Engine) fallbackText(session *Session) string {
	facts := e.base.ForLanguage(session.Language)
	if act, ok := e.base.Activity(session.Language, session.Activity); ok {
		return activityFallback(session.Language, act, facts.Contact)
	}
	return genericFallback(session.Language, facts)
}

// captureLead parses the collected contact and upserts the lead. A
// persistence failure is logged and counted but never corrupts the
// visitor-facing confirmation.
func (e *Engine) captureLead(ctx context.Context, session *Session, rawContact string) {
	email, phone := splitContact(rawContact)

	var tags []string
	if session.Activity != "" {
		tags = append(tags, session.Activity)
	}
	channel := session.Channel
	if channel == "" {
		channel = "webchat"
	}

	// Sharing contact details in the guided flow is the consent signal.
	consent := true
	lead, err := e.leads.Upsert(ctx, &leads.UpsertRequest{
		Name:             session.Name,
		Email:            email,
		Phone:            phone,
		Language:         session.Language,
		Channel:          channel,
		Tags:             tags,
		Message:          rawContact,
		MarketingConsent: &consent,
	})
	if err != nil {
		e.metrics.ObserveLeadUpsert("error")
		e.logger.Error("lead persistence failed",
			"error", err, "session_id", session.ID, "channel", channel)
		return
	}

	e.metrics.ObserveLeadUpsert("ok")
	e.logger.Info("lead captured from chat flow",
		"lead_id", lead.ID, "session_id", session.ID, "activity", session.Activity)
	if e.notifier != nil {
		e.notifier.LeadCaptured(ctx, lead)
	}
}
