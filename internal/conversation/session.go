package conversation

import "time"

// FlowState is the slot-filling machine state. Stored as a string so session
// snapshots stay readable in Redis.
type FlowState string

const (
	// StateCollectingInfo is the initial state: answer questions until the
	// visitor signals booking intent.
	StateCollectingInfo FlowState = "collecting_info"
	// StateAskName waits for the visitor's name.
	StateAskName FlowState = "ask_name"
	// StateAskContact waits for an email address or phone number.
	StateAskContact FlowState = "ask_contact"
	// StateDone means the lead has been captured for this session.
	StateDone FlowState = "done"
)

// Session is the durable conversational context for one visitor identity.
type Session struct {
	ID        string        `json:"id"`
	Language  string        `json:"language"`
	Activity  string        `json:"activity,omitempty"`
	State     FlowState     `json:"state"`
	Name      string        `json:"name,omitempty"`
	Contact   string        `json:"contact,omitempty"`
	History   []ChatMessage `json:"history,omitempty"`
	Greeted   bool          `json:"greeted"`
	Channel   string        `json:"channel,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewSession creates a fresh session in the initial flow state. The language
// stays empty until the first message decides it.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		State:     StateCollectingInfo,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AppendExchange records a user/assistant turn pair, evicting the oldest
// messages once the history exceeds limit entries.
func (s *Session) AppendExchange(userText, assistantText string, limit int) {
	s.History = append(s.History,
		ChatMessage{Role: ChatRoleUser, Content: userText},
		ChatMessage{Role: ChatRoleAssistant, Content: assistantText},
	)
	if limit > 0 && len(s.History) > limit {
		s.History = s.History[len(s.History)-limit:]
	}
	s.UpdatedAt = time.Now().UTC()
}
