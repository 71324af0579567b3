// Package notify emails the dive center's staff about leads captured by the
// assistant. Delivery is best-effort: a failed notification is logged and
// never surfaces to the visitor.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nereadiving/dive-ai-assistant/internal/leads"
	"github.com/nereadiving/dive-ai-assistant/pkg/logging"
)

const sendTimeout = 15 * time.Second

// Service sends staff notifications when the assistant captures a lead.
type Service struct {
	email      EmailSender
	recipients []string
	brand      string
	logger     *logging.Logger

	wg sync.WaitGroup
}

// NewService creates a notification service. A nil email sender or an empty
// recipient list disables delivery.
func NewService(email EmailSender, recipients []string, brand string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if brand == "" {
		brand = "Nerea Diving"
	}
	return &Service{
		email:      email,
		recipients: recipients,
		brand:      brand,
		logger:     logger,
	}
}

// LeadCaptured emails the staff about a captured lead. Sending happens in the
// background so the chat response is never delayed by the email provider.
func (s *Service) LeadCaptured(ctx context.Context, lead *leads.Lead) {
	if s.email == nil || len(s.recipients) == 0 {
		s.logger.Debug("notify: email delivery disabled, skipping lead notification")
		return
	}

	subject, body := s.composeLeadEmail(lead)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		for _, recipient := range s.recipients {
			msg := EmailMessage{To: recipient, Subject: subject, Body: body}
			if err := s.email.Send(sendCtx, msg); err != nil {
				s.logger.Error("notify: failed to send lead email", "error", err, "to", recipient, "lead_id", lead.ID)
				continue
			}
			s.logger.Info("notify: lead email sent", "to", recipient, "lead_id", lead.ID)
		}
	}()
}

// Wait blocks until in-flight notifications finish. Used on shutdown.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) composeLeadEmail(lead *leads.Lead) (subject, body string) {
	name := lead.Name
	if name == "" {
		name = "A visitor"
	}
	subject = fmt.Sprintf("New lead - %s", name)

	var interests, message string
	if last, ok := lead.LastInteraction(); ok {
		interests = strings.Join(last.Tags, ", ")
		message = last.Message
	}

	lines := []string{
		fmt.Sprintf("%s left their contact details with the assistant.", name),
		"",
		fmt.Sprintf("Name: %s", lead.Name),
		fmt.Sprintf("Email: %s", lead.Email),
		fmt.Sprintf("Phone: %s", lead.Phone),
		fmt.Sprintf("Language: %s", lead.Language),
		fmt.Sprintf("Channel: %s", lead.Channel),
	}
	if interests != "" {
		lines = append(lines, fmt.Sprintf("Interested in: %s", interests))
	}
	if message != "" {
		lines = append(lines, fmt.Sprintf("Last message: %s", message))
	}
	lines = append(lines, "", "Please follow up while the interest is fresh.", "", fmt.Sprintf("— %s assistant", s.brand))

	return subject, strings.Join(lines, "\n")
}
