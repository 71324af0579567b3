package leads

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"
)

// csvHeader mirrors the flat projection the center's staff import into their
// spreadsheet: one row per lead, with the latest interaction inlined.
var csvHeader = []string{
	"id", "created_at", "last_message_at", "name", "email", "phone",
	"language", "channel", "marketing_consent", "last_tags", "last_message",
}

// ExportCSV renders the leads as delimited text. encoding/csv handles the
// quoting, so embedded commas and quotes cannot corrupt rows.
func ExportCSV(leads []*Lead) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("leads: write csv header: %w", err)
	}

	for _, lead := range leads {
		var lastTags, lastMessage string
		if last, ok := lead.LastInteraction(); ok {
			lastTags = strings.Join(last.Tags, "|")
			lastMessage = last.Message
		}
		record := []string{
			lead.ID,
			lead.CreatedAt.Format(time.RFC3339),
			lead.LastMessageAt.Format(time.RFC3339),
			lead.Name,
			lead.Email,
			lead.Phone,
			lead.Language,
			lead.Channel,
			fmt.Sprintf("%t", lead.MarketingConsent),
			lastTags,
			lastMessage,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("leads: write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("leads: flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
