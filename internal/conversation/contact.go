package conversation

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9 .\-]{6,}[0-9]`)
)

// splitContact extracts an email and/or phone number from the free-text
// contact the visitor typed. Either result may be empty; the lead store
// rejects the upsert when both are.
func splitContact(text string) (email, phone string) {
	if m := emailPattern.FindString(text); m != "" {
		email = strings.ToLower(m)
	}
	if m := phonePattern.FindString(text); m != "" {
		phone = strings.Join(strings.Fields(strings.ReplaceAll(strings.ReplaceAll(m, "-", ""), ".", "")), "")
	}
	return email, phone
}
