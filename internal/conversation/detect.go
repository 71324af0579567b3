package conversation

import (
	"strings"

	"github.com/nereadiving/dive-ai-assistant/internal/knowledge"
)

// diacritics maps accented Spanish characters to their bare form so keyword
// tables only need unaccented entries.
var diacritics = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	"¿", " ", "¡", " ",
)

// Normalize lowercases and strips diacritics for keyword matching.
func Normalize(text string) string {
	return strings.TrimSpace(diacritics.Replace(strings.ToLower(text)))
}

// DetectLanguage scores the normalized text against both hint lexicons and
// returns the winner. The decision is made once, on the session's first
// message; ties (including no hits at all) favor Spanish.
func DetectLanguage(text string) string {
	words := strings.Fields(Normalize(text))
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[strings.Trim(w, ".,!?;:()\"'")] = struct{}{}
	}

	score := func(lang string) int {
		n := 0
		for _, hint := range languageHints[lang] {
			if _, ok := seen[hint]; ok {
				n++
			}
		}
		return n
	}

	if score("en") > score("es") {
		return knowledge.LangEnglish
	}
	return knowledge.LangSpanish
}

// HasBookingIntent reports whether the normalized message signals the
// visitor wants to book, per the session language's intent phrases.
func HasBookingIntent(lang, normalized string) bool {
	return matchesAny(normalized, bookingIntent[lang])
}

// IsActivityOverride reports whether the visitor explicitly asked to change
// the selected activity.
func IsActivityOverride(lang, normalized string) bool {
	return matchesAny(normalized, activityOverride[lang])
}

// DetectActivity tests the normalized message against each activity's
// keywords in declaration order; the first category with a hit wins.
func DetectActivity(facts knowledge.Facts, normalized string) (string, bool) {
	for _, act := range facts.Activities {
		for _, kw := range act.Keywords {
			if kw != "" && strings.Contains(normalized, Normalize(kw)) {
				return act.ID, true
			}
		}
	}
	return "", false
}

func matchesAny(normalized string, phrases []string) bool {
	for _, p := range phrases {
		if p != "" && strings.Contains(normalized, p) {
			return true
		}
	}
	return false
}
