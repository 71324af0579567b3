// Package knowledge loads the bounded fact base the assistant is allowed to
// answer from. The base is read once at startup and never mutated, so it is
// shared across sessions without locking.
package knowledge

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"
)

//go:embed data/knowledge.*.json
var defaultData embed.FS

// Languages the assistant supports. Spanish is the source language and the
// fallback for any unrecognized tag.
const (
	LangSpanish = "es"
	LangEnglish = "en"
)

// Contact holds how visitors reach the center outside the chat.
type Contact struct {
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	BookingURL string `json:"booking_url"`
}

// Activity is one bookable activity category. Keywords drive detection, so
// their order inside Facts.Activities is the matching priority.
type Activity struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Price        string   `json:"price"`
	Requirements string   `json:"requirements"`
	Keywords     []string `json:"keywords"`
}

// Facts is everything the assistant knows for one language.
type Facts struct {
	Language   string     `json:"language"`
	Center     string     `json:"center"`
	Activities []Activity `json:"activities"`
	Policies   []string   `json:"policies"`
	Contact    Contact    `json:"contact"`
}

// Base is the immutable per-language fact store.
type Base struct {
	facts map[string]Facts
}

// Load reads knowledge.<lang>.json for every supported language. When dir is
// empty the embedded defaults are used; otherwise files are read from dir and
// a missing or malformed file is an error.
func Load(dir string) (*Base, error) {
	base := &Base{facts: make(map[string]Facts)}
	for _, lang := range []string{LangSpanish, LangEnglish} {
		name := fmt.Sprintf("knowledge.%s.json", lang)

		var raw []byte
		var err error
		if dir == "" {
			raw, err = defaultData.ReadFile("data/" + name)
		} else {
			raw, err = os.ReadFile(filepath.Join(dir, name))
		}
		if err != nil {
			return nil, fmt.Errorf("knowledge: read %s: %w", name, err)
		}

		var facts Facts
		if err := json.Unmarshal(raw, &facts); err != nil {
			return nil, fmt.Errorf("knowledge: parse %s: %w", name, err)
		}
		if facts.Language == "" {
			facts.Language = lang
		}
		base.facts[lang] = facts
	}
	return base, nil
}

// ForLanguage returns the facts for lang, falling back to Spanish.
func (b *Base) ForLanguage(lang string) Facts {
	if facts, ok := b.facts[lang]; ok {
		return facts
	}
	return b.facts[LangSpanish]
}

// Activity looks up one activity by id in the given language.
func (b *Base) Activity(lang, id string) (Activity, bool) {
	for _, a := range b.ForLanguage(lang).Activities {
		if a.ID == id {
			return a, true
		}
	}
	return Activity{}, false
}

// Snapshot serializes the language's facts to JSON for prompt grounding,
// truncated to maxBytes.
func (b *Base) Snapshot(lang string, maxBytes int) string {
	data, err := json.Marshal(b.ForLanguage(lang))
	if err != nil {
		return ""
	}
	if maxBytes > 0 && len(data) > maxBytes {
		cut := maxBytes
		// Back off so the cut never splits a multi-byte rune.
		for cut > 0 && !utf8.RuneStart(data[cut]) {
			cut--
		}
		data = data[:cut]
	}
	return string(data)
}
