package knowledge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestLoad_EmbeddedDefaults(t *testing.T) {
	base, err := Load("")
	if err != nil {
		t.Fatalf("load embedded defaults: %v", err)
	}

	for _, lang := range []string{LangSpanish, LangEnglish} {
		facts := base.ForLanguage(lang)
		if facts.Language != lang {
			t.Errorf("expected language %s, got %s", lang, facts.Language)
		}
		if len(facts.Activities) == 0 {
			t.Errorf("%s: no activities loaded", lang)
		}
		if facts.Contact.BookingURL == "" {
			t.Errorf("%s: missing booking URL", lang)
		}
	}
}

func TestLoad_ActivityOrderIsDetectionPriority(t *testing.T) {
	base, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	acts := base.ForLanguage(LangSpanish).Activities
	if len(acts) < 3 {
		t.Fatalf("expected at least 3 activities, got %d", len(acts))
	}
	// The try dive must outrank guided dives, which outrank the course.
	order := []string{"first_dive", "guided_dives", "open_water_course"}
	for i, id := range order {
		if acts[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, acts[i].ID)
		}
	}
}

func TestLoad_DirOverride(t *testing.T) {
	dir := t.TempDir()
	facts := Facts{
		Language: "es",
		Center:   "centro de pruebas",
		Activities: []Activity{
			{ID: "first_dive", Name: "Bautismo", Keywords: []string{"bautismo"}},
		},
		Contact: Contact{BookingURL: "https://example.com/book"},
	}
	for _, lang := range []string{"es", "en"} {
		facts.Language = lang
		raw, _ := json.Marshal(facts)
		if err := os.WriteFile(filepath.Join(dir, "knowledge."+lang+".json"), raw, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	base, err := Load(dir)
	if err != nil {
		t.Fatalf("load from dir: %v", err)
	}
	if base.ForLanguage("es").Center != "centro de pruebas" {
		t.Errorf("override not applied: %s", base.ForLanguage("es").Center)
	}
}

func TestLoad_MissingFileInDir(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("expected error for empty knowledge dir")
	}
}

func TestForLanguage_UnknownFallsBackToSpanish(t *testing.T) {
	base, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := base.ForLanguage("fr").Language; got != LangSpanish {
		t.Errorf("expected fallback to es, got %s", got)
	}
}

func TestActivity_Lookup(t *testing.T) {
	base, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	act, ok := base.Activity(LangEnglish, "open_water_course")
	if !ok {
		t.Fatal("open_water_course not found")
	}
	if !strings.Contains(act.Name, "Open Water") {
		t.Errorf("unexpected activity name: %s", act.Name)
	}

	if _, ok := base.Activity(LangEnglish, "night_dive"); ok {
		t.Error("unknown activity id should not resolve")
	}
}

func TestSnapshot_TruncatesToBound(t *testing.T) {
	base, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	full := base.Snapshot(LangSpanish, 0)
	if len(full) == 0 {
		t.Fatal("empty snapshot")
	}
	bounded := base.Snapshot(LangSpanish, 100)
	if len(bounded) > 100 {
		t.Errorf("expected at most 100 bytes, got %d", len(bounded))
	}
	if len(bounded) < 97 {
		t.Errorf("expected the cut to stay near the bound, got %d bytes", len(bounded))
	}
	if !strings.HasPrefix(full, bounded) {
		t.Error("bounded snapshot is not a prefix of the full snapshot")
	}
}

func TestSnapshot_NeverSplitsRunes(t *testing.T) {
	base, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// The Spanish facts are accent-heavy, so sweeping the bound across a
	// range of offsets lands cuts inside multi-byte runes.
	full := base.Snapshot(LangSpanish, 0)
	for maxBytes := 50; maxBytes < 200; maxBytes++ {
		snap := base.Snapshot(LangSpanish, maxBytes)
		if !utf8.ValidString(snap) {
			t.Fatalf("maxBytes=%d produced invalid UTF-8: %q", maxBytes, snap)
		}
		if len(snap) > maxBytes {
			t.Fatalf("maxBytes=%d exceeded: got %d bytes", maxBytes, len(snap))
		}
	}
	if !utf8.ValidString(full) {
		t.Fatal("full snapshot is not valid UTF-8")
	}
}
