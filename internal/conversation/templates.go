package conversation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nereadiving/dive-ai-assistant/internal/knowledge"
)

// Deterministic per-language texts. The guided flow and every failure path
// answer from these templates, never from the generation client.

func greeting(lang string) string {
	if lang == knowledge.LangEnglish {
		return "Hi! I'm the Nerea Diving assistant."
	}
	return "¡Hola! Soy el asistente de Nerea Diving."
}

func askNamePrompt(lang string) string {
	if lang == knowledge.LangEnglish {
		return "Great! To get your booking started, what's your name?"
	}
	return "¡Genial! Para empezar con tu reserva, ¿cómo te llamas?"
}

func reAskNamePrompt(lang string) string {
	if lang == knowledge.LangEnglish {
		return "Sorry, I didn't catch your name. Could you write it again?"
	}
	return "Perdona, no me ha quedado claro tu nombre. ¿Me lo escribes otra vez?"
}

func askContactPrompt(lang, name string) string {
	if lang == knowledge.LangEnglish {
		return fmt.Sprintf("Thanks, %s! What's the best phone number or email to reach you?", name)
	}
	return fmt.Sprintf("¡Gracias, %s! ¿Qué teléfono o email usamos para contactarte?", name)
}

func confirmationText(lang, name, activityName, bookingURL string) string {
	if lang == knowledge.LangEnglish {
		if activityName != "" {
			return fmt.Sprintf("Perfect, %s! We've noted your interest in the %s and will get in touch shortly. You can also book directly at %s.", name, activityName, bookingURL)
		}
		return fmt.Sprintf("Perfect, %s! We'll get in touch shortly to arrange your activity. You can also book directly at %s.", name, bookingURL)
	}
	if activityName != "" {
		return fmt.Sprintf("¡Perfecto, %s! Hemos anotado tu interés en %s y te contactaremos muy pronto. También puedes reservar directamente en %s.", name, activityName, bookingURL)
	}
	return fmt.Sprintf("¡Perfecto, %s! Te contactaremos muy pronto para organizar tu actividad. También puedes reservar directamente en %s.", name, bookingURL)
}

// activityFallback composes a sentence from the activity's known facts when
// the generation client is unavailable.
func activityFallback(lang string, act knowledge.Activity, contact knowledge.Contact) string {
	if lang == knowledge.LangEnglish {
		return fmt.Sprintf("%s: %s Price: %s. Requirements: %s You can book at %s or call us on %s.",
			act.Name, act.Description, act.Price, act.Requirements, contact.BookingURL, contact.Phone)
	}
	return fmt.Sprintf("%s: %s Precio: %s. Requisitos: %s Puedes reservar en %s o llamarnos al %s.",
		act.Name, act.Description, act.Price, act.Requirements, contact.BookingURL, contact.Phone)
}

// genericFallback summarizes what the center offers when no activity has
// been detected yet.
func genericFallback(lang string, facts knowledge.Facts) string {
	names := make([]string, 0, len(facts.Activities))
	for _, a := range facts.Activities {
		names = append(names, a.Name)
	}
	list := strings.Join(names, ", ")
	if lang == knowledge.LangEnglish {
		return fmt.Sprintf("We offer: %s. Ask me about any of them, book at %s, or call us on %s.",
			list, facts.Contact.BookingURL, facts.Contact.Phone)
	}
	return fmt.Sprintf("Ofrecemos: %s. Pregúntame por cualquiera de ellas, reserva en %s o llámanos al %s.",
		list, facts.Contact.BookingURL, facts.Contact.Phone)
}

func clarifyingPrompt(lang string) string {
	if lang == knowledge.LangEnglish {
		return "I didn't receive your message. What would you like to know about our dives and courses?"
	}
	return "No me ha llegado tu mensaje. ¿Qué te gustaría saber sobre nuestras inmersiones y cursos?"
}

// greetingPrefixes are leading phrases the model tends to open replies with.
// They are stripped so the session greets at most once.
var greetingPrefixes = map[string][]string{
	"es": {"¡hola!", "hola!", "hola,", "hola.", "hola ", "¡buenas!", "buenas,", "buenas!", "buenos dias,", "buenos días,", "buenas tardes,"},
	"en": {"hello there,", "hello!", "hello,", "hello.", "hello ", "hi there,", "hi!", "hi,", "hi.", "hi ", "hey!", "hey,", "good morning,", "good afternoon,"},
}

// stripLeadingGreeting removes one leading greeting phrase from generated
// text to prevent greeting duplication across turns.
func stripLeadingGreeting(lang, text string) string {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	for _, prefix := range greetingPrefixes[lang] {
		if strings.HasPrefix(lower, prefix) {
			rest := strings.TrimSpace(trimmed[len(prefix):])
			return capitalize(rest)
		}
	}
	return trimmed
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
