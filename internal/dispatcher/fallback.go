package dispatcher

import "strings"

// Fallback answers non-transactional chat with canned receptionist lines.
// It never touches persisted state.
type Fallback struct {
	clinicName string
}

func NewFallback(clinicName string) *Fallback {
	return &Fallback{clinicName: clinicName}
}

func (f *Fallback) Reply(text string) string {
	s := strings.ToLower(text)

	switch {
	case containsAny(s, "hour", "open", "close", "timing"):
		return "We're open Monday to Saturday, 9am to 6pm. Would you like to book an appointment?"
	case containsAny(s, "where", "address", "location", "directions"):
		return "You'll find us at " + f.clinicName + " — happy to help with directions when you're on your way."
	case containsAny(s, "thank", "thanks"):
		return "You're very welcome! Is there anything else I can help you with?"
	case containsAny(s, "hello", "hi ", "hey"), strings.TrimSpace(s) == "hi":
		return "Hello! Welcome to " + f.clinicName + ". How can I help you today?"
	case containsAny(s, "bye", "goodbye", "see you"):
		return "Goodbye! Take care of that smile."
	default:
		return "I can help you book an appointment, check your appointments, or answer questions about the clinic. What would you like to do?"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
