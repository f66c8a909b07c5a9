// Package nlu defines the boundary with the external language-understanding
// collaborator. The core never runs a model itself: each turn arrives already
// classified, together with whatever field candidates the collaborator could
// extract. Low-confidence turns are treated as carrying no fields at all.
package nlu

import "strings"

// Intent is the closed set of routing tags. Anything else falls through to
// general chat.
type Intent string

const (
	IntentNewPatient  Intent = "new_patient"
	IntentLookup      Intent = "lookup"
	IntentBook        Intent = "book"
	IntentGeneralChat Intent = "general_chat"
)

// ParseIntent maps a raw tag onto the closed set, defaulting to general chat
// so a misbehaving classifier can never surface an internal error.
func ParseIntent(raw string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(raw))) {
	case IntentNewPatient:
		return IntentNewPatient
	case IntentLookup:
		return IntentLookup
	case IntentBook:
		return IntentBook
	default:
		return IntentGeneralChat
	}
}

// Fields are the candidates extracted from a single turn. Any of them may be
// empty or malformed; the workflow re-prompts rather than guessing.
type Fields struct {
	FullName string `json:"full_name,omitempty"`
	Contact  string `json:"contact,omitempty"`
	Date     string `json:"date,omitempty"`     // e.g. "2024-06-01", "1 Jun 2024"
	Time     string `json:"time,omitempty"`     // e.g. "10:00", "10am"
	DateTime string `json:"datetime,omitempty"` // combined form, when the collaborator resolved one
	Reason   string `json:"reason,omitempty"`   // visit reason, optional
}

// Turn is one classified conversational turn.
type Turn struct {
	Text       string  `json:"text"`
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Fields     Fields  `json:"fields"`
}

// Usable reports whether extracted fields should be trusted at all. Below the
// threshold the turn is handled as if nothing was extracted.
func (t Turn) Usable(minConfidence float64) bool {
	return t.Confidence >= minConfidence
}

var affirmatives = map[string]struct{}{
	"yes": {}, "yeah": {}, "yep": {}, "sure": {}, "ok": {}, "okay": {},
	"confirm": {}, "confirmed": {}, "correct": {}, "right": {}, "please": {},
	"yes please": {}, "sounds good": {}, "that works": {}, "perfect": {},
}

var negatives = map[string]struct{}{
	"no": {}, "nope": {}, "nah": {}, "not really": {}, "no thanks": {},
	"different time": {}, "another time": {}, "change": {}, "wrong": {},
}

var exits = []string{
	"cancel", "never mind", "nevermind", "forget it", "stop", "quit", "exit",
	"don't book", "do not book",
}

func normalizeUtterance(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	return strings.Trim(s, ".!?, ")
}

// IsAffirmative recognizes a confirmation utterance.
func IsAffirmative(text string) bool {
	_, ok := affirmatives[normalizeUtterance(text)]
	return ok
}

// IsNegative recognizes a rejection of the offered slot.
func IsNegative(text string) bool {
	_, ok := negatives[normalizeUtterance(text)]
	return ok
}

// IsExit recognizes an explicit request to abandon the booking dialogue.
func IsExit(text string) bool {
	s := normalizeUtterance(text)
	for _, kw := range exits {
		if s == kw || strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
