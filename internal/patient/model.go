package patient

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

type Patient struct {
	ID        uuid.UUID
	FullName  string
	Contact   string // normalized phone or email, unique across patients
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeContact folds a phone number or email into its canonical lookup
// form: lowercased, trimmed, inner whitespace collapsed. Phone-like contacts
// are reduced to their digits (keeping a leading +) so that voice
// transcriptions such as "98 76 543-210" match "9876543210".
func NormalizeContact(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	if strings.ContainsRune(s, '@') {
		return strings.Join(strings.Fields(s), "")
	}

	var b strings.Builder
	for i, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		// Not phone-shaped after all; fall back to whitespace folding.
		return strings.Join(strings.Fields(s), " ")
	}
	return b.String()
}
