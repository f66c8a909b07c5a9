package patient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeContact(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"email lowercased", "Dana.Lee@Example.COM", "dana.lee@example.com"},
		{"email inner spaces stripped", " dana . lee @ example.com ", "dana.lee@example.com"},
		{"plain digits", "9876543210", "9876543210"},
		{"phone with separators", "98 76 543-210", "9876543210"},
		{"phone with parens", "(987) 654-3210", "9876543210"},
		{"leading plus kept", "+1 987 654 3210", "+19876543210"},
		{"inner plus dropped", "987+654", "987654"},
		{"not phone shaped", "Ask For Dana", "ask for dana"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeContact(tt.in))
		})
	}
}
