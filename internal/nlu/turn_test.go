package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntent(t *testing.T) {
	assert.Equal(t, IntentBook, ParseIntent("book"))
	assert.Equal(t, IntentBook, ParseIntent(" Book "))
	assert.Equal(t, IntentNewPatient, ParseIntent("NEW_PATIENT"))
	assert.Equal(t, IntentLookup, ParseIntent("lookup"))
	assert.Equal(t, IntentGeneralChat, ParseIntent("general_chat"))

	// Anything outside the closed set degrades to general chat.
	assert.Equal(t, IntentGeneralChat, ParseIntent(""))
	assert.Equal(t, IntentGeneralChat, ParseIntent("reschedule"))
	assert.Equal(t, IntentGeneralChat, ParseIntent("garbage!!"))
}

func TestUsable(t *testing.T) {
	turn := Turn{Confidence: 0.49}
	assert.False(t, turn.Usable(0.5))
	turn.Confidence = 0.5
	assert.True(t, turn.Usable(0.5))
}

func TestIsAffirmative(t *testing.T) {
	for _, s := range []string{"yes", "Yes!", " YEP ", "sure", "Sounds good.", "okay"} {
		assert.True(t, IsAffirmative(s), s)
	}
	for _, s := range []string{"no", "maybe", "what about 3pm", ""} {
		assert.False(t, IsAffirmative(s), s)
	}
}

func TestIsNegative(t *testing.T) {
	for _, s := range []string{"no", "Nope.", "no thanks", "another time"} {
		assert.True(t, IsNegative(s), s)
	}
	for _, s := range []string{"yes", "hmm", ""} {
		assert.False(t, IsNegative(s), s)
	}
}

func TestIsExit(t *testing.T) {
	for _, s := range []string{"cancel", "Never mind", "forget it", "actually stop please", "don't book it"} {
		assert.True(t, IsExit(s), s)
	}
	for _, s := range []string{"yes", "10am tomorrow", "no"} {
		assert.False(t, IsExit(s), s)
	}
}
