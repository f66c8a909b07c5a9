package nlu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlotStartCombined(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-09-01T10:00:00Z", time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)},
		{"2026-09-01 10:00", time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)},
		{"1 Sep 2026 14:30", time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC)},
		{"Sep 1 2026 2:30PM", time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, ok := ParseSlotStart(Fields{DateTime: tt.in}, time.UTC)
		require.True(t, ok, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %s", tt.in, got)
	}
}

func TestParseSlotStartComposed(t *testing.T) {
	tests := []struct {
		date, clock string
		want        time.Time
	}{
		{"2026-09-01", "10:00", time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)},
		{"1 Sep 2026", "10am", time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)},
		{"01/09/2026", "2:30 PM", time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC)},
		{"September 1 2026", "15:04", time.Date(2026, 9, 1, 15, 4, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, ok := ParseSlotStart(Fields{Date: tt.date, Time: tt.clock}, time.UTC)
		require.True(t, ok, "%s %s", tt.date, tt.clock)
		assert.True(t, tt.want.Equal(got), "%s %s: got %s", tt.date, tt.clock, got)
	}
}

func TestParseSlotStartLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	got, ok := ParseSlotStart(Fields{Date: "2026-09-01", Time: "10:00"}, loc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 9, 1, 10, 0, 0, 0, loc).Unix(), got.Unix())
}

func TestParseSlotStartIncomplete(t *testing.T) {
	_, ok := ParseSlotStart(Fields{}, time.UTC)
	assert.False(t, ok)

	_, ok = ParseSlotStart(Fields{Date: "2026-09-01"}, time.UTC)
	assert.False(t, ok)

	_, ok = ParseSlotStart(Fields{Time: "10:00"}, time.UTC)
	assert.False(t, ok)

	_, ok = ParseSlotStart(Fields{Date: "next tuesday", Time: "10:00"}, time.UTC)
	assert.False(t, ok)

	_, ok = ParseSlotStart(Fields{DateTime: "whenever works"}, time.UTC)
	assert.False(t, ok)
}

func TestHasPartialSlot(t *testing.T) {
	hasDate, hasTime := HasPartialSlot(Fields{Date: "2026-09-01"})
	assert.True(t, hasDate)
	assert.False(t, hasTime)

	hasDate, hasTime = HasPartialSlot(Fields{Time: "10am"})
	assert.False(t, hasDate)
	assert.True(t, hasTime)

	hasDate, hasTime = HasPartialSlot(Fields{DateTime: "2026-09-01 10:00"})
	assert.True(t, hasDate)
	assert.True(t, hasTime)

	hasDate, hasTime = HasPartialSlot(Fields{Date: "garbled"})
	assert.False(t, hasDate)
	assert.False(t, hasTime)
}
