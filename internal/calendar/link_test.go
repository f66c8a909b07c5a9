package calendar

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLink(t *testing.T) {
	ev := Event{
		AppointmentID: uuid.New(),
		PatientID:     uuid.New(),
		PatientName:   "Dana Lee",
		Reason:        "tooth cleaning",
		SlotStart:     time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		SlotEnd:       time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC),
	}

	link := EventLink(ev, "Smile Dental Clinic", "12 Main St")
	require.True(t, strings.HasPrefix(link, "https://calendar.google.com/calendar/render?action=TEMPLATE"))

	u, err := url.Parse(link)
	require.NoError(t, err)
	q := u.Query()

	assert.Equal(t, "Dental Appointment - tooth cleaning", q.Get("text"))
	assert.Equal(t, "20260901T100000Z/20260901T103000Z", q.Get("dates"))
	assert.Equal(t, "Appointment for Dana Lee at Smile Dental Clinic", q.Get("details"))
	assert.Equal(t, "12 Main St", q.Get("location"))
}

func TestEventLinkDefaults(t *testing.T) {
	ev := Event{
		SlotStart: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		SlotEnd:   time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC),
	}

	u, err := url.Parse(EventLink(ev, "Smile Dental Clinic", ""))
	require.NoError(t, err)
	q := u.Query()

	assert.Equal(t, "Dental Appointment", q.Get("text"))
	assert.False(t, q.Has("location"))
}

func TestEventLinkConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	ev := Event{
		SlotStart: time.Date(2026, 9, 1, 15, 30, 0, 0, loc),
		SlotEnd:   time.Date(2026, 9, 1, 16, 0, 0, 0, loc),
	}

	u, err := url.Parse(EventLink(ev, "Smile Dental Clinic", ""))
	require.NoError(t, err)
	assert.Equal(t, "20260901T100000Z/20260901T103000Z", u.Query().Get("dates"))
}
