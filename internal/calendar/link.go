// Package calendar is the outbound push sink for committed bookings. The
// clinic calendar receives a pre-filled Google Calendar event link; delivery
// failures never roll back the ledger, since the booking is authoritative
// once confirmed.
package calendar

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Event is the record handed to the sink on every committed booking.
type Event struct {
	AppointmentID uuid.UUID
	PatientID     uuid.UUID
	PatientName   string
	Reason        string
	SlotStart     time.Time
	SlotEnd       time.Time
}

const renderBase = "https://calendar.google.com/calendar/render?action=TEMPLATE"

// EventLink builds a Google Calendar "create event" URL pre-filled with the
// booking. Times are rendered in UTC Z-format as the calendar API expects.
func EventLink(ev Event, clinicName, location string) string {
	title := fmt.Sprintf("Dental Appointment - %s", ev.Reason)
	if ev.Reason == "" {
		title = "Dental Appointment"
	}

	dates := fmt.Sprintf("%s/%s",
		ev.SlotStart.UTC().Format("20060102T150405Z"),
		ev.SlotEnd.UTC().Format("20060102T150405Z"))

	details := fmt.Sprintf("Appointment for %s at %s", ev.PatientName, clinicName)

	v := url.Values{}
	v.Set("text", title)
	v.Set("dates", dates)
	v.Set("details", details)
	if location != "" {
		v.Set("location", location)
	}

	return renderBase + "&" + v.Encode()
}
