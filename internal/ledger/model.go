package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

type Appointment struct {
	ID         uuid.UUID
	PatientID  uuid.UUID
	ResourceID string // practitioner/chair the slot is held against
	SlotStart  time.Time
	SlotEnd    time.Time
	Reason     string
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ExpiresAt  *time.Time // pending rows only
}

// Active reports whether the appointment still occupies its window: pending
// rows count until they expire, confirmed rows always, cancelled and expired
// rows never.
func (a *Appointment) Active(now time.Time) bool {
	switch a.Status {
	case StatusConfirmed:
		return true
	case StatusPending:
		return a.ExpiresAt == nil || a.ExpiresAt.After(now)
	default:
		return false
	}
}

// Overlaps applies the half-open interval rule: two windows conflict iff
// start1 < end2 && start2 < end1. Touching boundaries do not conflict.
func Overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && start2.Before(end1)
}

// ConflictError reports a requested window colliding with an existing
// appointment. The conflicting window is carried so the dialogue can name it
// instead of surfacing an opaque failure.
type ConflictError struct {
	Existing *Appointment
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot conflicts with existing appointment %s (%s–%s)",
		e.Existing.ID,
		e.Existing.SlotStart.Format("2006-01-02 15:04"),
		e.Existing.SlotEnd.Format("15:04"))
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
