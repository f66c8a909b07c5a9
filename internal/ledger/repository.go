package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrInvalidWindow           = errors.New("slot end must be after slot start")
	ErrSlotBeingBooked         = errors.New("slot is currently being booked, please retry")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrAppointmentExpired      = errors.New("appointment hold has expired")
)

// Repository contains all DB interactions needed by the ledger service.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// FindOverlapping returns the first appointment on the resource that is
	// still active at now and overlaps [start, end). ErrAppointmentNotFound
	// means the window is free.
	FindOverlapping(ctx context.Context, resourceID string, start, end, now time.Time) (*Appointment, error)

	CreatePending(ctx context.Context, a *Appointment) (*Appointment, error)
	// UpdateStatus is a compare-and-set: the row moves from → to or the call
	// returns ErrAppointmentNotFound.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]Appointment, error)

	// Reaper support.
	FindExpiredPending(ctx context.Context, now time.Time) ([]Appointment, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
