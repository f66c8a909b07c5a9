package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/dental-reception/internal/logging"
	redisclient "github.com/hackgods/dental-reception/internal/redis"
)

const (
	EventAppointmentBooked    = "APPOINTMENT_BOOKED"
	EventAppointmentConfirmed = "APPOINTMENT_CONFIRMED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentExpired   = "APPOINTMENT_EXPIRED"
)

type Service struct {
	repo           Repository
	locker         redisclient.Locker
	appointmentTTL time.Duration
	logger         *logging.Logger
}

func NewService(repo Repository, locker redisclient.Locker, appointmentTTL time.Duration, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:           repo,
		locker:         locker,
		appointmentTTL: appointmentTTL,
		logger:         logger,
	}
}

// CheckAvailability reports whether [start, end) is free on the resource.
// The answer is advisory only: Book re-checks inside its critical section,
// because a concurrent session may take the window in between.
func (s *Service) CheckAvailability(ctx context.Context, resourceID string, start, end time.Time) error {
	if !start.Before(end) {
		return ErrInvalidWindow
	}

	existing, err := s.repo.FindOverlapping(ctx, resourceID, start, end, time.Now())
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil
		}
		return fmt.Errorf("check availability: %w", err)
	}
	return &ConflictError{Existing: existing}
}

// Book reserves [start, end) for the patient as a pending appointment. The
// overlap check and the insert run under a per-resource lock so two sessions
// racing on the same window cannot both succeed; the loser gets a
// ConflictError (or ErrSlotBeingBooked when it could not even enter the
// critical section).
func (s *Service) Book(ctx context.Context, patientID uuid.UUID, resourceID string, start, end time.Time, reason string) (*Appointment, error) {
	if !start.Before(end) {
		return nil, ErrInvalidWindow
	}

	var created *Appointment

	err := s.locker.WithCalendarLock(ctx, resourceID, func(lockCtx context.Context) error {
		existing, err := s.repo.FindOverlapping(lockCtx, resourceID, start, end, time.Now())
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			return fmt.Errorf("check overlap: %w", err)
		}
		if existing != nil {
			return &ConflictError{Existing: existing}
		}

		expiresAt := time.Now().Add(s.appointmentTTL)
		appt, err := s.repo.CreatePending(lockCtx, &Appointment{
			ID:         uuid.New(),
			PatientID:  patientID,
			ResourceID: resourceID,
			SlotStart:  start,
			SlotEnd:    end,
			Reason:     reason,
			ExpiresAt:  &expiresAt,
		})
		if err != nil {
			return fmt.Errorf("create pending appointment: %w", err)
		}

		created = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentBooked, map[string]any{
			"patient_id": patientID.String(),
			"resource":   resourceID,
			"slot_start": start,
			"slot_end":   end,
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	return created, nil
}

// Confirm moves a pending appointment to confirmed. Confirming an
// already-confirmed appointment returns it unchanged.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	switch appt.Status {
	case StatusConfirmed:
		return appt, nil
	case StatusCancelled:
		return nil, ErrInvalidStatusTransition
	case StatusExpired:
		return nil, ErrAppointmentExpired
	}

	now := time.Now()
	if appt.ExpiresAt != nil && appt.ExpiresAt.Before(now) {
		if _, updErr := s.repo.UpdateStatus(ctx, appt.ID, StatusPending, StatusExpired); updErr != nil && !errors.Is(updErr, ErrAppointmentNotFound) {
			s.logger.Error("failed to mark appointment expired during confirm", "appointment_id", appt.ID, "error", updErr)
		}
		s.logEvent(ctx, appt.ID, EventAppointmentExpired, map[string]any{
			"reason": "confirm_after_expiry",
		})
		return nil, ErrAppointmentExpired
	}

	updated, err := s.repo.UpdateStatus(ctx, appt.ID, StatusPending, StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("confirm appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentConfirmed, map[string]any{})

	return updated, nil
}

// Cancel moves a pending or confirmed appointment to cancelled, freeing its
// window. Cancelling an already-cancelled or expired appointment returns the
// record unchanged.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	switch appt.Status {
	case StatusCancelled, StatusExpired:
		return appt, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, appt.ID, appt.Status, StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentCancelled, map[string]any{})

	return updated, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// ListByPatient retrieves a patient's appointments, most recent slot first.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	appointments, err := s.repo.ListByPatient(ctx, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return appointments, nil
}

// ExpireOverdue is called by the reaper worker periodically. Pending rows
// whose hold lapsed stop blocking conflict checks immediately; this pass
// records the terminal status.
func (s *Service) ExpireOverdue(ctx context.Context) error {
	now := time.Now()
	candidates, err := s.repo.FindExpiredPending(ctx, now)
	if err != nil {
		return fmt.Errorf("find expired pending appointments: %w", err)
	}

	for _, appt := range candidates {
		_, err := s.repo.UpdateStatus(ctx, appt.ID, StatusPending, StatusExpired)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			s.logger.Error("failed to expire appointment", "appointment_id", appt.ID, "error", err)
			continue
		}
		s.logEvent(ctx, appt.ID, EventAppointmentExpired, map[string]any{
			"reason": "reaper",
		})
	}

	return nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal event payload", "event_type", eventType, "error", err)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Error("failed to insert event log", "event_type", eventType, "appointment_id", appointmentID, "error", err)
	}
}
