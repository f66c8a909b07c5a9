// Package workflow drives the multi-turn booking dialogue for a single
// session: collect the patient, collect a conflict-free slot, confirm, then
// commit to the ledger and notify the calendar sink.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/dental-reception/internal/calendar"
	"github.com/hackgods/dental-reception/internal/ledger"
	"github.com/hackgods/dental-reception/internal/logging"
	"github.com/hackgods/dental-reception/internal/nlu"
	"github.com/hackgods/dental-reception/internal/patient"
	"github.com/hackgods/dental-reception/internal/session"
)

// Config carries the booking policy knobs.
type Config struct {
	ResourceID    string        // calendar resource bookings are held against
	DefaultSpan   time.Duration // slot length when the caller gives only a start
	ConfidenceMin float64       // extracted fields below this are ignored
	Location      *time.Location
}

// Engine executes one turn of the booking state machine. It mutates the
// passed session state; callers persist the state only when no error is
// returned, so a persistence failure leaves the dialogue where it was.
type Engine struct {
	patients *patient.Service
	appts    *ledger.Service
	pusher   calendar.Pusher
	cfg      Config
	logger   *logging.Logger
}

func NewEngine(patients *patient.Service, appts *ledger.Service, pusher calendar.Pusher, cfg Config, logger *logging.Logger) *Engine {
	if cfg.DefaultSpan <= 0 {
		cfg.DefaultSpan = 30 * time.Minute
	}
	if cfg.ResourceID == "" {
		cfg.ResourceID = "chair-1"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		patients: patients,
		appts:    appts,
		pusher:   pusher,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start opens the booking dialogue. The opening turn often already carries
// identity or slot candidates, so it is processed immediately.
func (e *Engine) Start(ctx context.Context, st *session.State, turn nlu.Turn) (string, error) {
	st.Stage = session.StageCollectingPatient
	if st.PatientID != uuid.Nil {
		// A lookup earlier in the session already resolved the caller.
		st.Stage = session.StageCollectingSlot
	}
	return e.Advance(ctx, st, turn)
}

// Advance feeds one classified turn into the state machine and returns the
// reply to speak. Errors are persistence-level only; every expected condition
// (conflict, missing field, unknown patient) is answered conversationally.
func (e *Engine) Advance(ctx context.Context, st *session.State, turn nlu.Turn) (string, error) {
	if nlu.IsExit(turn.Text) {
		st.Stage = session.StageAbandoned
		st.ResetBooking()
		return "No problem, I've stopped the booking. Is there anything else I can help you with?", nil
	}

	switch st.Stage {
	case session.StageCollectingPatient:
		return e.collectPatient(ctx, st, turn)
	case session.StageCollectingSlot:
		return e.collectSlot(ctx, st, turn)
	case session.StageAwaitingConfirmation:
		return e.awaitConfirmation(ctx, st, turn)
	default:
		return "", fmt.Errorf("workflow advanced in terminal stage %q", st.Stage)
	}
}

func (e *Engine) collectPatient(ctx context.Context, st *session.State, turn nlu.Turn) (string, error) {
	if turn.Usable(e.cfg.ConfidenceMin) {
		if turn.Fields.FullName != "" {
			st.PendingName = turn.Fields.FullName
		}
		if turn.Fields.Contact != "" {
			st.PendingContact = turn.Fields.Contact
		}
		if turn.Fields.Reason != "" {
			st.Reason = turn.Fields.Reason
		}
	}

	if st.PendingContact == "" {
		return "I'd be happy to book that for you. Could you give me a phone number or email so I can look you up?", nil
	}

	found, err := e.patients.FindByContact(ctx, st.PendingContact)
	switch {
	case err == nil:
		st.PatientID = found.ID
		st.PatientName = found.FullName
		st.Stage = session.StageCollectingSlot

		greeting := fmt.Sprintf("Welcome back, %s! ", found.FullName)
		reply, err := e.tryCandidateSlot(ctx, st, turn)
		if err != nil {
			return "", err
		}
		return greeting + reply, nil

	case errors.Is(err, patient.ErrPatientNotFound):
		if st.PendingName == "" {
			return "I don't have that contact on file yet. What's your full name so I can create your profile?", nil
		}

		created, err := e.patients.Register(ctx, st.PendingName, st.PendingContact)
		if err != nil {
			return "", fmt.Errorf("register patient: %w", err)
		}
		st.PatientID = created.ID
		st.PatientName = created.FullName
		st.Stage = session.StageCollectingSlot

		greeting := fmt.Sprintf("Nice to meet you, %s! I've created your profile. ", created.FullName)
		reply, err := e.tryCandidateSlot(ctx, st, turn)
		if err != nil {
			return "", err
		}
		return greeting + reply, nil

	case errors.Is(err, patient.ErrContactRequired):
		st.PendingContact = ""
		return "I couldn't quite catch that contact. Could you repeat your phone number or email?", nil

	default:
		return "", err
	}
}

func (e *Engine) collectSlot(ctx context.Context, st *session.State, turn nlu.Turn) (string, error) {
	if turn.Usable(e.cfg.ConfidenceMin) && turn.Fields.Reason != "" {
		st.Reason = turn.Fields.Reason
	}
	return e.tryCandidateSlot(ctx, st, turn)
}

// tryCandidateSlot checks whatever slot candidate the turn carried against
// the ledger. A conflict keeps the stage and names the blocked window --
// the workflow never silently picks an alternative.
func (e *Engine) tryCandidateSlot(ctx context.Context, st *session.State, turn nlu.Turn) (string, error) {
	if !turn.Usable(e.cfg.ConfidenceMin) {
		return "What day and time would suit you for the appointment?", nil
	}

	start, ok := nlu.ParseSlotStart(turn.Fields, e.cfg.Location)
	if !ok {
		hasDate, hasTime := nlu.HasPartialSlot(turn.Fields)
		switch {
		case hasDate && !hasTime:
			return "Got the date. What time of day works for you?", nil
		case hasTime && !hasDate:
			return "Got the time. Which day would you like to come in?", nil
		default:
			return "What day and time would suit you for the appointment?", nil
		}
	}

	end := start.Add(e.cfg.DefaultSpan)

	err := e.appts.CheckAvailability(ctx, e.cfg.ResourceID, start, end)
	var conflict *ledger.ConflictError
	switch {
	case err == nil:
		st.SlotStart = start
		st.SlotEnd = end
		st.Stage = session.StageAwaitingConfirmation
		return fmt.Sprintf("%s is available. Shall I book it for you?", formatWindow(start, end)), nil

	case errors.As(err, &conflict):
		st.ResetBooking()
		return fmt.Sprintf("I'm sorry, %s is already taken. Could you pick a different time?",
			formatWindow(conflict.Existing.SlotStart, conflict.Existing.SlotEnd)), nil

	case errors.Is(err, ledger.ErrInvalidWindow):
		return "That time didn't come through right. Could you give me the day and time again?", nil

	default:
		return "", err
	}
}

func (e *Engine) awaitConfirmation(ctx context.Context, st *session.State, turn nlu.Turn) (string, error) {
	switch {
	case nlu.IsAffirmative(turn.Text):
		return e.commit(ctx, st)

	case nlu.IsNegative(turn.Text):
		st.Stage = session.StageCollectingSlot
		st.ResetBooking()
		return "Of course. What other day and time would work for you?", nil

	default:
		// Maybe they offered a different slot instead of answering.
		if _, ok := nlu.ParseSlotStart(turn.Fields, e.cfg.Location); ok && turn.Usable(e.cfg.ConfidenceMin) {
			st.Stage = session.StageCollectingSlot
			st.ResetBooking()
			return e.tryCandidateSlot(ctx, st, turn)
		}
		return fmt.Sprintf("Just to confirm: shall I book %s? A simple yes or no is fine.",
			formatWindow(st.SlotStart, st.SlotEnd)), nil
	}
}

// commit books and confirms in one logical step. The pending row exists only
// for the instant between the two calls; abandoned dialogues therefore never
// leave rows behind.
func (e *Engine) commit(ctx context.Context, st *session.State) (string, error) {
	appt, err := e.appts.Book(ctx, st.PatientID, e.cfg.ResourceID, st.SlotStart, st.SlotEnd, st.Reason)

	var conflict *ledger.ConflictError
	switch {
	case errors.As(err, &conflict):
		// Lost the race to a concurrent session.
		st.Stage = session.StageCollectingSlot
		st.ResetBooking()
		return fmt.Sprintf("I'm sorry, %s was just taken by another booking. Could you pick a different time?",
			formatWindow(conflict.Existing.SlotStart, conflict.Existing.SlotEnd)), nil

	case errors.Is(err, ledger.ErrSlotBeingBooked):
		return "The calendar is busy for a moment. Could you say yes again in a few seconds?", nil

	case err != nil:
		return "", err
	}

	confirmed, err := e.appts.Confirm(ctx, appt.ID)
	if err != nil {
		// The pending hold will be reaped; nothing is double-booked.
		return "", fmt.Errorf("confirm appointment %s: %w", appt.ID, err)
	}

	st.Stage = session.StageCommitted
	st.ResetBooking()

	if e.pusher != nil {
		pushErr := e.pusher.Push(ctx, calendar.Event{
			AppointmentID: confirmed.ID,
			PatientID:     confirmed.PatientID,
			PatientName:   st.PatientName,
			Reason:        confirmed.Reason,
			SlotStart:     confirmed.SlotStart,
			SlotEnd:       confirmed.SlotEnd,
		})
		if pushErr != nil {
			// Non-fatal: the booking is authoritative once confirmed.
			e.logger.Error("calendar push failed", "appointment_id", confirmed.ID, "error", pushErr)
		}
	}

	return fmt.Sprintf("Perfect! Your appointment is confirmed for %s. Is there anything else I can help you with?",
		formatWindow(confirmed.SlotStart, confirmed.SlotEnd)), nil
}

func formatWindow(start, end time.Time) string {
	return fmt.Sprintf("%s–%s", start.Format("2006-01-02 15:04"), end.Format("15:04"))
}
