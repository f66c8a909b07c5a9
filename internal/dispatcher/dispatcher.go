// Package dispatcher routes each conversational turn to the patient
// registry, the booking workflow, or the general fallback. A session with a
// booking in progress is locked into the workflow until it completes or the
// caller explicitly exits, so an intent misclassification mid-dialogue
// cannot corrupt the transaction.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hackgods/dental-reception/internal/ledger"
	"github.com/hackgods/dental-reception/internal/logging"
	"github.com/hackgods/dental-reception/internal/nlu"
	"github.com/hackgods/dental-reception/internal/patient"
	"github.com/hackgods/dental-reception/internal/session"
	"github.com/hackgods/dental-reception/internal/workflow"
)

const apologyReply = "I'm sorry, something went wrong on my end. Could you please try that again?"

// Reply is the outcome of one dispatched turn.
type Reply struct {
	SessionID string
	Turn      int
	Text      string
	Stage     session.Stage
}

type Dispatcher struct {
	sessions      *session.Store
	patients      *patient.Service
	appts         *ledger.Service
	engine        *workflow.Engine
	fallback      *Fallback
	confidenceMin float64
	logger        *logging.Logger
}

func New(sessions *session.Store, patients *patient.Service, appts *ledger.Service, engine *workflow.Engine, fallback *Fallback, confidenceMin float64, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		sessions:      sessions,
		patients:      patients,
		appts:         appts,
		engine:        engine,
		fallback:      fallback,
		confidenceMin: confidenceMin,
		logger:        logger,
	}
}

// Handle routes one turn. turnNumber is the caller's monotonic counter; a
// repeated number replays the cached reply without re-running any handler,
// which keeps retried deliveries from double-booking. Zero means
// "next turn".
//
// Persistence failures answer with a generic apology and leave the session
// in its last stable state so the same turn can be retried.
func (d *Dispatcher) Handle(ctx context.Context, sessionID string, turnNumber int, turn nlu.Turn) Reply {
	st := d.sessions.Get(sessionID)

	if turnNumber <= 0 {
		turnNumber = st.LastTurn + 1
	}
	if turnNumber == st.LastTurn && st.LastReply != "" {
		return Reply{SessionID: sessionID, Turn: turnNumber, Text: st.LastReply, Stage: st.Stage}
	}

	text, err := d.route(ctx, &st, turn)
	if err != nil {
		d.logger.Error("turn handling failed", "session_id", sessionID, "turn", turnNumber, "error", err)
		return Reply{SessionID: sessionID, Turn: turnNumber, Text: apologyReply, Stage: st.Stage}
	}

	st.LastTurn = turnNumber
	st.LastReply = text

	// A finished workflow unlocks the session; the resolved patient is kept
	// for follow-up requests.
	if st.Stage == session.StageCommitted || st.Stage == session.StageAbandoned {
		st.Stage = session.StageIdle
	}

	d.sessions.Put(st)

	return Reply{SessionID: sessionID, Turn: turnNumber, Text: text, Stage: st.Stage}
}

func (d *Dispatcher) route(ctx context.Context, st *session.State, turn nlu.Turn) (string, error) {
	if st.Stage.InWorkflow() {
		return d.engine.Advance(ctx, st, turn)
	}

	switch nlu.ParseIntent(string(turn.Intent)) {
	case nlu.IntentBook:
		return d.engine.Start(ctx, st, turn)
	case nlu.IntentNewPatient:
		return d.register(ctx, st, turn)
	case nlu.IntentLookup:
		return d.lookup(ctx, st, turn)
	default:
		return d.fallback.Reply(turn.Text), nil
	}
}

func (d *Dispatcher) register(ctx context.Context, st *session.State, turn nlu.Turn) (string, error) {
	if turn.Usable(d.confidenceMin) {
		if turn.Fields.FullName != "" {
			st.PendingName = turn.Fields.FullName
		}
		if turn.Fields.Contact != "" {
			st.PendingContact = turn.Fields.Contact
		}
	}

	if st.PendingName == "" {
		return "I'd love to get you registered. What's your full name?", nil
	}
	if st.PendingContact == "" {
		return fmt.Sprintf("Thanks, %s. And what's the best phone number or email to reach you?", st.PendingName), nil
	}

	p, err := d.patients.Register(ctx, st.PendingName, st.PendingContact)
	if err != nil {
		if errors.Is(err, patient.ErrNameRequired) || errors.Is(err, patient.ErrContactRequired) {
			st.PendingName = ""
			st.PendingContact = ""
			return "I didn't quite catch your details. Could you give me your full name again?", nil
		}
		return "", fmt.Errorf("register: %w", err)
	}

	st.PatientID = p.ID
	st.PatientName = p.FullName

	return fmt.Sprintf("You're all set, %s! Would you like to book an appointment?", p.FullName), nil
}

func (d *Dispatcher) lookup(ctx context.Context, st *session.State, turn nlu.Turn) (string, error) {
	contact := st.PendingContact
	if turn.Usable(d.confidenceMin) && turn.Fields.Contact != "" {
		contact = turn.Fields.Contact
		st.PendingContact = contact
	}

	var (
		p   *patient.Patient
		err error
	)
	switch {
	case st.PatientID != uuid.Nil:
		p, err = d.patients.GetByID(ctx, st.PatientID)
	case contact != "":
		p, err = d.patients.FindByContact(ctx, contact)
	default:
		return "Could you give me the phone number or email you registered with?", nil
	}

	switch {
	case errors.Is(err, patient.ErrPatientNotFound):
		return "I couldn't find a profile with that contact. Would you like to register as a new patient?", nil
	case errors.Is(err, patient.ErrContactRequired):
		st.PendingContact = ""
		return "Could you give me the phone number or email you registered with?", nil
	case err != nil:
		return "", fmt.Errorf("lookup: %w", err)
	}

	st.PatientID = p.ID
	st.PatientName = p.FullName

	appts, err := d.appts.ListByPatient(ctx, p.ID, 10)
	if err != nil {
		return "", fmt.Errorf("list appointments: %w", err)
	}

	return formatAppointments(p.FullName, appts), nil
}

func formatAppointments(name string, appts []ledger.Appointment) string {
	var upcoming []ledger.Appointment
	for _, a := range appts {
		if a.Status == ledger.StatusConfirmed || a.Status == ledger.StatusPending {
			upcoming = append(upcoming, a)
		}
	}

	if len(upcoming) == 0 {
		return fmt.Sprintf("You don't have any appointments scheduled, %s. Would you like to book one?", name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here are your appointments, %s:\n", name)
	for _, a := range upcoming {
		fmt.Fprintf(&b, "• %s at %s", a.SlotStart.Format("2006-01-02"), a.SlotStart.Format("15:04"))
		if a.Reason != "" {
			fmt.Fprintf(&b, " — %s", a.Reason)
		}
		fmt.Fprintf(&b, " (%s)\n", a.Status)
	}
	b.WriteString("Would you like to book another appointment?")
	return b.String()
}
