package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/dental-reception/internal/calendar"
	"github.com/hackgods/dental-reception/internal/ledger"
	"github.com/hackgods/dental-reception/internal/logging"
	"github.com/hackgods/dental-reception/internal/nlu"
	"github.com/hackgods/dental-reception/internal/patient"
	"github.com/hackgods/dental-reception/internal/session"
)

// mutexLocker serializes critical sections in-process, standing in for the
// Redis locker.
type mutexLocker struct {
	mu sync.Mutex
}

func (l *mutexLocker) WithCalendarLock(ctx context.Context, resourceID string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(ctx)
}

// recordingPusher captures pushed events for assertions.
type recordingPusher struct {
	mu     sync.Mutex
	events []calendar.Event
}

func (p *recordingPusher) Push(ctx context.Context, ev calendar.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPusher) pushed() []calendar.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]calendar.Event, len(p.events))
	copy(out, p.events)
	return out
}

type fixture struct {
	engine   *Engine
	patients *patient.Service
	appts    *ledger.Service
	ledger   *ledger.MemoryRepository
	pusher   *recordingPusher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	patients := patient.NewService(patient.NewMemoryRepository())
	repo := ledger.NewMemoryRepository()
	appts := ledger.NewService(repo, &mutexLocker{}, 2*time.Minute, logging.Default())
	pusher := &recordingPusher{}

	engine := NewEngine(patients, appts, pusher, Config{
		ResourceID:    "chair-1",
		DefaultSpan:   30 * time.Minute,
		ConfidenceMin: 0.5,
		Location:      time.UTC,
	}, logging.Default())

	return &fixture{engine: engine, patients: patients, appts: appts, ledger: repo, pusher: pusher}
}

func bookTurn(text string, fields nlu.Fields) nlu.Turn {
	return nlu.Turn{Text: text, Intent: nlu.IntentBook, Confidence: 0.9, Fields: fields}
}

func chatTurn(text string) nlu.Turn {
	return nlu.Turn{Text: text, Intent: nlu.IntentGeneralChat, Confidence: 0.9}
}

func TestNewPatientBooksEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := &session.State{ID: "s1", Stage: session.StageIdle}

	// Opening turn carries everything at once.
	reply, err := f.engine.Start(ctx, st, bookTurn("I'd like an appointment", nlu.Fields{
		FullName: "Dana Lee",
		Contact:  "dana.lee@example.com",
		Date:     "2026-09-01",
		Time:     "10:00",
		Reason:   "tooth cleaning",
	}))
	require.NoError(t, err)
	assert.Contains(t, reply, "Nice to meet you, Dana Lee")
	assert.Contains(t, reply, "2026-09-01 10:00–10:30 is available")
	assert.Equal(t, session.StageAwaitingConfirmation, st.Stage)

	reply, err = f.engine.Advance(ctx, st, chatTurn("yes"))
	require.NoError(t, err)
	assert.Contains(t, reply, "confirmed for 2026-09-01 10:00–10:30")
	assert.Equal(t, session.StageCommitted, st.Stage)

	// Exactly one confirmed row, exactly one calendar push.
	appts, err := f.appts.ListByPatient(ctx, st.PatientID, 10)
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, ledger.StatusConfirmed, appts[0].Status)
	assert.Equal(t, "tooth cleaning", appts[0].Reason)

	pushed := f.pusher.pushed()
	require.Len(t, pushed, 1)
	assert.Equal(t, appts[0].ID, pushed[0].AppointmentID)
	assert.Equal(t, "Dana Lee", pushed[0].PatientName)
}

func TestReturningPatientIsGreeted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.patients.Register(ctx, "Dana Lee", "dana.lee@example.com")
	require.NoError(t, err)

	st := &session.State{ID: "s1", Stage: session.StageIdle}
	reply, err := f.engine.Start(ctx, st, bookTurn("book me in", nlu.Fields{
		Contact: "Dana.Lee@Example.com",
	}))
	require.NoError(t, err)
	assert.Contains(t, reply, "Welcome back, Dana Lee")
	assert.Equal(t, session.StageCollectingSlot, st.Stage)
}

func TestPromptsForMissingPieces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := &session.State{ID: "s1", Stage: session.StageIdle}

	// Nothing extracted: ask for contact first.
	reply, err := f.engine.Start(ctx, st, bookTurn("I need an appointment", nlu.Fields{}))
	require.NoError(t, err)
	assert.Contains(t, reply, "phone number or email")

	// Unknown contact without a name: ask for the name.
	reply, err = f.engine.Advance(ctx, st, bookTurn("it's dana@example.com", nlu.Fields{Contact: "dana@example.com"}))
	require.NoError(t, err)
	assert.Contains(t, reply, "full name")

	// Name arrives; profile is created and the slot question follows.
	reply, err = f.engine.Advance(ctx, st, bookTurn("Dana Lee", nlu.Fields{FullName: "Dana Lee"}))
	require.NoError(t, err)
	assert.Contains(t, reply, "Nice to meet you")
	assert.Contains(t, reply, "day and time")

	// Date only: ask for the time.
	reply, err = f.engine.Advance(ctx, st, bookTurn("september first", nlu.Fields{Date: "2026-09-01"}))
	require.NoError(t, err)
	assert.Contains(t, reply, "What time")
}

func TestLowConfidenceFieldsAreIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := &session.State{ID: "s1", Stage: session.StageIdle}

	turn := nlu.Turn{Text: "umm", Intent: nlu.IntentBook, Confidence: 0.2, Fields: nlu.Fields{
		Contact: "dana@example.com",
	}}
	reply, err := f.engine.Start(ctx, st, turn)
	require.NoError(t, err)
	assert.Contains(t, reply, "phone number or email")
	assert.Empty(t, st.PendingContact)
}

func TestConflictNamesBlockedWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other, err := f.patients.Register(ctx, "Raj Patel", "raj@example.com")
	require.NoError(t, err)
	taken, err := f.appts.Book(ctx, other.ID, "chair-1",
		time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC), "")
	require.NoError(t, err)
	_, err = f.appts.Confirm(ctx, taken.ID)
	require.NoError(t, err)

	// A partially overlapping request is refused and the reply names the
	// existing window, not the requested one.
	st := &session.State{ID: "s1", Stage: session.StageIdle}
	reply, err := f.engine.Start(ctx, st, bookTurn("book me", nlu.Fields{
		FullName: "Dana Lee",
		Contact:  "dana@example.com",
		Date:     "2026-09-01",
		Time:     "10:15",
	}))
	require.NoError(t, err)
	assert.Contains(t, reply, "2026-09-01 10:00–10:30 is already taken")
	assert.Equal(t, session.StageCollectingSlot, st.Stage)

	// An adjacent window is accepted.
	reply, err = f.engine.Advance(ctx, st, bookTurn("10:30 then", nlu.Fields{
		Date: "2026-09-01",
		Time: "10:30",
	}))
	require.NoError(t, err)
	assert.Contains(t, reply, "2026-09-01 10:30–11:00 is available")
}

func TestDeclineReturnsToSlotCollection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := &session.State{ID: "s1", Stage: session.StageIdle}

	_, err := f.engine.Start(ctx, st, bookTurn("book me", nlu.Fields{
		FullName: "Dana Lee",
		Contact:  "dana@example.com",
		Date:     "2026-09-01",
		Time:     "10:00",
	}))
	require.NoError(t, err)
	require.Equal(t, session.StageAwaitingConfirmation, st.Stage)

	reply, err := f.engine.Advance(ctx, st, chatTurn("no"))
	require.NoError(t, err)
	assert.Contains(t, reply, "other day and time")
	assert.Equal(t, session.StageCollectingSlot, st.Stage)

	// Nothing was written to the ledger.
	appts, err := f.appts.ListByPatient(ctx, st.PatientID, 10)
	require.NoError(t, err)
	assert.Empty(t, appts)
}

func TestCounterOfferAtConfirmationReroutes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := &session.State{ID: "s1", Stage: session.StageIdle}

	_, err := f.engine.Start(ctx, st, bookTurn("book me", nlu.Fields{
		FullName: "Dana Lee",
		Contact:  "dana@example.com",
		Date:     "2026-09-01",
		Time:     "10:00",
	}))
	require.NoError(t, err)
	require.Equal(t, session.StageAwaitingConfirmation, st.Stage)

	reply, err := f.engine.Advance(ctx, st, bookTurn("what about 2pm", nlu.Fields{
		Date: "2026-09-01",
		Time: "2pm",
	}))
	require.NoError(t, err)
	assert.Contains(t, reply, "2026-09-01 14:00–14:30 is available")
	assert.Equal(t, session.StageAwaitingConfirmation, st.Stage)
}

func TestAmbiguousConfirmationReprompts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := &session.State{ID: "s1", Stage: session.StageIdle}

	_, err := f.engine.Start(ctx, st, bookTurn("book me", nlu.Fields{
		FullName: "Dana Lee",
		Contact:  "dana@example.com",
		Date:     "2026-09-01",
		Time:     "10:00",
	}))
	require.NoError(t, err)

	reply, err := f.engine.Advance(ctx, st, chatTurn("hmm what do you think"))
	require.NoError(t, err)
	assert.Contains(t, reply, "yes or no")
	assert.Equal(t, session.StageAwaitingConfirmation, st.Stage)
}

func TestExitAbandonsWithoutLedgerRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := &session.State{ID: "s1", Stage: session.StageIdle}

	_, err := f.engine.Start(ctx, st, bookTurn("book me", nlu.Fields{
		FullName: "Dana Lee",
		Contact:  "dana@example.com",
		Date:     "2026-09-01",
		Time:     "10:00",
	}))
	require.NoError(t, err)

	reply, err := f.engine.Advance(ctx, st, chatTurn("never mind"))
	require.NoError(t, err)
	assert.Contains(t, reply, "stopped the booking")
	assert.Equal(t, session.StageAbandoned, st.Stage)

	appts, err := f.appts.ListByPatient(ctx, st.PatientID, 10)
	require.NoError(t, err)
	assert.Empty(t, appts)
	assert.Empty(t, f.pusher.pushed())
}

func TestCommitLosesRaceToConcurrentBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := &session.State{ID: "s1", Stage: session.StageIdle}

	_, err := f.engine.Start(ctx, st, bookTurn("book me", nlu.Fields{
		FullName: "Dana Lee",
		Contact:  "dana@example.com",
		Date:     "2026-09-01",
		Time:     "10:00",
	}))
	require.NoError(t, err)
	require.Equal(t, session.StageAwaitingConfirmation, st.Stage)

	// Another session takes the window between offer and confirmation.
	other, err := f.patients.Register(ctx, "Raj Patel", "raj@example.com")
	require.NoError(t, err)
	rival, err := f.appts.Book(ctx, other.ID, "chair-1", st.SlotStart, st.SlotEnd, "")
	require.NoError(t, err)
	_, err = f.appts.Confirm(ctx, rival.ID)
	require.NoError(t, err)

	reply, err := f.engine.Advance(ctx, st, chatTurn("yes"))
	require.NoError(t, err)
	assert.Contains(t, reply, "just taken by another booking")
	assert.Equal(t, session.StageCollectingSlot, st.Stage)
	assert.Empty(t, f.pusher.pushed())
}
