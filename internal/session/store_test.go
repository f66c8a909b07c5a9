package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageInWorkflow(t *testing.T) {
	assert.False(t, StageIdle.InWorkflow())
	assert.True(t, StageCollectingPatient.InWorkflow())
	assert.True(t, StageCollectingSlot.InWorkflow())
	assert.True(t, StageAwaitingConfirmation.InWorkflow())
	assert.False(t, StageCommitted.InWorkflow())
	assert.False(t, StageAbandoned.InWorkflow())
}

func TestGetCreatesIdleSession(t *testing.T) {
	store := NewStore()

	st := store.Get("caller-1")
	assert.Equal(t, "caller-1", st.ID)
	assert.Equal(t, StageIdle, st.Stage)
	assert.Equal(t, 1, store.Len())
}

func TestPutGetRoundTrip(t *testing.T) {
	store := NewStore()

	st := store.Get("caller-1")
	st.Stage = StageCollectingSlot
	st.PatientID = uuid.New()
	st.LastTurn = 3
	st.LastReply = "What time works for you?"
	store.Put(st)

	got := store.Get("caller-1")
	assert.Equal(t, StageCollectingSlot, got.Stage)
	assert.Equal(t, st.PatientID, got.PatientID)
	assert.Equal(t, 3, got.LastTurn)
	assert.Equal(t, "What time works for you?", got.LastReply)
	assert.False(t, got.LastSeen.IsZero())
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewStore()

	st := store.Get("caller-1")
	st.Stage = StageAwaitingConfirmation

	// Mutating the copy without Put must not leak into the store.
	got := store.Get("caller-1")
	assert.Equal(t, StageIdle, got.Stage)
}

func TestResetBookingKeepsPatient(t *testing.T) {
	st := State{
		PatientID: uuid.New(),
		SlotStart: time.Now(),
		SlotEnd:   time.Now().Add(30 * time.Minute),
	}
	st.ResetBooking()

	assert.True(t, st.SlotStart.IsZero())
	assert.True(t, st.SlotEnd.IsZero())
	assert.NotEqual(t, uuid.Nil, st.PatientID)
}

func TestSweepIdle(t *testing.T) {
	store := NewStore()

	stale := store.Get("stale")
	stale.Stage = StageCollectingSlot
	stale.LastSeen = time.Now().Add(-time.Hour)
	store.mu.Lock()
	store.sessions["stale"] = stale // backdate without re-stamping LastSeen
	store.mu.Unlock()

	fresh := store.Get("fresh")
	store.Put(fresh)

	swept := store.SweepIdle(30 * time.Minute)
	require.Len(t, swept, 1)
	assert.Equal(t, "stale", swept[0].ID)
	assert.Equal(t, StageAbandoned, swept[0].Stage)

	assert.Equal(t, 1, store.Len())
	got := store.Get("fresh")
	assert.Equal(t, StageIdle, got.Stage)
}

func TestDelete(t *testing.T) {
	store := NewStore()
	store.Get("caller-1")
	store.Delete("caller-1")
	assert.Equal(t, 0, store.Len())
}
