// Package session holds the ephemeral per-conversation state. Nothing here
// survives a restart: an in-flight, unconfirmed booking dies with the
// process, which is safe because nothing was committed to the ledger yet.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Stage is the booking workflow position of a conversation.
type Stage string

const (
	StageIdle                 Stage = "idle"
	StageCollectingPatient    Stage = "collecting_patient"
	StageCollectingSlot       Stage = "collecting_slot"
	StageAwaitingConfirmation Stage = "awaiting_confirmation"
	StageCommitted            Stage = "committed"
	StageAbandoned            Stage = "abandoned"
)

// InWorkflow reports whether the session is locked into the booking dialogue.
// While locked, every turn routes to the workflow regardless of its intent
// tag, so a misclassified turn cannot corrupt the transaction.
func (s Stage) InWorkflow() bool {
	switch s {
	case StageCollectingPatient, StageCollectingSlot, StageAwaitingConfirmation:
		return true
	}
	return false
}

// State is everything the dispatcher/workflow pair knows about one
// conversation.
type State struct {
	ID    string
	Stage Stage

	// Resolved patient, once identity collection succeeded.
	PatientID   uuid.UUID
	PatientName string

	// Partially collected identity for not-yet-registered callers.
	PendingName    string
	PendingContact string

	// Candidate slot under discussion.
	SlotStart time.Time
	SlotEnd   time.Time
	Reason    string

	// Turn bookkeeping for idempotent replay: a turn carrying the same
	// counter as LastTurn gets LastReply back without re-running handlers.
	LastTurn  int
	LastReply string

	LastSeen time.Time
}

// ResetBooking clears the slot under discussion, keeping the resolved
// patient so a follow-up booking doesn't re-collect identity.
func (s *State) ResetBooking() {
	s.SlotStart = time.Time{}
	s.SlotEnd = time.Time{}
}

// Store is an in-memory session map. Sessions are single-caller by
// construction (one per connected user); the lock only guards the map
// against concurrent sessions.
type Store struct {
	mu       sync.Mutex
	sessions map[string]State
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]State)}
}

// Get returns a copy of the session state, creating an idle one on first
// contact.
func (st *Store) Get(id string) State {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		s = State{ID: id, Stage: StageIdle, LastSeen: time.Now()}
		st.sessions[id] = s
	}
	return s
}

// Put saves the state back, stamping LastSeen.
func (st *Store) Put(s State) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s.LastSeen = time.Now()
	st.sessions[s.ID] = s
}

// Delete discards a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len reports how many sessions are live.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// SweepIdle discards sessions idle longer than ttl and returns the swept
// states. A session abandoned mid-dialogue leaves zero ledger rows because
// the ledger is only written at commit time.
func (st *Store) SweepIdle(ttl time.Duration) []State {
	st.mu.Lock()
	defer st.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	var swept []State
	for id, s := range st.sessions {
		if s.LastSeen.Before(cutoff) {
			s.Stage = StageAbandoned
			swept = append(swept, s)
			delete(st.sessions, id)
		}
	}
	return swept
}
