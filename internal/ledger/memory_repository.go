package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps appointments in a map. Used by tests and local runs
// without Postgres. The mutex makes individual operations atomic; the service
// still serializes check-then-insert through its Locker.
type MemoryRepository struct {
	mu           sync.RWMutex
	appointments map[uuid.UUID]*Appointment
	events       []EventLog
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		appointments: make(map[uuid.UUID]*Appointment),
	}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *MemoryRepository) FindOverlapping(ctx context.Context, resourceID string, start, end, now time.Time) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *Appointment
	for _, a := range r.appointments {
		if a.ResourceID != resourceID || !a.Active(now) {
			continue
		}
		if !Overlaps(a.SlotStart, a.SlotEnd, start, end) {
			continue
		}
		if found == nil || a.SlotStart.Before(found.SlotStart) {
			found = a
		}
	}
	if found == nil {
		return nil, ErrAppointmentNotFound
	}
	cp := *found
	return &cp, nil
}

func (r *MemoryRepository) CreatePending(ctx context.Context, a *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	cp := *a
	cp.Status = StatusPending
	cp.CreatedAt = now
	cp.UpdatedAt = now

	r.appointments[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}

	a.Status = to
	a.UpdatedAt = time.Now().UTC()

	cp := *a
	return &cp, nil
}

func (r *MemoryRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Appointment
	for _, a := range r.appointments {
		if a.PatientID == patientID {
			result = append(result, *a)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].SlotStart.After(result[j].SlotStart)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *MemoryRepository) FindExpiredPending(ctx context.Context, now time.Time) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Appointment
	for _, a := range r.appointments {
		if a.Status == StatusPending && a.ExpiresAt != nil && a.ExpiresAt.Before(now) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (r *MemoryRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev.ID = int64(len(r.events) + 1)
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded event log for assertions.
func (r *MemoryRepository) Events() []EventLog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]EventLog, len(r.events))
	copy(out, r.events)
	return out
}
