package patient

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps patients in a map. Used by tests and local runs
// without Postgres.
type MemoryRepository struct {
	mu        sync.RWMutex
	byID      map[uuid.UUID]*Patient
	byContact map[string]uuid.UUID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:      make(map[uuid.UUID]*Patient),
		byContact: make(map[string]uuid.UUID),
	}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) GetByContact(ctx context.Context, contact string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byContact[contact]
	if !ok {
		return nil, ErrPatientNotFound
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *MemoryRepository) Create(ctx context.Context, p *Patient) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	cp := *p
	cp.CreatedAt = now
	cp.UpdatedAt = now

	r.byID[cp.ID] = &cp
	r.byContact[cp.Contact] = cp.ID

	out := cp
	return &out, nil
}

func (r *MemoryRepository) UpdateContact(ctx context.Context, id uuid.UUID, contact string) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, ErrPatientNotFound
	}

	delete(r.byContact, p.Contact)
	p.Contact = contact
	p.UpdatedAt = time.Now().UTC()
	r.byContact[contact] = id

	cp := *p
	return &cp, nil
}
