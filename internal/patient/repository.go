package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrNameRequired    = errors.New("full name is required")
	ErrContactRequired = errors.New("contact info is required")
)

// Repository contains all DB interactions needed by the registry.
// Contact arguments are expected in normalized form.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByContact(ctx context.Context, contact string) (*Patient, error)
	Create(ctx context.Context, p *Patient) (*Patient, error)
	UpdateContact(ctx context.Context, id uuid.UUID, contact string) (*Patient, error)
}
