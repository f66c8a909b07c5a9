package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Service is the patient registry. Registration is idempotent on contact
// info: re-registering with a known phone or email resolves to the existing
// record instead of raising a uniqueness violation, because callers
// re-describing themselves is an expected conversational pattern.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a patient, or returns the existing one when the contact
// is already known.
func (s *Service) Register(ctx context.Context, fullName, contact string) (*Patient, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, ErrNameRequired
	}

	normalized := NormalizeContact(contact)
	if normalized == "" {
		return nil, ErrContactRequired
	}

	existing, err := s.repo.GetByContact(ctx, normalized)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrPatientNotFound) {
		return nil, fmt.Errorf("lookup patient by contact: %w", err)
	}

	created, err := s.repo.Create(ctx, &Patient{
		ID:       uuid.New(),
		FullName: fullName,
		Contact:  normalized,
	})
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}

	return created, nil
}

// FindByContact resolves a patient from whatever contact form the caller
// gave, tolerating case and whitespace noise from voice transcription.
func (s *Service) FindByContact(ctx context.Context, contact string) (*Patient, error) {
	normalized := NormalizeContact(contact)
	if normalized == "" {
		return nil, ErrContactRequired
	}

	p, err := s.repo.GetByContact(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("lookup patient by contact: %w", err)
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}
	return p, nil
}

// CorrectContact is the administrative contact-info correction. It keeps
// the uniqueness invariant: moving to a contact another patient owns fails.
func (s *Service) CorrectContact(ctx context.Context, id uuid.UUID, contact string) (*Patient, error) {
	normalized := NormalizeContact(contact)
	if normalized == "" {
		return nil, ErrContactRequired
	}

	owner, err := s.repo.GetByContact(ctx, normalized)
	if err == nil && owner.ID != id {
		return nil, fmt.Errorf("contact %q already belongs to another patient", normalized)
	}
	if err != nil && !errors.Is(err, ErrPatientNotFound) {
		return nil, fmt.Errorf("lookup patient by contact: %w", err)
	}

	updated, err := s.repo.UpdateContact(ctx, id, normalized)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update contact: %w", err)
	}
	return updated, nil
}
