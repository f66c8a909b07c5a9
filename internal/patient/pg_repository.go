package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.FullName,
		&p.Contact,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, full_name, contact, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetByContact(ctx context.Context, contact string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, full_name, contact, created_at, updated_at
		FROM patients
		WHERE contact = $1
	`, contact)
	return scanPatient(row)
}

func (r *PgRepository) Create(ctx context.Context, p *Patient) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, full_name, contact, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id, full_name, contact, created_at, updated_at
	`, p.ID, p.FullName, p.Contact)
	return scanPatient(row)
}

func (r *PgRepository) UpdateContact(ctx context.Context, id uuid.UUID, contact string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE patients
		SET contact = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, full_name, contact, created_at, updated_at
	`, id, contact)
	return scanPatient(row)
}
