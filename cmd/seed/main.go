package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/dental-reception/internal/db"
	"github.com/hackgods/dental-reception/internal/patient"
)

const defaultResource = "chair-1"

var visitReasons = []string{
	"Routine Dental Checkup",
	"Tooth Cleaning",
	"Root Canal Consultation",
	"Filling Replacement",
	"Wisdom Tooth Evaluation",
	"Whitening Session",
	"Crown Fitting",
	"Gum Sensitivity",
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	patientIDs, err := seedPatients(context.Background(), pool, 200)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, patientIDs); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d patients", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		name := gofakeit.Name()
		contact := patient.NormalizeContact(gofakeit.Email())

		// A generated contact may repeat; skipped rows are not usable for
		// appointment seeding, so only returned ids are collected.
		var id uuid.UUID
		err := tx.QueryRow(ctx, `
			INSERT INTO patients (id, full_name, contact, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
			ON CONFLICT (contact) DO NOTHING
			RETURNING id
		`, uuid.New(), name, contact).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

// seedAppointments fills upcoming weekdays with confirmed half-hour slots,
// one patient per slot, so availability queries have something to collide
// with.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, patientIDs []uuid.UUID) error {
	log.Println("seeding appointments")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	day := time.Now().AddDate(0, 0, 1).Truncate(24 * time.Hour)
	inserted := 0

	for d := 0; d < 5 && inserted < len(patientIDs); d++ {
		date := day.AddDate(0, 0, d)
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}

		// 09:00–12:00, every other slot booked.
		for h := 0; h < 6 && inserted < len(patientIDs); h += 2 {
			start := time.Date(date.Year(), date.Month(), date.Day(), 9, 0, 0, 0, time.UTC).
				Add(time.Duration(h) * 30 * time.Minute)
			end := start.Add(30 * time.Minute)
			reason := visitReasons[gofakeit.Number(0, len(visitReasons)-1)]

			_, err := tx.Exec(ctx, `
				INSERT INTO appointments (id, patient_id, resource_id, slot_start, slot_end, reason, status, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, 'confirmed', now(), now())
			`, uuid.New(), patientIDs[inserted], defaultResource, start, end, reason)
			if err != nil {
				return err
			}
			inserted++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	fmt.Printf("seeded %d confirmed appointments\n", inserted)
	return nil
}
