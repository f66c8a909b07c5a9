package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/dental-reception/internal/dispatcher"
	"github.com/hackgods/dental-reception/internal/ledger"
	"github.com/hackgods/dental-reception/internal/logging"
	"github.com/hackgods/dental-reception/internal/patient"
)

type RouterConfig struct {
	Dispatcher      *dispatcher.Dispatcher
	Patients        *patient.Service
	Ledger          *ledger.Service
	PgPool          *pgxpool.Pool
	Redis           *redis.Client
	DefaultResource string
	DefaultSpan     time.Duration
	Env             string
	Version         string
	Logger          *logging.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Conversational entrypoint
	r.Post("/sessions/{sessionID}/turns", turnHandler(cfg.Dispatcher))

	// Patient registry
	r.Post("/patients", registerPatientHandler(cfg.Patients))
	r.Get("/patients/lookup", lookupPatientHandler(cfg.Patients))
	r.Get("/patients/{patientID}/appointments", listAppointmentsHandler(cfg.Ledger))

	// Appointment ledger
	r.Get("/availability", availabilityHandler(cfg.Ledger, cfg.DefaultResource, cfg.DefaultSpan))
	r.Post("/appointments", bookAppointmentHandler(cfg.Ledger, cfg.DefaultResource, cfg.DefaultSpan))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Ledger))
	r.Post("/appointments/{id}/confirm", confirmAppointmentHandler(cfg.Ledger))
	r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Ledger))

	return r
}
