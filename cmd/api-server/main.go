package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgods/dental-reception/internal/api"
	"github.com/hackgods/dental-reception/internal/calendar"
	"github.com/hackgods/dental-reception/internal/config"
	"github.com/hackgods/dental-reception/internal/db"
	"github.com/hackgods/dental-reception/internal/dispatcher"
	"github.com/hackgods/dental-reception/internal/ledger"
	"github.com/hackgods/dental-reception/internal/logging"
	"github.com/hackgods/dental-reception/internal/patient"
	redisclient "github.com/hackgods/dental-reception/internal/redis"
	"github.com/hackgods/dental-reception/internal/session"
	"github.com/hackgods/dental-reception/internal/workflow"
)

const version = "0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	log.Printf("running in env=%s http_port=%s", cfg.Env, cfg.HTTPPort)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	loc, err := time.LoadLocation(cfg.ClinicTimezone)
	if err != nil {
		log.Printf("invalid CLINIC_TIMEZONE %q, using UTC: %v", cfg.ClinicTimezone, err)
		loc = time.UTC
	}

	patients := patient.NewService(patient.NewPgRepository(pgPool))

	locker := redisclient.NewRedisCalendarLocker(rdb, cfg.LockTTL)
	appts := ledger.NewService(ledger.NewPgRepository(pgPool), locker, cfg.AppointmentTTL, logger)

	pusher := calendar.NewRetryingPusher(
		calendar.NewLinkPusher(cfg.ClinicName, cfg.ClinicAddress, logger),
		logger,
	)
	defer pusher.Close()

	engine := workflow.NewEngine(patients, appts, pusher, workflow.Config{
		ResourceID:    cfg.DefaultResource,
		DefaultSpan:   cfg.DefaultSlotSpan,
		ConfidenceMin: cfg.NLUConfidenceMin,
		Location:      loc,
	}, logger)

	sessions := session.NewStore()
	disp := dispatcher.New(sessions, patients, appts, engine,
		dispatcher.NewFallback(cfg.ClinicName), cfg.NLUConfidenceMin, logger)

	// Idle conversations are discarded in-process; nothing reaches the
	// ledger until a commit, so sweeping loses no bookings.
	go func() {
		ticker := time.NewTicker(cfg.WorkerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				for _, s := range sessions.SweepIdle(cfg.SessionIdleTTL) {
					logger.Info("session swept", "session_id", s.ID, "stage", s.Stage)
				}
			}
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Dispatcher:      disp,
		Patients:        patients,
		Ledger:          appts,
		PgPool:          pgPool,
		Redis:           rdb,
		DefaultResource: cfg.DefaultResource,
		DefaultSpan:     cfg.DefaultSlotSpan,
		Env:             cfg.Env,
		Version:         version,
		Logger:          logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()
	log.Println("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
}
