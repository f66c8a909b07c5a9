package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgods/dental-reception/internal/config"
	"github.com/hackgods/dental-reception/internal/db"
	"github.com/hackgods/dental-reception/internal/ledger"
	"github.com/hackgods/dental-reception/internal/logging"
	redisclient "github.com/hackgods/dental-reception/internal/redis"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("reaper-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	log.Printf("running reaper in env=%s interval=%s", cfg.Env, cfg.WorkerInterval)

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

	locker := redisclient.NewRedisCalendarLocker(rdb, cfg.LockTTL)
	svc := ledger.NewService(ledger.NewPgRepository(pgPool), locker, cfg.AppointmentTTL, logger)

	// Run once at startup
	runOnce(rootCtx, svc)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping reaper")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc)
		}
	}
}

func runOnce(ctx context.Context, svc *ledger.Service) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := svc.ExpireOverdue(runCtx); err != nil {
		log.Printf("reaper run error: %v", err)
		return
	}
	log.Printf("reaper run complete in %s", time.Since(start))
}
