// simulate hammers the booking API with concurrent, deliberately overlapping
// slot requests and then audits the database: on one resource, no two
// appointments that still hold their window may overlap. Exactly one of any
// racing pair must have won.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/dental-reception/internal/db"
)

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	Resource    string
	DayCount    int // how many days of calendar to fight over
	SlotMinutes int
	PostgresDSN string
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	mu        sync.Mutex
	Latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	p95 = latencies[min(len(latencies)*95/100, len(latencies)-1)]
	return avg, p50, p95
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	log.Printf("config: duration=%s workers=%d resource=%s days=%d slot=%dm",
		cfg.Duration, cfg.Workers, cfg.Resource, cfg.DayCount, cfg.SlotMinutes)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	patients, err := loadPatients(ctx, pgPool, 500)
	if err != nil {
		log.Fatalf("load patients: %v", err)
	}
	if len(patients) == 0 {
		log.Fatal("no patients found; run cmd/seed first")
	}
	log.Printf("loaded %d patients", len(patients))

	var metrics OperationMetrics
	client := &http.Client{Timeout: 10 * time.Second}

	runCtx, stop := context.WithTimeout(context.Background(), cfg.Duration)
	defer stop()

	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for runCtx.Err() == nil {
				bookOnce(runCtx, client, cfg, rng, patients, &metrics)
			}
		}(time.Now().UnixNano() + int64(w))
	}
	wg.Wait()

	avg, p50, p95 := metrics.Stats()
	log.Printf("bookings: total=%d success=%d conflict=%d error=%d avg=%s p50=%s p95=%s",
		metrics.Total, metrics.Success, metrics.Conflict, metrics.Error, avg, p50, p95)

	if err := auditNoOverlap(context.Background(), pgPool, cfg.Resource); err != nil {
		log.Fatalf("AUDIT FAILED: %v", err)
	}
	log.Println("audit passed: no overlapping active appointments")
}

func bookOnce(ctx context.Context, client *http.Client, cfg SimConfig, rng *rand.Rand, patients []uuid.UUID, m *OperationMetrics) {
	// Deliberately small slot space so workers collide constantly.
	day := time.Now().AddDate(0, 0, 1+rng.Intn(cfg.DayCount)).Truncate(24 * time.Hour)
	slotOfDay := rng.Intn(16) // 09:00–17:00 in half-hour steps
	start := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, time.UTC).
		Add(time.Duration(slotOfDay) * 30 * time.Minute)
	end := start.Add(time.Duration(cfg.SlotMinutes) * time.Minute)

	body, _ := json.Marshal(map[string]any{
		"patient_id": patients[rng.Intn(len(patients))].String(),
		"resource":   cfg.Resource,
		"slot_start": start.Format(time.RFC3339),
		"slot_end":   end.Format(time.RFC3339),
		"reason":     "load test",
	})

	reqStart := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIBaseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		m.Record(time.Since(reqStart), false, false)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		m.Record(time.Since(reqStart), false, false)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	latency := time.Since(reqStart)
	switch resp.StatusCode {
	case http.StatusCreated:
		m.Record(latency, true, false)
	case http.StatusConflict:
		m.Record(latency, false, true)
	default:
		m.Record(latency, false, false)
	}
}

func loadPatients(ctx context.Context, pool *pgxpool.Pool, limit int) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, `SELECT id FROM patients LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// auditNoOverlap is the ground-truth check: a self-join over active rows on
// the resource using the half-open overlap rule must come back empty.
func auditNoOverlap(ctx context.Context, pool *pgxpool.Pool, resource string) error {
	row := pool.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments a
		JOIN appointments b
		  ON a.id < b.id
		 AND a.resource_id = b.resource_id
		 AND a.slot_start < b.slot_end
		 AND b.slot_start < a.slot_end
		WHERE a.resource_id = $1
		  AND a.status IN ('pending', 'confirmed')
		  AND b.status IN ('pending', 'confirmed')
		  AND (a.status = 'confirmed' OR a.expires_at > now())
		  AND (b.status = 'confirmed' OR b.expires_at > now())
	`, resource)

	var overlaps int
	if err := row.Scan(&overlaps); err != nil {
		return err
	}
	if overlaps > 0 {
		return fmt.Errorf("%d overlapping active appointment pairs found", overlaps)
	}
	return nil
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:  getEnv("API_BASE_URL", "http://127.0.0.1:8080"),
		Duration:    getDuration("SIM_DURATION", 30*time.Second),
		Workers:     getInt("SIM_WORKERS", 16),
		Resource:    getEnv("SIM_RESOURCE", "chair-1"),
		DayCount:    getInt("SIM_DAYS", 2),
		SlotMinutes: getInt("SIM_SLOT_MINUTES", 30),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
