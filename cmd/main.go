// medmatch-matching-service
//
// Matching and lifecycle engine for the marketplace:
//   - match scoring + per-factor breakdown for (candidate, posting) pairs
//   - ranked recommendations (jobs for a candidate, candidates for a posting)
//   - application lifecycle (submit, review pipeline, accept-cascade, rating)
//   - posting lifecycle (owner transitions + deadline expiry sweep)
//
// On accept: closes the posting and batch-rejects every open rival
// application in one per-posting critical section.
// Publishes lifecycle events to Redis for Gateway/notification forward.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medmatch/matching-service/internal/config"
	"medmatch/matching-service/internal/db"
	"medmatch/matching-service/internal/eligibility"
	"medmatch/matching-service/internal/engine"
	"medmatch/matching-service/internal/httpapi"
	"medmatch/matching-service/internal/notify"
	"medmatch/matching-service/internal/recommend"
	"medmatch/matching-service/internal/scheduler"
	"medmatch/matching-service/internal/store"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[matching-service] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[matching-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[matching-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("[matching-service] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[matching-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[matching-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[matching-service] Redis connected ✓")

	// ── Engine wiring ────────────────────────────────────────────────────────
	st := store.NewPostgres(pool)
	gate := eligibility.NewGate(eligibility.NewRedisQuota(rdb), cfg.DailyApplyQuota)
	sink := notify.Fanout(notify.NewRedisSink(rdb), gate.Sink())
	svc := engine.NewService(st, gate, sink)
	rec := recommend.New(st, gate)

	// ── Deadline sweeper ─────────────────────────────────────────────────────
	sweeper := scheduler.New(svc, cfg.ExpireSweepSpec)
	if err := sweeper.Start(ctx); err != nil {
		log.Fatalf("[matching-service] Scheduler: %v", err)
	}
	defer sweeper.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	h := httpapi.NewHandler(svc, rec)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[matching-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[matching-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[matching-service] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[matching-service] Shutdown error: %v", err)
	}
	log.Println("[matching-service] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "matching-service",
		"version": version,
	})
}
