// Package scheduler wires up the cron job that periodically closes active
// postings whose deadline has passed.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"medmatch/matching-service/internal/engine"
)

// Sweeper wraps robfig/cron and drives the deadline-expiry sweep.
type Sweeper struct {
	cron *cron.Cron
	svc  *engine.Service
	spec string // cron spec, e.g. "@every 1h"
}

// New creates a Sweeper firing on the given cron spec.
func New(svc *engine.Service, spec string) *Sweeper {
	return &Sweeper{
		cron: cron.New(cron.WithLogger(cron.DefaultLogger)),
		svc:  svc,
		spec: spec,
	}
}

// Start registers the job and starts the scheduler. Also runs one sweep
// immediately so stale postings do not linger until the first tick.
func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runSweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started — spec: %s", s.spec)

	// Run immediately on startup (non-blocking)
	go s.runSweep(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Sweeper) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] Cron stopped")
}

// runSweep closes every active posting whose deadline has passed.
func (s *Sweeper) runSweep(ctx context.Context) {
	closed, err := s.svc.ExpirePostings(ctx, time.Now())
	if err != nil {
		log.Printf("[scheduler] ExpirePostings error: %v", err)
		return
	}
	if closed > 0 {
		log.Printf("[scheduler] Closed %d expired posting(s)", closed)
	}
}
