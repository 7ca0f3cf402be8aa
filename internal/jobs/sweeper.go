package jobs

import (
	"context"
	"log"
	"time"

	"matcharena/internal/config"

	"github.com/go-co-op/gocron/v2"
)

// matchPurger is the slice of the match store the sweeper needs.
type matchPurger interface {
	DeleteExpiredWaiting(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper periodically deletes waiting matches that outlived the waiting
// timeout. RequestMatch performs the same sweep inline; this job only keeps
// the table tidy while nobody is queuing. Active-match timeouts are never
// handled here, they stay request-triggered.
type Sweeper struct {
	store     matchPurger
	cfg       config.MatchConfig
	scheduler gocron.Scheduler
}

// NewSweeper creates a sweeper over the given store.
func NewSweeper(store matchPurger, cfg config.MatchConfig) *Sweeper {
	return &Sweeper{
		store: store,
		cfg:   cfg,
	}
}

// Start schedules the sweep at the configured interval.
func (s *Sweeper) Start() error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	s.scheduler = scheduler

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.cfg.SweepInterval),
		gocron.NewTask(s.sweep),
	)
	if err != nil {
		return err
	}

	scheduler.Start()
	log.Printf("✓ Waiting-match sweeper started (interval %v)", s.cfg.SweepInterval)
	return nil
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-s.cfg.WaitingTimeout)
	removed, err := s.store.DeleteExpiredWaiting(ctx, cutoff)
	if err != nil {
		log.Printf("[Sweeper] failed to delete expired waiting matches: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("[Sweeper] removed %d expired waiting matches", removed)
	}
}

// Stop shuts the scheduler down.
func (s *Sweeper) Stop() {
	if s.scheduler != nil {
		_ = s.scheduler.Shutdown()
	}
}
