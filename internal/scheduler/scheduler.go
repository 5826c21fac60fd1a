// Package scheduler runs the periodic maintenance jobs: basket aggregate
// resync and performance snapshots.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/aquifer-fi/aquifer/internal/modules/baskets"
	"github.com/aquifer-fi/aquifer/internal/modules/scoring"
)

// Scheduler manages all cron tasks
type Scheduler struct {
	cron      *cron.Cron
	allocator *baskets.Allocator
	repo      baskets.Repository
	log       zerolog.Logger
}

// New creates a new scheduler
func New(allocator *baskets.Allocator, repo baskets.Repository, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		allocator: allocator,
		repo:      repo,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

// Register wires the periodic jobs. resyncSpec is a cron expression or a
// descriptor like "@hourly".
func (s *Scheduler) Register(resyncSpec string) error {
	if _, err := s.cron.AddFunc(resyncSpec, s.resyncJob); err != nil {
		return fmt.Errorf("register resync job: %w", err)
	}
	if _, err := s.cron.AddFunc(resyncSpec, s.snapshotJob); err != nil {
		return fmt.Errorf("register snapshot job: %w", err)
	}
	return nil
}

// Start starts the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the cron scheduler gracefully
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info().Msg("Scheduler stopped")
}

// resyncJob re-derives basket aggregates from member rows, bounding the
// floating-point drift of the incremental commit path.
func (s *Scheduler) resyncJob() {
	if err := s.allocator.ResyncAggregates(); err != nil {
		s.log.Error().Err(err).Msg("Basket aggregate resync failed")
	}
}

// snapshotJob appends a performance snapshot for every basket
func (s *Scheduler) snapshotJob() {
	all, err := s.allocator.Baskets()
	if err != nil {
		s.log.Error().Err(err).Msg("Snapshot job failed to list baskets")
		return
	}

	now := time.Now()
	for _, b := range all {
		if b.TotalValue == 0 {
			continue
		}
		if err := s.repo.AppendSnapshot(baskets.Snapshot{
			BasketID:      b.ID,
			TotalValue:    b.TotalValue,
			ExpectedYield: scoring.YieldFromScore(b.BlendedRiskScore),
			CreatedAt:     now,
		}); err != nil {
			s.log.Error().Err(err).Str("basket_id", b.ID).Msg("Failed to append snapshot")
		}
	}
}
