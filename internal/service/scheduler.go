package service

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jengzang/webgis-dashboard/internal/logger"
	"github.com/jengzang/webgis-dashboard/internal/session"
)

// Scheduler runs the periodic dataset reload and session sweep
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler registers the jobs. An empty spec disables that job.
func NewScheduler(dashboard *DashboardService, sessions *session.Manager, reloadSpec, sweepSpec string) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))

	if reloadSpec != "" {
		_, err := c.AddFunc(reloadSpec, func() {
			snap, err := dashboard.Reload(context.Background())
			if err != nil {
				logger.L().Error("scheduled reload failed", zap.Error(err))
				return
			}
			logger.L().Info("scheduled reload done", zap.Time("loaded_at", snap.LoadedAt))
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add reload job: %w", err)
		}
	}

	if sweepSpec != "" && sessions != nil {
		_, err := c.AddFunc(sweepSpec, func() {
			sessions.Sweep(context.Background())
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add session sweep job: %w", err)
		}
	}

	return &Scheduler{cron: c}, nil
}

// AddFunc registers an extra job
func (s *Scheduler) AddFunc(name, spec string, fn func()) error {
	if _, err := s.cron.AddFunc(spec, fn); err != nil {
		return fmt.Errorf("failed to add %s job: %w", name, err)
	}
	return nil
}

// Start starts the scheduler in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.L().Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Jobs returns the number of registered jobs
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Stop stops the scheduler and waits for running jobs or ctx
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		logger.L().Warn("scheduler shutdown timeout, some jobs may still be running")
	}
}
