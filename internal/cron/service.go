package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/vendorpool-backend/pkg/logger"
	"github.com/angelmondragon/vendorpool-backend/pkg/metrics"
	"go.uber.org/multierr"
)

const defaultInterval = 5 * time.Minute

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service runs every registered job once per interval while holding the
// cluster-wide lock, so only one cron worker sweeps at a time.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	if params.Registry == nil {
		return nil, fmt.Errorf("registry required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		registry: params.Registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run sweeps immediately, then on every tick until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	s.sweep(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron.stopped")
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Service) sweep(ctx context.Context) {
	if err := s.runCycle(ctx); err != nil {
		s.logg.Error(ctx, "cron.cycle_failed", err)
	}
}

// runCycle returns lock errors and the combined job failures. A failing job
// never stops the ones after it.
func (s *Service) runCycle(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire cron lock: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "cron.lock_held_elsewhere")
		return nil
	}

	var errs error
	for _, job := range s.registry.Jobs() {
		if err := s.runJob(ctx, job); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", job.Name(), err))
		}
	}
	if err := s.lock.Release(ctx); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("release cron lock: %w", err))
	}
	return errs
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	name := job.Name()
	jobCtx := s.logg.WithField(ctx, "job", name)

	start := time.Now()
	err := job.Run(jobCtx)
	elapsed := time.Since(start)

	s.metrics.ObserveDuration(name, elapsed)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.metrics.IncFailure(name)
		s.logg.Error(jobCtx, "cron.job_failed", err)
		return err
	}
	s.metrics.IncSuccess(name)
	s.logg.Info(jobCtx, "cron.job_completed")
	return nil
}
