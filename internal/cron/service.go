package cron

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/angelmondragon/churchhub-backend/pkg/metrics"
	"go.uber.org/multierr"
)

const defaultInterval = time.Hour

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service runs every registered job once per interval. Each job holds its own
// distributed lock, so several workers can share a schedule.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.Lock == nil:
		return nil, fmt.Errorf("lock required")
	}
	s := &Service{
		logg:     params.Logger,
		registry: params.Registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: params.Interval,
	}
	if s.registry == nil {
		s.registry = &Registry{}
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	return s, nil
}

// Run executes a pass immediately and then on every interval boundary until ctx
// is canceled. A failed pass is logged and does not stop the loop.
func (s *Service) Run(ctx context.Context) error {
	ctx = s.logg.WithField(ctx, "interval", s.interval.String())
	for next := time.Now(); ; next = next.Add(s.interval) {
		if wait := time.Until(next); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
			if ctx.Err() != nil {
				s.logg.Info(ctx, "cron.stopped")
				return ctx.Err()
			}
		}
		if err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.logg.Error(ctx, "cron.pass.failed", err)
		}
		if ctx.Err() != nil {
			s.logg.Info(ctx, "cron.stopped")
			return ctx.Err()
		}
		// a pass longer than the interval skips the missed slots instead of bunching them
		if behind := time.Since(next); behind > s.interval {
			next = next.Add(behind.Truncate(s.interval))
		}
	}
}

// RunOnce runs each registered job a single time. A failing job does not stop
// the rest; failures come back combined.
func (s *Service) RunOnce(ctx context.Context) error {
	var (
		errs    error
		ran     int
		skipped int
	)
	for _, job := range s.registry.Jobs() {
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}
		executed, err := s.runJob(ctx, job)
		errs = multierr.Append(errs, err)
		if executed {
			ran++
		} else if err == nil {
			skipped++
		}
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"jobs_ran":     ran,
		"jobs_skipped": skipped,
		"jobs_failed":  len(multierr.Errors(errs)),
	}), "cron.pass.complete")
	return errs
}

// RunJob runs one job by name under the same lock as the loop.
func (s *Service) RunJob(ctx context.Context, name string) error {
	job, ok := s.registry.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown job %q (registered: %s)", name, strings.Join(s.registry.Names(), ", "))
	}
	_, err := s.runJob(ctx, job)
	return err
}

// runJob reports whether the job body executed.
func (s *Service) runJob(ctx context.Context, job Job) (bool, error) {
	name := job.Name()
	jobCtx := s.logg.WithJob(ctx, name)

	locked, err := s.lock.Acquire(jobCtx, name)
	if err != nil {
		s.metrics.Failed(name)
		return false, fmt.Errorf("%s: lock acquire: %w", name, err)
	}
	if !locked {
		s.metrics.Skipped(name)
		s.logg.Info(jobCtx, "cron.job.skipped")
		return false, nil
	}
	defer func() {
		// release on a fresh context so a canceled run still frees its lock
		relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if relErr := s.lock.Release(relCtx, name); relErr != nil {
			s.logg.Error(jobCtx, "cron.job.release_failed", relErr)
		}
	}()

	start := time.Now()
	affected, err := job.Run(jobCtx)
	took := time.Since(start)
	s.metrics.Finished(name, took, affected, err)

	jobCtx = s.logg.WithFields(jobCtx, map[string]any{
		"duration_ms":   took.Milliseconds(),
		"rows_affected": affected,
	})
	if err != nil {
		s.logg.Error(jobCtx, "cron.job.failed", err)
		return true, fmt.Errorf("%s: %w", name, err)
	}
	s.logg.Info(jobCtx, "cron.job.complete")
	return true, nil
}
