package batch

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"

	"github.com/anatolykoptev/go_jobclean/internal/logger"
)

// Scheduler runs a pending batch on a cron schedule and once at start.
type Scheduler struct {
	runner *Runner
	cron   *cron.Cron
	spec   string // cron spec, e.g. "@every 1h"

	mu   sync.Mutex // ticks never overlap
	runs int
}

// NewScheduler validates spec and returns an idle scheduler.
func NewScheduler(r *Runner, spec string) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, errors.Wrapf(err, "cron spec %q", spec)
	}
	return &Scheduler{runner: r, cron: cron.New(), spec: spec}, nil
}

// Run registers the job, processes pending files immediately and blocks
// until ctx is done. It waits for a running tick before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.tick(ctx) }); err != nil {
		return errors.Wrap(err, "cron add")
	}
	s.cron.Start()
	logger.Logger.Infow("scheduler started", logger.FieldComponent, "scheduler", "spec", s.spec)

	s.tick(ctx)

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.mu.Lock() // wait for the initial tick or a straggler
	defer s.mu.Unlock()
	logger.Logger.Infow("scheduler stopped", logger.FieldComponent, "scheduler", "runs", s.runs)
	return nil
}

// Runs returns the number of ticks that completed.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

func (s *Scheduler) tick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	res, err := s.runner.Run(ctx, Pending(), "")
	s.runs++
	if err != nil {
		logger.Logger.Errorw("scheduled batch failed", logger.FieldComponent, "scheduler", logger.FieldError, err)
		return
	}
	logger.Logger.Infow("scheduled batch done",
		logger.FieldComponent, "scheduler",
		logger.FieldBatch, res.BatchName,
		logger.FieldStatus, res.Status)
}
