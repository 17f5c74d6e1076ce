// Package supervisor keeps the crawl pipeline running: it starts a run,
// logs whatever escapes it, waits out the restart delay and starts over.
package supervisor

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"tkscraper/pkg/config"
	"tkscraper/pkg/errors"
	"tkscraper/pkg/logger"
)

// Run is one pass of the pipeline. Every call must build its own state.
type Run func(ctx context.Context, runID string) error

// Supervisor restarts a Run until its context ends
type Supervisor struct {
	delay   time.Duration
	once    bool
	logger  logger.Logger
	newID   func() string
	waitFor func(ctx context.Context, d time.Duration) error
}

// New creates a Supervisor from the supervisor config section
func New(cfg config.SupervisorConfig, log logger.Logger) *Supervisor {
	return &Supervisor{
		delay:   cfg.RestartDelay,
		once:    cfg.RunOnce,
		logger:  logger.OrNop(log).WithField("component", "supervisor"),
		newID:   func() string { return uuid.Must(uuid.NewV7()).String() },
		waitFor: Wait,
	}
}

// Start executes run. With run_once it returns run's error; otherwise it
// loops forever, returning only ctx.Err() once ctx is done.
func (s *Supervisor) Start(ctx context.Context, run Run) error {
	for pass := 1; ; pass++ {
		runID := s.newID()
		log := s.logger.WithFields(map[string]interface{}{
			"run_id": runID,
			"pass":   pass,
		})

		start := time.Now()
		log.Info("Pipeline run starting")
		err := s.runOne(ctx, run, runID)

		if err != nil && ctx.Err() == nil {
			log.WithError(err).ErrorWithFields("Pipeline run failed", map[string]interface{}{
				"error_type": string(errors.TypeOf(err)),
				"duration":   time.Since(start),
			})
		} else {
			log.InfoWithFields("Pipeline run finished", map[string]interface{}{
				"duration": time.Since(start),
			})
		}

		if s.once {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.InfoWithFields("Waiting before next run", map[string]interface{}{
			"delay": s.delay,
		})
		if err := s.waitFor(ctx, s.delay); err != nil {
			return err
		}
	}
}

// runOne calls run, turning a panic into a supervisor_fatal error
func (s *Supervisor) runOne(ctx context.Context, run Run, runID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorWithFields("Pipeline run panicked", map[string]interface{}{
				"run_id": runID,
				"panic":  fmt.Sprint(r),
				"stack":  string(debug.Stack()),
			})
			err = errors.New(errors.ErrorTypeSupervisorFatal, 0, fmt.Sprintf("run panicked: %v", r))
		}
	}()

	if err := run(ctx, runID); err != nil {
		return errors.Wrap(errors.ErrorTypeSupervisorFatal, err, "run "+runID)
	}
	return nil
}

// Wait blocks for delay or until ctx is done
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
