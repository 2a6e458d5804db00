package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"EditaisScanner/internal/domain"
	"EditaisScanner/internal/ports"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) ([]domain.Notice, error)
}

// Searcher is what front-ends talk to. It guarantees that at most one
// pipeline run is in flight, whoever triggered it.
type Searcher struct {
	runMu     sync.Mutex
	runner    Runner
	scheduler ports.Scheduler
	logger    *slog.Logger
}

// NewSearcher wires the run guard around runner.
func NewSearcher(runner Runner, scheduler ports.Scheduler, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Searcher{runner: runner, scheduler: scheduler, logger: logger}
}

// TriggerSearch runs the pipeline now, waiting for any in-flight run first.
func (s *Searcher) TriggerSearch(ctx context.Context) ([]domain.Notice, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.runner.Run(ctx)
}

// RegisterRecurringSearch runs the pipeline for subscriber every interval,
// starting after firstDelay, and hands non-empty deltas to sink.
// Registering the same subscriber again replaces its schedule.
func (s *Searcher) RegisterRecurringSearch(ctx context.Context, subscriber string, interval, firstDelay time.Duration, sink ports.NoticeSink) error {
	if s.scheduler == nil {
		return errors.New("no scheduler configured")
	}
	if sink == nil {
		return errors.New("sink is nil")
	}

	log := s.logger.With("subscriber", subscriber)
	job := func(time.Time) {
		notices, err := s.TriggerSearch(ctx)
		if err != nil {
			log.Error("scheduled search failed", "error", err)
			return
		}
		if len(notices) == 0 {
			log.Debug("scheduled search found nothing new")
			return
		}
		if err := sink.Deliver(ctx, notices); err != nil {
			log.Error("deliver notices", "count", len(notices), "error", err)
		}
	}

	if err := s.scheduler.Schedule(ctx, subscriber, interval, firstDelay, job); err != nil {
		return fmt.Errorf("schedule %s: %w", subscriber, err)
	}
	log.Info("recurring search registered", "interval", interval, "first_delay", firstDelay)
	return nil
}

// CancelRecurringSearch removes subscriber's schedule.
func (s *Searcher) CancelRecurringSearch(subscriber string) bool {
	if s.scheduler == nil {
		return false
	}
	return s.scheduler.Cancel(subscriber)
}

// MultiSink fans notices out to several sinks, joining their errors.
type MultiSink []ports.NoticeSink

// Deliver calls every sink even if an earlier one failed.
func (m MultiSink) Deliver(ctx context.Context, notices []domain.Notice) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Deliver(ctx, notices); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
