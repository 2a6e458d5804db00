package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"EditaisScanner/internal/ports"
)

// IntervalScheduler runs keyed jobs with time.Ticker, one goroutine per key.
type IntervalScheduler struct {
	mu   sync.Mutex
	jobs map[string]chan struct{}
	wg   sync.WaitGroup
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds an empty scheduler.
func NewIntervalScheduler() *IntervalScheduler {
	return &IntervalScheduler{jobs: map[string]chan struct{}{}}
}

// Schedule runs job after firstDelay and then every interval until the key is
// cancelled, the scheduler stops or ctx is done. Scheduling an existing key
// replaces it.
func (s *IntervalScheduler) Schedule(ctx context.Context, key string, interval, firstDelay time.Duration, job func(time.Time)) error {
	if job == nil {
		return errors.New("job is nil")
	}
	if interval <= 0 {
		return errors.New("interval must be positive")
	}
	if firstDelay < 0 {
		firstDelay = 0
	}

	s.mu.Lock()
	if s.jobs == nil {
		s.jobs = map[string]chan struct{}{}
	}
	if stop, ok := s.jobs[key]; ok {
		close(stop)
	}
	stop := make(chan struct{})
	s.jobs[key] = stop
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.forget(key, stop)

		timer := time.NewTimer(firstDelay)
		defer timer.Stop()
		select {
		case t := <-timer.C:
			job(t)
		case <-ctx.Done():
			return
		case <-stop:
			return
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case t := <-ticker.C:
				job(t)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Cancel stops the job registered under key, reporting whether one existed.
func (s *IntervalScheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	stop, ok := s.jobs[key]
	if !ok {
		return false
	}
	close(stop)
	delete(s.jobs, key)
	return true
}

// Keys lists the active job keys.
func (s *IntervalScheduler) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.jobs))
	for k := range s.jobs {
		keys = append(keys, k)
	}
	return keys
}

// Stop cancels every job and waits for running ones to return or ctx to end.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	for key, stop := range s.jobs {
		close(stop)
		delete(s.jobs, key)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// forget drops key only if it still maps to this goroutine's stop channel.
func (s *IntervalScheduler) forget(key string, stop chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.jobs[key]; ok && current == stop {
		delete(s.jobs, key)
	}
}
