package usecase

import (
	"context"
	"sync"
	"time"

	"RegimeWatch/pkg/logger"
)

type job struct {
	interval time.Duration
	fn       func(ctx context.Context)
}

// Scheduler runs registered functions on fixed intervals.
// A run that overlaps its next tick delays it; runs of one job never overlap.
type Scheduler struct {
	log *logger.Logger

	mu      sync.Mutex
	jobs    []job
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

func NewScheduler(l *logger.Logger) *Scheduler {
	if l == nil {
		l = logger.Nop()
	}
	return &Scheduler{log: l.With(logger.String("component", "scheduler"))}
}

// Every registers fn to run each interval once the scheduler starts.
func (s *Scheduler) Every(interval time.Duration, fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job{interval: interval, fn: fn})
}

// Start launches one goroutine per job. It is a no-op if already running.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	for _, j := range s.jobs {
		if j.interval <= 0 {
			s.log.Warn("skipping job with non-positive interval")
			continue
		}
		s.wg.Add(1)
		go s.loop(ctx, j)
	}
}

// Stop cancels all jobs and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j job) {
	defer s.wg.Done()
	t := time.NewTicker(j.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.runOnce(ctx, j)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, j job) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("scheduled job panicked", logger.Any("panic", r))
		}
	}()
	j.fn(ctx)
}
