// Package scheduler drives the periodic background tasks: the escalation
// and reminder sweeps plus the low-priority cleanup jobs. One scheduler
// instance is assumed per deployment.
package scheduler

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/observability"
)

// TaskFunc is one unit of periodic work.
type TaskFunc func(ctx context.Context) error

type task struct {
	name     string
	interval time.Duration
	run      TaskFunc
	// running guards against overlapping ticks of the same task: a tick
	// that fires while the previous one is in flight is skipped, never
	// queued.
	running atomic.Bool
}

// Scheduler owns the lifecycle of all registered periodic tasks. Tasks
// tick independently of each other; two distinct tasks may run
// concurrently, two ticks of the same task never do.
type Scheduler struct {
	logger  *zap.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	tasks   []*task
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// New creates an empty scheduler.
func New(logger *zap.Logger, metrics *observability.Metrics) *Scheduler {
	return &Scheduler{logger: logger, metrics: metrics}
}

// Register adds a periodic task. Must be called before Start.
func (s *Scheduler) Register(name string, interval time.Duration, run TaskFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, &task{name: name, interval: interval, run: run})
}

// Start launches one goroutine per registered task. It is a no-op when
// already started.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, t)
	}
	s.logger.Info("scheduler started", zap.Int("tasks", len(s.tasks)))
}

// Stop cancels future ticks and blocks until every in-flight tick has
// finished.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	started := s.started
	s.mu.Unlock()
	if !started || cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, t *task) {
	defer s.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, t)
		}
	}
}

// RunNow triggers the named task immediately, honoring the same
// skip-if-busy guard as timed ticks. Returns false when no such task is
// registered or it was already running.
func (s *Scheduler) RunNow(ctx context.Context, name string) bool {
	s.mu.Lock()
	var target *task
	for _, t := range s.tasks {
		if t.name == name {
			target = t
			break
		}
	}
	s.mu.Unlock()
	if target == nil {
		return false
	}
	return s.runOnce(ctx, target)
}

func (s *Scheduler) runOnce(ctx context.Context, t *task) bool {
	if !t.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous tick still running, skipping", zap.String("task", t.name))
		return false
	}
	defer t.running.Store(false)

	start := time.Now()
	err := s.safeRun(ctx, t)
	s.metrics.RecordSweep(t.name, time.Since(start), err)
	if err != nil {
		s.logger.Error("task tick failed",
			zap.String("task", t.name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
	}
	return true
}

// safeRun keeps a panicking tick from taking down the process or the
// task's timer loop.
func (s *Scheduler) safeRun(ctx context.Context, t *task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panicked",
				zap.String("task", t.name),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()
	return t.run(ctx)
}
