package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/observability"
)

func newTestScheduler() *Scheduler {
	return New(zap.NewNop(), observability.NewMetrics())
}

func TestRunNowExecutesRegisteredTask(t *testing.T) {
	s := newTestScheduler()
	var runs atomic.Int32
	s.Register("sweep", time.Hour, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	assert.True(t, s.RunNow(context.Background(), "sweep"))
	assert.True(t, s.RunNow(context.Background(), "sweep"))
	assert.Equal(t, int32(2), runs.Load())
}

func TestRunNowUnknownTask(t *testing.T) {
	s := newTestScheduler()
	assert.False(t, s.RunNow(context.Background(), "nope"))
}

func TestOverlappingTicksAreSkipped(t *testing.T) {
	s := newTestScheduler()
	started := make(chan struct{})
	release := make(chan struct{})
	var runs atomic.Int32
	s.Register("slow", time.Hour, func(context.Context) error {
		runs.Add(1)
		close(started)
		<-release
		return nil
	})

	go s.RunNow(context.Background(), "slow")
	<-started

	// A second trigger while the first is in flight must be dropped, not
	// queued.
	assert.False(t, s.RunNow(context.Background(), "slow"))
	close(release)

	require.Eventually(t, func() bool {
		return s.RunNow(context.Background(), "slow")
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(2), runs.Load())
}

func TestTickerDrivesTask(t *testing.T) {
	s := newTestScheduler()
	var runs atomic.Int32
	s.Register("fast", 10*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		return runs.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStopWaitsForInFlightTick(t *testing.T) {
	s := newTestScheduler()
	entered := make(chan struct{})
	var finished atomic.Bool
	s.Register("slow", 10*time.Millisecond, func(context.Context) error {
		select {
		case entered <- struct{}{}:
		default:
		}
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
		return nil
	})

	s.Start(context.Background())
	<-entered
	s.Stop()

	assert.True(t, finished.Load(), "Stop must not return while a tick is running")
}

func TestPanickingTaskDoesNotKillLoop(t *testing.T) {
	s := newTestScheduler()
	var runs atomic.Int32
	s.Register("flaky", 10*time.Millisecond, func(context.Context) error {
		if runs.Add(1) == 1 {
			panic("boom")
		}
		return nil
	})

	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		return runs.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)
}

func TestFailingTaskIsRecorded(t *testing.T) {
	s := newTestScheduler()
	s.Register("bad", time.Hour, func(context.Context) error {
		return errors.New("db down")
	})

	assert.True(t, s.RunNow(context.Background(), "bad"), "a failing tick still counts as having run")
}
