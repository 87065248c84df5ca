package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPoll = 2 * time.Millisecond

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// fakeClock pins the scheduler's notion of "now" for deterministic misfire
// scenarios. The polling loop still runs on real time; only the evaluated
// instant is faked.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// everyPoll is a test trigger that fires on every evaluation.
type everyPoll struct{}

func (everyPoll) Next(t time.Time) time.Time { return t.Add(time.Millisecond) }
func (everyPoll) String() string             { return "every poll" }

func newTestScheduler(t *testing.T, clk *fakeClock) *Scheduler {
	t.Helper()
	s := New(time.UTC, testPoll, testLogger())
	if clk != nil {
		s.now = clk.Now
	}
	return s
}

func stopScheduler(t *testing.T, s *Scheduler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestScheduler(t, nil)

	require.NoError(t, s.Register("a", Daily{Hour: 9}, time.Hour, func(ctx context.Context) error { return nil }))

	// Duplicate id
	err := s.Register("a", Daily{Hour: 9}, time.Hour, func(ctx context.Context) error { return nil })
	assert.Error(t, err)

	// Missing fn
	err = s.Register("b", Daily{Hour: 9}, time.Hour, nil)
	assert.Error(t, err)

	require.NoError(t, s.Start())
	defer stopScheduler(t, s)

	// Registration after Start
	err = s.Register("c", Daily{Hour: 9}, time.Hour, func(ctx context.Context) error { return nil })
	assert.Error(t, err)
}

// Process down from the 09:00 trigger until 09:30 with a one hour grace:
// the missed firing runs once at startup.
func TestMisfireWithinGraceRunsOnce(t *testing.T) {
	clk := &fakeClock{t: time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)}
	s := newTestScheduler(t, clk)

	var runs atomic.Int32
	require.NoError(t, s.Register("reminder", Daily{Hour: 9}, time.Hour, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}))
	require.NoError(t, s.Start())
	defer stopScheduler(t, s)

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, testPoll)

	// The made-up firing is not repeated: next run is tomorrow.
	time.Sleep(20 * testPoll)
	assert.Equal(t, int32(1), runs.Load())

	status := s.Jobs()
	require.Len(t, status, 1)
	assert.Equal(t, time.Date(2026, 5, 11, 9, 0, 0, 0, time.UTC), status[0].NextRun)
}

// Process down from the 09:00 trigger until 10:30 with a one hour grace:
// the firing is abandoned, never run doubly-late.
func TestMisfireBeyondGraceIsSkipped(t *testing.T) {
	clk := &fakeClock{t: time.Date(2026, 5, 10, 10, 30, 0, 0, time.UTC)}
	s := newTestScheduler(t, clk)

	var runs atomic.Int32
	require.NoError(t, s.Register("reminder", Daily{Hour: 9}, time.Hour, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}))
	require.NoError(t, s.Start())
	defer stopScheduler(t, s)

	time.Sleep(25 * testPoll)
	assert.Equal(t, int32(0), runs.Load())

	status := s.Jobs()
	require.Len(t, status, 1)
	assert.Equal(t, time.Date(2026, 5, 11, 9, 0, 0, 0, time.UTC), status[0].NextRun)
}

// A firing that lands while the previous run of the same job is still
// executing is dropped, never queued.
func TestConcurrencyPolicySkipsWhileRunning(t *testing.T) {
	s := newTestScheduler(t, nil)

	var runs atomic.Int32
	release := make(chan struct{})
	require.NoError(t, s.Register("slow", everyPoll{}, time.Hour, func(ctx context.Context) error {
		runs.Add(1)
		<-release
		return nil
	}))
	require.NoError(t, s.Start())

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, testPoll)

	// Many firings come due while the first run blocks; all are dropped.
	time.Sleep(25 * testPoll)
	assert.Equal(t, int32(1), runs.Load())

	// After the run finishes the job is eligible again.
	close(release)
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, testPoll)

	stopScheduler(t, s)
}

// Different jobs run concurrently with each other.
func TestJobsRunIndependently(t *testing.T) {
	s := newTestScheduler(t, nil)

	var fastRuns atomic.Int32
	release := make(chan struct{})
	defer close(release)

	require.NoError(t, s.Register("blocked", everyPoll{}, time.Hour, func(ctx context.Context) error {
		<-release
		return nil
	}))
	require.NoError(t, s.Register("fast", everyPoll{}, time.Hour, func(ctx context.Context) error {
		fastRuns.Add(1)
		return nil
	}))
	require.NoError(t, s.Start())

	assert.Eventually(t, func() bool { return fastRuns.Load() >= 3 }, time.Second, testPoll)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	s.Stop(ctx)
}

// A job error is contained: logged, surfaced in the status snapshot, and the
// job fires again on its next trigger.
func TestJobErrorDoesNotStopScheduler(t *testing.T) {
	s := newTestScheduler(t, nil)

	var runs atomic.Int32
	require.NoError(t, s.Register("flaky", everyPoll{}, time.Hour, func(ctx context.Context) error {
		if runs.Add(1) == 1 {
			return errors.New("storage unavailable")
		}
		return nil
	}))
	require.NoError(t, s.Start())
	defer stopScheduler(t, s)

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, testPoll)
}

// A panicking job does not crash the scheduler.
func TestJobPanicIsContained(t *testing.T) {
	s := newTestScheduler(t, nil)

	var runs atomic.Int32
	require.NoError(t, s.Register("panicky", everyPoll{}, time.Hour, func(ctx context.Context) error {
		if runs.Add(1) == 1 {
			panic("boom")
		}
		return nil
	}))
	require.NoError(t, s.Start())
	defer stopScheduler(t, s)

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, testPoll)

	found := false
	for _, j := range s.Jobs() {
		if j.ID == "panicky" {
			found = true
		}
	}
	assert.True(t, found)
}

// Stop waits for in-flight runs within the drain context and guarantees no
// job starts after it returns.
func TestStopDrainsAndBlocksNewStarts(t *testing.T) {
	s := newTestScheduler(t, nil)

	var runs atomic.Int32
	require.NoError(t, s.Register("j", everyPoll{}, time.Hour, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}))
	require.NoError(t, s.Start())

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, time.Second, testPoll)
	stopScheduler(t, s)

	after := runs.Load()
	time.Sleep(25 * testPoll)
	assert.Equal(t, after, runs.Load(), "no job may start after Stop returns")

	// Stop is idempotent.
	stopScheduler(t, s)
}

// An expired drain context makes Stop return even though a job is still
// running.
func TestStopDrainTimeout(t *testing.T) {
	s := newTestScheduler(t, nil)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	require.NoError(t, s.Register("stuck", everyPoll{}, time.Hour, func(ctx context.Context) error {
		started <- struct{}{}
		<-release
		return nil
	}))
	require.NoError(t, s.Start())
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Stop(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after drain timeout")
	}

	close(release)
}

func TestJobsSnapshot(t *testing.T) {
	clk := &fakeClock{t: time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)}
	s := newTestScheduler(t, clk)

	require.NoError(t, s.Register("reminder", Daily{Hour: 9}, time.Hour, func(ctx context.Context) error { return nil }))
	require.NoError(t, s.Register("retention", MonthlyOnDay{Day: 1, Hour: 2}, 24*time.Hour, func(ctx context.Context) error { return nil }))
	require.NoError(t, s.Start())
	defer stopScheduler(t, s)

	status := s.Jobs()
	require.Len(t, status, 2)
	assert.Equal(t, "reminder", status[0].ID)
	assert.Equal(t, "daily 09:00", status[0].Trigger)
	assert.Equal(t, time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC), status[0].NextRun)
	assert.Equal(t, "retention", status[1].ID)
	assert.Equal(t, "monthly day 1 02:00", status[1].Trigger)
}
