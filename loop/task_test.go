package loop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSleepResumesAfterDelay(t *testing.T) {
	d, _ := newTestDispatcher(t)
	start(t, d)

	const delay = 40 * time.Millisecond
	resumed := make(chan time.Duration, 2)
	onLoop(t, d, func() {
		d.Go(func(task *Task) {
			begin := time.Now()
			task.Sleep(delay)
			resumed <- time.Since(begin)
		})
	})

	select {
	case elapsed := <-resumed:
		assert.GreaterOrEqual(t, elapsed, delay)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not resumed")
	}
	// a single Sleep never yields two resumptions
	onLoop(t, d, func() {})
	assert.Empty(t, resumed)
	assert.EqualValues(t, 1, d.Stats().TimersFired)
}

func TestTaskRunsSynchronouslyUntilFirstSleep(t *testing.T) {
	d, _ := newTestDispatcher(t)
	start(t, d)

	var steps []string
	onLoop(t, d, func() {
		d.Go(func(task *Task) {
			steps = append(steps, "before")
			task.Sleep(time.Hour)
			steps = append(steps, "after")
		})
		steps = append(steps, "caller")
	})
	assert.Equal(t, []string{"before", "caller"}, steps)
}

func TestSuspendedTasksDoNotBlockOtherCallbacks(t *testing.T) {
	d, _ := newTestDispatcher(t)
	start(t, d)

	// busy is only touched while a callback or task holds the dispatcher; if
	// two of them ever overlapped, the check would fail.
	var busy atomic.Bool
	enter := func() {
		assert.True(t, busy.CompareAndSwap(false, true), "callbacks overlapped")
	}
	leave := func() { busy.Store(false) }

	const tasks = 20
	finished := make(chan struct{}, tasks)
	onLoop(t, d, func() {
		for i := 0; i < tasks; i++ {
			d.Go(func(task *Task) {
				enter()
				leave()
				task.Sleep(10 * time.Millisecond)
				enter()
				time.Sleep(time.Millisecond)
				leave()
				finished <- struct{}{}
			})
		}
	})
	for i := 0; i < 50; i++ {
		require.NoError(t, d.Post(func() {
			enter()
			leave()
		}))
	}

	for i := 0; i < tasks; i++ {
		select {
		case <-finished:
		case <-time.After(5 * time.Second):
			t.Fatal("tasks did not finish")
		}
	}
}

func TestTeardownDiscardsSuspendedTask(t *testing.T) {
	d, _ := newTestDispatcher(t)
	var resumed, deferred bool
	require.NoError(t, d.Post(func() {
		d.Go(func(task *Task) {
			defer func() { deferred = true }()
			task.Sleep(time.Hour)
			resumed = true
		})
		d.Quit(ExitSuccess)
	}))

	d.Run(context.Background())
	assert.False(t, resumed)
	assert.True(t, deferred)
	assert.EqualValues(t, 1, d.Stats().TimersCancelled)
}

func TestPanickingTaskIsIsolated(t *testing.T) {
	d, _ := newTestDispatcher(t)
	start(t, d)

	onLoop(t, d, func() {
		d.Go(func(task *Task) {
			task.Sleep(time.Millisecond)
			panic("task failed")
		})
	})
	assert.Eventually(t, func() bool { return d.Stats().Panics == 1 }, time.Second, 5*time.Millisecond)
	onLoop(t, d, func() {})
}

func TestSleepDuringTeardownDoesNotSchedule(t *testing.T) {
	d, _ := newTestDispatcher(t)
	exited := make(chan struct{})
	var slept bool
	require.NoError(t, d.Post(func() {
		d.Go(func(task *Task) {
			defer close(exited)
			defer func() {
				task.Sleep(time.Millisecond)
				slept = true
			}()
			task.Sleep(time.Hour)
		})
		d.Quit(ExitSuccess)
	}))

	d.Run(context.Background())
	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("task goroutine is still parked")
	}
	assert.False(t, slept)
	assert.Zero(t, d.timers.Len())
	assert.EqualValues(t, 1, d.Stats().TimersCancelled)
}
