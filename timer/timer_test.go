package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueOrdersByDeadlineThenPushOrder(t *testing.T) {
	base := time.Now()
	var q Queue
	var fired []string
	push := func(name string, offset time.Duration) {
		q.Push(New(base.Add(offset), func() { fired = append(fired, name) }, nil))
	}
	push("c", 30*time.Millisecond)
	push("a", 10*time.Millisecond)
	push("b1", 20*time.Millisecond)
	push("b2", 20*time.Millisecond)

	next, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, base.Add(10*time.Millisecond), next)

	due := q.PopDue(base.Add(20 * time.Millisecond))
	require.Len(t, due, 3)
	for _, h := range due {
		h.Elapse()
	}
	assert.Equal(t, []string{"a", "b1", "b2"}, fired)
	assert.Equal(t, 1, q.Len())

	assert.Empty(t, q.PopDue(base.Add(29*time.Millisecond)))
	assert.Len(t, q.Drain(), 1)
	_, ok = q.Next()
	assert.False(t, ok)
}

func TestHandleResumesAtMostOnce(t *testing.T) {
	calls := 0
	h := New(time.Now(), func() { calls++ }, nil)
	assert.Equal(t, StateScheduled, h.State())

	assert.True(t, h.Elapse())
	assert.False(t, h.Elapse())
	assert.False(t, h.Cancel())
	assert.Equal(t, 1, calls)
	assert.Equal(t, StateElapsed, h.State())
}

func TestCancelDiscardsContinuation(t *testing.T) {
	elapsed, cancelled := 0, 0
	h := New(time.Now(), func() { elapsed++ }, func() { cancelled++ })

	assert.True(t, h.Cancel())
	assert.False(t, h.Elapse())
	assert.Equal(t, 0, elapsed)
	assert.Equal(t, 1, cancelled)
	assert.Equal(t, "cancelled", h.State().String())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:10", FormatDuration(10*time.Second))
	assert.Equal(t, "01:05", FormatDuration(65*time.Second))
	assert.Equal(t, "00:01", FormatDuration(200*time.Millisecond))
	assert.Equal(t, "00:00", FormatDuration(-time.Second))
}
