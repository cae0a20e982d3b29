package control

import (
	"EventLoopDemo/loop"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	a := r.Create("a")
	b := r.Create("b")
	assert.NotEqual(t, a.ID(), b.ID())
	assert.True(t, a.Enabled())
	assert.Equal(t, 2, r.Len())

	got, ok := r.Lookup(a.ID())
	require.True(t, ok)
	assert.Same(t, a, got)

	assert.True(t, r.Destroy(a.ID()))
	assert.False(t, r.Destroy(a.ID()))
	_, ok = r.Lookup(a.ID())
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestActivateRunsHandlersInOrder(t *testing.T) {
	c := NewRegistry().Create("btn")
	var got []int
	c.OnActivate(func() { got = append(got, 1) })
	c.OnActivate(func() { got = append(got, 2) })

	require.NoError(t, c.Activate())
	require.NoError(t, c.Activate())
	assert.Equal(t, []int{1, 2, 1, 2}, got)
}

func TestDisabledControlIgnoresActivation(t *testing.T) {
	c := NewRegistry().Create("btn")
	calls := 0
	c.OnActivate(func() { calls++ })

	c.SetEnabled(false)
	assert.ErrorIs(t, c.Activate(), ErrIgnored)
	assert.Equal(t, 0, calls)
}

func TestPanickingHandlerDoesNotStopOthers(t *testing.T) {
	c := NewRegistry().Create("btn")
	ran := false
	c.OnActivate(func() { panic("broken handler") })
	c.OnActivate(func() { ran = true })

	err := c.Activate()
	require.Error(t, err)
	var pe *loop.PanicError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, "broken handler", pe.Value)
	assert.True(t, ran)
}

func TestObserversSeeChangesOnly(t *testing.T) {
	c := NewRegistry().Create("btn")
	var seen []Snapshot
	c.Observe(func(s Snapshot) { seen = append(seen, s) })

	c.SetEnabled(true)
	c.SetEnabled(false)
	c.SetLabel("busy")
	c.SetLabel("busy")

	require.Len(t, seen, 2)
	assert.Equal(t, Snapshot{ID: c.ID(), Label: "btn", Enabled: false}, seen[0])
	assert.Equal(t, Snapshot{ID: c.ID(), Label: "busy", Enabled: false}, seen[1])
}

func TestExecute(t *testing.T) {
	r := NewRegistry()
	c := r.Create("btn")
	calls := 0
	c.OnActivate(func() { calls++ })

	assert.NoError(t, r.Execute(Command{Type: CmdActivate, Target: c.ID()}))
	assert.Equal(t, 1, calls)

	assert.NoError(t, r.Execute(Command{Type: CmdDestroy, Target: c.ID()}))
	assert.ErrorIs(t, r.Execute(Command{Type: CmdActivate, Target: c.ID()}), ErrExpired)
	assert.ErrorIs(t, r.Execute(Command{Type: CmdDestroy, Target: c.ID()}), ErrExpired)
	assert.Error(t, r.Execute(Command{Type: CommandType(42)}))
	assert.Equal(t, 1, calls)
}

func TestConsumerSkipsDestroyedControl(t *testing.T) {
	r := NewRegistry()
	c := r.Create("btn")
	handler := Consumer(r, c.ID(), func(c *Control, enable bool) { c.SetEnabled(enable) })

	assert.True(t, handler(false))
	assert.False(t, c.Enabled())

	r.Destroy(c.ID())
	assert.True(t, handler(true), "handler must stay registered")
	assert.False(t, c.Enabled())
}
