package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAfterFiresOnceWhenDue(t *testing.T) {
	s := New()
	calls := 0
	s.After(Key{"p1", "stun"}, 100*time.Millisecond, func() { calls++ })

	assert.Equal(t, 0, s.Advance(99*time.Millisecond))
	assert.Equal(t, 0, calls)

	assert.Equal(t, 1, s.Advance(time.Millisecond))
	assert.Equal(t, 1, calls)

	s.Advance(time.Second)
	assert.Equal(t, 1, calls, "tasks are single-shot")
	assert.Equal(t, 0, s.Len())
}

func TestRearmReplacesPendingTask(t *testing.T) {
	s := New()
	key := Key{"p1", "stun"}
	var fired []string

	s.After(key, time.Second, func() { fired = append(fired, "first") })
	s.Advance(600 * time.Millisecond)
	s.After(key, time.Second, func() { fired = append(fired, "second") })

	s.Advance(500 * time.Millisecond)
	assert.Empty(t, fired, "the first timer must not fire after being replaced")

	s.Advance(500 * time.Millisecond)
	assert.Equal(t, []string{"second"}, fired)
}

func TestAdvanceRunsInDueOrderAndSetsNow(t *testing.T) {
	s := New()
	var order []string
	var seen []time.Duration
	s.After(Key{"b", "x"}, 30*time.Millisecond, func() { order = append(order, "b"); seen = append(seen, s.Now()) })
	s.After(Key{"a", "x"}, 10*time.Millisecond, func() { order = append(order, "a"); seen = append(seen, s.Now()) })
	s.After(Key{"c", "x"}, 10*time.Millisecond, func() { order = append(order, "c"); seen = append(seen, s.Now()) })

	s.Advance(time.Second)
	assert.Equal(t, []string{"a", "c", "b"}, order)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 10 * time.Millisecond, 30 * time.Millisecond}, seen)
	assert.Equal(t, time.Second, s.Now())
}

func TestChainedTaskFiresWithinWindow(t *testing.T) {
	s := New()
	done := false
	s.After(Key{"ball", "confirm"}, 100*time.Millisecond, func() {
		s.After(Key{"ball", "reset"}, 200*time.Millisecond, func() { done = true })
	})

	assert.Equal(t, 2, s.Advance(500*time.Millisecond))
	assert.True(t, done)
}

func TestCancelOwner(t *testing.T) {
	s := New()
	s.After(Key{"p1", "stun"}, time.Second, func() { t.Fatal("cancelled task fired") })
	s.After(Key{"p1", "speed-boost"}, time.Second, func() { t.Fatal("cancelled task fired") })
	kept := false
	s.After(Key{"p2", "stun"}, time.Second, func() { kept = true })

	assert.Equal(t, 2, s.CancelOwner("p1"))
	s.Advance(2 * time.Second)
	assert.True(t, kept)
}

func TestRemainingAndCancel(t *testing.T) {
	s := New()
	key := Key{"ball", "init"}
	s.After(key, time.Second, func() {})
	s.Advance(250 * time.Millisecond)

	left, ok := s.Remaining(key)
	require.True(t, ok)
	assert.Equal(t, 750*time.Millisecond, left)

	assert.True(t, s.Cancel(key))
	assert.False(t, s.Cancel(key))
	assert.False(t, s.Pending(key))
}
