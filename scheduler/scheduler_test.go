package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newNop() *zap.Logger { return zap.NewNop() }

func TestAddTicker_Fires(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var count int32
	s.AddTicker("tick", 20*time.Millisecond, func() {
		atomic.AddInt32(&count, 1)
	})

	time.Sleep(120 * time.Millisecond)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&count), int32(3))
}

func TestAddTicker_Replaces(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var count1, count2 int32
	s.AddTicker("task", 20*time.Millisecond, func() { atomic.AddInt32(&count1, 1) })
	time.Sleep(30 * time.Millisecond)
	s.AddTicker("task", 20*time.Millisecond, func() { atomic.AddInt32(&count2, 1) })
	time.Sleep(80 * time.Millisecond)

	// Old ticker should have stopped, new one should be running
	snap1 := atomic.LoadInt32(&count1)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, snap1, atomic.LoadInt32(&count1), "old ticker must stop after replacement")
	assert.Positive(t, atomic.LoadInt32(&count2))
}

func TestDelay_FiresOnceAndCompletes(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var completed, interrupted int32
	s.Delay(30*time.Millisecond,
		func() { atomic.AddInt32(&completed, 1) },
		func() { atomic.AddInt32(&interrupted, 1) })

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&completed))
	assert.Equal(t, int32(0), atomic.LoadInt32(&interrupted))
	assert.Equal(t, 0, s.Pending())
}

func TestDelay_CancelRunsInterruptPath(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var completed, interrupted int32
	id := s.Delay(200*time.Millisecond,
		func() { atomic.AddInt32(&completed, 1) },
		func() { atomic.AddInt32(&interrupted, 1) })

	require.True(t, s.Cancel(id))
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&completed), "cancelled delay must not complete")
	assert.Equal(t, int32(1), atomic.LoadInt32(&interrupted))
}

func TestDelay_CancelAfterFireReturnsFalse(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var interrupted int32
	id := s.Delay(10*time.Millisecond, nil, func() { atomic.AddInt32(&interrupted, 1) })
	time.Sleep(60 * time.Millisecond)
	assert.False(t, s.Cancel(id))
	assert.Equal(t, int32(0), atomic.LoadInt32(&interrupted))
}

func TestDelay_CancelUnknownID(t *testing.T) {
	s := New(newNop())
	defer s.Stop()
	assert.False(t, s.Cancel("nope"))
}

func TestDelay_IDsAreDistinct(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	id1 := s.Delay(time.Hour, nil, nil)
	id2 := s.Delay(time.Hour, nil, nil)
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, s.Pending())
	assert.True(t, s.Cancel(id1))
	assert.Equal(t, 1, s.Pending())
}

func TestRemoveTicker(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var count int32
	s.AddTicker("task", 20*time.Millisecond, func() { atomic.AddInt32(&count, 1) })
	time.Sleep(50 * time.Millisecond)
	s.RemoveTicker("task")
	snap := atomic.LoadInt32(&count)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snap, atomic.LoadInt32(&count), "ticker must stop after removal")
}

func TestRemoveTicker_NonExistent(t *testing.T) {
	s := New(newNop())
	defer s.Stop()
	// Must not panic
	s.RemoveTicker("nope")
}

func TestStop_StopsAllTickers(t *testing.T) {
	s := New(newNop())

	var c1, c2 int32
	s.AddTicker("a", 20*time.Millisecond, func() { atomic.AddInt32(&c1, 1) })
	s.AddTicker("b", 20*time.Millisecond, func() { atomic.AddInt32(&c2, 1) })
	time.Sleep(50 * time.Millisecond)
	s.Stop()
	// Give goroutines time to observe the stop signal before snapping counts.
	time.Sleep(30 * time.Millisecond)
	snap1, snap2 := atomic.LoadInt32(&c1), atomic.LoadInt32(&c2)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snap1, atomic.LoadInt32(&c1))
	assert.Equal(t, snap2, atomic.LoadInt32(&c2))
}

func TestStop_Idempotent(t *testing.T) {
	s := New(newNop())
	s.Stop()
	s.Stop() // must not panic on double-stop
}

func TestListTickers(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	require.Empty(t, s.ListTickers())
	s.AddTicker("alpha", time.Hour, func() {})
	s.AddTicker("beta", time.Hour, func() {})
	names := s.ListTickers()
	assert.Len(t, names, 2)
	assert.Contains(t, names, "alpha")
	assert.Contains(t, names, "beta")
}

func TestListTickers_AfterRemove(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	s.AddTicker("x", time.Hour, func() {})
	s.AddTicker("y", time.Hour, func() {})
	s.RemoveTicker("x")
	assert.Equal(t, []string{"y"}, s.ListTickers())
}

func TestTicker_PanicRecovery(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var after int32
	s.AddTicker("panic", 20*time.Millisecond, func() {
		panic("oops")
	})
	// After the panic the ticker goroutine should keep running
	time.Sleep(80 * time.Millisecond)
	atomic.StoreInt32(&after, 1)
	assert.Equal(t, int32(1), after) // test itself didn't crash
}

func TestDelay_PanicRecovery(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	s.Delay(10*time.Millisecond, func() { panic("oops") }, nil)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, s.Pending())
}
