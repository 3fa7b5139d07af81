package login

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_BeginDefaults(t *testing.T) {
	r := NewRegistry(nil)

	a, err := r.Begin(1, "+14155550123", &fakeConn{})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)

	got, ok := r.Get(1)
	require.True(t, ok)
	assert.Equal(t, StepAwaitingCode, got.Step)
	assert.Zero(t, got.Attempts)
	assert.Equal(t, "+14155550123", got.Phone)
}

func TestRegistry_BeginOccupied(t *testing.T) {
	r := NewRegistry(nil)
	first := &fakeConn{}

	_, err := r.Begin(1, "+14155550123", first)
	require.NoError(t, err)
	_, err = r.Update(1, func(a *Attempt) { a.Attempts = 2 })
	require.NoError(t, err)

	_, err = r.Begin(1, "+19999999999", &fakeConn{})
	assert.ErrorIs(t, err, ErrAlreadyInProgress)

	got, _ := r.Get(1)
	assert.Equal(t, "+14155550123", got.Phone)
	assert.Equal(t, 2, got.Attempts)
	assert.Same(t, first, got.Conn)
}

func TestRegistry_UpdateAndRemove(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	r := NewRegistry(clock.Now)

	_, err := r.Update(9, func(a *Attempt) {})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Begin(9, "+12345678", nil)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	a, err := r.Update(9, func(a *Attempt) { a.CodeHash = "h" })
	require.NoError(t, err)
	assert.Equal(t, "h", a.CodeHash)
	assert.Equal(t, clock.Now(), a.LastActive)

	r.Remove(9)
	r.Remove(9)
	_, ok := r.Get(9)
	assert.False(t, ok)
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Begin(1, "+12345678", nil)
	require.NoError(t, err)

	a, _ := r.Get(1)
	a.Attempts = 99

	got, _ := r.Get(1)
	assert.Zero(t, got.Attempts)
}

func TestRegistry_Idle(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	r := NewRegistry(clock.Now)

	_, _ = r.Begin(1, "+12345678", nil)
	clock.Advance(5 * time.Minute)
	_, _ = r.Begin(2, "+12345679", nil)

	assert.ElementsMatch(t, []int64{1}, r.Idle(clock.Now().Add(-time.Minute)))
	assert.ElementsMatch(t, []int64{1, 2}, r.Users())
}

func TestRegistry_LockSerializesSameUser(t *testing.T) {
	r := NewRegistry(nil)
	var inside, maxInside int32

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := r.Lock(5)
			defer unlock()
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, r.locks)
}

func TestRegistry_LockDifferentUsersIndependent(t *testing.T) {
	r := NewRegistry(nil)
	unlockA := r.Lock(1)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := r.Lock(2)
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for another user blocked")
	}
}
