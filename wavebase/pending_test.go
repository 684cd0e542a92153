package wavebase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestPendingCallCompleteThenWait(t *testing.T) {
	pc := newPendingCall[int](1, "test", 0, nil)
	pc.complete(42, nil)
	v, err := pc.wait()
	assert.Equal(t, v, 42)
	assert.Equal(t, err, nil)
}

func TestPendingCallCompleteIsIdempotent(t *testing.T) {
	pc := newPendingCall[int](1, "test", 0, nil)
	pc.complete(1, nil)
	pc.complete(2, errors.New("ignored"))
	v, err := pc.wait()
	assert.Equal(t, v, 1)
	assert.Equal(t, err, nil)
}

func TestPendingCallDeadlineFiresOnTimeout(t *testing.T) {
	fired := make(chan struct{}, 1)
	var pc *pendingCall[int]
	pc = newPendingCall[int](1, "test", 10*time.Millisecond, func() {
		pc.complete(0, errors.New("timed out"))
		fired <- struct{}{}
	})
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("deadline callback did not fire")
	}
	_, err := pc.wait()
	assert.NotEqual(t, err, nil)
}

func TestPendingCallWaitCtxReturnsOnCancellation(t *testing.T) {
	pc := newPendingCall[int](1, "test", 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pc.waitCtx(ctx)
	assert.Equal(t, errors.Is(err, context.Canceled), true)
}

func TestPendingRegistryAddTakeDrain(t *testing.T) {
	r := newPendingRegistry[int]()
	pc := newPendingCall[int](5, "test", 0, nil)
	r.add(pc)
	assert.Equal(t, r.len(), 1)

	_, ok := r.take(999)
	assert.Equal(t, ok, false)

	taken, ok := r.take(5)
	assert.Equal(t, ok, true)
	assert.Equal(t, taken, pc)
	assert.Equal(t, r.len(), 0)
}

func TestPendingRegistryDrainClearsEverything(t *testing.T) {
	r := newPendingRegistry[int]()
	r.add(newPendingCall[int](1, "a", 0, nil))
	r.add(newPendingCall[int](2, "b", 0, nil))
	drained := r.drain()
	assert.Equal(t, len(drained), 2)
	assert.Equal(t, r.len(), 0)
}
