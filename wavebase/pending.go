package wavebase

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// pendingCall is the wavebase package's PendingCall<T>: a one-shot result
// slot with an associated deadline timer. Exactly one of complete,
// cancel, or the timer firing resolves it.
type pendingCall[T any] struct {
	requestID uint32
	name      string
	startTime time.Time

	once   sync.Once
	result chan callResult[T]
	timer  *time.Timer
}

type callResult[T any] struct {
	value T
	err   error
}

func newPendingCall[T any](requestID uint32, name string, deadline time.Duration, onTimeout func()) *pendingCall[T] {
	p := &pendingCall[T]{
		requestID: requestID,
		name:      name,
		startTime: time.Now(),
		result:    make(chan callResult[T], 1),
	}
	if deadline > 0 {
		p.timer = time.AfterFunc(deadline, onTimeout)
	}
	return p
}

func (p *pendingCall[T]) complete(value T, err error) {
	p.once.Do(func() {
		if p.timer != nil {
			p.timer.Stop()
		}
		p.result <- callResult[T]{value: value, err: err}
	})
}

// wait blocks until complete is called; it is safe to call at most once.
func (p *pendingCall[T]) wait() (T, error) {
	r := <-p.result
	return r.value, r.err
}

// waitCtx blocks until complete is called or ctx is cancelled first. A
// ctx cancellation does not remove the call from its registry, and the
// Session call methods do not remove it either: it stays registered
// until a response, its deadline, or a session-wide cancellation takes it.
func (p *pendingCall[T]) waitCtx(ctx context.Context) (T, error) {
	select {
	case r := <-p.result:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// pendingRegistry is a mutex-guarded map from request id to an
// in-flight pendingCall of a fixed result type, shared by the reducer,
// procedure, and subscription registries.
type pendingRegistry[T any] struct {
	mu     sync.Mutex
	calls  map[uint32]*pendingCall[T]
	gauge  prometheus.Gauge // optional; tracks len(calls) for registries the PendingCalls metric covers
}

func newPendingRegistry[T any]() *pendingRegistry[T] {
	return &pendingRegistry[T]{calls: make(map[uint32]*pendingCall[T])}
}

// newPendingRegistryWithGauge builds a registry that keeps gauge in
// lockstep with its call count, for the registries PendingCalls covers
// (reducers and procedures, not subscriptions or one-off queries).
func newPendingRegistryWithGauge[T any](gauge prometheus.Gauge) *pendingRegistry[T] {
	r := newPendingRegistry[T]()
	r.gauge = gauge
	return r
}

func (r *pendingRegistry[T]) add(p *pendingCall[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[p.requestID] = p
	if r.gauge != nil {
		r.gauge.Inc()
	}
}

func (r *pendingRegistry[T]) take(requestID uint32) (*pendingCall[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.calls[requestID]
	if ok {
		delete(r.calls, requestID)
		if r.gauge != nil {
			r.gauge.Dec()
		}
	}
	return p, ok
}

func (r *pendingRegistry[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// drain removes and returns every pending call, for cancellation on
// disconnect/reconnect.
func (r *pendingRegistry[T]) drain() []*pendingCall[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*pendingCall[T], 0, len(r.calls))
	for id, p := range r.calls {
		out = append(out, p)
		delete(r.calls, id)
	}
	if r.gauge != nil && len(out) > 0 {
		r.gauge.Sub(float64(len(out)))
	}
	return out
}
