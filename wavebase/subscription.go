package wavebase

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// SubscriptionHandle identifies an active subscription for the lifetime
// of a session, per spec.md §3. It is used to replay the subscription
// after a reconnect and to target unsubscribe calls.
type SubscriptionHandle struct {
	RequestID uint32
	QueryID   *uint32 // nil for the batch Subscribe variant
	Queries   []string
	Batched   bool
}

func (h SubscriptionHandle) hasQueryID() bool { return h.QueryID != nil }

// subscriptionRegistry tracks every currently-active SubscriptionHandle,
// keyed by request id, so reconnection can replay the union of their
// queries as a single batch Subscribe.
type subscriptionRegistry struct {
	mu      sync.Mutex
	handles map[uint32]SubscriptionHandle
	gauge   prometheus.Gauge // optional; mirrors len(handles) as ActiveSubscriptions
}

func newSubscriptionRegistry() *subscriptionRegistry {
	return &subscriptionRegistry{handles: make(map[uint32]SubscriptionHandle)}
}

func newSubscriptionRegistryWithGauge(gauge prometheus.Gauge) *subscriptionRegistry {
	r := newSubscriptionRegistry()
	r.gauge = gauge
	return r
}

func (r *subscriptionRegistry) add(h SubscriptionHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handles[h.RequestID]; !exists && r.gauge != nil {
		r.gauge.Inc()
	}
	r.handles[h.RequestID] = h
}

func (r *subscriptionRegistry) remove(requestID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handles[requestID]; exists {
		delete(r.handles, requestID)
		if r.gauge != nil {
			r.gauge.Dec()
		}
	}
}

func (r *subscriptionRegistry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gauge != nil && len(r.handles) > 0 {
		r.gauge.Sub(float64(len(r.handles)))
	}
	r.handles = make(map[uint32]SubscriptionHandle)
}

func (r *subscriptionRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// unionQueries returns the deduplicated union of every active handle's
// queries, in first-seen order walking handles by ascending request id,
// for subscription replay after reconnect (spec.md §8 property 10).
func (r *subscriptionRegistry) unionQueries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uint32, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	seen := make(map[string]bool)
	var out []string
	for _, id := range ids {
		for _, q := range r.handles[id].Queries {
			if !seen[q] {
				seen[q] = true
				out = append(out, q)
			}
		}
	}
	return out
}

func (r *subscriptionRegistry) snapshot() []SubscriptionHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SubscriptionHandle, 0, len(r.handles))
	for _, h := range r.handles {
		out = append(out, h)
	}
	return out
}
