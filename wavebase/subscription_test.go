package wavebase

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func u32(v uint32) *uint32 { return &v }

func TestUnionQueriesDedupsInFirstSeenOrder(t *testing.T) {
	r := newSubscriptionRegistry()
	r.add(SubscriptionHandle{RequestID: 1, Queries: []string{"SELECT * FROM a", "SELECT * FROM b"}, Batched: true})
	r.add(SubscriptionHandle{RequestID: 2, QueryID: u32(7), Queries: []string{"SELECT * FROM b", "SELECT * FROM c"}})

	got := r.unionQueries()
	assert.Equal(t, len(got), 3)
	assert.Equal(t, got[0], "SELECT * FROM a")
	assert.Equal(t, got[1], "SELECT * FROM b")
	assert.Equal(t, got[2], "SELECT * FROM c")
}

func TestSubscriptionRegistryRemoveAndClear(t *testing.T) {
	r := newSubscriptionRegistry()
	r.add(SubscriptionHandle{RequestID: 1, Queries: []string{"SELECT * FROM a"}, Batched: true})
	r.add(SubscriptionHandle{RequestID: 2, Queries: []string{"SELECT * FROM b"}, Batched: true})
	assert.Equal(t, r.len(), 2)

	r.remove(1)
	assert.Equal(t, r.len(), 1)
	assert.Equal(t, r.unionQueries()[0], "SELECT * FROM b")

	r.clear()
	assert.Equal(t, r.len(), 0)
	assert.Equal(t, len(r.unionQueries()), 0)
}

func TestSubscriptionHandleHasQueryID(t *testing.T) {
	batch := SubscriptionHandle{RequestID: 1, Queries: []string{"a"}, Batched: true}
	assert.Equal(t, batch.hasQueryID(), false)

	single := SubscriptionHandle{RequestID: 2, QueryID: u32(9), Queries: []string{"a"}}
	assert.Equal(t, single.hasQueryID(), true)
}
