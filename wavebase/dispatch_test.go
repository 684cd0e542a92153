package wavebase

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/wavebase/client-go/protocol"
	"github.com/wavebase/client-go/rowcache"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	cfg := NewConnectionConfig("h:3000", "m")
	cache := rowcache.NewClientCache(map[string]rowcache.PrimaryKeyExtractor{"t": rowcache.FixedPrefix(4)})
	s, err := NewSession(cfg, cache)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func bsatnRowList(rowSize uint16, rows ...[]byte) protocol.BsatnRowList {
	return protocol.BsatnRowList{Hint: protocol.RowSizeHint{FixedSize: &rowSize}, Buf: concatRows(rows)}
}

func concatRows(rows [][]byte) []byte {
	var out []byte
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

// TestSubscribeInitialScenario exercises spec.md §8 property 11's "Sub+initial"
// scenario: a batch Subscribe completed by InitialSubscription populates the
// cache and fires exactly one insert event.
func TestSubscribeInitialScenario(t *testing.T) {
	s := newTestSession(t)

	var events []rowcache.Event
	s.Cache().OnTable("t", func(ev rowcache.Event) { events = append(events, ev) })

	pc := newPendingCall[struct{}](1, "subscribe", 0, nil)
	s.pendingSubscribes.add(pc)

	msg := protocol.InitialSubscription{
		RequestID: 1,
		Update: protocol.DatabaseUpdate{Tables: []protocol.TableUpdate{
			{
				TableID:     1,
				TableName:   "t",
				NumRowsHint: 1,
				Updates: []protocol.CompressableQueryUpdate{{
					Uncompressed: &protocol.QueryUpdate{
						Deletes: bsatnRowList(4),
						Inserts: bsatnRowList(4, []byte{0x01, 0x00, 0x00, 0x00}),
					},
				}},
			},
		}},
	}
	s.dispatch(msg)

	_, err := pc.wait()
	assert.Equal(t, err, nil)

	assert.Equal(t, len(events), 1)
	assert.Equal(t, events[0].Kind, rowcache.EventInsert)

	rows := s.Cache().Table("t").Rows()
	assert.Equal(t, len(rows), 1)
	assert.Equal(t, rows[0], []byte{0x01, 0x00, 0x00, 0x00})
}

func TestReducerSuccessScenario(t *testing.T) {
	s := newTestSession(t)
	pc := newPendingCall[ReducerResult](7, "add", 0, nil)
	s.pendingReducers.add(pc)

	s.dispatch(protocol.TransactionUpdate{
		Status:       protocol.UpdateStatus{Committed: &protocol.DatabaseUpdate{}},
		ReducerCall:  protocol.ReducerCallInfo{ReducerName: "add", RequestID: 7},
	})

	result, err := pc.wait()
	assert.Equal(t, err, nil)
	assert.Equal(t, result.Status.Committed != nil, true)
}

func TestReducerFailureScenario(t *testing.T) {
	s := newTestSession(t)
	pc := newPendingCall[ReducerResult](7, "add", 0, nil)
	s.pendingReducers.add(pc)

	msg := "nope"
	s.dispatch(protocol.TransactionUpdate{
		Status:      protocol.UpdateStatus{Failed: &msg},
		ReducerCall: protocol.ReducerCallInfo{ReducerName: "add", RequestID: 7},
	})

	_, err := pc.wait()
	assert.NotEqual(t, err, nil)
	assert.Equal(t, err.Error(), `wavebase: reducer "add" failed: nope`)
}

func TestReducerTimeoutScenario(t *testing.T) {
	s := newTestSession(t)
	requestID := uint32(8)
	pc := newPendingCall[ReducerResult](requestID, "add", 10*time.Millisecond, func() {
		if taken, ok := s.pendingReducers.take(requestID); ok {
			taken.complete(ReducerResult{}, &timeoutErr{})
		}
	})
	s.pendingReducers.add(pc)

	_, err := pc.wait()
	assert.NotEqual(t, err, nil)
}

type timeoutErr struct{}

func (e *timeoutErr) Error() string { return `wavebase: reducer "add" timed out` }

// TestSubscribeHasNoDefaultTimeout exercises spec.md:136 ("Subscriptions
// do not time out by default") through Session.Subscribe itself, not a
// directly-constructed pendingCall: a tiny ConnectionTimeout must not
// cause Subscribe to fail with SubscriptionFailed before the caller's own
// context expires.
func TestSubscribeHasNoDefaultTimeout(t *testing.T) {
	cfg := NewConnectionConfig("h:3000", "m", WithConnectionTimeout(5*time.Millisecond))
	cache := rowcache.NewClientCache(nil)
	s, err := NewSession(cfg, cache)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	s.mu.Lock()
	s.state = StateConnected
	s.writeCh = make(chan []byte, 16)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	_, err = s.Subscribe(ctx, "SELECT * FROM t")
	assert.Equal(t, err, context.DeadlineExceeded)
}

// TestSubscriptionErrorDropAll exercises spec.md §8 property 11's "Drop-all"
// scenario: a SubscriptionError with no request id invalidates every active
// subscription handle but leaves an unrelated pending subscribe untouched.
func TestSubscriptionErrorDropAll(t *testing.T) {
	s := newTestSession(t)
	s.activeSubs.add(SubscriptionHandle{RequestID: 1, Queries: []string{"SELECT * FROM t"}, Batched: true})

	unrelated := newPendingCall[struct{}](99, "subscribe", 0, nil)
	s.pendingSubscribes.add(unrelated)

	s.dispatch(protocol.SubscriptionError{Error: "fatal"})

	assert.Equal(t, s.activeSubs.len(), 0)
	assert.Equal(t, s.pendingSubscribes.len(), 1)
}
