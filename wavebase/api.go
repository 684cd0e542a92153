package wavebase

import (
	"context"

	"github.com/oklog/ulid/v2"

	"github.com/wavebase/client-go/protocol"
	"github.com/wavebase/client-go/wberrors"
)

// CallReducer invokes a reducer by name and blocks until the matching
// TransactionUpdate resolves it, ctx is cancelled, or
// ConnectionConfig.ReducerCallTimeout elapses first.
func (s *Session) CallReducer(ctx context.Context, name string, args []byte, flags protocol.ReducerFlags) (ReducerResult, error) {
	requestID := s.requestIDs.Next()
	pc := newPendingCall[ReducerResult](requestID, name, s.cfg.ReducerCallTimeout, func() {
		if taken, ok := s.pendingReducers.take(requestID); ok {
			taken.complete(ReducerResult{}, &wberrors.ReducerTimeout{Name: name, Timeout: s.cfg.ReducerCallTimeout})
		}
	})
	s.pendingReducers.add(pc)

	if err := s.send(protocol.CallReducer{Name: name, Args: args, RequestID: requestID, Flags: flags}); err != nil {
		s.pendingReducers.take(requestID)
		return ReducerResult{}, err
	}
	return pc.waitCtx(ctx)
}

// CallProcedure invokes a server procedure by name, mirroring CallReducer.
func (s *Session) CallProcedure(ctx context.Context, name string, args []byte, flags protocol.ReducerFlags) (ProcedureResult, error) {
	requestID := s.requestIDs.Next()
	pc := newPendingCall[ProcedureResult](requestID, name, s.cfg.ReducerCallTimeout, func() {
		if taken, ok := s.pendingProcedures.take(requestID); ok {
			taken.complete(ProcedureResult{}, &wberrors.ReducerTimeout{Name: name, Timeout: s.cfg.ReducerCallTimeout})
		}
	})
	s.pendingProcedures.add(pc)

	if err := s.send(protocol.CallProcedure{Name: name, Args: args, RequestID: requestID, Flags: flags}); err != nil {
		s.pendingProcedures.take(requestID)
		return ProcedureResult{}, err
	}
	return pc.waitCtx(ctx)
}

// CallOneOffQuery runs a single read-only SQL query against the
// database, correlated by a ULID message id rather than a request id
// (per spec.md §3, one-off queries are not subscriptions).
func (s *Session) CallOneOffQuery(ctx context.Context, sql string) (protocol.OneOffQueryResponse, error) {
	id := ulid.Make()
	messageID := id[:]
	key := string(messageID)

	pc := newPendingCall[protocol.OneOffQueryResponse](0, "one-off-query", s.cfg.ReducerCallTimeout, func() {
		s.pendingOneOffMu.Lock()
		taken, ok := s.pendingOneOff[key]
		if ok {
			delete(s.pendingOneOff, key)
		}
		s.pendingOneOffMu.Unlock()
		if ok {
			taken.complete(protocol.OneOffQueryResponse{}, &wberrors.ReducerTimeout{Name: "one-off-query", Timeout: s.cfg.ReducerCallTimeout})
		}
	})
	s.pendingOneOffMu.Lock()
	s.pendingOneOff[key] = pc
	s.pendingOneOffMu.Unlock()

	if err := s.send(protocol.OneOffQuery{MessageID: messageID, Query: sql}); err != nil {
		s.pendingOneOffMu.Lock()
		delete(s.pendingOneOff, key)
		s.pendingOneOffMu.Unlock()
		return protocol.OneOffQueryResponse{}, err
	}
	return pc.waitCtx(ctx)
}

// Subscribe issues a batch Subscribe covering every query string and
// blocks until the server applies it (InitialSubscription) or rejects
// it (SubscriptionError). The returned handle is replayed automatically
// on reconnect (spec.md §8 property 10) until Unsubscribe is called.
func (s *Session) Subscribe(ctx context.Context, queries ...string) (SubscriptionHandle, error) {
	requestID := s.requestIDs.Next()
	// No deadline: spec.md says subscriptions do not time out by
	// default. The caller's ctx is still honored via waitCtx below.
	pc := newPendingCall[struct{}](requestID, "subscribe", 0, nil)
	s.pendingSubscribes.add(pc)

	handle := SubscriptionHandle{RequestID: requestID, Queries: queries, Batched: true}
	if err := s.send(protocol.Subscribe{Queries: queries, RequestID: requestID}); err != nil {
		s.pendingSubscribes.take(requestID)
		return SubscriptionHandle{}, err
	}
	if _, err := pc.waitCtx(ctx); err != nil {
		return SubscriptionHandle{}, err
	}
	s.activeSubs.add(handle)
	return handle, nil
}

// SubscribeSingle issues a SubscribeSingle for one query, tracked under
// its own client-allocated query id so it can be unsubscribed
// individually without affecting any other active subscription.
func (s *Session) SubscribeSingle(ctx context.Context, query string) (SubscriptionHandle, error) {
	requestID := s.requestIDs.Next()
	queryID := s.queryIDs.Next()
	pc := newPendingCall[struct{}](requestID, "subscribe-single", 0, nil)
	s.pendingSubscribes.add(pc)

	handle := SubscriptionHandle{RequestID: requestID, QueryID: &queryID, Queries: []string{query}}
	if err := s.send(protocol.SubscribeSingle{Query: query, RequestID: requestID, QueryID: queryID}); err != nil {
		s.pendingSubscribes.take(requestID)
		return SubscriptionHandle{}, err
	}
	if _, err := pc.waitCtx(ctx); err != nil {
		return SubscriptionHandle{}, err
	}
	s.activeSubs.add(handle)
	return handle, nil
}

// SubscribeMulti issues a SubscribeMulti covering every query string
// under a single client-allocated query id, tracked and unsubscribed as
// one unit.
func (s *Session) SubscribeMulti(ctx context.Context, queries ...string) (SubscriptionHandle, error) {
	requestID := s.requestIDs.Next()
	queryID := s.queryIDs.Next()
	pc := newPendingCall[struct{}](requestID, "subscribe-multi", 0, nil)
	s.pendingSubscribes.add(pc)

	handle := SubscriptionHandle{RequestID: requestID, QueryID: &queryID, Queries: queries, Batched: true}
	if err := s.send(protocol.SubscribeMulti{Queries: queries, RequestID: requestID, QueryID: queryID}); err != nil {
		s.pendingSubscribes.take(requestID)
		return SubscriptionHandle{}, err
	}
	if _, err := pc.waitCtx(ctx); err != nil {
		return SubscriptionHandle{}, err
	}
	s.activeSubs.add(handle)
	return handle, nil
}

// Unsubscribe retires a SubscriptionHandle. Unlike Subscribe, this is
// fire-and-forget: the server's UnsubscribeApplied/UnsubscribeMultiApplied
// carries the final row delta for the dropped query but completes no
// pending call, so there is nothing for Unsubscribe to wait on beyond
// the send itself succeeding. The handle stops being replayed on the
// next reconnect immediately, regardless of whether the in-flight
// unsubscribe message is acknowledged before a disconnect occurs.
func (s *Session) Unsubscribe(handle SubscriptionHandle) error {
	s.activeSubs.remove(handle.RequestID)
	if !handle.hasQueryID() {
		return nil
	}
	if handle.Batched {
		return s.send(protocol.UnsubscribeMulti{RequestID: s.requestIDs.Next(), QueryID: *handle.QueryID})
	}
	return s.send(protocol.Unsubscribe{RequestID: s.requestIDs.Next(), QueryID: *handle.QueryID})
}
