package wavebase

import (
	"github.com/golang/glog"

	"github.com/wavebase/client-go/protocol"
	"github.com/wavebase/client-go/wberrors"
)

// dispatch routes a decoded server message to pending-call completion,
// cache mutation, or both, per spec.md §4.E.
func (s *Session) dispatch(msg protocol.ServerMessage) {
	switch m := msg.(type) {
	case protocol.IdentityToken:
		s.applyIdentityToken(m)
	case protocol.InitialSubscription:
		s.applyDatabaseUpdate(m.Update)
		s.completeSubscribe(m.RequestID, nil)
	case protocol.SubscribeApplied:
		s.applyQueryUpdate(m.TableID, m.TableName, m.Update)
		s.completeSubscribe(m.RequestID, nil)
	case protocol.SubscribeMultiApplied:
		s.applyDatabaseUpdate(m.Update)
		s.completeSubscribe(m.RequestID, nil)
	case protocol.UnsubscribeApplied:
		s.applyQueryUpdate(m.TableID, m.TableName, m.Update)
	case protocol.UnsubscribeMultiApplied:
		s.applyDatabaseUpdate(m.Update)
	case protocol.SubscriptionError:
		s.handleSubscriptionError(m)
	case protocol.TransactionUpdate:
		s.handleTransactionUpdate(m)
	case protocol.TransactionUpdateLight:
		s.applyDatabaseUpdate(m.Update)
	case protocol.ProcedureResultMsg:
		s.handleProcedureResult(m)
	case protocol.OneOffQueryResponse:
		s.handleOneOffQueryResponse(m)
	default:
		glog.Warningf("wavebase: unhandled server message type %T", m)
	}
}

func (s *Session) applyIdentityToken(m protocol.IdentityToken) {
	s.mu.Lock()
	s.identity = m.Identity
	s.connectionID = m.ConnectionId
	s.hasIdentity = true
	s.token = m.Token
	onIdentity := s.onIdentity
	s.mu.Unlock()

	logIdentityTokenClaims(m.Token)
	if onIdentity != nil {
		onIdentity(m.Identity, m.ConnectionId)
	}
}

// applyDatabaseUpdate walks every table update in an ordered
// DatabaseUpdate and applies each row delta to the cache. A malformed
// individual delta is logged and skipped; it does not terminate the
// session (spec.md §7: internal decoding errors during cache
// application MUST NOT terminate the session).
func (s *Session) applyDatabaseUpdate(update protocol.DatabaseUpdate) {
	for _, t := range update.Tables {
		s.cache.Table(t.TableName).SetTableID(t.TableID)
		for _, cu := range t.Updates {
			s.applyQueryUpdate(t.TableID, t.TableName, cu)
		}
	}
}

func (s *Session) applyQueryUpdate(tableID uint32, tableName string, cu protocol.CompressableQueryUpdate) {
	s.cache.Table(tableName).SetTableID(tableID)

	qu, err := cu.Resolve()
	if err != nil {
		glog.Warningf("wavebase: skipping undecodable row delta for table %q: %v", tableName, err)
		return
	}
	deletes, err := qu.DeleteRows()
	if err != nil {
		glog.Warningf("wavebase: skipping undecodable deletes for table %q: %v", tableName, err)
		return
	}
	inserts, err := qu.InsertRows()
	if err != nil {
		glog.Warningf("wavebase: skipping undecodable inserts for table %q: %v", tableName, err)
		return
	}
	s.cache.ApplyDelta(tableName, deletes, inserts)
}

func (s *Session) completeSubscribe(requestID uint32, err error) {
	pc, ok := s.pendingSubscribes.take(requestID)
	if !ok {
		return
	}
	pc.complete(struct{}{}, err)
}

// handleSubscriptionError implements the drop-all semantics of
// spec.md §4.E: a SubscriptionError with a present request id completes
// only that subscribe call; one with an absent request id discards
// every active subscription handle without firing cache observers, and
// leaves any unrelated pending subscribe call untouched.
func (s *Session) handleSubscriptionError(m protocol.SubscriptionError) {
	if m.RequestID != nil {
		s.completeSubscribe(*m.RequestID, &wberrors.SubscriptionFailed{Msg: m.Error})
		s.activeSubs.remove(*m.RequestID)
		return
	}
	s.activeSubs.clear()
}

func (s *Session) handleTransactionUpdate(m protocol.TransactionUpdate) {
	if m.Status.Committed != nil {
		s.applyDatabaseUpdate(*m.Status.Committed)
	}
	pc, ok := s.pendingReducers.take(m.ReducerCall.RequestID)
	if !ok {
		return
	}
	switch {
	case m.Status.Committed != nil:
		pc.complete(ReducerResult{
			Status:                m.Status,
			Timestamp:              m.Timestamp,
			EnergyConsumed:         m.EnergyConsumed,
			HostExecutionDuration:  m.HostExecutionDuration,
		}, nil)
	case m.Status.Failed != nil:
		pc.complete(ReducerResult{}, &wberrors.ReducerCallFailed{Name: m.ReducerCall.ReducerName, Msg: *m.Status.Failed})
	case m.Status.OutOfEnergy:
		pc.complete(ReducerResult{}, &wberrors.ReducerOutOfEnergy{Name: m.ReducerCall.ReducerName})
	}
}

func (s *Session) handleProcedureResult(m protocol.ProcedureResultMsg) {
	pc, ok := s.pendingProcedures.take(m.RequestID)
	if !ok {
		return
	}
	switch {
	case m.Status.Committed != nil:
		pc.complete(ProcedureResult{Status: m.Status, Timestamp: m.Timestamp, HostExecutionDuration: m.HostExecutionDuration}, nil)
	case m.Status.Failed != nil:
		pc.complete(ProcedureResult{}, &wberrors.ReducerCallFailed{Name: m.ProcedureName, Msg: *m.Status.Failed})
	case m.Status.OutOfEnergy:
		pc.complete(ProcedureResult{}, &wberrors.ReducerOutOfEnergy{Name: m.ProcedureName})
	}
}

func (s *Session) handleOneOffQueryResponse(m protocol.OneOffQueryResponse) {
	key := string(m.MessageID)
	s.pendingOneOffMu.Lock()
	pc, ok := s.pendingOneOff[key]
	if ok {
		delete(s.pendingOneOff, key)
	}
	s.pendingOneOffMu.Unlock()
	if !ok {
		return
	}
	if m.Error != nil {
		pc.complete(protocol.OneOffQueryResponse{}, wberrors.WrapInternal("one-off query", &oneOffQueryError{msg: *m.Error}))
		return
	}
	pc.complete(m, nil)
}

type oneOffQueryError struct{ msg string }

func (e *oneOffQueryError) Error() string { return e.msg }
