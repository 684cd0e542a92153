package protocol

import (
	"github.com/wavebase/client-go/bsatn"
)

const (
	serverTagInitialSubscription      uint8 = 0
	serverTagTransactionUpdate        uint8 = 1
	serverTagTransactionUpdateLight   uint8 = 2
	serverTagIdentityToken            uint8 = 3
	serverTagOneOffQueryResponse      uint8 = 4
	serverTagSubscribeApplied         uint8 = 5
	serverTagUnsubscribeApplied       uint8 = 6
	serverTagSubscriptionError        uint8 = 7
	serverTagSubscribeMultiApplied    uint8 = 8
	serverTagUnsubscribeMultiApplied  uint8 = 9
	serverTagProcedureResult          uint8 = 10
)

// ServerMessage is the sealed set of Server->Client frame payloads.
type ServerMessage interface {
	encodeATN(e *bsatn.Encoder) error
	tag() uint8
}

type InitialSubscription struct {
	Update                      DatabaseUpdate
	RequestID                   uint32
	TotalHostExecutionDuration  bsatn.Duration
}

func (m InitialSubscription) tag() uint8 { return serverTagInitialSubscription }
func (m InitialSubscription) encodeATN(e *bsatn.Encoder) error {
	if err := m.Update.EncodeATN(e); err != nil {
		return err
	}
	e.WriteU32(m.RequestID)
	m.TotalHostExecutionDuration.EncodeATN(e)
	return nil
}

func decodeInitialSubscription(d *bsatn.Decoder) (InitialSubscription, error) {
	update, err := DecodeDatabaseUpdate(d)
	if err != nil {
		return InitialSubscription{}, err
	}
	requestID, err := d.ReadU32()
	if err != nil {
		return InitialSubscription{}, err
	}
	dur, err := bsatn.DecodeDuration(d)
	if err != nil {
		return InitialSubscription{}, err
	}
	return InitialSubscription{Update: update, RequestID: requestID, TotalHostExecutionDuration: dur}, nil
}

type TransactionUpdate struct {
	Status                UpdateStatus
	Timestamp              bsatn.Timestamp
	CallerIdentity         bsatn.Identity
	CallerConnectionId     bsatn.ConnectionId
	ReducerCall            ReducerCallInfo
	EnergyConsumed         uint64
	HostExecutionDuration  bsatn.Duration
}

func (m TransactionUpdate) tag() uint8 { return serverTagTransactionUpdate }
func (m TransactionUpdate) encodeATN(e *bsatn.Encoder) error {
	if err := m.Status.EncodeATN(e); err != nil {
		return err
	}
	m.Timestamp.EncodeATN(e)
	m.CallerIdentity.EncodeATN(e)
	m.CallerConnectionId.EncodeATN(e)
	if err := m.ReducerCall.EncodeATN(e); err != nil {
		return err
	}
	e.WriteU64(m.EnergyConsumed)
	m.HostExecutionDuration.EncodeATN(e)
	return nil
}

func decodeTransactionUpdate(d *bsatn.Decoder) (TransactionUpdate, error) {
	status, err := DecodeUpdateStatus(d)
	if err != nil {
		return TransactionUpdate{}, err
	}
	ts, err := bsatn.DecodeTimestamp(d)
	if err != nil {
		return TransactionUpdate{}, err
	}
	identity, err := bsatn.DecodeIdentity(d)
	if err != nil {
		return TransactionUpdate{}, err
	}
	connID, err := bsatn.DecodeConnectionId(d)
	if err != nil {
		return TransactionUpdate{}, err
	}
	call, err := DecodeReducerCallInfo(d)
	if err != nil {
		return TransactionUpdate{}, err
	}
	energy, err := d.ReadU64()
	if err != nil {
		return TransactionUpdate{}, err
	}
	dur, err := bsatn.DecodeDuration(d)
	if err != nil {
		return TransactionUpdate{}, err
	}
	return TransactionUpdate{
		Status:               status,
		Timestamp:            ts,
		CallerIdentity:       identity,
		CallerConnectionId:   connID,
		ReducerCall:          call,
		EnergyConsumed:       energy,
		HostExecutionDuration: dur,
	}, nil
}

// TransactionUpdateLight is the reduced transaction notification sent to
// clients that only subscribe to affected rows without wanting full
// reducer-call metadata.
type TransactionUpdateLight struct {
	RequestID uint32
	Update    DatabaseUpdate
}

func (m TransactionUpdateLight) tag() uint8 { return serverTagTransactionUpdateLight }
func (m TransactionUpdateLight) encodeATN(e *bsatn.Encoder) error {
	e.WriteU32(m.RequestID)
	return m.Update.EncodeATN(e)
}

func decodeTransactionUpdateLight(d *bsatn.Decoder) (TransactionUpdateLight, error) {
	requestID, err := d.ReadU32()
	if err != nil {
		return TransactionUpdateLight{}, err
	}
	update, err := DecodeDatabaseUpdate(d)
	if err != nil {
		return TransactionUpdateLight{}, err
	}
	return TransactionUpdateLight{RequestID: requestID, Update: update}, nil
}

type IdentityToken struct {
	Identity     bsatn.Identity
	Token        string
	ConnectionId bsatn.ConnectionId
}

func (m IdentityToken) tag() uint8 { return serverTagIdentityToken }
func (m IdentityToken) encodeATN(e *bsatn.Encoder) error {
	m.Identity.EncodeATN(e)
	if err := e.WriteString(m.Token); err != nil {
		return err
	}
	m.ConnectionId.EncodeATN(e)
	return nil
}

func decodeIdentityToken(d *bsatn.Decoder) (IdentityToken, error) {
	identity, err := bsatn.DecodeIdentity(d)
	if err != nil {
		return IdentityToken{}, err
	}
	token, err := d.ReadString()
	if err != nil {
		return IdentityToken{}, err
	}
	connID, err := bsatn.DecodeConnectionId(d)
	if err != nil {
		return IdentityToken{}, err
	}
	return IdentityToken{Identity: identity, Token: token, ConnectionId: connID}, nil
}

// OneOffQueryTable is one table's rows in a OneOffQueryResponse.
type OneOffQueryTable struct {
	TableName string
	Rows      BsatnRowList
}

func (t OneOffQueryTable) EncodeATN(e *bsatn.Encoder) error {
	if err := e.WriteString(t.TableName); err != nil {
		return err
	}
	return t.Rows.EncodeATN(e)
}

func decodeOneOffQueryTable(d *bsatn.Decoder) (OneOffQueryTable, error) {
	name, err := d.ReadString()
	if err != nil {
		return OneOffQueryTable{}, err
	}
	rows, err := DecodeBsatnRowList(d)
	if err != nil {
		return OneOffQueryTable{}, err
	}
	return OneOffQueryTable{TableName: name, Rows: rows}, nil
}

type OneOffQueryResponse struct {
	MessageID                  []byte
	Error                      *string
	Tables                     []OneOffQueryTable
	TotalHostExecutionDuration bsatn.Duration
}

func (m OneOffQueryResponse) tag() uint8 { return serverTagOneOffQueryResponse }
func (m OneOffQueryResponse) encodeATN(e *bsatn.Encoder) error {
	if err := e.WriteBytes(m.MessageID); err != nil {
		return err
	}
	bsatn.EncodeOptional(e, m.Error, func(e *bsatn.Encoder, s string) { _ = e.WriteString(s) })
	if err := bsatn.EncodeSliceErr(e, m.Tables, func(e *bsatn.Encoder, t OneOffQueryTable) error { return t.EncodeATN(e) }); err != nil {
		return err
	}
	m.TotalHostExecutionDuration.EncodeATN(e)
	return nil
}

func decodeOneOffQueryResponse(d *bsatn.Decoder) (OneOffQueryResponse, error) {
	messageID, err := d.ReadBytes()
	if err != nil {
		return OneOffQueryResponse{}, err
	}
	errStr, err := bsatn.DecodeOptional(d, func(d *bsatn.Decoder) (string, error) { return d.ReadString() })
	if err != nil {
		return OneOffQueryResponse{}, err
	}
	tables, err := bsatn.DecodeSlice(d, decodeOneOffQueryTable)
	if err != nil {
		return OneOffQueryResponse{}, err
	}
	dur, err := bsatn.DecodeDuration(d)
	if err != nil {
		return OneOffQueryResponse{}, err
	}
	return OneOffQueryResponse{MessageID: messageID, Error: errStr, Tables: tables, TotalHostExecutionDuration: dur}, nil
}

type SubscribeApplied struct {
	RequestID  uint32
	QueryID    uint32
	TableID    uint32
	TableName  string
	Update     CompressableQueryUpdate
}

func (m SubscribeApplied) tag() uint8 { return serverTagSubscribeApplied }
func (m SubscribeApplied) encodeATN(e *bsatn.Encoder) error {
	e.WriteU32(m.RequestID)
	e.WriteU32(m.QueryID)
	e.WriteU32(m.TableID)
	if err := e.WriteString(m.TableName); err != nil {
		return err
	}
	return m.Update.EncodeATN(e)
}

func decodeSubscribeApplied(d *bsatn.Decoder) (SubscribeApplied, error) {
	requestID, err := d.ReadU32()
	if err != nil {
		return SubscribeApplied{}, err
	}
	queryID, err := d.ReadU32()
	if err != nil {
		return SubscribeApplied{}, err
	}
	tableID, err := d.ReadU32()
	if err != nil {
		return SubscribeApplied{}, err
	}
	name, err := d.ReadString()
	if err != nil {
		return SubscribeApplied{}, err
	}
	update, err := DecodeCompressableQueryUpdate(d)
	if err != nil {
		return SubscribeApplied{}, err
	}
	return SubscribeApplied{RequestID: requestID, QueryID: queryID, TableID: tableID, TableName: name, Update: update}, nil
}

type UnsubscribeApplied struct {
	RequestID uint32
	QueryID   uint32
	TableID   uint32
	TableName string
	Update    CompressableQueryUpdate
}

func (m UnsubscribeApplied) tag() uint8 { return serverTagUnsubscribeApplied }
func (m UnsubscribeApplied) encodeATN(e *bsatn.Encoder) error {
	e.WriteU32(m.RequestID)
	e.WriteU32(m.QueryID)
	e.WriteU32(m.TableID)
	if err := e.WriteString(m.TableName); err != nil {
		return err
	}
	return m.Update.EncodeATN(e)
}

func decodeUnsubscribeApplied(d *bsatn.Decoder) (UnsubscribeApplied, error) {
	requestID, err := d.ReadU32()
	if err != nil {
		return UnsubscribeApplied{}, err
	}
	queryID, err := d.ReadU32()
	if err != nil {
		return UnsubscribeApplied{}, err
	}
	tableID, err := d.ReadU32()
	if err != nil {
		return UnsubscribeApplied{}, err
	}
	name, err := d.ReadString()
	if err != nil {
		return UnsubscribeApplied{}, err
	}
	update, err := DecodeCompressableQueryUpdate(d)
	if err != nil {
		return UnsubscribeApplied{}, err
	}
	return UnsubscribeApplied{RequestID: requestID, QueryID: queryID, TableID: tableID, TableName: name, Update: update}, nil
}

// SubscriptionError.RequestID is nil exactly when the server means "drop
// every active subscription", per spec.md §4.B/§4.E.
type SubscriptionError struct {
	RequestID *uint32
	TableID   *uint32
	Error     string
}

func (m SubscriptionError) tag() uint8 { return serverTagSubscriptionError }
func (m SubscriptionError) encodeATN(e *bsatn.Encoder) error {
	bsatn.EncodeOptional(e, m.RequestID, func(e *bsatn.Encoder, v uint32) { e.WriteU32(v) })
	bsatn.EncodeOptional(e, m.TableID, func(e *bsatn.Encoder, v uint32) { e.WriteU32(v) })
	return e.WriteString(m.Error)
}

func decodeSubscriptionError(d *bsatn.Decoder) (SubscriptionError, error) {
	requestID, err := bsatn.DecodeOptional(d, func(d *bsatn.Decoder) (uint32, error) { return d.ReadU32() })
	if err != nil {
		return SubscriptionError{}, err
	}
	tableID, err := bsatn.DecodeOptional(d, func(d *bsatn.Decoder) (uint32, error) { return d.ReadU32() })
	if err != nil {
		return SubscriptionError{}, err
	}
	msg, err := d.ReadString()
	if err != nil {
		return SubscriptionError{}, err
	}
	return SubscriptionError{RequestID: requestID, TableID: tableID, Error: msg}, nil
}

type SubscribeMultiApplied struct {
	RequestID uint32
	QueryID   uint32
	Update    DatabaseUpdate
}

func (m SubscribeMultiApplied) tag() uint8 { return serverTagSubscribeMultiApplied }
func (m SubscribeMultiApplied) encodeATN(e *bsatn.Encoder) error {
	e.WriteU32(m.RequestID)
	e.WriteU32(m.QueryID)
	return m.Update.EncodeATN(e)
}

func decodeSubscribeMultiApplied(d *bsatn.Decoder) (SubscribeMultiApplied, error) {
	requestID, err := d.ReadU32()
	if err != nil {
		return SubscribeMultiApplied{}, err
	}
	queryID, err := d.ReadU32()
	if err != nil {
		return SubscribeMultiApplied{}, err
	}
	update, err := DecodeDatabaseUpdate(d)
	if err != nil {
		return SubscribeMultiApplied{}, err
	}
	return SubscribeMultiApplied{RequestID: requestID, QueryID: queryID, Update: update}, nil
}

type UnsubscribeMultiApplied struct {
	RequestID uint32
	QueryID   uint32
	Update    DatabaseUpdate
}

func (m UnsubscribeMultiApplied) tag() uint8 { return serverTagUnsubscribeMultiApplied }
func (m UnsubscribeMultiApplied) encodeATN(e *bsatn.Encoder) error {
	e.WriteU32(m.RequestID)
	e.WriteU32(m.QueryID)
	return m.Update.EncodeATN(e)
}

func decodeUnsubscribeMultiApplied(d *bsatn.Decoder) (UnsubscribeMultiApplied, error) {
	requestID, err := d.ReadU32()
	if err != nil {
		return UnsubscribeMultiApplied{}, err
	}
	queryID, err := d.ReadU32()
	if err != nil {
		return UnsubscribeMultiApplied{}, err
	}
	update, err := DecodeDatabaseUpdate(d)
	if err != nil {
		return UnsubscribeMultiApplied{}, err
	}
	return UnsubscribeMultiApplied{RequestID: requestID, QueryID: queryID, Update: update}, nil
}
