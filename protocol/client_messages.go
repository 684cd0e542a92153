package protocol

import (
	"github.com/wavebase/client-go/bsatn"
)

// ReducerFlags controls whether the caller wants a success notification
// when the reducer's effects don't touch any subscribed rows.
type ReducerFlags uint8

const (
	ReducerFlagFullUpdate      ReducerFlags = 0
	ReducerFlagNoSuccessNotify ReducerFlags = 1
)

const (
	clientTagCallReducer       uint8 = 0
	clientTagSubscribe         uint8 = 1
	clientTagOneOffQuery       uint8 = 2
	clientTagSubscribeSingle   uint8 = 3
	clientTagSubscribeMulti    uint8 = 4
	clientTagUnsubscribe       uint8 = 5
	clientTagUnsubscribeMulti  uint8 = 6
	clientTagCallProcedure     uint8 = 7
)

// ClientMessage is the sealed set of Client->Server frame payloads.
// Unexported tag() pins the set to this package.
type ClientMessage interface {
	encodeATN(e *bsatn.Encoder) error
	tag() uint8
}

type CallReducer struct {
	Name      string
	Args      []byte
	RequestID uint32
	Flags     ReducerFlags
}

func (m CallReducer) tag() uint8 { return clientTagCallReducer }
func (m CallReducer) encodeATN(e *bsatn.Encoder) error {
	if err := e.WriteString(m.Name); err != nil {
		return err
	}
	if err := e.WriteBytes(m.Args); err != nil {
		return err
	}
	e.WriteU32(m.RequestID)
	e.WriteU8(uint8(m.Flags))
	return nil
}

type Subscribe struct {
	Queries   []string
	RequestID uint32
}

func (m Subscribe) tag() uint8 { return clientTagSubscribe }
func (m Subscribe) encodeATN(e *bsatn.Encoder) error {
	if err := bsatn.EncodeSliceErr(e, m.Queries, func(e *bsatn.Encoder, s string) error { return e.WriteString(s) }); err != nil {
		return err
	}
	e.WriteU32(m.RequestID)
	return nil
}

type OneOffQuery struct {
	MessageID []byte
	Query     string
}

func (m OneOffQuery) tag() uint8 { return clientTagOneOffQuery }
func (m OneOffQuery) encodeATN(e *bsatn.Encoder) error {
	if err := e.WriteBytes(m.MessageID); err != nil {
		return err
	}
	return e.WriteString(m.Query)
}

type SubscribeSingle struct {
	Query     string
	RequestID uint32
	QueryID   uint32
}

func (m SubscribeSingle) tag() uint8 { return clientTagSubscribeSingle }
func (m SubscribeSingle) encodeATN(e *bsatn.Encoder) error {
	if err := e.WriteString(m.Query); err != nil {
		return err
	}
	e.WriteU32(m.RequestID)
	e.WriteU32(m.QueryID)
	return nil
}

type SubscribeMulti struct {
	Queries   []string
	RequestID uint32
	QueryID   uint32
}

func (m SubscribeMulti) tag() uint8 { return clientTagSubscribeMulti }
func (m SubscribeMulti) encodeATN(e *bsatn.Encoder) error {
	if err := bsatn.EncodeSliceErr(e, m.Queries, func(e *bsatn.Encoder, s string) error { return e.WriteString(s) }); err != nil {
		return err
	}
	e.WriteU32(m.RequestID)
	e.WriteU32(m.QueryID)
	return nil
}

type Unsubscribe struct {
	RequestID uint32
	QueryID   uint32
}

func (m Unsubscribe) tag() uint8 { return clientTagUnsubscribe }
func (m Unsubscribe) encodeATN(e *bsatn.Encoder) error {
	e.WriteU32(m.RequestID)
	e.WriteU32(m.QueryID)
	return nil
}

type UnsubscribeMulti struct {
	RequestID uint32
	QueryID   uint32
}

func (m UnsubscribeMulti) tag() uint8 { return clientTagUnsubscribeMulti }
func (m UnsubscribeMulti) encodeATN(e *bsatn.Encoder) error {
	e.WriteU32(m.RequestID)
	e.WriteU32(m.QueryID)
	return nil
}

type CallProcedure struct {
	Name      string
	Args      []byte
	RequestID uint32
	Flags     ReducerFlags
}

func (m CallProcedure) tag() uint8 { return clientTagCallProcedure }
func (m CallProcedure) encodeATN(e *bsatn.Encoder) error {
	if err := e.WriteString(m.Name); err != nil {
		return err
	}
	if err := e.WriteBytes(m.Args); err != nil {
		return err
	}
	e.WriteU32(m.RequestID)
	e.WriteU8(uint8(m.Flags))
	return nil
}
