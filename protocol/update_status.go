package protocol

import (
	"fmt"

	"github.com/wavebase/client-go/bsatn"
)

// UpdateStatus is the closed sum Committed(DatabaseUpdate) | Failed(string)
// | OutOfEnergy carried by TransactionUpdate.
type UpdateStatus struct {
	Committed  *DatabaseUpdate
	Failed     *string
	OutOfEnergy bool
}

const (
	updateStatusTagCommitted  = 0
	updateStatusTagFailed     = 1
	updateStatusTagOutOfEnergy = 2
)

func (s UpdateStatus) EncodeATN(e *bsatn.Encoder) error {
	switch {
	case s.Committed != nil:
		e.WriteVariantTag(updateStatusTagCommitted)
		return s.Committed.EncodeATN(e)
	case s.Failed != nil:
		e.WriteVariantTag(updateStatusTagFailed)
		return e.WriteString(*s.Failed)
	case s.OutOfEnergy:
		e.WriteVariantTag(updateStatusTagOutOfEnergy)
		return nil
	default:
		return fmt.Errorf("protocol: UpdateStatus has no variant set")
	}
}

func DecodeUpdateStatus(d *bsatn.Decoder) (UpdateStatus, error) {
	tag, err := d.ReadVariantTag()
	if err != nil {
		return UpdateStatus{}, err
	}
	switch tag {
	case updateStatusTagCommitted:
		du, err := DecodeDatabaseUpdate(d)
		if err != nil {
			return UpdateStatus{}, err
		}
		return UpdateStatus{Committed: &du}, nil
	case updateStatusTagFailed:
		msg, err := d.ReadString()
		if err != nil {
			return UpdateStatus{}, err
		}
		return UpdateStatus{Failed: &msg}, nil
	case updateStatusTagOutOfEnergy:
		return UpdateStatus{OutOfEnergy: true}, nil
	default:
		return UpdateStatus{}, fmt.Errorf("%w: UpdateStatus tag %d", bsatn.ErrInvalidEnumTag, tag)
	}
}

// ReducerCallInfo identifies which reducer invocation a TransactionUpdate
// is reporting on.
type ReducerCallInfo struct {
	ReducerName string
	ReducerID   uint32
	Args        []byte
	RequestID   uint32
}

func (c ReducerCallInfo) EncodeATN(e *bsatn.Encoder) error {
	if err := e.WriteString(c.ReducerName); err != nil {
		return err
	}
	e.WriteU32(c.ReducerID)
	if err := e.WriteBytes(c.Args); err != nil {
		return err
	}
	e.WriteU32(c.RequestID)
	return nil
}

func DecodeReducerCallInfo(d *bsatn.Decoder) (ReducerCallInfo, error) {
	name, err := d.ReadString()
	if err != nil {
		return ReducerCallInfo{}, err
	}
	id, err := d.ReadU32()
	if err != nil {
		return ReducerCallInfo{}, err
	}
	args, err := d.ReadBytes()
	if err != nil {
		return ReducerCallInfo{}, err
	}
	requestID, err := d.ReadU32()
	if err != nil {
		return ReducerCallInfo{}, err
	}
	return ReducerCallInfo{ReducerName: name, ReducerID: id, Args: args, RequestID: requestID}, nil
}
