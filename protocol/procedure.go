package protocol

import (
	"fmt"

	"github.com/wavebase/client-go/bsatn"
)

// ProcedureStatus mirrors UpdateStatus's shape but carries a raw result
// payload instead of a DatabaseUpdate: procedures return a value to the
// caller rather than mutating subscribed tables as their primary effect.
// spec.md names CallProcedure/ProcedureResult as first-class wire
// variants (§4.B) without detailing ProcedureResult's fields; this shape
// is the natural generalization of TransactionUpdate.Status.
type ProcedureStatus struct {
	Committed   []byte
	Failed      *string
	OutOfEnergy bool
}

const (
	procedureStatusTagCommitted  = 0
	procedureStatusTagFailed     = 1
	procedureStatusTagOutOfEnergy = 2
)

func (s ProcedureStatus) EncodeATN(e *bsatn.Encoder) error {
	switch {
	case s.Committed != nil:
		e.WriteVariantTag(procedureStatusTagCommitted)
		return e.WriteBytes(s.Committed)
	case s.Failed != nil:
		e.WriteVariantTag(procedureStatusTagFailed)
		return e.WriteString(*s.Failed)
	case s.OutOfEnergy:
		e.WriteVariantTag(procedureStatusTagOutOfEnergy)
		return nil
	default:
		return fmt.Errorf("protocol: ProcedureStatus has no variant set")
	}
}

func DecodeProcedureStatus(d *bsatn.Decoder) (ProcedureStatus, error) {
	tag, err := d.ReadVariantTag()
	if err != nil {
		return ProcedureStatus{}, err
	}
	switch tag {
	case procedureStatusTagCommitted:
		b, err := d.ReadBytes()
		if err != nil {
			return ProcedureStatus{}, err
		}
		return ProcedureStatus{Committed: b}, nil
	case procedureStatusTagFailed:
		msg, err := d.ReadString()
		if err != nil {
			return ProcedureStatus{}, err
		}
		return ProcedureStatus{Failed: &msg}, nil
	case procedureStatusTagOutOfEnergy:
		return ProcedureStatus{OutOfEnergy: true}, nil
	default:
		return ProcedureStatus{}, fmt.Errorf("%w: ProcedureStatus tag %d", bsatn.ErrInvalidEnumTag, tag)
	}
}

type ProcedureResultMsg struct {
	RequestID             uint32
	ProcedureName         string
	Status                ProcedureStatus
	Timestamp             bsatn.Timestamp
	HostExecutionDuration bsatn.Duration
}

func (m ProcedureResultMsg) tag() uint8 { return serverTagProcedureResult }
func (m ProcedureResultMsg) encodeATN(e *bsatn.Encoder) error {
	e.WriteU32(m.RequestID)
	if err := e.WriteString(m.ProcedureName); err != nil {
		return err
	}
	if err := m.Status.EncodeATN(e); err != nil {
		return err
	}
	m.Timestamp.EncodeATN(e)
	m.HostExecutionDuration.EncodeATN(e)
	return nil
}

func decodeProcedureResultMsg(d *bsatn.Decoder) (ProcedureResultMsg, error) {
	requestID, err := d.ReadU32()
	if err != nil {
		return ProcedureResultMsg{}, err
	}
	name, err := d.ReadString()
	if err != nil {
		return ProcedureResultMsg{}, err
	}
	status, err := DecodeProcedureStatus(d)
	if err != nil {
		return ProcedureResultMsg{}, err
	}
	ts, err := bsatn.DecodeTimestamp(d)
	if err != nil {
		return ProcedureResultMsg{}, err
	}
	dur, err := bsatn.DecodeDuration(d)
	if err != nil {
		return ProcedureResultMsg{}, err
	}
	return ProcedureResultMsg{
		RequestID:             requestID,
		ProcedureName:         name,
		Status:                status,
		Timestamp:             ts,
		HostExecutionDuration: dur,
	}, nil
}
