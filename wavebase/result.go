package wavebase

import (
	"github.com/wavebase/client-go/bsatn"
	"github.com/wavebase/client-go/protocol"
)

// ReducerResult is the success value of CallReducer: a committed
// TransactionUpdate's status, timestamp, energy, and duration.
type ReducerResult struct {
	Status                protocol.UpdateStatus
	Timestamp              bsatn.Timestamp
	EnergyConsumed         uint64
	HostExecutionDuration  bsatn.Duration
}

// ProcedureResult is the success value of CallProcedure.
type ProcedureResult struct {
	Status                protocol.ProcedureStatus
	Timestamp              bsatn.Timestamp
	HostExecutionDuration  bsatn.Duration
}
