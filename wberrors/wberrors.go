// Package wberrors defines the user-visible error taxonomy for the
// wavebase client: the fixed set of error values application code is
// expected to match against with errors.As, regardless of which
// internal layer (codec, compression, transport) produced the failure.
package wberrors

import (
	"errors"
	"fmt"
	"time"
)

// NotConnected is returned by any call that requires the Connected state.
var NotConnected = errors.New("wavebase: not connected")

// Cancelled is returned to callers whose pending call was in flight when
// disconnect() ran.
var Cancelled = errors.New("wavebase: cancelled")

// ConnectionFailed wraps the cause of a failed socket dial or handshake.
type ConnectionFailed struct {
	Cause error
}

func (e *ConnectionFailed) Error() string { return fmt.Sprintf("wavebase: connection failed: %v", e.Cause) }
func (e *ConnectionFailed) Unwrap() error  { return e.Cause }

// ReconnectFailed is returned when every reconnect attempt in a backoff
// sequence has been exhausted.
type ReconnectFailed struct {
	Attempts int
}

func (e *ReconnectFailed) Error() string {
	return fmt.Sprintf("wavebase: reconnect failed after %d attempts", e.Attempts)
}

// ReducerCallFailed is returned when a TransactionUpdate resolves to
// Failed(msg) for the caller's reducer invocation.
type ReducerCallFailed struct {
	Name string
	Msg  string
}

func (e *ReducerCallFailed) Error() string {
	return fmt.Sprintf("wavebase: reducer %q failed: %s", e.Name, e.Msg)
}

// ReducerTimeout is returned when no TransactionUpdate arrives for a
// reducer call's request id within the configured timeout.
type ReducerTimeout struct {
	Name    string
	Timeout time.Duration
}

func (e *ReducerTimeout) Error() string {
	return fmt.Sprintf("wavebase: reducer %q timed out after %s", e.Name, e.Timeout)
}

// ReducerOutOfEnergy is returned when a TransactionUpdate resolves to
// OutOfEnergy for the caller's reducer invocation.
type ReducerOutOfEnergy struct {
	Name string
}

func (e *ReducerOutOfEnergy) Error() string {
	return fmt.Sprintf("wavebase: reducer %q ran out of energy", e.Name)
}

// SubscriptionFailed is returned when a SubscriptionError with a present
// request id completes the caller's subscribe call.
type SubscriptionFailed struct {
	Msg string
}

func (e *SubscriptionFailed) Error() string { return fmt.Sprintf("wavebase: subscription failed: %s", e.Msg) }

// BuilderMissingConfiguration is returned by ConnectionConfig validation
// when a caller-required field was never set.
type BuilderMissingConfiguration struct {
	Field string
}

func (e *BuilderMissingConfiguration) Error() string {
	return fmt.Sprintf("wavebase: missing required configuration field %q", e.Field)
}

// ConnectionClosed is returned to pending callers when an established
// connection is lost, before any reconnect attempt, and is passed to the
// disconnect callback when reconnection is disabled. A caller-initiated
// disconnect() completes pending callers with Cancelled instead.
type ConnectionClosed struct {
	Reason string // text of the error that ended the connection; empty if there was none
}

func (e *ConnectionClosed) Error() string {
	if e.Reason == "" {
		return "wavebase: connection closed"
	}
	return fmt.Sprintf("wavebase: connection closed: %s", e.Reason)
}

// WrapInternal wraps a low-level codec/compression/transport error so its
// cause survives errors.Is/As chains without leaking internal error
// values past the public surface as the primary error type.
func WrapInternal(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("wavebase: %s: %w", op, cause)
}
