package protocol

import "errors"

var (
	// ErrUnknownMessageType is returned by DecodeServerMessage when a
	// decoded server frame's tag has no known variant.
	ErrUnknownMessageType = errors.New("protocol: unknown message type")
)
