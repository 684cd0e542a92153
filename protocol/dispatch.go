package protocol

import (
	"fmt"

	"github.com/wavebase/client-go/bsatn"
)

// EncodeClientMessage writes msg's variant tag followed by its ATN
// payload, producing the bytes the session sends as one binary WebSocket
// message. Outbound messages carry no compression tag byte.
func EncodeClientMessage(msg ClientMessage) ([]byte, error) {
	e := bsatn.NewEncoder()
	e.WriteVariantTag(msg.tag())
	if err := msg.encodeATN(e); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// DecodeServerMessage reads a variant tag and dispatches to the matching
// ServerMessage decoder. b is the payload already extracted from a
// transport frame (see compression.DecodeFrame).
func DecodeServerMessage(b []byte) (ServerMessage, error) {
	d := bsatn.NewDecoder(b)
	tag, err := d.ReadVariantTag()
	if err != nil {
		return nil, err
	}
	switch tag {
	case serverTagInitialSubscription:
		return decodeInitialSubscription(d)
	case serverTagTransactionUpdate:
		return decodeTransactionUpdate(d)
	case serverTagTransactionUpdateLight:
		return decodeTransactionUpdateLight(d)
	case serverTagIdentityToken:
		return decodeIdentityToken(d)
	case serverTagOneOffQueryResponse:
		return decodeOneOffQueryResponse(d)
	case serverTagSubscribeApplied:
		return decodeSubscribeApplied(d)
	case serverTagUnsubscribeApplied:
		return decodeUnsubscribeApplied(d)
	case serverTagSubscriptionError:
		return decodeSubscriptionError(d)
	case serverTagSubscribeMultiApplied:
		return decodeSubscribeMultiApplied(d)
	case serverTagUnsubscribeMultiApplied:
		return decodeUnsubscribeMultiApplied(d)
	case serverTagProcedureResult:
		return decodeProcedureResultMsg(d)
	default:
		return nil, fmt.Errorf("%w: server tag %d", ErrUnknownMessageType, tag)
	}
}
