package protocol

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/go-playground/assert/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/wavebase/client-go/bsatn"
	"github.com/wavebase/client-go/compression"
)

func TestClientMessageEncodeAllVariants(t *testing.T) {
	msgs := []ClientMessage{
		CallReducer{Name: "create_game", Args: []byte{1, 2, 3}, RequestID: 7, Flags: ReducerFlagFullUpdate},
		Subscribe{Queries: []string{"SELECT * FROM Player"}, RequestID: 8},
		OneOffQuery{MessageID: []byte{0xde, 0xad}, Query: "SELECT * FROM Game"},
		SubscribeSingle{Query: "SELECT * FROM Player", RequestID: 9, QueryID: 1},
		SubscribeMulti{Queries: []string{"SELECT * FROM Player", "SELECT * FROM Game"}, RequestID: 10, QueryID: 2},
		Unsubscribe{RequestID: 11, QueryID: 1},
		UnsubscribeMulti{RequestID: 12, QueryID: 2},
		CallProcedure{Name: "get_leaderboard", Args: []byte{9}, RequestID: 13, Flags: ReducerFlagNoSuccessNotify},
	}

	for _, m := range msgs {
		encoded, err := EncodeClientMessage(m)
		assert.Equal(t, err, nil)
		assert.NotEqual(t, len(encoded), 0)
	}
}

func TestServerMessageRoundTripAllVariants(t *testing.T) {
	identity := bsatn.Identity{}
	for i := range identity {
		identity[i] = byte(i)
	}
	emptyRows := BsatnRowList{Hint: RowSizeHint{FixedSize: new(uint16)}, Buf: nil}
	update := QueryUpdate{Deletes: emptyRows, Inserts: emptyRows}
	dbUpdate := DatabaseUpdate{Tables: []TableUpdate{
		{
			TableID:     1,
			TableName:   "Player",
			NumRowsHint: 0,
			Updates:     []CompressableQueryUpdate{{Uncompressed: &update}},
		},
	}}

	cases := []struct {
		name string
		msg  ServerMessage
	}{
		{"InitialSubscription", InitialSubscription{Update: dbUpdate, RequestID: 1, TotalHostExecutionDuration: bsatn.Duration(500)}},
		{"TransactionUpdate", TransactionUpdate{
			Status:                UpdateStatus{Committed: &dbUpdate},
			Timestamp:              bsatn.Timestamp(1000),
			CallerIdentity:         identity,
			CallerConnectionId:     bsatn.ConnectionId(42),
			ReducerCall:            ReducerCallInfo{ReducerName: "create_game", ReducerID: 3, Args: []byte{1}, RequestID: 7},
			EnergyConsumed:         100,
			HostExecutionDuration:  bsatn.Duration(250),
		}},
		{"TransactionUpdateLight", TransactionUpdateLight{RequestID: 2, Update: dbUpdate}},
		{"IdentityToken", IdentityToken{Identity: identity, Token: "token-abc", ConnectionId: bsatn.ConnectionId(99)}},
		{"OneOffQueryResponse", OneOffQueryResponse{
			MessageID:                  []byte{1, 2},
			Tables:                     []OneOffQueryTable{{TableName: "Player", Rows: emptyRows}},
			TotalHostExecutionDuration: bsatn.Duration(10),
		}},
		{"SubscribeApplied", SubscribeApplied{RequestID: 3, QueryID: 1, TableID: 1, TableName: "Player", Update: CompressableQueryUpdate{Uncompressed: &update}}},
		{"UnsubscribeApplied", UnsubscribeApplied{RequestID: 4, QueryID: 1, TableID: 1, TableName: "Player", Update: CompressableQueryUpdate{Uncompressed: &update}}},
		{"SubscriptionError", SubscriptionError{Error: "bad query"}},
		{"SubscribeMultiApplied", SubscribeMultiApplied{RequestID: 5, QueryID: 2, Update: dbUpdate}},
		{"UnsubscribeMultiApplied", UnsubscribeMultiApplied{RequestID: 6, QueryID: 2, Update: dbUpdate}},
		{"ProcedureResultMsg", ProcedureResultMsg{
			RequestID:             14,
			ProcedureName:         "get_leaderboard",
			Status:                ProcedureStatus{Committed: []byte{7, 8}},
			Timestamp:              bsatn.Timestamp(2000),
			HostExecutionDuration:  bsatn.Duration(300),
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := bsatn.NewEncoder()
			e.WriteVariantTag(tc.msg.tag())
			err := tc.msg.encodeATN(e)
			assert.Equal(t, err, nil)

			decoded, err := DecodeServerMessage(e.Bytes())
			assert.Equal(t, err, nil)

			if diff := cmp.Diff(tc.msg, decoded); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSubscriptionErrorOptionalFieldsAbsent(t *testing.T) {
	msg := SubscriptionError{Error: "subscription dropped"}
	e := bsatn.NewEncoder()
	assert.Equal(t, msg.encodeATN(e), nil)

	d := bsatn.NewDecoder(e.Bytes())
	decoded, err := decodeSubscriptionError(d)
	assert.Equal(t, err, nil)
	assert.Equal(t, decoded.RequestID, (*uint32)(nil))
	assert.Equal(t, decoded.TableID, (*uint32)(nil))
	assert.Equal(t, decoded.Error, "subscription dropped")
}

func TestDecodeServerMessageUnknownTag(t *testing.T) {
	_, err := DecodeServerMessage([]byte{0xFF})
	assert.NotEqual(t, err, nil)
}

// TestEnvelopeCodecRoundTrip exercises spec.md §8 property 12: for every
// pair (CompressionType, ServerMessage-variant),
// decode(decompress(compress(encode(msg), tag))) == msg.
func TestEnvelopeCodecRoundTrip(t *testing.T) {
	identity := bsatn.Identity{}
	for i := range identity {
		identity[i] = byte(i)
	}
	emptyRows := BsatnRowList{Hint: RowSizeHint{FixedSize: new(uint16)}, Buf: nil}
	update := QueryUpdate{Deletes: emptyRows, Inserts: emptyRows}
	dbUpdate := DatabaseUpdate{Tables: []TableUpdate{
		{TableID: 1, TableName: "Player", Updates: []CompressableQueryUpdate{{Uncompressed: &update}}},
	}}

	variants := []ServerMessage{
		InitialSubscription{Update: dbUpdate, RequestID: 1},
		IdentityToken{Identity: identity, Token: "token-abc", ConnectionId: bsatn.ConnectionId(99)},
		SubscriptionError{Error: "bad query"},
	}

	tags := []struct {
		tag      compression.Tag
		compress func([]byte) []byte
	}{
		{compression.TagNone, func(b []byte) []byte { return b }},
		{compression.TagBrotli, compressBrotliForTest},
		{compression.TagZlib, compressZlibForTest},
	}

	for _, msg := range variants {
		for _, tc := range tags {
			t.Run(fmt.Sprintf("%T/%s", msg, tc.tag), func(t *testing.T) {
				e := bsatn.NewEncoder()
				e.WriteVariantTag(msg.tag())
				assert.Equal(t, msg.encodeATN(e), nil)

				frame := compression.EncodeFrame(tc.tag, tc.compress(e.Bytes()))
				payload, err := compression.DecodeFrame(frame)
				assert.Equal(t, err, nil)

				decoded, err := DecodeServerMessage(payload)
				assert.Equal(t, err, nil)

				if diff := cmp.Diff(msg, decoded); diff != "" {
					t.Fatalf("envelope round trip mismatch (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func compressBrotliForTest(payload []byte) []byte {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	w.Write(payload)
	w.Close()
	return buf.Bytes()
}

func compressZlibForTest(payload []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(payload)
	w.Close()
	return buf.Bytes()
}

func TestCompressableQueryUpdateResolveUncompressed(t *testing.T) {
	emptyRows := BsatnRowList{Hint: RowSizeHint{FixedSize: new(uint16)}, Buf: nil}
	update := QueryUpdate{Deletes: emptyRows, Inserts: emptyRows}
	cu := CompressableQueryUpdate{Uncompressed: &update}
	resolved, err := cu.Resolve()
	assert.Equal(t, err, nil)
	assert.Equal(t, resolved, update)
}
