package bsatn

import (
	"encoding/binary"
	"math/big"
)

// U128 is a 128-bit unsigned integer, stored as two 64-bit limbs with Lo
// holding the least-significant 64 bits, matching the wire's
// least-significant-limb-first layout.
type U128 struct {
	Lo uint64
	Hi uint64
}

func U128FromBigInt(v *big.Int) U128 {
	var be [16]byte
	v.FillBytes(be[:])
	return U128{
		Hi: binary.BigEndian.Uint64(be[0:8]),
		Lo: binary.BigEndian.Uint64(be[8:16]),
	}
}

func (v U128) BigInt() *big.Int {
	var be [16]byte
	binary.BigEndian.PutUint64(be[0:8], v.Hi)
	binary.BigEndian.PutUint64(be[8:16], v.Lo)
	return new(big.Int).SetBytes(be[:])
}

// U256 is a 256-bit unsigned integer stored as four 64-bit limbs,
// Limbs[0] least-significant.
type U256 struct {
	Limbs [4]uint64
}

func U256FromBigInt(v *big.Int) U256 {
	var be [32]byte
	v.FillBytes(be[:])
	var out U256
	for i := 0; i < 4; i++ {
		out.Limbs[i] = binary.BigEndian.Uint64(be[24-8*i : 32-8*i])
	}
	return out
}

func (v U256) BigInt() *big.Int {
	var be [32]byte
	for i := 0; i < 4; i++ {
		binary.BigEndian.PutUint64(be[24-8*i:32-8*i], v.Limbs[i])
	}
	return new(big.Int).SetBytes(be[:])
}

// ConnectionId is a 64-bit session-scoped identifier, 8 bytes
// little-endian on the wire.
type ConnectionId uint64

func (c ConnectionId) EncodeATN(e *Encoder) {
	e.WriteU64(uint64(c))
}

func DecodeConnectionId(d *Decoder) (ConnectionId, error) {
	v, err := d.ReadU64()
	return ConnectionId(v), err
}

// Duration is a signed 64-bit nanosecond count, additive with Timestamp.
type Duration int64

func (dur Duration) EncodeATN(e *Encoder) {
	e.WriteI64(int64(dur))
}

func DecodeDuration(d *Decoder) (Duration, error) {
	v, err := d.ReadI64()
	return Duration(v), err
}

// Timestamp is microseconds since the Unix epoch. It is monotonically
// comparable and additive with Duration.
type Timestamp int64

func (t Timestamp) EncodeATN(e *Encoder) {
	e.WriteI64(int64(t))
}

func DecodeTimestamp(d *Decoder) (Timestamp, error) {
	v, err := d.ReadI64()
	return Timestamp(v), err
}

func (t Timestamp) Add(d Duration) Timestamp {
	return t + Timestamp(d/1000)
}

func (t Timestamp) Sub(other Timestamp) Duration {
	return Duration(t-other) * 1000
}

func (t Timestamp) Before(other Timestamp) bool {
	return t < other
}

func (t Timestamp) After(other Timestamp) bool {
	return t > other
}
