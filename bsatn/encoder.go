package bsatn

import (
	"encoding/binary"
	"fmt"
	"math"
)

const maxU32 = math.MaxUint32

// Encoder owns a single growable byte buffer and appends primitive
// encodings to it in call order. There is no concept of "going back" —
// product and sum encodings are just a sequence of calls in field order.
type Encoder struct {
	buf []byte
}

func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 64)}
}

// NewEncoderSize preallocates a buffer of the given capacity, useful when
// the caller already knows roughly how large the encoded value will be.
func NewEncoderSize(capacity int) *Encoder {
	return &Encoder{buf: make([]byte, 0, capacity)}
}

func (e *Encoder) Bytes() []byte {
	return e.buf
}

func (e *Encoder) Len() int {
	return len(e.buf)
}

func (e *Encoder) WriteBool(v bool) {
	if v {
		e.buf = append(e.buf, 0x01)
	} else {
		e.buf = append(e.buf, 0x00)
	}
}

func (e *Encoder) WriteU8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *Encoder) WriteI8(v int8) {
	e.buf = append(e.buf, byte(v))
}

func (e *Encoder) WriteU16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

func (e *Encoder) WriteI16(v int16) {
	e.WriteU16(uint16(v))
}

func (e *Encoder) WriteU32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

func (e *Encoder) WriteI32(v int32) {
	e.WriteU32(uint32(v))
}

func (e *Encoder) WriteU64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

func (e *Encoder) WriteI64(v int64) {
	e.WriteU64(uint64(v))
}

func (e *Encoder) WriteF32(v float32) {
	e.WriteU32(math.Float32bits(v))
}

func (e *Encoder) WriteF64(v float64) {
	e.WriteU64(math.Float64bits(v))
}

// WriteU128 writes a 16-byte little-endian value, least-significant limb
// first.
func (e *Encoder) WriteU128(v U128) {
	e.WriteU64(v.Lo)
	e.WriteU64(v.Hi)
}

// WriteU256 writes a 32-byte little-endian value, least-significant limb
// first.
func (e *Encoder) WriteU256(v U256) {
	e.WriteU64(v.Limbs[0])
	e.WriteU64(v.Limbs[1])
	e.WriteU64(v.Limbs[2])
	e.WriteU64(v.Limbs[3])
}

// WriteRawBytes appends raw bytes with no length prefix. Used by callers
// that have already written their own length (e.g. a fixed-size field).
func (e *Encoder) WriteRawBytes(b []byte) {
	e.buf = append(e.buf, b...)
}

// WriteLenPrefix writes a u32 length prefix, failing with ErrOverflow if
// n does not fit in 32 bits.
func (e *Encoder) WriteLenPrefix(n int) error {
	if n < 0 || uint64(n) > maxU32 {
		return fmt.Errorf("%w: length %d", ErrOverflow, n)
	}
	e.WriteU32(uint32(n))
	return nil
}

func (e *Encoder) WriteString(s string) error {
	if err := e.WriteLenPrefix(len(s)); err != nil {
		return err
	}
	e.buf = append(e.buf, s...)
	return nil
}

func (e *Encoder) WriteBytes(b []byte) error {
	if err := e.WriteLenPrefix(len(b)); err != nil {
		return err
	}
	e.buf = append(e.buf, b...)
	return nil
}

// WriteOptionTag writes the presence tag only; the caller is responsible
// for writing the payload when present is true.
func (e *Encoder) WriteOptionTag(present bool) {
	if present {
		e.WriteU8(1)
	} else {
		e.WriteU8(0)
	}
}

// WriteVariantTag writes the u8 discriminant of a sum type.
func (e *Encoder) WriteVariantTag(tag uint8) {
	e.WriteU8(tag)
}
