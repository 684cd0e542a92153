package bsatn

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// Decoder owns a byte slice and a read cursor. It never mutates or copies
// the underlying slice; ReadBytes/ReadRawBytes return views into it, so
// callers that retain decoded byte values past the lifetime of the frame
// buffer must copy them first. ReadString returns a copied string.
type Decoder struct {
	buf []byte
	pos int
}

func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

func (d *Decoder) Pos() int {
	return d.pos
}

// take returns the next n bytes and advances the cursor, or fails with
// ErrUnexpectedEOD if that would read past the end of the buffer.
func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 || d.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes, have %d at offset %d", ErrUnexpectedEOD, n, d.Remaining(), d.pos)
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.take(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0x00:
		return false, nil
	case 0x01:
		return true, nil
	default:
		return false, fmt.Errorf("%w: bool byte 0x%02x", ErrInvalidData, b[0])
	}
}

func (d *Decoder) ReadU8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) ReadI8() (int8, error) {
	v, err := d.ReadU8()
	return int8(v), err
}

func (d *Decoder) ReadU16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *Decoder) ReadI16() (int16, error) {
	v, err := d.ReadU16()
	return int16(v), err
}

func (d *Decoder) ReadU32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) ReadI32() (int32, error) {
	v, err := d.ReadU32()
	return int32(v), err
}

func (d *Decoder) ReadU64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *Decoder) ReadI64() (int64, error) {
	v, err := d.ReadU64()
	return int64(v), err
}

func (d *Decoder) ReadF32() (float32, error) {
	v, err := d.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (d *Decoder) ReadF64() (float64, error) {
	v, err := d.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

func (d *Decoder) ReadU128() (U128, error) {
	lo, err := d.ReadU64()
	if err != nil {
		return U128{}, err
	}
	hi, err := d.ReadU64()
	if err != nil {
		return U128{}, err
	}
	return U128{Lo: lo, Hi: hi}, nil
}

func (d *Decoder) ReadU256() (U256, error) {
	var limbs [4]uint64
	for i := range limbs {
		v, err := d.ReadU64()
		if err != nil {
			return U256{}, err
		}
		limbs[i] = v
	}
	return U256{Limbs: limbs}, nil
}

func (d *Decoder) readLenPrefix() (int, error) {
	n, err := d.ReadU32()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// ReadRawBytes reads exactly n raw bytes with no length prefix.
func (d *Decoder) ReadRawBytes(n int) ([]byte, error) {
	return d.take(n)
}

func (d *Decoder) ReadBytes() ([]byte, error) {
	n, err := d.readLenPrefix()
	if err != nil {
		return nil, err
	}
	return d.take(n)
}

func (d *Decoder) ReadString() (string, error) {
	n, err := d.readLenPrefix()
	if err != nil {
		return "", err
	}
	b, err := d.take(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: string payload is not valid UTF-8", ErrInvalidEncoding)
	}
	return string(b), nil
}

// ReadOptionTag reads the presence tag of an optional value. Any tag
// value other than 0 or 1 is ErrInvalidData.
func (d *Decoder) ReadOptionTag() (bool, error) {
	tag, err := d.ReadU8()
	if err != nil {
		return false, err
	}
	switch tag {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: optional tag %d", ErrInvalidData, tag)
	}
}

func (d *Decoder) ReadVariantTag() (uint8, error) {
	return d.ReadU8()
}
