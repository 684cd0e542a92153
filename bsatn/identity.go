package bsatn

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// Identity is a 256-bit opaque principal. The in-memory representation is
// big-endian, matching the hex display form; wire encoding reverses it to
// little-endian.
type Identity [32]byte

func IdentityFromHex(s string) (Identity, error) {
	var id Identity
	if len(s) != 64 {
		return id, fmt.Errorf("%w: identity hex must be 64 chars, got %d", ErrInvalidData, len(s))
	}
	buf, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	copy(id[:], buf)
	return id, nil
}

func RequireIdentityFromHex(s string) Identity {
	id, err := IdentityFromHex(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IdentityFromBytesBE constructs an Identity from 32 big-endian bytes.
func IdentityFromBytesBE(b []byte) (Identity, error) {
	var id Identity
	if len(b) != 32 {
		return id, fmt.Errorf("%w: identity must be 32 bytes, got %d", ErrInvalidData, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// IdentityFromBytesLE constructs an Identity from 32 little-endian wire
// bytes, reversing them into the canonical big-endian representation.
func IdentityFromBytesLE(b []byte) (Identity, error) {
	if len(b) != 32 {
		return Identity{}, fmt.Errorf("%w: identity must be 32 bytes, got %d", ErrInvalidData, len(b))
	}
	var id Identity
	for i := 0; i < 32; i++ {
		id[i] = b[31-i]
	}
	return id, nil
}

func (id Identity) BytesBE() []byte {
	out := make([]byte, 32)
	copy(out, id[:])
	return out
}

func (id Identity) BytesLE() []byte {
	out := make([]byte, 32)
	for i := 0; i < 32; i++ {
		out[i] = id[31-i]
	}
	return out
}

func (id Identity) Hex() string {
	return hex.EncodeToString(id[:])
}

func (id Identity) String() string {
	return id.Hex()
}

func (id Identity) IsZero() bool {
	return id == Identity{}
}

// EncodeATN writes the 32-byte little-endian wire form.
func (id Identity) EncodeATN(e *Encoder) {
	e.WriteRawBytes(id.BytesLE())
}

func DecodeIdentity(d *Decoder) (Identity, error) {
	b, err := d.ReadRawBytes(32)
	if err != nil {
		return Identity{}, err
	}
	return IdentityFromBytesLE(b)
}

func (id Identity) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('"')
	buf.WriteString(id.Hex())
	buf.WriteByte('"')
	return buf.Bytes(), nil
}

func (id *Identity) UnmarshalJSON(src []byte) error {
	if len(src) != 66 {
		return fmt.Errorf("%w: invalid length for identity json: %d", ErrInvalidData, len(src))
	}
	parsed, err := IdentityFromHex(string(src[1 : len(src)-1]))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.Hex()), nil
}

func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := IdentityFromHex(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
