package compression

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

// Tag is the single-byte compression discriminant prefixed to every
// inbound server frame.
type Tag uint8

const (
	TagNone   Tag = 0
	TagBrotli Tag = 1
	TagZlib   Tag = 2
)

func (t Tag) String() string {
	switch t {
	case TagNone:
		return "none"
	case TagBrotli:
		return "brotli"
	case TagZlib:
		return "zlib"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

var (
	ErrInsufficientData     = errors.New("compression: frame has no compression tag byte")
	ErrUnknownCompressionTag = errors.New("compression: unknown compression tag")
	ErrDecompressionFailed  = errors.New("compression: decompression failed")
)

// DecodeFrame splits an inbound frame into its compression tag and the
// (possibly compressed) payload, then decompresses it.
func DecodeFrame(frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, ErrInsufficientData
	}
	tag := Tag(frame[0])
	payload := frame[1:]
	switch tag {
	case TagNone:
		if len(payload) == 0 {
			return []byte{}, nil
		}
		out := make([]byte, len(payload))
		copy(out, payload)
		return out, nil
	case TagBrotli:
		return decompressWithGrowth(newBrotliReader, payload, "brotli")
	case TagZlib:
		return decompressWithGrowth(newZlibReader, payload, "zlib")
	default:
		return nil, fmt.Errorf("%w: tag %d", ErrUnknownCompressionTag, tag)
	}
}

// EncodeFrame prefixes payload with tag, producing a frame in the inbound
// layout DecodeFrame reads. It does not compress payload. The session
// does not use it: outbound client messages are sent untagged.
func EncodeFrame(tag Tag, payload []byte) []byte {
	out := make([]byte, 1+len(payload))
	out[0] = byte(tag)
	copy(out[1:], payload)
	return out
}

func newBrotliReader(compressed []byte) (io.Reader, error) {
	return brotli.NewReader(bytes.NewReader(compressed)), nil
}

func newZlibReader(compressed []byte) (io.Reader, error) {
	return zlib.NewReader(bytes.NewReader(compressed))
}

// decompressWithGrowth implements the fixed-size-buffer decompression
// heuristic: try a 4x buffer, then a 64x buffer, then give up. A reader
// that exactly fills its buffer is treated as possibly truncated and
// retried at the next size; a reader that terminates before filling its
// buffer is treated as a complete, successful decode.
func decompressWithGrowth(newReader func([]byte) (io.Reader, error), compressed []byte, algoName string) ([]byte, error) {
	sizes := [2]int{len(compressed) * 4, len(compressed) * 64}
	if sizes[0] == 0 {
		sizes[0] = 64
	}
	if sizes[1] == 0 {
		sizes[1] = 4096
	}

	var lastErr error
	for _, size := range sizes {
		out, truncated, err := tryDecompress(newReader, compressed, size)
		if err != nil {
			lastErr = err
			continue
		}
		if !truncated {
			return out, nil
		}
		lastErr = fmt.Errorf("output exceeds %d-byte buffer", size)
	}
	return nil, fmt.Errorf("%w (%s): %v", ErrDecompressionFailed, algoName, lastErr)
}

func tryDecompress(newReader func([]byte) (io.Reader, error), compressed []byte, size int) (out []byte, truncated bool, err error) {
	r, err := newReader(compressed)
	if err != nil {
		return nil, false, err
	}
	buf := make([]byte, size)
	n, rerr := io.ReadFull(r, buf)
	switch {
	case rerr == nil:
		// filled exactly: may be truncated, caller retries with a larger buffer
		return nil, true, nil
	case rerr == io.ErrUnexpectedEOF || rerr == io.EOF:
		return buf[:n], false, nil
	default:
		return nil, false, rerr
	}
}
