package compression

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/go-playground/assert/v2"
)

func compressBrotli(t *testing.T, payload []byte) []byte {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	_, err := w.Write(payload)
	assert.Equal(t, err, nil)
	assert.Equal(t, w.Close(), nil)
	return buf.Bytes()
}

func compressZlib(t *testing.T, payload []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(payload)
	assert.Equal(t, err, nil)
	assert.Equal(t, w.Close(), nil)
	return buf.Bytes()
}

func TestDecodeFrameNoneEmpty(t *testing.T) {
	out, err := DecodeFrame([]byte{byte(TagNone)})
	assert.Equal(t, err, nil)
	assert.Equal(t, out, []byte{})
}

func TestDecodeFrameInsufficientData(t *testing.T) {
	_, err := DecodeFrame([]byte{})
	assert.Equal(t, err, ErrInsufficientData)
}

func TestDecodeFrameUnknownTag(t *testing.T) {
	_, err := DecodeFrame([]byte{0x03, 0x01, 0x02})
	assert.NotEqual(t, err, nil)
}

func TestBrotliRoundTripSmallAndLarge(t *testing.T) {
	small := []byte("hello world")
	large := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog. ", 2000))

	for _, payload := range [][]byte{small, large} {
		compressed := compressBrotli(t, payload)
		frame := EncodeFrame(TagBrotli, compressed)
		out, err := DecodeFrame(frame)
		assert.Equal(t, err, nil)
		assert.Equal(t, out, payload)
	}

	compressedLarge := compressBrotli(t, large)
	assert.Equal(t, len(compressedLarge) < len(large), true)
}

func TestZlibRoundTripSmallAndLarge(t *testing.T) {
	small := []byte("x")
	large := bytes.Repeat([]byte("abcdefghij"), 8000)

	for _, payload := range [][]byte{small, large} {
		compressed := compressZlib(t, payload)
		frame := EncodeFrame(TagZlib, compressed)
		out, err := DecodeFrame(frame)
		assert.Equal(t, err, nil)
		assert.Equal(t, out, payload)
	}

	compressedLarge := compressZlib(t, large)
	assert.Equal(t, len(compressedLarge) < len(large), true)
}

func TestGzipRowDeltaRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("row-delta-payload"), 4000)
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(payload)
	assert.Equal(t, err, nil)
	assert.Equal(t, w.Close(), nil)

	out, err := DecompressGzip(buf.Bytes())
	assert.Equal(t, err, nil)
	assert.Equal(t, out, payload)
	assert.Equal(t, len(buf.Bytes()) < len(payload), true)
}
