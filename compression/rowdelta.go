package compression

import (
	"bytes"
	"compress/gzip"
	"io"
)

// DecompressGzip decompresses a single per-query row delta payload. Row
// deltas use gzip or brotli (see DecompressBrotli), per the wire format's
// CompressableQueryUpdate variants, where frames use zlib or brotli.
func DecompressGzip(compressed []byte) ([]byte, error) {
	return decompressWithGrowth(newGzipReader, compressed, "gzip")
}

func newGzipReader(compressed []byte) (io.Reader, error) {
	return gzip.NewReader(bytes.NewReader(compressed))
}

// DecompressBrotli exposes brotli decompression directly for callers
// decoding a CompressableQueryUpdate.Brotli payload, which is compressed
// independently of the frame-level tag.
func DecompressBrotli(compressed []byte) ([]byte, error) {
	return decompressWithGrowth(newBrotliReader, compressed, "brotli")
}
