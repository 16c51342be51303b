// Package compressx compresses chunk payloads with zlib (RFC 1950), the
// deflate container produced by pako.deflate in browser clients.
package compressx

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// ErrDecompression is returned when input is not a complete, valid zlib
// stream (bad header, truncated data or Adler-32 mismatch).
var ErrDecompression = errors.New("decompression failed")

// Compress deflates data at the default level.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("deflate: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress inflates a zlib stream. A non-negative limit caps the
// inflated size and a stream that expands past it is rejected; a negative
// limit disables the cap.
func Decompress(data []byte, limit int64) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	defer r.Close()

	var src io.Reader = r
	if limit >= 0 {
		src = io.LimitReader(r, limit+1)
	}

	out, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	if limit >= 0 && int64(len(out)) > limit {
		return nil, fmt.Errorf("%w: inflated size exceeds %d bytes", ErrDecompression, limit)
	}
	return out, nil
}
