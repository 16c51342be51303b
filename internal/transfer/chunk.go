package transfer

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/gophdrive/internal/cryptox"
)

// ChunkSize is the plaintext window each file is split into.
const ChunkSize = 64 * 1024

// MaxTotalChunks bounds the slot table a single download may allocate.
const MaxTotalChunks = 1 << 20

// EncryptedChunk is one sealed chunk as it travels on the wire. The JSON
// form is the record format: iv is an array of 12 numbers, encrypted is
// standard base64, sizes and indices are integers, lastModified is Unix
// milliseconds.
type EncryptedChunk struct {
	IV             cryptox.Nonce `json:"iv"`
	Encrypted      []byte        `json:"encrypted"`
	OriginalSize   int64         `json:"originalSize"`
	CompressedSize int64         `json:"compressedSize"`
	EncryptedSize  int64         `json:"encryptedSize"`
	ChunkIndex     int           `json:"chunkIndex"`
	TotalChunks    int           `json:"totalChunks"`
	FileID         string        `json:"fileId,omitempty"`
	FileName       string        `json:"fileName"`
	FileType       string        `json:"fileType"`
	LastModified   int64         `json:"lastModified"`
}

// ChunkRange is the byte window of a file covered by one chunk.
type ChunkRange struct {
	Index  int
	Offset int64
	Length int64
}

// PlanChunks divides size bytes into windows of chunkSize, the last one
// truncated to the remainder. An empty file still yields one empty chunk
// so that it can be stored and downloaded like any other file.
func PlanChunks(size, chunkSize int64) []ChunkRange {
	if size <= 0 {
		return []ChunkRange{{Index: 0}}
	}
	total := int((size + chunkSize - 1) / chunkSize)
	ranges := make([]ChunkRange, total)
	for i := range ranges {
		off := int64(i) * chunkSize
		ranges[i] = ChunkRange{Index: i, Offset: off, Length: min(chunkSize, size-off)}
	}
	return ranges
}

// wireChunk mirrors EncryptedChunk with pointer fields so that missing
// members can be told apart from zero values.
type wireChunk struct {
	IV             []int   `json:"iv"`
	Encrypted      *string `json:"encrypted"`
	OriginalSize   *int64  `json:"originalSize"`
	CompressedSize *int64  `json:"compressedSize"`
	EncryptedSize  *int64  `json:"encryptedSize"`
	ChunkIndex     *int    `json:"chunkIndex"`
	TotalChunks    *int    `json:"totalChunks"`
	FileID         string  `json:"fileId"`
	FileName       string  `json:"fileName"`
	FileType       string  `json:"fileType"`
	LastModified   int64   `json:"lastModified"`
}

// ParseChunk decodes and validates one JSON record. Anything that does not
// describe a well-formed chunk fails with ErrMalformedRecord.
func ParseChunk(data []byte) (*EncryptedChunk, error) {
	var w wireChunk
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return w.toChunk()
}

func (w *wireChunk) toChunk() (*EncryptedChunk, error) {
	switch {
	case w.Encrypted == nil:
		return nil, malformed("missing encrypted")
	case w.ChunkIndex == nil || w.TotalChunks == nil:
		return nil, malformed("missing chunkIndex/totalChunks")
	case w.OriginalSize == nil:
		return nil, malformed("missing originalSize")
	}

	iv, err := nonceFromInts(w.IV)
	if err != nil {
		return nil, err
	}
	ct, err := base64.StdEncoding.DecodeString(*w.Encrypted)
	if err != nil {
		return nil, malformed("encrypted is not base64: %v", err)
	}

	c := &EncryptedChunk{
		IV:           iv,
		Encrypted:    ct,
		OriginalSize: *w.OriginalSize,
		ChunkIndex:   *w.ChunkIndex,
		TotalChunks:  *w.TotalChunks,
		FileID:       w.FileID,
		FileName:     w.FileName,
		FileType:     w.FileType,
		LastModified: w.LastModified,
	}
	if w.CompressedSize != nil {
		c.CompressedSize = *w.CompressedSize
	}
	c.EncryptedSize = int64(len(ct))
	if w.EncryptedSize != nil && *w.EncryptedSize != c.EncryptedSize {
		return nil, malformed("encryptedSize %d does not match payload %d", *w.EncryptedSize, c.EncryptedSize)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the structural invariants of a chunk record.
func (c *EncryptedChunk) Validate() error {
	switch {
	case c.TotalChunks < 1 || c.TotalChunks > MaxTotalChunks:
		return malformed("totalChunks %d out of range", c.TotalChunks)
	case c.ChunkIndex < 0 || c.ChunkIndex >= c.TotalChunks:
		return malformed("chunkIndex %d out of range [0,%d)", c.ChunkIndex, c.TotalChunks)
	case c.OriginalSize < 0 || c.OriginalSize > ChunkSize:
		return malformed("originalSize %d out of range", c.OriginalSize)
	case len(c.Encrypted) < cryptox.TagSize:
		return malformed("ciphertext shorter than tag")
	}
	return nil
}

func nonceFromInts(v []int) (cryptox.Nonce, error) {
	var n cryptox.Nonce
	if len(v) != cryptox.NonceSize {
		return n, malformed("iv has %d bytes, want %d", len(v), cryptox.NonceSize)
	}
	for i, b := range v {
		if b < 0 || b > 255 {
			return n, malformed("iv[%d]=%d is not a byte", i, b)
		}
		n[i] = byte(b)
	}
	return n, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedRecord, fmt.Sprintf(format, args...))
}
