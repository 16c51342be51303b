package transfer

import (
	"fmt"

	"github.com/dmitrijs2005/gophdrive/internal/compressx"
	"github.com/dmitrijs2005/gophdrive/internal/cryptox"
)

// Compress deflates a chunk payload into a zlib stream.
func Compress(data []byte) ([]byte, error) {
	return compressx.Compress(data)
}

// Decompress inflates a zlib stream. contentType is informational only;
// every chunk is compressed regardless of the file type.
func Decompress(data []byte, contentType string) ([]byte, error) {
	_ = contentType
	return compressx.Decompress(data, -1)
}

// Encrypt seals plaintext under key with a fresh random IV.
func Encrypt(plaintext []byte, key *cryptox.AEADKey) (cryptox.Nonce, []byte, error) {
	return cryptox.Seal(key, plaintext)
}

// Decrypt authenticates and opens ciphertext.
func Decrypt(iv cryptox.Nonce, ciphertext []byte, key *cryptox.AEADKey) ([]byte, error) {
	return cryptox.Open(key, iv, ciphertext)
}

// ChunkMeta is the per-file metadata copied into every chunk.
type ChunkMeta struct {
	FileID       string
	FileName     string
	FileType     string
	LastModified int64
}

// EncodeChunk compresses and seals one plaintext window.
func EncodeChunk(plain []byte, index, total int, meta ChunkMeta, key *cryptox.AEADKey) (*EncryptedChunk, error) {
	compressed, err := Compress(plain)
	if err != nil {
		return nil, fmt.Errorf("chunk %d: %w", index, err)
	}
	iv, ct, err := Encrypt(compressed, key)
	if err != nil {
		return nil, fmt.Errorf("chunk %d: %w", index, err)
	}
	return &EncryptedChunk{
		IV:             iv,
		Encrypted:      ct,
		OriginalSize:   int64(len(plain)),
		CompressedSize: int64(len(compressed)),
		EncryptedSize:  int64(len(ct)),
		ChunkIndex:     index,
		TotalChunks:    total,
		FileID:         meta.FileID,
		FileName:       meta.FileName,
		FileType:       meta.FileType,
		LastModified:   meta.LastModified,
	}, nil
}

// DecodeChunk opens and inflates a chunk. Authentication is always checked
// before inflation, and the inflated length must equal OriginalSize.
func DecodeChunk(c *EncryptedChunk, key *cryptox.AEADKey) ([]byte, error) {
	compressed, err := Decrypt(c.IV, c.Encrypted, key)
	if err != nil {
		return nil, fmt.Errorf("chunk %d: %w", c.ChunkIndex, err)
	}
	plain, err := compressx.Decompress(compressed, c.OriginalSize)
	if err != nil {
		return nil, fmt.Errorf("chunk %d: %w", c.ChunkIndex, err)
	}
	if int64(len(plain)) != c.OriginalSize {
		return nil, fmt.Errorf("chunk %d: %w: inflated %d bytes, want %d",
			c.ChunkIndex, ErrDecompression, len(plain), c.OriginalSize)
	}
	return plain, nil
}
