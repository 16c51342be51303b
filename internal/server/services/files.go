package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/compressx"
	"github.com/dmitrijs2005/gophdrive/internal/cryptox"
	"github.com/dmitrijs2005/gophdrive/internal/dbx"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/server/config"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/blobs"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophdrive/internal/transfer"
)

const storageKeyInfo = "gophdrive/chunks/"

// FileService stores uploaded chunks and streams them back. Chunks arrive
// sealed under the user's session key; they are opened, checked, and
// re-sealed under a per-user storage key before they reach the blob store.
type FileService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	blobs         blobs.Store
	sessions      SessionKeys
	storageSecret []byte
	logger        logging.Logger
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, store blobs.Store, sessions SessionKeys,
	cfg *config.Config, logger logging.Logger) *FileService {
	return &FileService{
		db:            db,
		repomanager:   m,
		blobs:         store,
		sessions:      sessions,
		storageSecret: []byte(cfg.StorageSecret),
		logger:        logger,
	}
}

// UploadChunk stores one chunk of a user's file and returns its metadata.
// A chunk without fileId is accepted only for single-chunk files, which
// get a fresh ID.
func (s *FileService) UploadChunk(ctx context.Context, userID string, c *transfer.EncryptedChunk) (*transfer.EncryptedChunk, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	if c.FileID == "" {
		if c.TotalChunks > 1 {
			return nil, fmt.Errorf("%w: fileId is required for multi-chunk files", common.ErrorValidation)
		}
		c.FileID = uuid.NewString()
	}

	sessionKey, err := s.sessions.Get(userID)
	if err != nil {
		return nil, err
	}
	compressed, err := cryptox.Open(sessionKey, c.IV, c.Encrypted)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk %d: %v", common.ErrorValidation, c.ChunkIndex, err)
	}
	if c.CompressedSize != 0 && int64(len(compressed)) != c.CompressedSize {
		return nil, fmt.Errorf("%w: chunk %d: compressedSize %d does not match payload %d",
			common.ErrorValidation, c.ChunkIndex, c.CompressedSize, len(compressed))
	}
	plain, err := compressx.Decompress(compressed, c.OriginalSize)
	if err != nil || int64(len(plain)) != c.OriginalSize {
		return nil, fmt.Errorf("%w: chunk %d does not inflate to originalSize", common.ErrorValidation, c.ChunkIndex)
	}

	storageKey, err := s.storageKey(userID)
	if err != nil {
		return nil, err
	}
	nonce, sealed, err := cryptox.Seal(storageKey, compressed)
	if err != nil {
		return nil, err
	}

	file := &models.File{
		ID:           c.FileID,
		UserID:       userID,
		FileName:     c.FileName,
		FileType:     c.FileType,
		LastModified: c.LastModified,
		TotalChunks:  c.TotalChunks,
	}
	if file.FileName == "" {
		file.FileName = transfer.DefaultFileName
	}
	if file.FileType == "" {
		file.FileType = transfer.DefaultFileType
	}
	chunk := &models.Chunk{
		FileID:         c.FileID,
		Index:          c.ChunkIndex,
		OriginalSize:   c.OriginalSize,
		CompressedSize: int64(len(compressed)),
		BlobKey:        blobs.ChunkKey(userID, c.FileID, c.ChunkIndex),
	}

	if err := s.blobs.Put(ctx, chunk.BlobKey, append(nonce[:], sealed...)); err != nil {
		return nil, err
	}
	err = s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Files(tx).Ensure(ctx, file); err != nil {
			return err
		}
		return s.repomanager.Chunks(tx).Put(ctx, chunk)
	})
	if err != nil {
		s.discardBlob(ctx, chunk)
		return nil, err
	}

	s.logger.Debug(ctx, "chunk stored", "user_id", userID, "file_id", c.FileID,
		"chunk", c.ChunkIndex, "total", c.TotalChunks)

	return &transfer.EncryptedChunk{
		IV:             c.IV,
		OriginalSize:   c.OriginalSize,
		CompressedSize: chunk.CompressedSize,
		EncryptedSize:  int64(len(c.Encrypted)),
		ChunkIndex:     c.ChunkIndex,
		TotalChunks:    c.TotalChunks,
		FileID:         c.FileID,
		FileName:       file.FileName,
		FileType:       file.FileType,
		LastModified:   file.LastModified,
	}, nil
}

// discardBlob removes the blob of a chunk whose metadata was rolled back,
// unless a chunk stored by an earlier upload still points at the same key.
func (s *FileService) discardBlob(ctx context.Context, chunk *models.Chunk) {
	stored, err := s.repomanager.Chunks(s.db).ListByFile(ctx, chunk.FileID)
	if err != nil {
		s.logger.Warn(ctx, "orphan check failed, blob kept", "key", chunk.BlobKey, "error", err)
		return
	}
	for _, c := range stored {
		if c.BlobKey == chunk.BlobKey {
			return
		}
	}
	if err := s.blobs.Delete(ctx, chunk.BlobKey); err != nil {
		s.logger.Warn(ctx, "blob delete failed", "key", chunk.BlobKey, "error", err)
	}
}

// List returns the files of userID, oldest first.
func (s *FileService) List(ctx context.Context, userID string) ([]*models.File, error) {
	return s.repomanager.Files(s.db).ListByUser(ctx, userID)
}

// Delete removes a file together with its chunks and blobs.
func (s *FileService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.repomanager.Files(s.db).Get(ctx, userID, id); err != nil {
		return err
	}
	chunks, err := s.repomanager.Chunks(s.db).ListByFile(ctx, id)
	if err != nil {
		return err
	}

	err = s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Chunks(tx).DeleteByFile(ctx, id); err != nil {
			return err
		}
		return s.repomanager.Files(tx).Delete(ctx, userID, id)
	})
	if err != nil {
		return err
	}

	for _, c := range chunks {
		if err := s.blobs.Delete(ctx, c.BlobKey); err != nil {
			s.logger.Warn(ctx, "blob delete failed", "key", c.BlobKey, "error", err)
		}
	}
	s.logger.Info(ctx, "file deleted", "user_id", userID, "file_id", id)
	return nil
}

// Download is a prepared download. File is known before the first chunk
// is read so the caller can send headers up front.
type Download struct {
	File       *models.File
	svc        *FileService
	chunks     []*models.Chunk
	sessionKey *cryptox.AEADKey
	storageKey *cryptox.AEADKey
}

// OpenDownload checks ownership, completeness and the session key of a
// download without touching the blob store.
func (s *FileService) OpenDownload(ctx context.Context, userID, id string) (*Download, error) {
	file, err := s.repomanager.Files(s.db).Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !file.Complete() {
		return nil, ErrIncompleteFile
	}
	chunks, err := s.repomanager.Chunks(s.db).ListByFile(ctx, id)
	if err != nil {
		return nil, err
	}
	sessionKey, err := s.sessions.Get(userID)
	if err != nil {
		return nil, err
	}
	storageKey, err := s.storageKey(userID)
	if err != nil {
		return nil, err
	}
	return &Download{File: file, svc: s, chunks: chunks, sessionKey: sessionKey, storageKey: storageKey}, nil
}

// Stream emits every chunk in index order, re-sealed under the session
// key with a fresh IV.
func (d *Download) Stream(ctx context.Context, emit func(*transfer.EncryptedChunk) error) error {
	for _, c := range d.chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := d.chunk(ctx, c)
		if err != nil {
			return err
		}
		if err := emit(rec); err != nil {
			return err
		}
	}
	return nil
}

func (d *Download) chunk(ctx context.Context, c *models.Chunk) (*transfer.EncryptedChunk, error) {
	blob, err := d.svc.blobs.Get(ctx, c.BlobKey)
	if err != nil {
		return nil, fmt.Errorf("chunk %d: %w", c.Index, err)
	}
	if len(blob) < cryptox.NonceSize {
		return nil, fmt.Errorf("chunk %d: %w: blob too short", c.Index, common.ErrorInternal)
	}
	var nonce cryptox.Nonce
	copy(nonce[:], blob)
	compressed, err := cryptox.Open(d.storageKey, nonce, blob[cryptox.NonceSize:])
	if err != nil {
		return nil, fmt.Errorf("chunk %d: %w", c.Index, err)
	}

	iv, ct, err := cryptox.Seal(d.sessionKey, compressed)
	if err != nil {
		return nil, err
	}
	return &transfer.EncryptedChunk{
		IV:             iv,
		Encrypted:      ct,
		OriginalSize:   c.OriginalSize,
		CompressedSize: int64(len(compressed)),
		EncryptedSize:  int64(len(ct)),
		ChunkIndex:     c.Index,
		TotalChunks:    d.File.TotalChunks,
		FileID:         d.File.ID,
		FileName:       d.File.FileName,
		FileType:       d.File.FileType,
		LastModified:   d.File.LastModified,
	}, nil
}

func (s *FileService) storageKey(userID string) (*cryptox.AEADKey, error) {
	return cryptox.DeriveStorageKey(s.storageSecret, storageKeyInfo+userID)
}

// withTx runs fn in a transaction, or directly when there is no database.
func (s *FileService) withTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if s.db == nil {
		return fn(ctx, nil)
	}
	return dbx.WithTx(ctx, s.db, nil, fn)
}
