package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/gophdrive/internal/cryptox"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
)

// DefaultParallelism is the number of chunks in flight per upload.
const DefaultParallelism = 4

// UploadResult describes a finished upload. Acks holds the server echo
// for every chunk that completed, indexed by ChunkIndex (nil for failed
// chunks).
type UploadResult struct {
	FileID      string
	TotalChunks int
	Statuses    []ProgressStatus
	Acks        []*EncryptedChunk
}

// Uploader splits files into chunks and sends them concurrently.
type Uploader struct {
	session     *Session
	sender      ChunkSender
	logger      logging.Logger
	parallelism int
}

func NewUploader(session *Session, sender ChunkSender, logger logging.Logger, parallelism int) *Uploader {
	if parallelism < 1 {
		parallelism = DefaultParallelism
	}
	return &Uploader{session: session, sender: sender, logger: logger, parallelism: parallelism}
}

// Upload sends f as ceil(Size/ChunkSize) chunks (one empty chunk for an
// empty file). A failing chunk does not stop its siblings; the call
// returns once every chunk has reached a terminal state and, if any
// failed, an error wrapping ErrUploadFailed and each chunk error.
// Chunks already accepted by the server are not rolled back.
func (u *Uploader) Upload(ctx context.Context, f *File, fn ProgressFunc) (*UploadResult, error) {
	key, err := u.session.Key()
	if err != nil {
		return nil, err
	}

	ranges := PlanChunks(f.Size, ChunkSize)
	fileID := f.ID
	if fileID == "" {
		fileID = uuid.NewString()
	}
	meta := ChunkMeta{
		FileID:       fileID,
		FileName:     f.Name,
		FileType:     f.Type,
		LastModified: unixMilli(f),
	}
	tracker := newProgressTracker(fileID, ranges, fn)
	acks := make([]*EncryptedChunk, len(ranges))
	errs := make([]error, len(ranges))

	log := u.logger.With("file_id", fileID, "file", f.Name)
	log.Info(ctx, "upload started", "size", f.Size, "chunks", len(ranges))

	var g errgroup.Group
	g.SetLimit(u.parallelism)
	for _, r := range ranges {
		g.Go(func() error {
			ack, err := u.sendChunk(ctx, f, r, len(ranges), meta, key, tracker)
			if err != nil {
				log.Warn(ctx, "chunk failed", "chunk", r.Index, "error", err)
				errs[r.Index] = err
				tracker.fail(r.Index, err)
				return nil
			}
			acks[r.Index] = ack
			tracker.complete(r.Index, ack)
			return nil
		})
	}
	_ = g.Wait()

	res := &UploadResult{
		FileID:      fileID,
		TotalChunks: len(ranges),
		Statuses:    tracker.snapshot(),
		Acks:        acks,
	}
	if err := errors.Join(errs...); err != nil {
		return res, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	log.Info(ctx, "upload complete")
	return res, nil
}

func (u *Uploader) sendChunk(ctx context.Context, f *File, r ChunkRange, total int, meta ChunkMeta, key *cryptox.AEADKey, t *progressTracker) (*EncryptedChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("chunk %d: %w", r.Index, err)
	}

	plain := make([]byte, r.Length)
	if r.Length > 0 {
		n, err := f.Content.ReadAt(plain, r.Offset)
		if n < len(plain) {
			if err == nil || errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("chunk %d: read: %w", r.Index, err)
		}
	}

	c, err := EncodeChunk(plain, r.Index, total, meta, key)
	if err != nil {
		return nil, err
	}

	ack, err := u.sender.UploadChunk(ctx, c, func(sent, size int64) {
		t.progress(r.Index, sent, size)
	})
	if err != nil {
		return nil, fmt.Errorf("chunk %d: %w", r.Index, err)
	}
	return ack, nil
}

func unixMilli(f *File) int64 {
	if f.LastModified.IsZero() {
		return 0
	}
	return f.LastModified.UnixMilli()
}
