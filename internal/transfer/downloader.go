package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/gophdrive/internal/cryptox"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
)

// DefaultFileName is used when neither headers nor records name the file.
const DefaultFileName = "download.bin"

// DownloadedFile is a fully reassembled file.
type DownloadedFile struct {
	Name         string
	Type         string
	LastModified time.Time
	Data         []byte
}

// Downloader streams a file's records and reassembles the plaintext.
type Downloader struct {
	session     *Session
	opener      StreamOpener
	logger      logging.Logger
	parallelism int
}

func NewDownloader(session *Session, opener StreamOpener, logger logging.Logger, parallelism int) *Downloader {
	if parallelism < 1 {
		parallelism = DefaultParallelism
	}
	return &Downloader{session: session, opener: opener, logger: logger, parallelism: parallelism}
}

// Download fetches file id. Records may arrive in any order; each is
// authenticated, inflated and placed by ChunkIndex. The first failure
// cancels the stream and is returned; no partial data is ever returned.
func (d *Downloader) Download(ctx context.Context, id string) (*DownloadedFile, error) {
	key, err := d.session.Key()
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.parallelism)

	stream, err := d.opener.DownloadFile(gctx, id)
	if err != nil {
		return nil, fmt.Errorf("open download: %w", err)
	}
	defer stream.Body.Close()
	stop := context.AfterFunc(gctx, func() { _ = stream.Body.Close() })
	defer stop()

	log := d.logger.With("file_id", id)
	job := &downloadJob{}
	readErr := d.readRecords(gctx, g, newRecordReader(stream.Body, stream.ContentType), job, key)

	if err := g.Wait(); err != nil {
		log.Warn(ctx, "download failed", "error", err)
		return nil, err
	}
	if readErr != nil {
		log.Warn(ctx, "download failed", "error", readErr)
		return nil, readErr
	}

	data, err := job.assemble()
	if err != nil {
		log.Warn(ctx, "download failed", "error", err)
		return nil, err
	}

	out := job.metadata(stream)
	out.Data = data
	log.Info(ctx, "download complete", "chunks", job.total, "size", len(data))
	return out, nil
}

// readRecords pulls records until the stream ends or fails, handing each
// one to the group for decoding. It stops early once the group context is
// cancelled by a failed decode.
func (d *Downloader) readRecords(ctx context.Context, g *errgroup.Group, rr recordReader, job *downloadJob, key *cryptox.AEADKey) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rec, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := job.reserve(rec); err != nil {
			return err
		}
		g.Go(func() error {
			plain, err := DecodeChunk(rec, key)
			if err != nil {
				return err
			}
			job.store(rec.ChunkIndex, plain)
			return nil
		})
	}
}

// downloadJob is the slot table of one download. reserve runs on the
// reading goroutine only; store writes distinct slots from decode tasks;
// assemble runs after every task has finished.
type downloadJob struct {
	total    int
	slots    [][]byte
	reserved []bool
	first    *EncryptedChunk
}

func (j *downloadJob) reserve(c *EncryptedChunk) error {
	if j.first == nil {
		j.first = c
		j.total = c.TotalChunks
		j.slots = make([][]byte, c.TotalChunks)
		j.reserved = make([]bool, c.TotalChunks)
	}
	if c.TotalChunks != j.total {
		return malformed("chunk %d says totalChunks=%d, stream started with %d", c.ChunkIndex, c.TotalChunks, j.total)
	}
	if j.reserved[c.ChunkIndex] {
		return malformed("duplicate chunk %d", c.ChunkIndex)
	}
	j.reserved[c.ChunkIndex] = true
	return nil
}

func (j *downloadJob) store(i int, plain []byte) {
	j.slots[i] = plain
}

func (j *downloadJob) assemble() ([]byte, error) {
	if j.first == nil {
		return nil, fmt.Errorf("%w: no records", ErrTruncatedStream)
	}
	size := 0
	for i, r := range j.reserved {
		if !r {
			return nil, fmt.Errorf("%w: chunk %d of %d missing", ErrTruncatedStream, i, j.total)
		}
		size += len(j.slots[i])
	}
	data := make([]byte, 0, size)
	for _, s := range j.slots {
		data = append(data, s...)
	}
	return data, nil
}

// metadata resolves name, type and modification time: response headers
// first, then the first record, then fixed defaults.
func (j *downloadJob) metadata(s *DownloadStream) *DownloadedFile {
	out := &DownloadedFile{
		Name:         s.FileName,
		Type:         s.FileType,
		LastModified: s.LastModified,
	}
	if out.Name == "" {
		out.Name = j.first.FileName
	}
	if out.Type == "" {
		out.Type = j.first.FileType
	}
	if out.LastModified.IsZero() && j.first.LastModified > 0 {
		out.LastModified = time.UnixMilli(j.first.LastModified)
	}
	if out.Name == "" {
		out.Name = DefaultFileName
	}
	if out.Type == "" {
		out.Type = DefaultFileType
	}
	return out
}
