package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophdrive/internal/client/client"
	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/dmitrijs2005/gophdrive/internal/client/repositories/transfers"
	"github.com/dmitrijs2005/gophdrive/internal/filex"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/transfer"
)

// FileService covers everything the CLI does with remote files.
type FileService interface {
	List(ctx context.Context) ([]models.RemoteFile, error)
	Upload(ctx context.Context, path string, fn transfer.ProgressFunc) (*transfer.UploadResult, error)
	Download(ctx context.Context, id, destDir string) (string, error)
	Delete(ctx context.Context, id string) error
	History(ctx context.Context, limit int) ([]*models.Transfer, error)
	AlreadyUploaded(ctx context.Context, path string) (bool, error)
}

type fileService struct {
	client     client.Client
	journal    transfers.Repository
	uploader   *transfer.Uploader
	downloader *transfer.Downloader
	logger     logging.Logger
}

func NewFileService(c client.Client, journal transfers.Repository, session *transfer.Session, parallelism int, logger logging.Logger) FileService {
	return &fileService{
		client:     c,
		journal:    journal,
		uploader:   transfer.NewUploader(session, c, logger, parallelism),
		downloader: transfer.NewDownloader(session, c, logger, parallelism),
		logger:     logger,
	}
}

func (s *fileService) List(ctx context.Context) ([]models.RemoteFile, error) {
	return s.client.ListFiles(ctx)
}

func (s *fileService) Delete(ctx context.Context, id string) error {
	return s.client.DeleteFile(ctx, id)
}

func (s *fileService) History(ctx context.Context, limit int) ([]*models.Transfer, error) {
	return s.journal.ListRecent(ctx, limit)
}

// Upload sends the file at path and journals the outcome.
func (s *fileService) Upload(ctx context.Context, path string, fn transfer.ProgressFunc) (*transfer.UploadResult, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	f, err := transfer.OpenFile(abs)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	f.ID = uuid.NewString()

	rec := &models.Transfer{
		ID:          f.ID,
		Direction:   models.DirectionUpload,
		LocalPath:   abs,
		FileName:    f.Name,
		Size:        f.Size,
		ModifiedAt:  f.LastModified,
		TotalChunks: len(transfer.PlanChunks(f.Size, transfer.ChunkSize)),
	}
	if err := s.journal.Start(ctx, rec); err != nil {
		return nil, err
	}

	res, err := s.uploader.Upload(ctx, f, fn)
	s.finish(ctx, rec, err)
	return res, err
}

// AlreadyUploaded reports whether the file at path, with its current size
// and modification time, has a completed upload in the journal.
func (s *fileService) AlreadyUploaded(ctx context.Context, path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	st, err := os.Stat(abs)
	if err != nil {
		return false, err
	}
	t, err := s.journal.FindCompletedUpload(ctx, abs, st.Size(), st.ModTime().UnixMilli())
	if err != nil {
		return false, err
	}
	return t != nil, nil
}

// Download fetches file id into destDir and returns the path written.
// Nothing is written unless the whole file was reassembled.
func (s *fileService) Download(ctx context.Context, id, destDir string) (string, error) {
	rec := &models.Transfer{ID: id, Direction: models.DirectionDownload}
	if err := s.journal.Start(ctx, rec); err != nil {
		return "", err
	}

	df, err := s.downloader.Download(ctx, id)
	if err != nil {
		s.finish(ctx, rec, err)
		return "", err
	}

	path, err := writeDownloaded(destDir, df)
	if err == nil {
		rec.LocalPath = path
		rec.FileName = df.Name
		rec.Size = int64(len(df.Data))
		rec.ModifiedAt = df.LastModified
		rec.TotalChunks = len(transfer.PlanChunks(rec.Size, transfer.ChunkSize))
		err = s.journal.Start(ctx, rec)
	}
	s.finish(ctx, rec, err)
	return path, err
}

func (s *fileService) finish(ctx context.Context, rec *models.Transfer, err error) {
	status, msg := models.TransferCompleted, ""
	if err != nil {
		status, msg = models.TransferFailed, err.Error()
	}
	// Journal errors are logged, not returned.
	if jerr := s.journal.Finish(context.WithoutCancel(ctx), rec.ID, rec.Direction, status, msg); jerr != nil {
		s.logger.Warn(ctx, "journal update failed", "id", rec.ID, "error", jerr)
	}
}

// writeDownloaded stores df in dir under a name that does not clobber an
// existing file.
func writeDownloaded(dir string, df *transfer.DownloadedFile) (string, error) {
	if err := filex.EnsureDir(dir, 0o755); err != nil {
		return "", err
	}
	target, err := freeName(dir, safeName(df.Name))
	if err != nil {
		return "", err
	}
	if err := filex.WriteFileAtomic(target, df.Data, 0o644); err != nil {
		return "", err
	}
	if !df.LastModified.IsZero() {
		_ = os.Chtimes(target, df.LastModified, df.LastModified)
	}
	return target, nil
}

// safeName strips directories from a server supplied name.
func safeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == ".." || name == string(filepath.Separator) || name == "" {
		return transfer.DefaultFileName
	}
	return name
}

// freeName returns dir/name, or dir/"stem (n)ext" for the first n that
// does not exist yet.
func freeName(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 0; n < 1000; n++ {
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		p := filepath.Join(dir, candidate)
		_, err := os.Lstat(p)
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("no free file name for %s in %s", name, dir)
}
