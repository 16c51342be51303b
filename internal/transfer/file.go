package transfer

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultFileType is used when nothing better is known about a file.
const DefaultFileType = "application/octet-stream"

// File is the input of an upload: the bytes to send plus the metadata
// every chunk carries.
type File struct {
	// ID groups the chunks on the server. Upload assigns a random UUID
	// when it is empty.
	ID           string
	Name         string
	Type         string
	LastModified time.Time
	Size         int64
	Content      io.ReaderAt

	closer io.Closer
}

// NewFile wraps an in-memory byte slice.
func NewFile(name, fileType string, modified time.Time, data []byte) *File {
	if fileType == "" {
		fileType = DefaultFileType
	}
	return &File{
		Name:         name,
		Type:         fileType,
		LastModified: modified,
		Size:         int64(len(data)),
		Content:      bytes.NewReader(data),
	}
}

// OpenFile opens a file on disk for upload. The MIME type is taken from
// the extension and, failing that, sniffed from the first 512 bytes.
// The caller must Close the returned File.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%s is a directory", path)
	}

	return &File{
		Name:         filepath.Base(path),
		Type:         detectType(path, f),
		LastModified: st.ModTime(),
		Size:         st.Size(),
		Content:      f,
		closer:       f,
	}, nil
}

// Close releases the underlying file, if any.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

func detectType(path string, r io.ReaderAt) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	head := make([]byte, 512)
	n, _ := r.ReadAt(head, 0)
	if n == 0 {
		return DefaultFileType
	}
	return http.DetectContentType(head[:n])
}
