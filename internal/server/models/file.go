package models

import "time"

// File is the metadata of an uploaded file. Size and StoredChunks are
// aggregated from its chunks when read.
type File struct {
	ID           string
	UserID       string
	FileName     string
	FileType     string
	LastModified int64
	TotalChunks  int
	Size         int64
	StoredChunks int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Complete reports whether every chunk of the file has been stored.
func (f *File) Complete() bool {
	return f.StoredChunks == f.TotalChunks
}

// Chunk describes one stored chunk. The sealed payload lives in the blob
// store under BlobKey.
type Chunk struct {
	FileID         string
	Index          int
	OriginalSize   int64
	CompressedSize int64
	BlobKey        string
	CreatedAt      time.Time
}
