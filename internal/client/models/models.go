// Package models defines client-side data models used by the GophDrive CLI.
package models

import "time"

// RemoteFile is one row of the server's file listing.
type RemoteFile struct {
	UUID      string    `json:"uuid"`
	FileName  string    `json:"fileName"`
	Size      int64     `json:"size"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Direction tells uploads from downloads in the local journal.
type Direction string

const (
	DirectionUpload   Direction = "upload"
	DirectionDownload Direction = "download"
)

// TransferStatus is the state of a journaled transfer.
type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferCompleted TransferStatus = "completed"
	TransferFailed    TransferStatus = "failed"
)

// Transfer is one entry of the local transfer journal. ID is the server
// file id. LocalPath, Size and ModifiedAt identify the local copy so that
// the drop folder can skip files it already sent.
type Transfer struct {
	ID          string
	Direction   Direction
	LocalPath   string
	FileName    string
	Size        int64
	ModifiedAt  time.Time
	TotalChunks int
	Status      TransferStatus
	Error       string
	UpdatedAt   time.Time
}
