package transfer

import (
	"context"
	"io"
	"time"
)

// KeyExchange is the part of the transport used during negotiation.
type KeyExchange interface {
	// ServerPublicKey returns the SPKI PEM received at login, or "".
	ServerPublicKey(ctx context.Context) (string, error)
	// PostSessionKey delivers the base64 RSA-wrapped session key.
	PostSessionKey(ctx context.Context, wrapped string) error
}

// ChunkSender uploads one chunk. onProgress receives the number of
// request body bytes written so far and the total body size.
type ChunkSender interface {
	UploadChunk(ctx context.Context, c *EncryptedChunk, onProgress func(sent, total int64)) (*EncryptedChunk, error)
}

// StreamOpener opens the record stream of a stored file.
type StreamOpener interface {
	DownloadFile(ctx context.Context, id string) (*DownloadStream, error)
}

// Transport bundles everything the pipeline needs from the server.
type Transport interface {
	KeyExchange
	ChunkSender
	StreamOpener
}

// DownloadStream is an open download response. Header values are empty
// (or zero) when the server did not send them.
type DownloadStream struct {
	Body         io.ReadCloser
	ContentType  string
	FileName     string
	FileType     string
	LastModified time.Time
}
