package transfer

import (
	"errors"

	"github.com/dmitrijs2005/gophdrive/internal/compressx"
	"github.com/dmitrijs2005/gophdrive/internal/cryptox"
)

var (
	ErrKeyNotSet        = cryptox.ErrKeyNotSet
	ErrAuthentication   = cryptox.ErrAuthentication
	ErrMissingServerKey = cryptox.ErrMissingServerKey
	ErrDecompression    = compressx.ErrDecompression

	ErrTruncatedStream   = errors.New("truncated stream")
	ErrMalformedRecord   = errors.New("malformed chunk record")
	ErrUploadFailed      = errors.New("upload failed")
	ErrNegotiationFailed = errors.New("session key negotiation failed")
)
