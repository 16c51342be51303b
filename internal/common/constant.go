// Package common contains constants, sentinel errors and small helpers
// shared by the GophDrive client and server.
package common

// AuthorizationHeaderName carries the bearer token on authenticated
// HTTP requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the JWT in the Authorization header value.
const BearerPrefix = "Bearer "

// Download response headers describing the reassembled file.
const (
	HeaderFileName     = "filename"
	HeaderFileType     = "fileType"
	HeaderLastModified = "lastModified"
)

// Content types of the download body. RecordStreamContentType is the
// original back-to-back JSON protocol; FramedStreamContentType prefixes
// each record with a 4-byte big-endian length.
const (
	RecordStreamContentType = "application/x-ndjson"
	FramedStreamContentType = "application/x-gophdrive-framed"
)
