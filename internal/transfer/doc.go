// Package transfer implements the encrypted chunked file-transfer pipeline.
//
// # Overview
//
// A Session holds the symmetric key negotiated for the current login. The
// Negotiator creates that key, wraps it with the server's RSA public key
// (OAEP, SHA-256) and binds it into the Session once the server accepted it.
//
// Uploader splits a File into ChunkSize windows. Every window is deflated,
// sealed with AES-256-GCM under a fresh random IV and sent as an
// EncryptedChunk. Chunks travel concurrently; ChunkIndex is the only
// ordering truth.
//
// Downloader reads a stream of self-delimited EncryptedChunk records,
// opens and inflates each one and places it in the slot named by its
// ChunkIndex. The file is handed out only when every slot is filled.
//
// # Error Handling
//
// Sentinel errors (ErrKeyNotSet, ErrAuthentication, ErrDecompression,
// ErrTruncatedStream, ErrMalformedRecord, ErrUploadFailed,
// ErrNegotiationFailed, ErrMissingServerKey) are matched with errors.Is.
// Uploads isolate chunk failures and report them together; downloads abort
// on the first failure and never return partial data.
package transfer
