// Package client contains the client-side building blocks that talk to
// the GophDrive server and open the local database.
//
// # Overview
//
// The package provides:
//  1. The Client contract: Register, Login, ListFiles, DeleteFile, Ping
//     and the transfer.Transport methods used by the chunk pipeline.
//  2. HTTPClient, the implementation over the server's HTTP API. It keeps
//     the bearer token and server public key from login, streams chunk
//     uploads as multipart forms with byte-level progress and maps HTTP
//     statuses to sentinel errors. Ping uses the gRPC health service.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying the embedded goose migrations.
//
// # Error Handling
//
// ErrUnauthorized (401/403), ErrNotFound (404), ErrAlreadyExists (409),
// ErrUnavailable (network failure, 502/503/504, NOT_SERVING) and
// ErrRequestFailed (anything else) are matched with errors.Is.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use; chunk uploads run in parallel.
// All operations accept context.Context and honor cancellation.
package client
