// Package transfers is the client's local journal of uploads and
// downloads.
//
// # Overview
//
// Every transfer started by the CLI or the drop folder is recorded as
// pending and later finished as completed or failed. The journal backs
// the "history" command and lets the drop folder skip files whose path,
// size and modification time match a completed upload.
//
// Key Types
//
//   - type Repository: contract used by higher-level services
//   - type SQLiteRepository: SQLite implementation over dbx.DBTX
//
// Typical Usage
//
//	repo := transfers.NewSQLiteRepository(db)
//	_ = repo.Start(ctx, t)
//	_ = repo.Finish(ctx, t.ID, models.DirectionUpload, models.TransferCompleted, "")
//	recent, _ := repo.ListRecent(ctx, 20)
package transfers
