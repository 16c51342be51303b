// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account. Verifier is the Argon2id stretch of the
// client password digest under Salt.
type User struct {
	ID        string
	UserName  string
	Salt      []byte
	Verifier  []byte
	CreatedAt time.Time
}
