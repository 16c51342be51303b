// Package cli provides the interactive GophDrive command-line client.
//
// It wires configuration, the local journal, the transfer services and an
// interactive REPL. Typical flow: restore a saved login (or prompt for
// one), start a background connectivity watcher and the optional drop
// folder, then execute user commands.
//
// Key features:
//   - Register / Login / Logout
//   - List, upload, download and delete remote files
//   - Transfer history from the local journal
//   - Drop folder that uploads whatever lands in it
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
