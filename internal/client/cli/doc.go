// Package cli provides the interactive todokeeper command-line client.
//
// It wires configuration, the HTTP API client and a REPL. A background
// watcher pings the server and shows online/offline in the prompt.
//
// Key features:
//   - Register / Login / Logout
//   - Show and edit the profile, delete the account
//   - Add, list, complete, edit and delete to-do items
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
