// Package cli provides the interactive cardkeeper terminal client.
//
// It wires configuration, the local SQLite store, the remote client, the
// session controller and the wallet service behind a small REPL. On start it
// probes the server, tries to restore the previous session and launches a
// connectivity watcher that syncs the wallet whenever the server comes back.
//
// Commands:
//   - register / login / unlock / logout
//   - cards / addcard / rmcard <id>
//   - export <file> / import <file> [append|replace]
//   - sync / status / biometric on|off
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
