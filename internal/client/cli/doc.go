// Package cli provides the gnotes command-line client.
//
// It wires configuration, the local store, the sync engine and an interactive
// REPL. Every REPL command is also available as a one-shot subcommand.
// Note commands work offline. Changes are queued and pushed by the
// background processor once the server is reachable.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See NewCmdRoot and runREPL for details.
package cli
