// Package cli provides the interactive GophMeet command-line client.
//
// The REPL renders the session controller's current view in the prompt and
// routes commands to the auth services, the account setup form and the
// auto-saving settings screens. A background watcher probes the backend and
// flips the client between online and offline mode.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
