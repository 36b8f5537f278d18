// Package cli provides the interactive gophstore command-line client.
//
// It wires configuration, the local token database, the HTTP client with its
// refresh protocol, the session guard and the upload queue behind a REPL.
//
// Commands that touch the server's protected API first ask the guard; when
// the session cannot be kept alive the tokens are dropped and the user is
// asked to log in again.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
