package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn(ctx context.Context) bool

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Users(ctx context.Context) error

	Workspaces(ctx context.Context) error
	Use(ctx context.Context, workspace string) error
	List(ctx context.Context) error
	Cd(ctx context.Context, folder string) error
	Back(ctx context.Context) error
	Mkdir(ctx context.Context, name string) error
	Get(ctx context.Context, fileID string) error

	Put(ctx context.Context, paths []string) error
	Uploads(ctx context.Context) error
	Cancel(ctx context.Context, id string) error
	Clear(ctx context.Context) error

	MiddlewareStatus(ctx context.Context) error
	Certificates(ctx context.Context) error
	RegisterKey(ctx context.Context, token string) error
	Key(ctx context.Context) error
}

const (
	guestHelp = "Available commands: register, login, mw-status, certs, help, exit"
	userHelp  = "Available commands: whoami, users, workspaces, use <id|name>, ls, cd <id|name|..>, back, " +
		"mkdir <name>, put <path...>, uploads, cancel <id>, clear, get <fileID>, " +
		"mw-status, certs, register-key [token], key, logout, help, exit"
)

// runREPL starts a simple read–eval–print loop.
//
// It reads a line from the provided scanner, parses the first token as the
// command and dispatches to methods on 'a'. Errors returned by handlers are
// printed and the loop continues. The loop exits on scanner EOF, when ctx
// is done, or when the user types "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("gs %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		if ctx.Err() != nil {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn(ctx) {
				printlnFn(userHelp)
			} else {
				printlnFn(guestHelp)
			}

		case "register":
			err = a.Register(ctx)

		case "login":
			err = a.Login(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "whoami":
			err = a.WhoAmI(ctx)

		case "users":
			err = a.Users(ctx)

		case "workspaces", "ws":
			err = a.Workspaces(ctx)

		case "use":
			if len(args) != 1 {
				printlnFn("Usage: use <workspace id|name>")
				continue
			}
			err = a.Use(ctx, args[0])

		case "ls", "l":
			err = a.List(ctx)

		case "cd":
			if len(args) != 1 {
				printlnFn("Usage: cd <folder id|name|..>")
				continue
			}
			err = a.Cd(ctx, args[0])

		case "back":
			err = a.Back(ctx)

		case "mkdir":
			if len(args) == 0 {
				printlnFn("Usage: mkdir <name>")
				continue
			}
			err = a.Mkdir(ctx, strings.Join(args, " "))

		case "put":
			if len(args) == 0 {
				printlnFn("Usage: put <path> [path...]")
				continue
			}
			err = a.Put(ctx, args)

		case "uploads":
			err = a.Uploads(ctx)

		case "cancel":
			if len(args) != 1 {
				printlnFn("Usage: cancel <upload id>")
				continue
			}
			err = a.Cancel(ctx, args[0])

		case "clear":
			err = a.Clear(ctx)

		case "get":
			if len(args) != 1 {
				printlnFn("Usage: get <file id>")
				continue
			}
			err = a.Get(ctx, args[0])

		case "mw-status":
			err = a.MiddlewareStatus(ctx)

		case "certs":
			err = a.Certificates(ctx)

		case "register-key":
			token := ""
			if len(args) > 0 {
				token = args[0]
			}
			err = a.RegisterKey(ctx, token)

		case "key":
			err = a.Key(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
