package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	Upload(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	History(ctx context.Context, args []string) error
	Watch(ctx context.Context, args []string) error
	Status(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, status, exit"
	helpLoggedIn  = "Available commands: (l)ist, upload <path>, download <id> [dir], delete <id>, history [n], watch [dir|stop], status, logout, exit"
)

// runREPL starts a simple read–eval–print loop for the GophDrive CLI.
//
// It reads a line from reader, parses the first token as the command and
// dispatches to methods on 'a' with the remaining tokens as arguments.
// Commands other than register, login, status and help require a login.
// Errors returned by handlers are printed and the loop goes on. The loop
// exits on EOF, on ctx cancellation, or when the user types "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, out io.Writer) {
	for ctx.Err() == nil {
		fmt.Fprintf(out, "gophdrive %s> ", statusFn())
		line, err := readLine(reader)
		if err != nil {
			fmt.Fprintln(out)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(out, helpLoggedIn)
			} else {
				fmt.Fprintln(out, helpLoggedOut)
			}
			continue

		case "register":
			cmdErr = a.Register(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "status":
			cmdErr = a.Status(ctx)

		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return

		case "l", "list", "upload", "download", "delete", "history", "watch", "logout":
			if !a.isLoggedIn() {
				fmt.Fprintln(out, "Please log in first.")
				continue
			}
			cmdErr = dispatchLoggedIn(ctx, a, cmd, args)

		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
			continue
		}

		if cmdErr != nil {
			fmt.Fprintln(out, "Error:", cmdErr)
		}
	}
}

func dispatchLoggedIn(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "l", "list":
		return a.List(ctx)
	case "upload":
		return a.Upload(ctx, args)
	case "download":
		return a.Download(ctx, args)
	case "delete":
		return a.Delete(ctx, args)
	case "history":
		return a.History(ctx, args)
	case "watch":
		return a.Watch(ctx, args)
	default:
		return a.Logout(ctx)
	}
}
