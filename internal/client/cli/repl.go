package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL dispatches to.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isUnlocked() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Unlock(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
	Cards(ctx context.Context) error
	AddCard(ctx context.Context) error
	RemoveCard(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
	Sync(ctx context.Context) error
	Biometric(ctx context.Context, args []string) error
}

const (
	helpGuest    = "Available commands: register, login, unlock, status, cards, addcard, rmcard, export, import, exit"
	helpUnlocked = "Available commands: cards, addcard, rmcard <id>, export <file>, import <file> [append|replace], sync, status, biometric on|off, logout, exit"
)

// runREPL reads commands line by line from reader and dispatches them to a.
// The loop exits on EOF or when the user types "exit" or "quit".
//
// Errors returned by handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("ck %s > ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
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
			if a.isUnlocked() {
				printlnFn(helpUnlocked)
			} else {
				printlnFn(helpGuest)
			}

		case "register":
			cmdErr = a.Register(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "unlock":
			cmdErr = a.Unlock(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "status":
			cmdErr = a.Status(ctx)

		case "l", "cards":
			cmdErr = a.Cards(ctx)

		case "addcard":
			cmdErr = a.AddCard(ctx)

		case "rmcard":
			cmdErr = a.RemoveCard(ctx, args)

		case "export":
			cmdErr = a.Export(ctx, args)

		case "import":
			cmdErr = a.Import(ctx, args)

		case "sync":
			cmdErr = a.Sync(ctx)

		case "biometric":
			cmdErr = a.Biometric(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
		if err != nil {
			return
		}
	}
}
