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
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) error
	Profile(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
	Add(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Done(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
}

// runREPL starts a simple read–eval–print loop for the todokeeper CLI.
//
// It reads a line from reader, parses the first token as the command and
// dispatches to methods on 'a'; remaining tokens are passed as arguments.
// The loop exits on EOF or when the user types "exit" or "quit".
//
//	Not logged in:
//	  - help             show available commands
//	  - register         create an account
//	  - login            authenticate
//	  - exit | quit      leave the program
//
//	Logged in:
//	  - me                       show the account and its to-do items
//	  - profile                  change email and/or password
//	  - add                      add a to-do item
//	  - (l)ist [skip] [limit]    list to-do items
//	  - done <id>                mark an item completed
//	  - edit <id>                change title and/or description
//	  - delete <id>              delete an item
//	  - unregister               delete the account
//	  - logout                   forget the access token
//
// Handler errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("todo> %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
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
				printlnFn("Available commands: me, profile, add, (l)ist, done, edit, delete, unregister, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			cmdErr = a.Register(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "me":
			cmdErr = a.Me(ctx)

		case "profile":
			cmdErr = a.Profile(ctx)

		case "unregister":
			cmdErr = a.DeleteAccount(ctx)

		case "add":
			cmdErr = a.Add(ctx)

		case "l", "list":
			cmdErr = a.List(ctx, args)

		case "done":
			cmdErr = a.Done(ctx, args)

		case "edit":
			cmdErr = a.Edit(ctx, args)

		case "delete":
			cmdErr = a.Delete(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr.Error())
		}
	}
}
