package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"atelier/internal/client/session"
)

// execIface is the command surface the loop dispatches to. App satisfies it;
// tests can substitute a stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Articles(ctx context.Context) error
	Publish(ctx context.Context) error
	Archive(ctx context.Context) error
	Delete(ctx context.Context) error
	Taxonomy(ctx context.Context) error
}

// runLoop reads a command per line and dispatches until EOF, "exit", or
// context cancellation. Handler errors other than cancellation are printed
// and the loop continues.
func runLoop(ctx context.Context, a execIface, scanner *bufio.Scanner, out io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprint(out, prompt(a))
		if !scanner.Scan() {
			return
		}

		cmd := strings.ToLower(strings.TrimSpace(scanner.Text()))
		var err error
		switch cmd {
		case "":
			continue
		case "exit", "quit":
			return
		case "help":
			printHelp(a, out)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "whoami":
			err = a.Whoami(ctx)
		case "articles":
			err = requireLogin(ctx, a, out, a.Articles)
		case "publish":
			err = requireLogin(ctx, a, out, a.Publish)
		case "archive":
			err = requireLogin(ctx, a, out, a.Archive)
		case "delete":
			err = requireLogin(ctx, a, out, a.Delete)
		case "taxonomy":
			err = requireLogin(ctx, a, out, a.Taxonomy)
		default:
			fmt.Fprintf(out, "unknown command %q, try 'help'\n", cmd)
		}

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func requireLogin(ctx context.Context, a execIface, out io.Writer, fn func(context.Context) error) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(out, "log in first")
		return nil
	}
	return fn(ctx)
}

func prompt(a execIface) string {
	if a.isLoggedIn() {
		return "atelier> "
	}
	return "atelier (logged out)> "
}

func printHelp(a execIface, out io.Writer) {
	fmt.Fprintln(out, "commands:")
	fmt.Fprintln(out, "  whoami    show the current session")
	if a.isLoggedIn() {
		fmt.Fprintln(out, "  articles  list articles")
		fmt.Fprintln(out, "  publish   publish an article from the listing")
		fmt.Fprintln(out, "  archive   archive an article from the listing")
		fmt.Fprintln(out, "  delete    delete an article from the listing")
		fmt.Fprintln(out, "  taxonomy  list categories and tags")
		fmt.Fprintln(out, "  logout    end the session")
	} else {
		fmt.Fprintln(out, "  login     authenticate against the API")
	}
	fmt.Fprintln(out, "  exit      leave")
}

// Run restores the persisted session, then hands control to the command
// loop. Restoration happens before the first prompt so the guard never
// reports loading to an interactive user.
func Run(ctx context.Context, a *App, restorer *session.Restorer, in io.Reader) {
	restorer.Restore(ctx)
	if a.isLoggedIn() {
		fmt.Fprintf(a.out, "welcome back, %s\n", a.session.Read().DisplayName())
	}
	runLoop(ctx, a, bufio.NewScanner(in), a.out)
}
