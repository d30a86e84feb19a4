package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophmeet/internal/client/services"
	"github.com/dmitrijs2005/gophmeet/internal/client/session"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL routes to.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	view() session.ViewState
	status() string

	SignUp(ctx context.Context) error
	Login(ctx context.Context) error
	Forgot(ctx context.Context) error
	Verify(ctx context.Context) error
	Resend(ctx context.Context) error
	Confirm(ctx context.Context, args []string) error
	Goto(ctx context.Context, args []string) error
	Setup(ctx context.Context) error
	Done(ctx context.Context) error
	Open(ctx context.Context, args []string) error
	Set(ctx context.Context, args []string) error
	Show(ctx context.Context) error
	Save(ctx context.Context) error
	CloseScreen(ctx context.Context) error
	Avatar(ctx context.Context, args []string) error
	Visit(ctx context.Context, args []string) error
	Notifications(ctx context.Context) error
	Read(ctx context.Context, args []string) error
	Views(ctx context.Context) error
	Post(ctx context.Context, args []string) error
	Posts(ctx context.Context, args []string) error
	Feed(ctx context.Context) error
	Status(ctx context.Context) error
	Logout(ctx context.Context) error
}

func helpFor(v session.ViewState) string {
	switch {
	case v == session.EmailVerification:
		return "Available commands: verify, resend, confirm <email>, goto <login|signup>, status, exit"
	case v.PreAuth():
		return "Available commands: signup, login, forgot, goto <signup|login|forgot>, status, exit"
	case v == session.AccountSetup:
		return "Available commands: setup, done, status, logout, exit"
	default:
		return "Available commands: open <screen>, set <field> <value>, show, save, close, avatar <path|rm>, " +
			"visit <uid>, notifications, read <id|all>, views, post <visibility> <text>, posts [uid], feed, " +
			"setup, status, logout, exit"
	}
}

// runREPL starts the read–eval–print loop of the GophMeet CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on a. The prompt shows the current view and status.
// Command errors are printed as user-facing messages and the loop goes on.
// The loop exits on EOF or when the user types "exit" or "quit".
func runREPL(ctx context.Context, a execIface, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("gm [%s] %s> ", a.view(), a.status()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}
		if cmd == "help" {
			printlnFn(helpFor(a.view()))
			continue
		}

		handled, err := dispatch(ctx, a, cmd, args)
		if !handled {
			printlnFn("Unknown command:", cmd)
			continue
		}
		if err != nil {
			printlnFn("Error:", services.Message(err))
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) (bool, error) {
	switch cmd {
	case "signup":
		return true, a.SignUp(ctx)
	case "login":
		return true, a.Login(ctx)
	case "forgot":
		return true, a.Forgot(ctx)
	case "verify":
		return true, a.Verify(ctx)
	case "resend":
		return true, a.Resend(ctx)
	case "confirm":
		return true, a.Confirm(ctx, args)
	case "goto":
		return true, a.Goto(ctx, args)
	case "setup":
		return true, a.Setup(ctx)
	case "done":
		return true, a.Done(ctx)
	case "open":
		return true, a.Open(ctx, args)
	case "set":
		return true, a.Set(ctx, args)
	case "show":
		return true, a.Show(ctx)
	case "save":
		return true, a.Save(ctx)
	case "close":
		return true, a.CloseScreen(ctx)
	case "avatar":
		return true, a.Avatar(ctx, args)
	case "visit":
		return true, a.Visit(ctx, args)
	case "notifications":
		return true, a.Notifications(ctx)
	case "read":
		return true, a.Read(ctx, args)
	case "views":
		return true, a.Views(ctx)
	case "post":
		return true, a.Post(ctx, args)
	case "posts":
		return true, a.Posts(ctx, args)
	case "feed":
		return true, a.Feed(ctx)
	case "status":
		return true, a.Status(ctx)
	case "logout":
		return true, a.Logout(ctx)
	default:
		return false, nil
	}
}

func (a *App) view() session.ViewState {
	return a.ctrl.View()
}

// status is the short prompt suffix: the signed-in email, the backend mode
// and the open screen with its save status.
func (a *App) status() string {
	var parts []string
	if id := a.ctrl.Identity(); id != nil {
		parts = append(parts, id.Email)
	}
	if m := a.mode(); m != "" {
		parts = append(parts, string(m))
	}
	if s := a.currentScreen(); s != nil {
		parts = append(parts, fmt.Sprintf("%s:%s", s.Schema().Name, s.Status()))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ") "
}

// Root runs the REPL on the app's input until the user exits.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to GophMeet CLI (type 'help' for commands)")

	stop := a.ctrl.OnView(func(v session.ViewState) {
		printlnFn("->", v.String())
		if v != session.Main {
			go a.closeScreen(context.Background())
		}
	})
	defer stop()

	runREPL(ctx, a, a.reader)
}
