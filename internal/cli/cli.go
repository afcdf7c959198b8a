// Package cli implements the non-interactive desk subcommands. Every
// command is routed through the same session gate as the terminal UI, and
// every transition goes through the lifecycle controller after an explicit
// confirmation.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/hongminglow/approval-desk/internal/api"
	"github.com/hongminglow/approval-desk/internal/lifecycle"
	"github.com/hongminglow/approval-desk/internal/models"
	"github.com/hongminglow/approval-desk/internal/session"
	"github.com/hongminglow/approval-desk/internal/ui"
)

var (
	// ErrNotLoggedIn means the command needs a session and none is usable.
	ErrNotLoggedIn = errors.New("not logged in; run 'desk login'")
	// ErrForbidden means the signed-in role cannot use the command.
	ErrForbidden = errors.New("not available for your role")
	// ErrInvalidCredentials means the service refused the username or password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUsage marks bad arguments.
	ErrUsage = errors.New("usage")
	// ErrAborted is returned when a confirmation is declined.
	ErrAborted = errors.New("aborted")
)

// Service is everything the commands need from the transaction service.
type Service interface {
	ui.Backend
	lifecycle.Transitioner
}

// App holds the wired dependencies for one invocation.
type App struct {
	Guard   *session.Guard
	Service Service
	Control *lifecycle.Controller

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Terminal reports whether stdin is interactive. Nil means check os.Stdin.
	Terminal func() bool
	// ReadPassword reads a secret without echo. Nil means x/term on os.Stdin.
	ReadPassword func() ([]byte, error)
	// RunTUI starts the interactive console at path.
	RunTUI func(path string) error

	in *bufio.Reader
}

type command struct {
	name    string
	args    string
	summary string
	run     func(a *App, ctx context.Context, args []string) error
}

var commands = []command{
	{name: "login", args: "[username] [--password-file path]", summary: "Sign in and store the access token", run: (*App).login},
	{name: "logout", summary: "Forget the stored access token", run: (*App).logout},
	{name: "whoami", summary: "Show the signed-in identity", run: (*App).whoami},
	{name: "stats", summary: "Show transaction counts and rates", run: (*App).stats},
	{name: "list", args: "[--status S] [--search ref]", summary: "List transactions", run: (*App).list},
	{name: "approvals", args: "[--search ref]", summary: "List transactions pending approval", run: (*App).approvals},
	{name: "show", args: "<id>", summary: "Show one transaction", run: (*App).show},
	{name: "create", args: "--amount N --currency CODE", summary: "Create a draft transaction", run: (*App).create},
	{name: "submit", args: "<id> [--yes]", summary: "Submit a draft for approval", run: transitionCommand(lifecycle.Submit)},
	{name: "approve", args: "<id> [--yes]", summary: "Approve a pending transaction", run: transitionCommand(lifecycle.Approve)},
	{name: "reject", args: "<id> [--yes]", summary: "Reject a pending transaction", run: transitionCommand(lifecycle.Reject)},
	{name: "execute", args: "<id> [--yes]", summary: "Execute an approved transaction", run: transitionCommand(lifecycle.Execute)},
	{name: "tui", args: "[path]", summary: "Open the interactive console (default)", run: (*App).tui},
}

// Global holds flags accepted before the subcommand.
type Global struct {
	Ephemeral bool
	APIURL    string
}

// ParseGlobal splits leading global flags from the subcommand and its args.
func ParseGlobal(args []string) (Global, []string, error) {
	var g Global
	fs := pflag.NewFlagSet("desk", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SetInterspersed(false)
	fs.BoolVar(&g.Ephemeral, "ephemeral", false, "keep the session in memory only")
	fs.StringVar(&g.APIURL, "api", "", "override API_BASE_URL")
	if err := fs.Parse(args); err != nil {
		return Global{}, nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return g, fs.Args(), nil
}

// Run dispatches args to a subcommand. No subcommand opens the console.
func (a *App) Run(ctx context.Context, args []string) error {
	if a.Stdin == nil {
		a.Stdin = os.Stdin
	}
	if a.Stdout == nil {
		a.Stdout = os.Stdout
	}
	if a.Stderr == nil {
		a.Stderr = os.Stderr
	}
	a.in = bufio.NewReader(a.Stdin)

	if len(args) == 0 {
		return a.tui(ctx, nil)
	}
	name := args[0]
	if name == "help" || name == "-h" || name == "--help" {
		a.printHelp()
		return nil
	}
	for _, c := range commands {
		if c.name == name {
			return explain(c.run(a, ctx, args[1:]))
		}
	}
	a.printHelp()
	return fmt.Errorf("%w: unknown command %q", ErrUsage, name)
}

func (a *App) printHelp() {
	fmt.Fprintln(a.Stderr, "Usage:\n  desk [--ephemeral] [--api URL] <command> [flags]\n\nCommands:")
	tw := tabwriter.NewWriter(a.Stderr, 2, 0, 3, ' ', 0)
	for _, c := range commands {
		fmt.Fprintf(tw, "  %s %s\t%s\n", c.name, c.args, c.summary)
	}
	tw.Flush()
}

// explain maps a rejected session onto the login hint.
func explain(err error) error {
	if err != nil && errors.Is(err, api.ErrUnauthorized) && !errors.Is(err, ErrInvalidCredentials) {
		return fmt.Errorf("%w (%w)", ErrNotLoggedIn, err)
	}
	return err
}

// gate applies the route guard for path and returns the signed-in identity
// when the route is allowed.
func (a *App) gate(path string) (session.Decision, models.Identity, error) {
	identity, ok := a.Guard.Current()
	var decision session.Decision
	if ok {
		decision = session.Gate(&identity, path)
	} else {
		decision = session.Gate(nil, path)
	}
	switch decision.Outcome {
	case session.RedirectLogin:
		return decision, models.Identity{}, ErrNotLoggedIn
	case session.RedirectHome:
		return decision, models.Identity{}, ErrForbidden
	case session.NotFound:
		return decision, models.Identity{}, fmt.Errorf("%w: no route %s", ErrUsage, path)
	}
	return decision, identity, nil
}

func newFlags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUsage, fs.Name(), err)
	}
	return nil
}

func (a *App) terminal() bool {
	if a.Terminal != nil {
		return a.Terminal()
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func (a *App) readLine(prompt string) (string, error) {
	fmt.Fprint(a.Stderr, prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *App) readSecret(prompt string) (string, error) {
	if !a.terminal() {
		return a.readLine(prompt)
	}
	fmt.Fprint(a.Stderr, prompt)
	read := a.ReadPassword
	if read == nil {
		read = func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) }
	}
	secret, err := read()
	fmt.Fprintln(a.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(secret), nil
}

// confirm asks question unless yes is set. Only "y" or "yes" accepts.
func (a *App) confirm(question string, yes bool) error {
	if yes {
		return nil
	}
	answer, err := a.readLine(question + " [y/N] ")
	if err != nil {
		return ErrAborted
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	}
	return ErrAborted
}

func (a *App) tui(_ context.Context, args []string) error {
	if a.RunTUI == nil {
		return errors.New("interactive console unavailable")
	}
	path := session.PathDashboard
	if len(args) > 0 {
		path = args[0]
	}
	return a.RunTUI(path)
}
