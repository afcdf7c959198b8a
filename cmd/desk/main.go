package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/hongminglow/approval-desk/internal/api"
	"github.com/hongminglow/approval-desk/internal/cli"
	"github.com/hongminglow/approval-desk/internal/config"
	"github.com/hongminglow/approval-desk/internal/lifecycle"
	"github.com/hongminglow/approval-desk/internal/session"
	"github.com/hongminglow/approval-desk/internal/storage"
	"github.com/hongminglow/approval-desk/internal/storage/file"
	"github.com/hongminglow/approval-desk/internal/storage/memory"
	"github.com/hongminglow/approval-desk/internal/ui"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "desk: %v\n", err)
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	global, rest, err := cli.ParseGlobal(args)
	if err != nil {
		return err
	}
	if global.APIURL != "" {
		os.Setenv("API_BASE_URL", global.APIURL)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	interactive := len(rest) == 0 || rest[0] == "tui"
	logger, closeLog, err := newLogger(cfg, interactive)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	var tokens storage.TokenStore = file.NewTokenStore(cfg.TokenPath)
	if global.Ephemeral {
		tokens = memory.NewTokenStore("")
	}

	var guard *session.Guard
	client, err := api.New(cfg.APIBaseURL, tokens,
		api.WithTimeout(cfg.HTTPTimeout),
		api.WithLogger(logger),
		api.WithUnauthorizedHandler(func(token string) {
			if guard.Invalidate(token) {
				logger.Info("session rejected by server; signed out")
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}
	guard = session.NewGuard(tokens, client, session.WithLogger(logger))
	if identity, ok := guard.Restore(); ok {
		logger.Debug("session restored", "subject", identity.ID, "role", identity.Role)
	}
	control := lifecycle.NewController(client, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Guard:   guard,
		Service: client,
		Control: control,
		RunTUI: func(path string) error {
			model := ui.New(guard, client, control, ui.WithLogger(logger), ui.WithStartPath(path))
			_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
	return app.Run(ctx, rest)
}

// newLogger writes to stderr for one-shot commands. The console owns the
// terminal, so there logs go to LOG_FILE or nowhere.
func newLogger(cfg config.Config, interactive bool) (*slog.Logger, func(), error) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if !interactive {
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), func() {}, nil
	}
	if cfg.LogFile == "" {
		return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewJSONHandler(f, opts)), func() { f.Close() }, nil
}
