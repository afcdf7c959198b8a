package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/approval-desk/internal/config"
	"github.com/hongminglow/approval-desk/internal/lifecycle"
	"github.com/hongminglow/approval-desk/internal/models"
	"github.com/hongminglow/approval-desk/internal/sandbox"
	"github.com/hongminglow/approval-desk/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found; relying on existing environment")
	}

	cfg, err := config.LoadSandbox()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	store := sandbox.NewStore()
	if err := seed(store); err != nil {
		logger.Error("seed sandbox", "error", err)
		os.Exit(1)
	}

	srv := server.New(cfg, store, logger)

	go func() {
		logger.Info("approval sandbox listening", "addr", cfg.HTTPAddress())
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", "error", err)
	}
}

// seed creates the demo logins and one transaction in each status.
func seed(store *sandbox.Store) error {
	operator, err := store.AddUser("operator", "operator@example.com", "operator123", models.Operator)
	if err != nil {
		return err
	}
	approver, err := store.AddUser("approver", "approver@example.com", "approver123", models.Approver)
	if err != nil {
		return err
	}

	paths := [][]lifecycle.Action{
		nil,
		{lifecycle.Submit},
		{lifecycle.Submit, lifecycle.Approve},
		{lifecycle.Submit, lifecycle.Approve, lifecycle.Execute},
		{lifecycle.Submit, lifecycle.Reject},
	}
	for i, actions := range paths {
		txn, err := store.Create(operator, decimal.NewFromInt(int64(1250*(i+1))), models.Currencies[i%len(models.Currencies)])
		if err != nil {
			return err
		}
		for _, action := range actions {
			actor := approver
			if action == lifecycle.Submit {
				actor = operator
			}
			if _, err := store.Transition(actor, txn.ID, action); err != nil {
				return fmt.Errorf("seed %s %s: %w", txn.Reference, action, err)
			}
		}
	}
	return nil
}
