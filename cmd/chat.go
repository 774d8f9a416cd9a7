package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/techtranslator/techtranslator/internal/backend"
	"github.com/techtranslator/techtranslator/internal/chat"
	"github.com/techtranslator/techtranslator/internal/config"
	"github.com/techtranslator/techtranslator/internal/dispatch"
	"github.com/techtranslator/techtranslator/internal/tui"
)

// runChat starts the interactive chat interface.
func runChat() error {
	cfg := initConfig()
	log := newLogger()

	gate, err := buildGate(cfg)
	if err != nil {
		return err
	}

	tokens := gate.CheckExistingSession(context.Background())
	if tokens == nil {
		return fmt.Errorf("not logged in. Run: techtranslator login")
	}

	store, err := openSessionStore(cfg, log)
	if err != nil {
		return err
	}
	if store.Len() == 0 {
		store.NewSession()
	}

	client := backend.NewClient(cfg.API.BaseURL)
	client.SetToken(tokens.IDToken)

	dispatcher := dispatch.New(store, client, log)

	return tui.Run(store, dispatcher)
}

// openSessionStore opens and hydrates the persisted session store under the
// configured data directory.
func openSessionStore(cfg *config.Config, log *slog.Logger) (*chat.Store, error) {
	dataDir := cfg.Storage.Dir
	if dataDir == "" {
		d, err := chat.DefaultDataDir()
		if err != nil {
			return nil, fmt.Errorf("determine data directory: %w", err)
		}
		dataDir = d
	}
	storage, err := chat.NewFileStorage(dataDir)
	if err != nil {
		return nil, err
	}

	store := chat.NewStore(storage, log)
	store.Load()
	return store, nil
}

// newLogger writes structured logs to a file so they never corrupt the TUI.
func newLogger() *slog.Logger {
	dir, err := chat.DefaultDataDir()
	if err != nil {
		return slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	f, err := os.OpenFile(filepath.Join(dir, "techtranslator.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewJSONHandler(f, nil))
}
