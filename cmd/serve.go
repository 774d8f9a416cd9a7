package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/techtranslator/techtranslator/internal/convstore"
	"github.com/techtranslator/techtranslator/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local query API",
		Long: "Runs a local HTTP server exposing the same /query and /conversation\n" +
			"routes as the hosted API, configured through TT_* environment variables.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	// A .env next to the binary is a dev convenience; absence is fine.
	_ = godotenv.Load()

	cfg, err := server.LoadConfig()
	if err != nil {
		return err
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	store, err := buildConvStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := server.New(store, log, cfg.DisableEngine)
	log.Info("listening", "addr", cfg.Addr, "store", cfg.Store)
	return http.ListenAndServe(cfg.Addr, srv.Router())
}

func buildConvStore(cfg *server.Config) (convstore.Store, error) {
	switch cfg.Store {
	case "memory":
		return convstore.NewMemoryStore(), nil
	case "dynamodb":
		return convstore.NewDynamoStore(context.Background(), cfg.ConversationTable)
	case "sqlite", "":
		dbPath := cfg.DBPath
		if dbPath == "" {
			p, err := convstore.DefaultDBPath()
			if err != nil {
				return nil, fmt.Errorf("determine db path: %w", err)
			}
			dbPath = p
		}
		return convstore.NewSQLiteStore(dbPath)
	default:
		return nil, fmt.Errorf("unknown store %q; use \"sqlite\", \"dynamodb\" or \"memory\"", cfg.Store)
	}
}
