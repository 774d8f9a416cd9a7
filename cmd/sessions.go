package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/techtranslator/techtranslator/internal/backend"
)

func newSessionsCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List saved chat sessions",
		Long: "Lists locally saved chat sessions. With --remote, fetches the\n" +
			"server-side conversation history for the logged-in account instead.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if remote {
				return runRemoteSessions()
			}
			return runLocalSessions()
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "list server-side conversation history")
	return cmd
}

func runLocalSessions() error {
	store, err := openSessionStore(initConfig(), newLogger())
	if err != nil {
		return err
	}

	sessions := store.Sessions()
	if len(sessions) == 0 {
		fmt.Println("No saved sessions.")
		return nil
	}
	for _, s := range sessions {
		marker := " "
		if s.ID == store.CurrentID() {
			marker = "*"
		}
		fmt.Printf("%s %-34s %3d messages  %s\n",
			marker, s.Title, len(s.Messages), s.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runRemoteSessions() error {
	cfg := initConfig()
	gate, err := buildGate(cfg)
	if err != nil {
		return err
	}

	tokens := gate.CheckExistingSession(context.Background())
	if tokens == nil {
		return fmt.Errorf("not logged in. Run: techtranslator login")
	}

	client := backend.NewClient(cfg.API.BaseURL)
	client.SetToken(tokens.IDToken)

	items, err := client.Conversations(context.Background(), "")
	if err != nil {
		return fmt.Errorf("fetch remote history: %w", err)
	}
	printRemoteHistory(os.Stdout, items)
	return nil
}

// printRemoteHistory renders stored exchanges newest first, as the server
// returns them.
func printRemoteHistory(w io.Writer, items []backend.Conversation) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No remote history.")
		return
	}
	for _, it := range items {
		ts := it.Timestamp
		if parsed, err := time.Parse(time.RFC3339Nano, it.Timestamp); err == nil {
			ts = parsed.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s  [%s, %s]\n", ts, it.Concept, it.Audience)
		fmt.Fprintf(w, "  Q: %s\n", it.Query)
		fmt.Fprintf(w, "  A: %s\n", firstLine(it.Response))
	}
}

// firstLine keeps multi-paragraph answers to one list row.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
