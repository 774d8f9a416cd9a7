package convstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS conversations (
    user_id         TEXT NOT NULL,
    conversation_id TEXT NOT NULL,
    query           TEXT NOT NULL,
    response        TEXT NOT NULL,
    concept         TEXT NOT NULL DEFAULT '',
    audience        TEXT NOT NULL DEFAULT '',
    timestamp       TEXT NOT NULL,
    ttl             INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id, timestamp);
`

// SQLiteStore implements Store on a local SQLite database, the development
// stand-in for the managed table.
type SQLiteStore struct {
	db *sql.DB
}

// DefaultDBPath returns ~/.local/share/techtranslator/conversations.db.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "techtranslator", "conversations.db"), nil
}

// NewSQLiteStore opens (or creates) the database and ensures the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, item Item) (string, error) {
	stamp(&item)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations
			(user_id, conversation_id, query, response, concept, audience, timestamp, ttl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.UserID, item.ConversationID, item.Query, item.Response,
		item.Concept, item.Audience, item.Timestamp, item.TTL,
	)
	if err != nil {
		return "", fmt.Errorf("store conversation: %w", err)
	}
	return item.ConversationID, nil
}

func (s *SQLiteStore) List(ctx context.Context, userID, conversationID string) ([]Item, error) {
	query := `
		SELECT user_id, conversation_id, query, response, concept, audience, timestamp, ttl
		FROM conversations WHERE user_id = ?`
	args := []any{userID}
	if conversationID != "" {
		query += " AND conversation_id = ?"
		args = append(args, conversationID)
	}
	query += " ORDER BY timestamp DESC LIMIT 50"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.UserID, &it.ConversationID, &it.Query, &it.Response,
			&it.Concept, &it.Audience, &it.Timestamp, &it.TTL); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
