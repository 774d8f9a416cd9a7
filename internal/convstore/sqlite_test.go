package convstore

import (
	"context"
	"path/filepath"
	"testing"
)

func newSQLiteTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLitePutAndList(t *testing.T) {
	store := newSQLiteTestStore(t)
	ctx := context.Background()

	id, err := store.Put(ctx, Item{
		UserID:   "user-1",
		Query:    "What is R-squared?",
		Response: "R-squared is...",
		Concept:  "r-squared",
		Audience: "general",
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if id == "" {
		t.Fatal("Put must allocate a conversation id")
	}

	items, err := store.List(ctx, "user-1", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	it := items[0]
	if it.ConversationID != id || it.Concept != "r-squared" {
		t.Errorf("item = %+v", it)
	}
	if it.Timestamp == "" || it.TTL == 0 {
		t.Errorf("timestamp/ttl not stamped: %+v", it)
	}
}

func TestSQLitePutKeepsExistingID(t *testing.T) {
	store := newSQLiteTestStore(t)
	ctx := context.Background()

	id, err := store.Put(ctx, Item{UserID: "u", ConversationID: "conv-9", Query: "q", Response: "r"})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if id != "conv-9" {
		t.Errorf("id = %q, want conv-9", id)
	}
}

func TestSQLiteListFiltersByConversation(t *testing.T) {
	store := newSQLiteTestStore(t)
	ctx := context.Background()

	store.Put(ctx, Item{UserID: "u", ConversationID: "a", Query: "q1", Response: "r1"})
	store.Put(ctx, Item{UserID: "u", ConversationID: "a", Query: "q2", Response: "r2"})
	store.Put(ctx, Item{UserID: "u", ConversationID: "b", Query: "q3", Response: "r3"})
	store.Put(ctx, Item{UserID: "other", ConversationID: "a", Query: "q4", Response: "r4"})

	items, err := store.List(ctx, "u", "a")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	for _, it := range items {
		if it.UserID != "u" || it.ConversationID != "a" {
			t.Errorf("leaked item: %+v", it)
		}
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Put(ctx, Item{Query: "q", Response: "r"})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Anonymous default applies when no user id is given.
	items, err := store.List(ctx, "anonymous", id)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
}
