// Package convstore persists answered exchanges in the conversation table:
// one item per query/response pair, keyed by user and conversation id,
// expiring after a TTL.
package convstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TTLDuration is how long stored exchanges live.
const TTLDuration = 30 * 24 * time.Hour

// Item is one stored exchange.
type Item struct {
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
	Query          string `json:"query"`
	Response       string `json:"response"`
	Concept        string `json:"concept"`
	Audience       string `json:"audience"`
	Timestamp      string `json:"timestamp"` // RFC 3339
	TTL            int64  `json:"ttl"`       // unix seconds
}

// Store is the conversation table. Put allocates a conversation id when the
// item carries none and stamps timestamp/TTL; List returns a user's items
// newest first, optionally narrowed to one conversation.
type Store interface {
	Put(ctx context.Context, item Item) (conversationID string, err error)
	List(ctx context.Context, userID, conversationID string) ([]Item, error)
	Close() error
}

// stamp fills the generated fields of an item before storage.
func stamp(item *Item) {
	if item.ConversationID == "" {
		item.ConversationID = uuid.NewString()
	}
	if item.UserID == "" {
		item.UserID = "anonymous"
	}
	now := time.Now()
	item.Timestamp = now.UTC().Format(time.RFC3339Nano)
	item.TTL = now.Add(TTLDuration).Unix()
}

// MemoryStore keeps items in memory; the default for tests and throwaway
// dev runs.
type MemoryStore struct {
	mu    sync.Mutex
	items []Item
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Put(_ context.Context, item Item) (string, error) {
	stamp(&item)
	m.mu.Lock()
	m.items = append(m.items, item)
	m.mu.Unlock()
	return item.ConversationID, nil
}

func (m *MemoryStore) List(_ context.Context, userID, conversationID string) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Item
	for _, it := range m.items {
		if it.UserID != userID {
			continue
		}
		if conversationID != "" && it.ConversationID != conversationID {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
