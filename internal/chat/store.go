package chat

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Store is the Session Store: an in-memory map of conversation-id to
// ChatSession, mirrored to Storage after every mutation. Exactly one
// session is current at any time once the store is non-empty.
//
// Storage failures never propagate and never touch in-memory state; the
// store simply keeps operating memory-only for that mutation.
//
// Accessors return snapshot copies, never the live session objects, so
// callers on other goroutines (the UI event loop, a dispatch in flight)
// can read them without holding the store's lock.
type Store struct {
	mu      sync.Mutex
	storage Storage
	log     *slog.Logger

	sessions map[string]*ChatSession
	order    []string // session ids in creation order
	current  string
	counter  int // next "Chat {n}" number
}

// NewStore builds an empty store on top of the given storage. Call Load
// once at startup to hydrate it.
func NewStore(storage Storage, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		storage:  storage,
		log:      log,
		sessions: make(map[string]*ChatSession),
		counter:  1,
	}
}

// NewSession allocates a fresh session, makes it current, and persists.
func (s *Store) NewSession() *ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &ChatSession{
		ID:        newSessionID(),
		Title:     "Chat " + strconv.Itoa(s.counter),
		CreatedAt: time.Now(),
	}
	s.counter++
	s.sessions[sess.ID] = sess
	s.order = append(s.order, sess.ID)
	s.current = sess.ID
	s.save()
	return sess.clone()
}

// SwitchTo makes the named session current. Unknown ids are ignored.
func (s *Store) SwitchTo(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; ok {
		s.current = id
	}
}

// AppendMessage appends a message to the current session and persists.
// The first user message becomes the session title; backend replies
// carrying a concept update the session-level tags.
func (s *Store) AppendMessage(isUser bool, content string, extra *Extra) *Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions[s.current]
	if sess == nil {
		return nil
	}

	msg := Message{
		Content:   content,
		IsUser:    isUser,
		Extra:     extra,
		Timestamp: time.Now(),
	}

	if isUser && !hasUserMessage(sess) {
		sess.Title = deriveTitle(content)
	}
	if !isUser && extra != nil && extra.Concept != "" {
		sess.Concept = extra.Concept
		sess.Audience = extra.Audience
	}

	sess.Messages = append(sess.Messages, msg)
	s.save()

	out := msg
	if extra != nil {
		ec := *extra
		out.Extra = &ec
	}
	return &out
}

// ReconcileID re-keys a session from a client-chosen id to the
// server-issued one. The session object moves in one step: after the call
// exactly one session exists under newID and none under oldID. No-op when
// oldID is unknown or the ids are equal.
func (s *Store) ReconcileID(oldID, newID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if oldID == newID {
		return
	}
	sess, ok := s.sessions[oldID]
	if !ok {
		return
	}

	delete(s.sessions, oldID)
	sess.ID = newID
	s.sessions[newID] = sess
	for i, id := range s.order {
		if id == oldID {
			s.order[i] = newID
			break
		}
	}
	if s.current == oldID {
		s.current = newID
	}
	s.save()
}

// Reset drops every session, memory and blob both. Used on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*ChatSession)
	s.order = nil
	s.current = ""
	s.counter = 1
	s.save()
}

// Current returns a snapshot of the current session, or nil for an empty
// store.
func (s *Store) Current() *ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[s.current].clone()
}

// CurrentID returns the current session id ("" for an empty store).
func (s *Store) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Sessions returns snapshots of all sessions in creation order.
func (s *Store) Sessions() []*ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ChatSession, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.sessions[id].clone())
	}
	return out
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Load hydrates the store from storage. Missing or corrupt blobs leave the
// store empty without error. The "Chat {n}" counter resumes past the
// highest restored numeric title so new sessions never collide.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.storage.Read()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("session storage read failed, starting empty", "error", err)
		}
		return
	}

	restored := make(map[string]*ChatSession)
	if err := json.Unmarshal(data, &restored); err != nil {
		s.log.Warn("session blob corrupt, starting empty", "error", err)
		return
	}

	s.sessions = restored
	s.order = s.order[:0]
	for id := range restored {
		s.order = append(s.order, id)
	}
	sort.Slice(s.order, func(i, j int) bool {
		return restored[s.order[i]].CreatedAt.Before(restored[s.order[j]].CreatedAt)
	})

	s.counter = 1
	for _, sess := range restored {
		if n, ok := titleNumber(sess.Title); ok && n >= s.counter {
			s.counter = n + 1
		}
	}

	// Resume on the most recently created thread.
	if len(s.order) > 0 {
		s.current = s.order[len(s.order)-1]
	}
}

// save flushes the session map as one JSON blob. Failures are logged and
// swallowed; in-memory state stays authoritative.
func (s *Store) save() {
	data, err := json.Marshal(s.sessions)
	if err != nil {
		s.log.Warn("session blob marshal failed", "error", err)
		return
	}
	if err := s.storage.Write(data); err != nil {
		s.log.Warn("session storage write failed, continuing in memory", "error", err)
	}
}

func hasUserMessage(sess *ChatSession) bool {
	for i := range sess.Messages {
		if sess.Messages[i].IsUser {
			return true
		}
	}
	return false
}

// titleNumber extracts n from a default "Chat {n}" title.
func titleNumber(title string) (int, bool) {
	rest, ok := strings.CutPrefix(title, "Chat ")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
