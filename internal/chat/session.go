// Package chat owns the client-side bookkeeping of conversation threads:
// session identity, titles, message history, and the durable blob the whole
// store is mirrored to after every mutation.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// maxTitleLen is how much of the first user message becomes the session title.
const maxTitleLen = 30

// Extra carries the classification a backend reply is tagged with.
type Extra struct {
	Concept  string `json:"concept"`
	Audience string `json:"audience"`
}

// Message is one transcript entry. IsUser distinguishes human input from
// backend replies; Extra is set on backend replies only.
type Message struct {
	Content   string    `json:"content"`
	IsUser    bool      `json:"isUser"`
	Extra     *Extra    `json:"extraInfo,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession is a single conversation thread. The ID starts out
// client-generated and may be re-keyed to a server-issued identifier once
// the backend has answered the first exchange.
type ChatSession struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	Concept   string    `json:"concept,omitempty"`
	Audience  string    `json:"audience,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func newSessionID() string {
	return uuid.NewString()
}

// clone returns a deep copy with its own message slice and Extra values,
// safe to hand to another goroutine while the store keeps mutating.
func (s *ChatSession) clone() *ChatSession {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	for i := range out.Messages {
		if e := out.Messages[i].Extra; e != nil {
			ec := *e
			out.Messages[i].Extra = &ec
		}
	}
	return &out
}

// LastTagged returns the most recent non-user message carrying a concept
// tag, or nil if the session has none.
func (s *ChatSession) LastTagged() *Message {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		m := &s.Messages[i]
		if !m.IsUser && m.Extra != nil && m.Extra.Concept != "" {
			return m
		}
	}
	return nil
}

// deriveTitle truncates the first user message into a list label.
func deriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= maxTitleLen {
		return content
	}
	return string(runes[:maxTitleLen]) + "..."
}
