// Package dispatch orchestrates one round trip of "user asks, backend
// answers": optimistic append, follow-up context injection, the backend
// call, and folding the reply (or an advisory message) back into the
// Session Store.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/techtranslator/techtranslator/internal/backend"
	"github.com/techtranslator/techtranslator/internal/chat"
)

// followUpMaxLen bounds how long an input may be and still count as a
// follow-up. Longer questions carry their own context.
const followUpMaxLen = 50

// followUpKeywords are the continuation phrases that mark a short input as
// a follow-up to the previous exchange.
var followUpKeywords = []string{
	"example", "more", "explain", "tell me", "what about", "can you", "how about",
}

// genericConcepts are backend classifications that carry no real signal.
// When a follow-up comes back tagged with one of these, the previously
// captured context wins.
var genericConcepts = map[string]bool{
	"":             true,
	"data science": true,
	"unknown":      true,
}

// Advisory transcript messages, one per error class. The raw error never
// reaches the transcript.
const (
	msgUnavailable  = "The AI service is temporarily unavailable. Please try again in a few minutes."
	msgNoConnection = "Sorry, I cannot connect to the service right now. Please check your connection."
	msgLoginAgain   = "Your session has expired. Please log in again."
	msgGeneric      = "Sorry, there was an error processing your request."
)

// QueryClient is the slice of the backend client the dispatcher needs.
type QueryClient interface {
	SendQuery(ctx context.Context, query, conversationID string) (*backend.QueryResponse, error)
}

// Dispatcher turns raw user input into a backend exchange. One dispatch is
// in flight at a time; Busy reports whether input should stay disabled.
type Dispatcher struct {
	store  *chat.Store
	client QueryClient
	log    *slog.Logger
	busy   atomic.Bool
}

// New builds a dispatcher over the given store and client.
func New(store *chat.Store, client QueryClient, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{store: store, client: client, log: log}
}

// Busy reports whether a dispatch is in flight.
func (d *Dispatcher) Busy() bool { return d.busy.Load() }

// Send runs one exchange and returns the message appended as the reply
// (backend answer or advisory text). Empty input is ignored and returns
// nil. Errors are never returned: every failure ends as an advisory
// transcript message, and the busy flag is always cleared.
func (d *Dispatcher) Send(ctx context.Context, rawText string) *chat.Message {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return nil
	}

	d.busy.Store(true)
	defer d.busy.Store(false)

	d.store.AppendMessage(true, text, nil)
	sentID := d.store.CurrentID()

	// The backend is stateless per call; short continuation inputs get the
	// prior concept/audience injected so the answer stays on topic.
	query := text
	var captured *chat.Extra
	if isFollowUp(text) {
		if ctxTag := d.contextTag(); ctxTag != nil {
			captured = ctxTag
			query = fmt.Sprintf("%s (continuing discussion about %s for %s)", text, ctxTag.Concept, ctxTag.Audience)
		}
	}

	resp, err := d.client.SendQuery(ctx, query, sentID)
	if err != nil {
		d.log.Warn("query failed", "error", err)
		return d.store.AppendMessage(false, advisoryFor(err), nil)
	}

	extra := &chat.Extra{Concept: resp.Concept, Audience: resp.Audience}
	// Context preservation: a follow-up answered with a generic
	// classification keeps the tags the question was asked under.
	if captured != nil && genericConcepts[resp.Concept] {
		extra = &chat.Extra{Concept: captured.Concept, Audience: captured.Audience}
	}

	reply := d.store.AppendMessage(false, resp.Response, extra)

	if resp.ConversationID != "" && resp.ConversationID != sentID {
		d.store.ReconcileID(sentID, resp.ConversationID)
	}
	return reply
}

// contextTag finds the concept/audience to continue under: the latest
// tagged bot message of the current session, falling back to the
// session-level tags.
func (d *Dispatcher) contextTag() *chat.Extra {
	sess := d.store.Current()
	if sess == nil {
		return nil
	}
	if m := sess.LastTagged(); m != nil {
		return &chat.Extra{Concept: m.Extra.Concept, Audience: m.Extra.Audience}
	}
	if sess.Concept != "" {
		return &chat.Extra{Concept: sess.Concept, Audience: sess.Audience}
	}
	return nil
}

// isFollowUp applies the continuation heuristic: a keyword match plus a
// length bound. Both thresholds are load-bearing for compatibility with
// the deployed backend.
func isFollowUp(text string) bool {
	if len(text) >= followUpMaxLen {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range followUpKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// advisoryFor maps an error to the user-facing transcript line.
func advisoryFor(err error) string {
	switch {
	case errors.Is(err, backend.ErrUnavailable):
		return msgUnavailable
	case errors.Is(err, backend.ErrTransport):
		return msgNoConnection
	case errors.Is(err, backend.ErrUnauthorized):
		return msgLoginAgain
	default:
		return msgGeneric
	}
}
