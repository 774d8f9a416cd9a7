package dispatch

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/techtranslator/techtranslator/internal/backend"
	"github.com/techtranslator/techtranslator/internal/chat"
)

type memStorage struct{ data []byte }

func (m *memStorage) Read() ([]byte, error) {
	if m.data == nil {
		return nil, os.ErrNotExist
	}
	return m.data, nil
}
func (m *memStorage) Write(data []byte) error { m.data = data; return nil }

// fakeClient records the last query and plays back a scripted response.
type fakeClient struct {
	lastQuery  string
	lastConvID string
	resp       *backend.QueryResponse
	err        error
}

func (f *fakeClient) SendQuery(_ context.Context, query, conversationID string) (*backend.QueryResponse, error) {
	f.lastQuery = query
	f.lastConvID = conversationID
	if f.err != nil {
		return nil, f.err
	}
	resp := *f.resp
	if resp.ConversationID == "" {
		resp.ConversationID = conversationID
	}
	return &resp, nil
}

func newTestDispatcher(t *testing.T, fc *fakeClient) (*Dispatcher, *chat.Store) {
	t.Helper()
	store := chat.NewStore(&memStorage{}, nil)
	store.Load()
	store.NewSession()
	return New(store, fc, nil), store
}

func TestSendEmptyInputIsNoop(t *testing.T) {
	fc := &fakeClient{resp: &backend.QueryResponse{Response: "hi"}}
	d, store := newTestDispatcher(t, fc)

	if msg := d.Send(context.Background(), "   \t "); msg != nil {
		t.Errorf("whitespace input produced a message: %+v", msg)
	}
	if n := len(store.Current().Messages); n != 0 {
		t.Errorf("transcript has %d messages, want 0", n)
	}
	if fc.lastQuery != "" {
		t.Error("no request should be sent for empty input")
	}
}

func TestSendAppendsExchange(t *testing.T) {
	fc := &fakeClient{resp: &backend.QueryResponse{
		Response: "R-squared is a statistical measure...",
		Concept:  "r-squared",
		Audience: "general",
	}}
	d, store := newTestDispatcher(t, fc)

	reply := d.Send(context.Background(), "What is R-squared?")

	msgs := store.Current().Messages
	if len(msgs) != 2 {
		t.Fatalf("transcript has %d messages, want 2", len(msgs))
	}
	if !msgs[0].IsUser || msgs[0].Content != "What is R-squared?" {
		t.Errorf("first message = %+v, want optimistic user append", msgs[0])
	}
	if reply == nil || reply.IsUser {
		t.Fatal("reply must be a non-user message")
	}
	if reply.Extra == nil || reply.Extra.Concept != "r-squared" {
		t.Errorf("reply tags = %+v, want r-squared", reply.Extra)
	}
	if store.Current().Concept != "r-squared" {
		t.Errorf("session concept = %q", store.Current().Concept)
	}
}

func TestFollowUpRewritesQuery(t *testing.T) {
	fc := &fakeClient{resp: &backend.QueryResponse{
		Response: "Sure, more on that...",
		Concept:  "loss ratio",
		Audience: "actuary",
	}}
	d, store := newTestDispatcher(t, fc)
	store.AppendMessage(false, "Loss ratio is...", &chat.Extra{Concept: "loss ratio", Audience: "actuary"})

	d.Send(context.Background(), "tell me more")

	want := "continuing discussion about loss ratio for actuary"
	if !strings.Contains(fc.lastQuery, want) {
		t.Errorf("outgoing query = %q, want substring %q", fc.lastQuery, want)
	}
	if !strings.HasPrefix(fc.lastQuery, "tell me more") {
		t.Errorf("outgoing query = %q, must keep the user text first", fc.lastQuery)
	}
}

func TestFollowUpFallsBackToSessionTags(t *testing.T) {
	fc := &fakeClient{resp: &backend.QueryResponse{Response: "ok", Concept: "r-squared", Audience: "underwriter"}}

	// A restored session can carry tags without any tagged message.
	blob := `{"sess-1":{"id":"sess-1","title":"Chat 1","concept":"r-squared","audience":"underwriter",` +
		`"createdAt":"2026-08-01T10:00:00Z",` +
		`"messages":[{"content":"untagged reply","isUser":false,"timestamp":"2026-08-01T10:00:01Z"}]}}`
	store := chat.NewStore(&memStorage{data: []byte(blob)}, nil)
	store.Load()
	d := New(store, fc, nil)

	d.Send(context.Background(), "can you give an example")

	if !strings.Contains(fc.lastQuery, "continuing discussion about r-squared for underwriter") {
		t.Errorf("outgoing query = %q", fc.lastQuery)
	}
}

func TestLongInputIsNotFollowUp(t *testing.T) {
	fc := &fakeClient{resp: &backend.QueryResponse{Response: "ok", Concept: "loss ratio", Audience: "general"}}
	d, store := newTestDispatcher(t, fc)
	store.AppendMessage(false, "Loss ratio is...", &chat.Extra{Concept: "loss ratio", Audience: "actuary"})

	long := "tell me more about this topic in considerably greater detail please"
	d.Send(context.Background(), long)

	if fc.lastQuery != long {
		t.Errorf("long input must pass through unchanged, got %q", fc.lastQuery)
	}
}

func TestNoKeywordIsNotFollowUp(t *testing.T) {
	fc := &fakeClient{resp: &backend.QueryResponse{Response: "ok", Concept: "loss ratio", Audience: "general"}}
	d, store := newTestDispatcher(t, fc)
	store.AppendMessage(false, "Loss ratio is...", &chat.Extra{Concept: "loss ratio", Audience: "actuary"})

	d.Send(context.Background(), "what is a deductible?")

	if fc.lastQuery != "what is a deductible?" {
		t.Errorf("outgoing query = %q, want passthrough", fc.lastQuery)
	}
}

func TestFollowUpContextOverridesGenericConcept(t *testing.T) {
	fc := &fakeClient{resp: &backend.QueryResponse{
		Response: "Generic answer.",
		Concept:  "data science",
		Audience: "general",
	}}
	d, store := newTestDispatcher(t, fc)
	store.AppendMessage(false, "Loss ratio is...", &chat.Extra{Concept: "loss ratio", Audience: "actuary"})

	reply := d.Send(context.Background(), "tell me more")

	if reply.Extra == nil || reply.Extra.Concept != "loss ratio" || reply.Extra.Audience != "actuary" {
		t.Errorf("reply tags = %+v, want captured context loss ratio/actuary", reply.Extra)
	}
}

func TestFollowUpKeepsSpecificConcept(t *testing.T) {
	fc := &fakeClient{resp: &backend.QueryResponse{
		Response: "About models.",
		Concept:  "predictive model",
		Audience: "general",
	}}
	d, store := newTestDispatcher(t, fc)
	store.AppendMessage(false, "Loss ratio is...", &chat.Extra{Concept: "loss ratio", Audience: "actuary"})

	reply := d.Send(context.Background(), "what about models")

	if reply.Extra.Concept != "predictive model" {
		t.Errorf("specific backend concept must win, got %q", reply.Extra.Concept)
	}
}

func TestReconcileOnServerIssuedID(t *testing.T) {
	fc := &fakeClient{resp: &backend.QueryResponse{
		Response:       "answer",
		Concept:        "r-squared",
		Audience:       "general",
		ConversationID: "server-id",
	}}
	d, store := newTestDispatcher(t, fc)
	clientID := store.CurrentID()

	d.Send(context.Background(), "What is R-squared?")

	if fc.lastConvID != clientID {
		t.Errorf("request carried id %q, want client id %q", fc.lastConvID, clientID)
	}
	if store.CurrentID() != "server-id" {
		t.Errorf("current id = %q, want server-id", store.CurrentID())
	}
	if store.Len() != 1 {
		t.Errorf("session count = %d, want 1", store.Len())
	}
}

func TestErrorAdvisories(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unavailable", backend.ErrUnavailable, msgUnavailable},
		{"transport", backend.ErrTransport, msgNoConnection},
		{"unauthorized", backend.ErrUnauthorized, msgLoginAgain},
		{"other", errors.New("weird"), msgGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeClient{err: tt.err}
			d, store := newTestDispatcher(t, fc)

			reply := d.Send(context.Background(), "hello there backend")

			if reply == nil || reply.IsUser {
				t.Fatal("advisory must land as a non-user message")
			}
			if reply.Content != tt.want {
				t.Errorf("advisory = %q, want %q", reply.Content, tt.want)
			}
			if strings.Contains(reply.Content, "weird") {
				t.Error("raw error text must not reach the transcript")
			}
			msgs := store.Current().Messages
			if len(msgs) != 2 {
				t.Errorf("transcript has %d messages, want user + advisory", len(msgs))
			}
		})
	}
}

func TestBusyClearedAfterFailure(t *testing.T) {
	fc := &fakeClient{err: errors.New("boom")}
	d, _ := newTestDispatcher(t, fc)

	d.Send(context.Background(), "hi from the test")

	if d.Busy() {
		t.Error("busy flag must be cleared after a failed dispatch")
	}
}
