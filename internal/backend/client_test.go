package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendQuery(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/query" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(QueryResponse{
			Response:       "R-squared is...",
			Concept:        "r-squared",
			Audience:       "general",
			ConversationID: "conv-1",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.SetToken("tok123")

	out, err := c.SendQuery(context.Background(), "What is R-squared?", "")
	if err != nil {
		t.Fatalf("SendQuery: %v", err)
	}
	if out.Concept != "r-squared" || out.ConversationID != "conv-1" {
		t.Errorf("unexpected response: %+v", out)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody["query"] != "What is R-squared?" {
		t.Errorf("sent query = %v", gotBody["query"])
	}
	if gotBody["conversation_id"] != nil {
		t.Errorf("new conversation must send null id, got %v", gotBody["conversation_id"])
	}
}

func TestSendQueryErrorClasses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"service down", http.StatusServiceUnavailable, ErrUnavailable},
		{"internal error", http.StatusInternalServerError, ErrUnavailable},
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]string{"error": "nope"})
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).SendQuery(context.Background(), "q", "")
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want class %v", err, tt.want)
			}
		})
	}
}

func TestSendQueryTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := NewClient(srv.URL).SendQuery(context.Background(), "q", "")
	if !errors.Is(err, ErrTransport) {
		t.Errorf("err = %v, want ErrTransport", err)
	}
}

func TestRequestDecorator(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Client-Rev")
		json.NewEncoder(w).Encode(QueryResponse{ConversationID: "c"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRequestDecorator(func(req *http.Request) {
		req.Header.Set("X-Client-Rev", "tui-1")
	}))
	if _, err := c.SendQuery(context.Background(), "q", ""); err != nil {
		t.Fatalf("SendQuery: %v", err)
	}
	if gotHeader != "tui-1" {
		t.Errorf("decorator header = %q, want tui-1", gotHeader)
	}
}

func TestConversations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversation" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("conversation_id"); got != "conv-7" {
			t.Errorf("conversation_id = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"conversations": []Conversation{{ConversationID: "conv-7", Query: "q", Concept: "loss ratio"}},
		})
	}))
	defer srv.Close()

	convs, err := NewClient(srv.URL).Conversations(context.Background(), "conv-7")
	if err != nil {
		t.Fatalf("Conversations: %v", err)
	}
	if len(convs) != 1 || convs[0].Concept != "loss ratio" {
		t.Errorf("unexpected conversations: %+v", convs)
	}
}
