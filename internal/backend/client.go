// Package backend is the HTTP client for the TechTranslator query API:
// POST /query for one question/answer exchange and GET /conversation for
// remote history. Errors are folded into three classes the dispatcher maps
// to advisory transcript messages.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Error classes for status branching. The dispatcher checks these with
// errors.Is; the raw cause stays wrapped underneath.
var (
	// ErrUnavailable: the service answered with a 5xx (AI service down).
	ErrUnavailable = errors.New("ai service unavailable")
	// ErrUnauthorized: 401/403 on the query endpoint.
	ErrUnauthorized = errors.New("not authorized")
	// ErrTransport: the request never produced an HTTP response.
	ErrTransport = errors.New("transport failure")
)

// QueryResponse is the body of a successful POST /query.
type QueryResponse struct {
	Query          string `json:"query"`
	Response       string `json:"response"`
	Concept        string `json:"concept"`
	Audience       string `json:"audience"`
	ConversationID string `json:"conversation_id"`
}

// Conversation is one stored exchange returned by GET /conversation.
type Conversation struct {
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
	Query          string `json:"query"`
	Response       string `json:"response"`
	Concept        string `json:"concept"`
	Audience       string `json:"audience"`
	Timestamp      string `json:"timestamp"`
	TTL            int64  `json:"ttl"`
}

// RequestDecorator can amend an outgoing request (extra headers, tracing).
type RequestDecorator func(*http.Request)

// Client talks to the query API. Safe for use from a single dispatch at a
// time, which is all the UI allows.
type Client struct {
	baseURL   string
	http      *http.Client
	token     string
	decorator RequestDecorator
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRequestDecorator installs a hook that runs on every outgoing request.
func WithRequestDecorator(d RequestDecorator) Option {
	return func(c *Client) { c.decorator = d }
}

// NewClient builds a client for the API at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken attaches a bearer token to subsequent requests.
func (c *Client) SetToken(token string) { c.token = token }

// ClearToken drops the bearer token.
func (c *Client) ClearToken() { c.token = "" }

// SendQuery posts one question. conversationID may be empty for a new
// conversation; the server allocates and returns one either way.
func (c *Client) SendQuery(ctx context.Context, query, conversationID string) (*QueryResponse, error) {
	reqBody := struct {
		Query          string  `json:"query"`
		ConversationID *string `json:"conversation_id"`
	}{Query: query}
	if conversationID != "" {
		reqBody.ConversationID = &conversationID
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.prepare(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.statusError(resp)
	}

	var out QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	return &out, nil
}

// Conversations fetches stored history. With a conversationID it returns
// the exchanges of that conversation; empty returns all for the user.
func (c *Client) Conversations(ctx context.Context, conversationID string) ([]Conversation, error) {
	u := c.baseURL + "/conversation"
	if conversationID != "" {
		u += "?conversation_id=" + url.QueryEscape(conversationID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.prepare(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.statusError(resp)
	}

	var out struct {
		Conversations []Conversation `json:"conversations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode conversations: %w", err)
	}
	return out.Conversations, nil
}

func (c *Client) prepare(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.decorator != nil {
		c.decorator(req)
	}
}

// statusError maps a non-2xx response to an error class, keeping the
// server's {error} message when one is present.
func (c *Client) statusError(resp *http.Response) error {
	msg := fmt.Sprintf("status %d", resp.StatusCode)
	var apiErr struct {
		Error string `json:"error"`
	}
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil {
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
	}

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	default:
		return fmt.Errorf("query failed: %s", msg)
	}
}
