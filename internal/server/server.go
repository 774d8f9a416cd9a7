// Package server is the development stand-in for the hosted query API:
// the same routes, request shapes, and error strings, backed by the local
// translation engine and a pluggable conversation store.
package server

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/techtranslator/techtranslator/internal/convstore"
	"github.com/techtranslator/techtranslator/internal/translate"
)

// Server holds the handler dependencies.
type Server struct {
	store convstore.Store
	log   *slog.Logger

	// engineDown simulates an unreachable model endpoint.
	engineDown bool
}

// New builds a Server over the given conversation store.
func New(store convstore.Store, log *slog.Logger, engineDown bool) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{store: store, log: log, engineDown: engineDown}
}

// Router wires the chi mux with the standard middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Post("/query", s.handleQuery)
	r.Get("/conversation", s.handleConversations)

	return r
}

// corsMiddleware mirrors the headers the hosted API attaches to every
// response, including errors.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type queryRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id"`
}

type queryResponse struct {
	Query          string `json:"query"`
	Response       string `json:"response"`
	Concept        string `json:"concept"`
	Audience       string `json:"audience"`
	ConversationID string `json:"conversation_id"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}
	if s.engineDown {
		writeError(w, http.StatusServiceUnavailable, "AI service temporarily unavailable")
		return
	}

	concept, audience := translate.Extract(req.Query)
	answer := translate.Respond(concept, audience)

	item := convstore.Item{
		UserID:         userID(r),
		ConversationID: req.ConversationID,
		Query:          req.Query,
		Response:       answer,
		Concept:        concept,
		Audience:       audience,
	}

	// Storage failures do not fail the query; the exchange just is not
	// replayable later.
	convID, err := s.store.Put(r.Context(), item)
	if err != nil {
		s.log.Error("store conversation", "error", err)
		convID = req.ConversationID
		if convID == "" {
			convID = uuid.NewString()
		}
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Query:          req.Query,
		Response:       answer,
		Concept:        concept,
		Audience:       audience,
		ConversationID: convID,
	})
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.List(r.Context(), userID(r), r.URL.Query().Get("conversation_id"))
	if err != nil {
		s.log.Error("list conversations", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve conversations")
		return
	}
	if items == nil {
		items = []convstore.Item{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": items})
}

// userID extracts the subject claim from a bearer token. The hosted API
// fronts this with a verifying authorizer; here the token is decoded
// without verification, and requests without one act as "anonymous".
func userID(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return "anonymous"
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "anonymous"
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "anonymous"
	}
	var claims struct {
		Sub string `json:"sub"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil || claims.Sub == "" {
		return "anonymous"
	}
	return claims.Sub
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
