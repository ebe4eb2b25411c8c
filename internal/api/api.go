// Package api exposes the advisor, the document assembler and situation
// analysis over HTTP. Every route requires a bearer token; the token
// decides which user the request acts as.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/HendryAvila/analyser/internal/advisor"
	"github.com/HendryAvila/analyser/internal/analysis"
	"github.com/HendryAvila/analyser/internal/documents"
	"github.com/HendryAvila/analyser/internal/llm"
	"github.com/HendryAvila/analyser/internal/store"
)

const maxRequestBodySize = 1 << 20 // 1 MB

// Authenticator resolves a bearer token to a user ID.
type Authenticator func(token string) (userID string, ok bool)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Advisor   *advisor.Advisor
	Documents *documents.Assembler
	Analyzer  *analysis.Analyzer
	Store     *store.Store
	Auth      Authenticator
	Logger    *slog.Logger
}

// NewRouter mounts every route on a chi router.
func NewRouter(h *Handlers) http.Handler {
	if h.Logger == nil {
		h.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(h.authenticate)

		r.Post("/chat", h.Chat)
		r.Post("/threads/turn", h.ThreadTurn)
		r.Get("/projects", h.ListProjects)
		r.Get("/projects/{id}", h.GetProject)
		r.Post("/projects/{id}/turn", h.ProjectTurn)
		r.Get("/projects/{id}/documents", h.ListDocuments)
		r.Post("/documents", h.GenerateDocument)
		r.Post("/analyze", h.Analyze)
	})
	return r
}

// ─── Auth ────────────────────────────────────────────────────────────────────

type userKey struct{}

func (h *Handlers) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "Missing authorization")
			return
		}
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || h.Auth == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		userID, ok := h.Auth(strings.TrimSpace(token))
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, userID)))
	})
}

// UserID returns the authenticated user for the request context.
func UserID(ctx context.Context) string {
	v, _ := ctx.Value(userKey{}).(string)
	return v
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeFailure maps a core error to a status and a short public message.
// Upstream details never reach the client.
func (h *Handlers) writeFailure(w http.ResponseWriter, err error, notFound, fallback string) {
	var gateErr *documents.GateError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.As(err, &gateErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: gateErr.Message, Reason: gateErr.Reason})
	case errors.Is(err, llm.ErrRateLimited),
		errors.Is(err, llm.ErrQuotaExhausted),
		errors.Is(err, llm.ErrNotConfigured),
		errors.Is(err, llm.ErrEmptyResponse),
		errors.Is(err, llm.ErrUpstream):
		writeError(w, llm.HTTPStatus(err), llm.PublicMessage(err, fallback))
	default:
		h.Logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
