package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/HendryAvila/analyser/internal/advisor"
	"github.com/HendryAvila/analyser/internal/documents"
	"github.com/HendryAvila/analyser/internal/store"
)

// Chat handles POST /v1/chat, the stateless advisor turn. The caller
// supplies the full history and optional project context.
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[advisor.Request](w, r)
	if !ok {
		return
	}
	if len(req.History) == 0 {
		writeError(w, http.StatusBadRequest, "Please provide messages")
		return
	}
	reply, err := h.Advisor.Reply(r.Context(), req)
	if err != nil {
		h.writeFailure(w, err, "Not found", "Chat failed")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

type turnRequest struct {
	ThreadID string `json:"threadId,omitempty"`
	Content  string `json:"content"`
}

// ProjectTurn handles POST /v1/projects/{id}/turn.
func (h *Handlers) ProjectTurn(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[turnRequest](w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "Please provide messages")
		return
	}
	res, err := h.Advisor.Turn(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		h.writeFailure(w, err, "Project not found", "Chat failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ThreadTurn handles POST /v1/threads/turn. An empty threadId starts a
// new conversation.
func (h *Handlers) ThreadTurn(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[turnRequest](w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "Please provide messages")
		return
	}
	res, err := h.Advisor.GeneralTurn(r.Context(), UserID(r.Context()), req.ThreadID, req.Content)
	if err != nil {
		h.writeFailure(w, err, "Conversation not found", "Chat failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type documentRequest struct {
	ProjectID    string         `json:"projectId"`
	DocumentType documents.Type `json:"documentType"`
}

// GenerateDocument handles POST /v1/documents.
func (h *Handlers) GenerateDocument(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[documentRequest](w, r)
	if !ok {
		return
	}
	if req.ProjectID == "" || documents.ValidateType(req.DocumentType) != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	doc, err := h.Documents.Generate(r.Context(), UserID(r.Context()), req.ProjectID, req.DocumentType)
	if err != nil {
		h.writeFailure(w, err, "Project not found", "Document generation failed")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type analyzeRequest struct {
	Situation string `json:"situation"`
	ProjectID string `json:"projectId,omitempty"`
}

// Analyze handles POST /v1/analyze.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[analyzeRequest](w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Situation) == "" {
		writeError(w, http.StatusBadRequest, "Please provide a situation to analyze")
		return
	}
	res, err := h.Analyzer.Analyze(r.Context(), UserID(r.Context()), req.ProjectID, req.Situation)
	if err != nil {
		h.writeFailure(w, err, "Project not found", "Analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListProjects handles GET /v1/projects?status=active.
func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ListProjects(UserID(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		h.writeFailure(w, err, "Not found", "internal server error")
		return
	}
	if projects == nil {
		projects = []store.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

// GetProject handles GET /v1/projects/{id}.
func (h *Handlers) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetProject(UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(w, err, "Project not found", "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListDocuments handles GET /v1/projects/{id}/documents.
func (h *Handlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	projectID := chi.URLParam(r, "id")
	if _, err := h.Store.GetProject(userID, projectID); err != nil {
		h.writeFailure(w, err, "Project not found", "internal server error")
		return
	}
	docs, err := h.Store.ListDocuments(userID, projectID)
	if err != nil {
		h.writeFailure(w, err, "Project not found", "internal server error")
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}
