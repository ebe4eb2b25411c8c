package resources

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/HendryAvila/analyser/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(store.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func read(t *testing.T, h *Handler) mcp.TextResourceContents {
	t.Helper()
	req := mcp.ReadResourceRequest{}
	req.Params.URI = ProjectsURI
	contents, err := h.HandleProjects(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleProjects: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("unexpected content type %T", contents[0])
	}
	return tc
}

func TestProjectsResource_Definition(t *testing.T) {
	h := NewHandler(newTestStore(t), "local")
	res := h.ProjectsResource()
	if res.URI != ProjectsURI {
		t.Errorf("URI = %q", res.URI)
	}
	if res.MIMEType != "application/json" {
		t.Errorf("MIMEType = %q", res.MIMEType)
	}
}

func TestHandleProjects(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateProject("local", store.CreateProjectParams{Title: "Mine"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateProject("other", store.CreateProjectParams{Title: "Theirs"}); err != nil {
		t.Fatal(err)
	}

	tc := read(t, NewHandler(s, "local"))
	if tc.MIMEType != "application/json" {
		t.Errorf("MIMEType = %q", tc.MIMEType)
	}
	var projects []store.Project
	if err := json.Unmarshal([]byte(tc.Text), &projects); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(projects) != 1 || projects[0].Title != "Mine" {
		t.Errorf("projects = %+v", projects)
	}
}

func TestHandleProjects_EmptyIsArray(t *testing.T) {
	tc := read(t, NewHandler(newTestStore(t), "local"))
	if tc.Text != "[]" {
		t.Errorf("Text = %q, want []", tc.Text)
	}
}

func TestHandleProjects_NoUser(t *testing.T) {
	tc := read(t, NewHandler(newTestStore(t), ""))
	if tc.MIMEType != "text/plain" {
		t.Errorf("expected error resource, got %q", tc.MIMEType)
	}
}
