// Package resources implements MCP resource handlers.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (analyser://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/analyser/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// ProjectsURI addresses the project list resource.
const ProjectsURI = "analyser://projects"

// Handler serves resources for one user.
type Handler struct {
	store *store.Store
	user  string
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(s *store.Store, user string) *Handler {
	return &Handler{store: s, user: user}
}

// ProjectsResource returns the MCP resource definition for the project list.
func (h *Handler) ProjectsResource() mcp.Resource {
	return mcp.NewResource(
		ProjectsURI,
		"Client Projects",
		mcp.WithResourceDescription("All client projects with stage, health and days in stage"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleProjects returns the user's projects as JSON.
func (h *Handler) HandleProjects(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	projects, err := h.store.ListProjects(h.user, "")
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if projects == nil {
		projects = []store.Project{}
	}

	data, err := json.MarshalIndent(projects, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling projects: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
