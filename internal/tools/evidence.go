package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/analyser/internal/conversation"
	"github.com/HendryAvila/analyser/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// EvidenceAddTool handles the evidence_add MCP tool. Evidence is the
// record that gates invoices and contracts, so there is no edit tool:
// a correction is a new entry.
type EvidenceAddTool struct {
	store *store.Store
	user  string
}

// NewEvidenceAddTool creates an EvidenceAddTool.
func NewEvidenceAddTool(s *store.Store, user string) *EvidenceAddTool {
	return &EvidenceAddTool{store: s, user: user}
}

// Definition returns the MCP tool definition for registration.
func (t *EvidenceAddTool) Definition() mcp.Tool {
	return mcp.NewTool("evidence_add",
		mcp.WithDescription(
			"Record a project fact: an agreed scope, a client approval, a requirement, "+
				"a decision. Invoices need a scope_definition and an approval; contracts "+
				"need a scope_definition.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short, searchable title"),
		),
		mcp.WithString("evidence_type",
			mcp.Description("One of: decision_record, requirement, approval, scope_definition, note, reference (default: note)"),
		),
		mcp.WithString("content",
			mcp.Description("The details, quoted as precisely as possible"),
		),
		mcp.WithString("project_id",
			mcp.Description("Project the evidence belongs to"),
		),
		mcp.WithString("file_url",
			mcp.Description("Link to a supporting file"),
		),
	)
}

// Handle processes the evidence_add tool call.
func (t *EvidenceAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, err := t.store.AddEvidence(t.user, store.AddEvidenceParams{
		ProjectID: req.GetString("project_id", ""),
		Type:      store.EvidenceType(req.GetString("evidence_type", "")),
		Title:     req.GetString("title", ""),
		Content:   req.GetString("content", ""),
		FileURL:   req.GetString("file_url", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add evidence: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Evidence recorded: %q (ID: %s, type: %s)", e.Title, e.ID, e.Type,
	)), nil
}

// EvidenceListTool handles the evidence_list MCP tool.
type EvidenceListTool struct {
	store *store.Store
	user  string
}

// NewEvidenceListTool creates an EvidenceListTool.
func NewEvidenceListTool(s *store.Store, user string) *EvidenceListTool {
	return &EvidenceListTool{store: s, user: user}
}

// Definition returns the MCP tool definition for registration.
func (t *EvidenceListTool) Definition() mcp.Tool {
	return mcp.NewTool("evidence_list",
		mcp.WithDescription("List a project's evidence in the order it was recorded."),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project ID"),
		),
	)
}

// Handle processes the evidence_list tool call.
func (t *EvidenceListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := req.GetString("project_id", "")
	if projectID == "" {
		return mcp.NewToolResultError("project_id is required"), nil
	}
	if _, err := t.store.GetProject(t.user, projectID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list evidence: %v", err)), nil
	}
	evidence, err := t.store.ListEvidence(t.user, projectID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list evidence: %v", err)), nil
	}
	if len(evidence) == 0 {
		return mcp.NewToolResultText("No evidence recorded for this project."), nil
	}
	return mcp.NewToolResultText(formatEvidence(evidence)), nil
}

// EvidenceSearchTool handles the evidence_search MCP tool.
type EvidenceSearchTool struct {
	store *store.Store
	user  string
}

// NewEvidenceSearchTool creates an EvidenceSearchTool.
func NewEvidenceSearchTool(s *store.Store, user string) *EvidenceSearchTool {
	return &EvidenceSearchTool{store: s, user: user}
}

// Definition returns the MCP tool definition for registration.
func (t *EvidenceSearchTool) Definition() mcp.Tool {
	return mcp.NewTool("evidence_search",
		mcp.WithDescription(
			"Full-text search over evidence titles, contents and types. "+
				"An empty query returns the most recent evidence.",
		),
		mcp.WithString("query",
			mcp.Description("Search terms"),
		),
		mcp.WithString("project_id",
			mcp.Description("Restrict to one project"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results (default: 10)"),
		),
	)
}

// Handle processes the evidence_search tool call.
func (t *EvidenceSearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	results, err := t.store.SearchEvidence(t.user, query, req.GetString("project_id", ""), intArg(req, "limit", 10))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to search evidence: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No evidence found for: %q", query)), nil
	}
	return mcp.NewToolResultText(formatEvidence(results)), nil
}

// EvidenceDeleteTool handles the evidence_delete MCP tool.
type EvidenceDeleteTool struct {
	store *store.Store
	user  string
}

// NewEvidenceDeleteTool creates an EvidenceDeleteTool.
func NewEvidenceDeleteTool(s *store.Store, user string) *EvidenceDeleteTool {
	return &EvidenceDeleteTool{store: s, user: user}
}

// Definition returns the MCP tool definition for registration.
func (t *EvidenceDeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("evidence_delete",
		mcp.WithDescription("Delete an evidence entry recorded by mistake."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Evidence ID"),
		),
	)
}

// Handle processes the evidence_delete tool call.
func (t *EvidenceDeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	if err := t.store.DeleteEvidence(t.user, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete evidence: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Evidence %s deleted.", id)), nil
}

func formatEvidence(items []store.Evidence) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d evidence entries:\n\n", len(items))
	for i, e := range items {
		fmt.Fprintf(&b, "[%d] #%s (%s) - %s\n", i+1, e.ShortID(), e.Type, e.Title)
		if c := deref(e.Content); c != "" {
			fmt.Fprintf(&b, "    %s\n", conversation.Truncate(strings.TrimSpace(c), 300))
		}
		if u := deref(e.FileURL); u != "" {
			fmt.Fprintf(&b, "    File: %s\n", u)
		}
		fmt.Fprintf(&b, "    %s | ID: %s\n\n", e.CreatedAt, e.ID)
	}
	return b.String()
}
