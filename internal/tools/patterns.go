package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/analyser/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// PatternAddTool handles the pattern_add MCP tool. Patterns are private
// lessons the advisor carries into every conversation; they are never
// quoted to clients.
type PatternAddTool struct {
	store *store.Store
	user  string
}

// NewPatternAddTool creates a PatternAddTool.
func NewPatternAddTool(s *store.Store, user string) *PatternAddTool {
	return &PatternAddTool{store: s, user: user}
}

// Definition returns the MCP tool definition for registration.
func (t *PatternAddTool) Definition() mcp.Tool {
	return mcp.NewTool("pattern_add",
		mcp.WithDescription(
			"Remember an insight from past engagements, e.g. 'clients who skip the "+
				"requirements call ask for rework later'. The five most recent patterns "+
				"steer every advisor reply.",
		),
		mcp.WithString("pattern_type",
			mcp.Required(),
			mcp.Description("Short category, e.g. scope_creep, payment, communication"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The insight, written without client-identifying details"),
		),
		mcp.WithString("project_id",
			mcp.Description("Project the insight came from"),
		),
		mcp.WithNumber("confidence_score",
			mcp.Description("Confidence between 0 and 1"),
		),
	)
}

// Handle processes the pattern_add tool call.
func (t *PatternAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := store.AddPatternParams{
		ProjectID:   req.GetString("project_id", ""),
		PatternType: req.GetString("pattern_type", ""),
		Content:     req.GetString("content", ""),
	}
	if c, ok := floatArg(req, "confidence_score"); ok {
		params.ConfidenceScore = &c
	}
	p, err := t.store.AddPattern(t.user, params)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add pattern: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Pattern remembered (ID: %s, type: %s)", p.ID, p.PatternType)), nil
}

// PatternListTool handles the pattern_list MCP tool.
type PatternListTool struct {
	store *store.Store
	user  string
}

// NewPatternListTool creates a PatternListTool.
func NewPatternListTool(s *store.Store, user string) *PatternListTool {
	return &PatternListTool{store: s, user: user}
}

// Definition returns the MCP tool definition for registration.
func (t *PatternListTool) Definition() mcp.Tool {
	return mcp.NewTool("pattern_list",
		mcp.WithDescription("List remembered patterns, most recently seen first."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results (default: 20, 0 for all)"),
		),
	)
}

// Handle processes the pattern_list tool call.
func (t *PatternListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	patterns, err := t.store.RecentPatterns(t.user, intArg(req, "limit", 20))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list patterns: %v", err)), nil
	}
	if len(patterns) == 0 {
		return mcp.NewToolResultText("No patterns remembered yet."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d patterns:\n\n", len(patterns))
	for i, p := range patterns {
		fmt.Fprintf(&b, "[%d] %s: %s\n", i+1, p.PatternType, p.Content)
		if p.ConfidenceScore != nil {
			fmt.Fprintf(&b, "    confidence %.2f\n", *p.ConfidenceScore)
		}
		fmt.Fprintf(&b, "    last seen %s | ID: %s\n\n", p.LastSeenAt, p.ID)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// PatternSeenTool handles the pattern_seen MCP tool. A pattern that shows
// up again moves to the front of pattern memory, where the advisor reads
// it.
type PatternSeenTool struct {
	store *store.Store
	user  string
}

// NewPatternSeenTool creates a PatternSeenTool.
func NewPatternSeenTool(s *store.Store, user string) *PatternSeenTool {
	return &PatternSeenTool{store: s, user: user}
}

// Definition returns the MCP tool definition for registration.
func (t *PatternSeenTool) Definition() mcp.Tool {
	return mcp.NewTool("pattern_seen",
		mcp.WithDescription(
			"Mark a remembered pattern as seen again so it is among the ones "+
				"steering the advisor.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Pattern ID"),
		),
	)
}

// Handle processes the pattern_seen tool call.
func (t *PatternSeenTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	if err := t.store.TouchPattern(t.user, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update pattern: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Pattern %s marked as seen.", id)), nil
}

// PatternDeleteTool handles the pattern_delete MCP tool.
type PatternDeleteTool struct {
	store *store.Store
	user  string
}

// NewPatternDeleteTool creates a PatternDeleteTool.
func NewPatternDeleteTool(s *store.Store, user string) *PatternDeleteTool {
	return &PatternDeleteTool{store: s, user: user}
}

// Definition returns the MCP tool definition for registration.
func (t *PatternDeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("pattern_delete",
		mcp.WithDescription("Forget a pattern that no longer holds."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Pattern ID"),
		),
	)
}

// Handle processes the pattern_delete tool call.
func (t *PatternDeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	if err := t.store.DeletePattern(t.user, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete pattern: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Pattern %s deleted.", id)), nil
}
