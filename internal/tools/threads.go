package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/analyser/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// ThreadListTool handles the thread_list MCP tool.
type ThreadListTool struct {
	store *store.Store
	user  string
}

// NewThreadListTool creates a ThreadListTool.
func NewThreadListTool(s *store.Store, user string) *ThreadListTool {
	return &ThreadListTool{store: s, user: user}
}

// Definition returns the MCP tool definition for registration.
func (t *ThreadListTool) Definition() mcp.Tool {
	return mcp.NewTool("thread_list",
		mcp.WithDescription("List conversations, most recently active first."),
		mcp.WithString("project_id",
			mcp.Description("Only this project's conversations"),
		),
		mcp.WithBoolean("general_only",
			mcp.Description("Only conversations not attached to a project (ignored with project_id)"),
		),
	)
}

// Handle processes the thread_list tool call.
func (t *ThreadListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threads, err := t.store.ListThreads(t.user, req.GetString("project_id", ""), boolArg(req, "general_only", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list threads: %v", err)), nil
	}
	if len(threads) == 0 {
		return mcp.NewToolResultText("No conversations yet."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d conversations:\n\n", len(threads))
	for i, th := range threads {
		fmt.Fprintf(&b, "[%d] %s (ID: %s)\n", i+1, th.Title, th.ID)
		scope := "general"
		if pid := deref(th.ProjectID); pid != "" {
			scope = "project " + pid
		}
		fmt.Fprintf(&b, "    %s | %s | updated %s\n\n", scope, th.Status, th.UpdatedAt)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ThreadMessagesTool handles the thread_messages MCP tool.
type ThreadMessagesTool struct {
	store *store.Store
	user  string
}

// NewThreadMessagesTool creates a ThreadMessagesTool.
func NewThreadMessagesTool(s *store.Store, user string) *ThreadMessagesTool {
	return &ThreadMessagesTool{store: s, user: user}
}

// Definition returns the MCP tool definition for registration.
func (t *ThreadMessagesTool) Definition() mcp.Tool {
	return mcp.NewTool("thread_messages",
		mcp.WithDescription("Show a conversation's messages in order."),
		mcp.WithString("thread_id",
			mcp.Required(),
			mcp.Description("Conversation ID"),
		),
		mcp.WithNumber("last",
			mcp.Description("Only the last N messages (default: all)"),
		),
	)
}

// Handle processes the thread_messages tool call.
func (t *ThreadMessagesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("thread_id", "")
	if id == "" {
		return mcp.NewToolResultError("thread_id is required"), nil
	}
	th, err := t.store.GetThread(t.user, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get thread: %v", err)), nil
	}
	msgs, err := t.store.ListMessages(t.user, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list messages: %v", err)), nil
	}
	if n := intArg(req, "last", 0); n > 0 && n < len(msgs) {
		msgs = msgs[len(msgs)-n:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", th.Title)
	if len(msgs) == 0 {
		b.WriteString("No messages yet.\n")
	}
	for _, m := range msgs {
		fmt.Fprintf(&b, "**%s** (%s)\n%s\n\n", m.Role, m.CreatedAt, m.Content)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ThreadUpdateTool handles the thread_update MCP tool.
type ThreadUpdateTool struct {
	store *store.Store
	user  string
}

// NewThreadUpdateTool creates a ThreadUpdateTool.
func NewThreadUpdateTool(s *store.Store, user string) *ThreadUpdateTool {
	return &ThreadUpdateTool{store: s, user: user}
}

// Definition returns the MCP tool definition for registration.
func (t *ThreadUpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("thread_update",
		mcp.WithDescription("Rename a conversation or change its status."),
		mcp.WithString("thread_id",
			mcp.Required(),
			mcp.Description("Conversation ID"),
		),
		mcp.WithString("title",
			mcp.Description("New title"),
		),
		mcp.WithString("status",
			mcp.Description("One of: active, paused, resolved"),
		),
	)
}

// Handle processes the thread_update tool call.
func (t *ThreadUpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("thread_id", "")
	if id == "" {
		return mcp.NewToolResultError("thread_id is required"), nil
	}
	title := strings.TrimSpace(req.GetString("title", ""))
	status := req.GetString("status", "")
	if title == "" && status == "" {
		return mcp.NewToolResultError("nothing to update: provide title or status"), nil
	}
	if title != "" {
		if err := t.store.RenameThread(t.user, id, title); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to rename thread: %v", err)), nil
		}
	}
	if status != "" {
		if err := t.store.SetThreadStatus(t.user, id, status); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to set thread status: %v", err)), nil
		}
	}
	th, err := t.store.GetThread(t.user, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get thread: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Conversation %q (ID: %s) is %s.", th.Title, th.ID, th.Status)), nil
}
