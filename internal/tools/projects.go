package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/analyser/internal/prompt"
	"github.com/HendryAvila/analyser/internal/stages"
	"github.com/HendryAvila/analyser/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// ProjectCreateTool handles the project_create MCP tool.
type ProjectCreateTool struct {
	store *store.Store
	user  string
}

// NewProjectCreateTool creates a ProjectCreateTool.
func NewProjectCreateTool(s *store.Store, user string) *ProjectCreateTool {
	return &ProjectCreateTool{store: s, user: user}
}

// Definition returns the MCP tool definition for registration.
func (t *ProjectCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("project_create",
		mcp.WithDescription(
			"Start tracking a new client engagement. The project begins at the "+
				"client onboarding stage with healthy status.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short project title, e.g. 'Acme website redesign'"),
		),
		mcp.WithString("client_name",
			mcp.Description("Client or company name"),
		),
		mcp.WithString("description",
			mcp.Description("What the engagement is about"),
		),
	)
}

// Handle processes the project_create tool call.
func (t *ProjectCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := t.store.CreateProject(t.user, store.CreateProjectParams{
		Title:       req.GetString("title", ""),
		ClientName:  req.GetString("client_name", ""),
		Description: req.GetString("description", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create project: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Project created: %q (ID: %s)\nStage: %s\nHealth: %s",
		p.Title, p.ID, stages.Title(p.CurrentStage()), p.HealthStatus,
	)), nil
}

// ProjectListTool handles the project_list MCP tool.
type ProjectListTool struct {
	store *store.Store
	user  string
}

// NewProjectListTool creates a ProjectListTool.
func NewProjectListTool(s *store.Store, user string) *ProjectListTool {
	return &ProjectListTool{store: s, user: user}
}

// Definition returns the MCP tool definition for registration.
func (t *ProjectListTool) Definition() mcp.Tool {
	return mcp.NewTool("project_list",
		mcp.WithDescription("List client projects, most recently updated first."),
		mcp.WithString("status",
			mcp.Description("Filter by status: active, completed or archived. Omit for all."),
		),
	)
}

// Handle processes the project_list tool call.
func (t *ProjectListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := t.store.ListProjects(t.user, req.GetString("status", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list projects: %v", err)), nil
	}
	if len(projects) == 0 {
		return mcp.NewToolResultText("No projects yet. Use project_create to start one."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d projects:\n\n", len(projects))
	for i, p := range projects {
		fmt.Fprintf(&b, "[%d] %s (ID: %s)\n", i+1, p.Title, p.ID)
		if c := deref(p.ClientName); c != "" {
			fmt.Fprintf(&b, "    Client: %s\n", c)
		}
		fmt.Fprintf(&b, "    %s | %s | %s | %d days in stage\n\n",
			p.Status, stages.Title(p.CurrentStage()), p.HealthStatus, p.DaysInStage)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ProjectGetTool handles the project_get MCP tool. It returns the project
// together with the readiness condition of its current stage.
type ProjectGetTool struct {
	store *store.Store
	user  string
}

// NewProjectGetTool creates a ProjectGetTool.
func NewProjectGetTool(s *store.Store, user string) *ProjectGetTool {
	return &ProjectGetTool{store: s, user: user}
}

// Definition returns the MCP tool definition for registration.
func (t *ProjectGetTool) Definition() mcp.Tool {
	return mcp.NewTool("project_get",
		mcp.WithDescription(
			"Show one project with its stage, health, days in stage and what "+
				"the stage needs before moving on.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project ID"),
		),
	)
}

// Handle processes the project_get tool call.
func (t *ProjectGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("project_id", "")
	if id == "" {
		return mcp.NewToolResultError("project_id is required"), nil
	}
	p, err := t.store.GetProject(t.user, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get project: %v", err)), nil
	}

	stage := p.CurrentStage()

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	fmt.Fprintf(&b, "ID: %s\n", p.ID)
	if c := deref(p.ClientName); c != "" {
		fmt.Fprintf(&b, "Client: %s\n", c)
	}
	if d := deref(p.Description); d != "" {
		fmt.Fprintf(&b, "Description: %s\n", d)
	}
	fmt.Fprintf(&b, "Status: %s\n", p.Status)
	fmt.Fprintf(&b, "Stage: %s (%d days)\n", stages.Title(stage), p.DaysInStage)
	fmt.Fprintf(&b, "Health: %s\n", p.HealthStatus)
	if p.DaysInStage > prompt.UrgencyDays {
		fmt.Fprintf(&b, "\nStalled: more than %d days in this stage.\n", prompt.UrgencyDays)
	}
	fmt.Fprintf(&b, "\nReady to move on when: %s\n", stages.Readiness(stage))
	if next, ok := stages.Next(stage); ok {
		fmt.Fprintf(&b, "Next stage: %s\n", stages.Title(next))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ProjectStatusTool handles the project_status MCP tool. Stage and health
// belong to the advisor; this only moves a project between active,
// completed and archived.
type ProjectStatusTool struct {
	store *store.Store
	user  string
}

// NewProjectStatusTool creates a ProjectStatusTool.
func NewProjectStatusTool(s *store.Store, user string) *ProjectStatusTool {
	return &ProjectStatusTool{store: s, user: user}
}

// Definition returns the MCP tool definition for registration.
func (t *ProjectStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("project_status",
		mcp.WithDescription("Mark a project active, completed or archived."),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project ID"),
		),
		mcp.WithString("status",
			mcp.Required(),
			mcp.Description("One of: active, completed, archived"),
		),
	)
}

// Handle processes the project_status tool call.
func (t *ProjectStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("project_id", "")
	if id == "" {
		return mcp.NewToolResultError("project_id is required"), nil
	}
	status := req.GetString("status", "")
	if err := t.store.UpdateProjectStatus(t.user, id, status); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update project status: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Project %s is now %s.", id, status)), nil
}
