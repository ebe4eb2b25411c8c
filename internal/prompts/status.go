// Package prompts implements MCP prompt handlers.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the host model to run a specific sequence of tool calls.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the analyser-status MCP prompt.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("analyser-status",
		mcp.WithPromptDescription(
			"Summarise where your client projects stand: stage, health, "+
				"stalled work and missing evidence.",
		),
		mcp.WithArgument("project_id",
			mcp.ArgumentDescription("Focus on one project instead of all active ones"),
		),
	)
}

// Handle processes the analyser-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	var projectID string
	if args := req.Params.Arguments; args != nil {
		projectID = strings.TrimSpace(args["project_id"])
	}

	var text string
	if projectID != "" {
		text = fmt.Sprintf(
			"Please run `project_get` with project_id %q and `evidence_list` for the same project.\n\n"+
				"Then:\n"+
				"1. Tell me the stage, health and how long it has been in this stage\n"+
				"2. Say what has to happen before the project can move on\n"+
				"3. Check whether an invoice or contract could be generated yet, and name any missing evidence\n"+
				"4. Suggest the single most useful next step",
			projectID,
		)
	} else {
		text = "Please run `project_list` with status \"active\".\n\n" +
			"Then:\n" +
			"1. Show each project's stage and health in a compact table\n" +
			"2. Highlight projects that are at risk or stalled for more than a week\n" +
			"3. For the most urgent one, suggest what I should do next"
	}

	return &mcp.GetPromptResult{
		Description: "Client Project Status",
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(text),
			},
		},
	}, nil
}
