package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/analyser/internal/advisor"
	"github.com/HendryAvila/analyser/internal/analysis"
	"github.com/HendryAvila/analyser/internal/documents"
	"github.com/HendryAvila/analyser/internal/stages"
	"github.com/HendryAvila/analyser/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// AdvisorTurnTool handles the advisor_turn MCP tool: one persisted turn
// in a project's conversation, or in a general conversation when no
// project is given.
type AdvisorTurnTool struct {
	advisor *advisor.Advisor
	user    string
}

// NewAdvisorTurnTool creates an AdvisorTurnTool.
func NewAdvisorTurnTool(a *advisor.Advisor, user string) *AdvisorTurnTool {
	return &AdvisorTurnTool{advisor: a, user: user}
}

// Definition returns the MCP tool definition for registration.
func (t *AdvisorTurnTool) Definition() mcp.Tool {
	return mcp.NewTool("advisor_turn",
		mcp.WithDescription(
			"Send a message to the engagement advisor and get its reply. With "+
				"project_id the turn joins that project's conversation and may move the "+
				"project to another stage or change its health. With thread_id, or with "+
				"neither, it is a general conversation that never changes a project.",
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The message to the advisor"),
		),
		mcp.WithString("project_id",
			mcp.Description("Project whose conversation to continue"),
		),
		mcp.WithString("thread_id",
			mcp.Description("General conversation to continue (omit to start a new one)"),
		),
	)
}

// Handle processes the advisor_turn tool call.
func (t *AdvisorTurnTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := req.GetString("content", "")
	if strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("content is required"), nil
	}

	var (
		res *advisor.TurnResult
		err error
	)
	if projectID := req.GetString("project_id", ""); projectID != "" {
		res, err = t.advisor.Turn(ctx, t.user, projectID, content)
	} else {
		res, err = t.advisor.GeneralTurn(ctx, t.user, req.GetString("thread_id", ""), content)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("advisor turn failed: %v", err)), nil
	}

	var b strings.Builder
	b.WriteString(res.Content)
	b.WriteString("\n\n---\n")
	fmt.Fprintf(&b, "Thread: %s\n", res.ThreadID)
	if len(res.DetectedRisks) > 0 {
		names := make([]string, len(res.DetectedRisks))
		for i, c := range res.DetectedRisks {
			names[i] = string(c)
		}
		fmt.Fprintf(&b, "Risks: %s (score %d)\n", strings.Join(names, ", "), res.RiskScore)
	}
	if p := res.Project; p != nil {
		fmt.Fprintf(&b, "Stage: %s", stages.Title(p.CurrentStage()))
		if res.StageChanged {
			b.WriteString(" (changed)")
		}
		fmt.Fprintf(&b, "\nHealth: %s", p.HealthStatus)
		if res.HealthChanged {
			b.WriteString(" (changed)")
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// DocumentGenerateTool handles the document_generate MCP tool.
type DocumentGenerateTool struct {
	assembler *documents.Assembler
	user      string
}

// NewDocumentGenerateTool creates a DocumentGenerateTool.
func NewDocumentGenerateTool(a *documents.Assembler, user string) *DocumentGenerateTool {
	return &DocumentGenerateTool{assembler: a, user: user}
}

// Definition returns the MCP tool definition for registration.
func (t *DocumentGenerateTool) Definition() mcp.Tool {
	return mcp.NewTool("document_generate",
		mcp.WithDescription(
			"Draft a client document from the project's recorded evidence. Invoices "+
				"require scope_definition and approval evidence; contracts require "+
				"scope_definition evidence.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project ID"),
		),
		mcp.WithString("document_type",
			mcp.Required(),
			mcp.Description("One of: project_summary, invoice, contract"),
		),
	)
}

// Handle processes the document_generate tool call.
func (t *DocumentGenerateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := req.GetString("project_id", "")
	if projectID == "" {
		return mcp.NewToolResultError("project_id is required"), nil
	}
	doc, err := t.assembler.Generate(ctx, t.user, projectID, documents.Type(req.GetString("document_type", "")))
	if err != nil {
		var gateErr *documents.GateError
		if errors.As(err, &gateErr) {
			return mcp.NewToolResultError(fmt.Sprintf("%s: %s", gateErr.Message, gateErr.Reason)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to generate document: %v", err)), nil
	}
	return mcp.NewToolResultText(doc.Content), nil
}

// SituationAnalyzeTool handles the situation_analyze MCP tool.
type SituationAnalyzeTool struct {
	analyzer *analysis.Analyzer
	user     string
}

// NewSituationAnalyzeTool creates a SituationAnalyzeTool.
func NewSituationAnalyzeTool(a *analysis.Analyzer, user string) *SituationAnalyzeTool {
	return &SituationAnalyzeTool{analyzer: a, user: user}
}

// Definition returns the MCP tool definition for registration.
func (t *SituationAnalyzeTool) Definition() mcp.Tool {
	return mcp.NewTool("situation_analyze",
		mcp.WithDescription(
			"Get structured guidance on a difficult client situation: key risks, "+
				"root causes, recommended steps and warnings.",
		),
		mcp.WithString("situation",
			mcp.Required(),
			mcp.Description("What is happening, in your own words"),
		),
		mcp.WithString("project_id",
			mcp.Description("Project the situation belongs to"),
		),
	)
}

// Handle processes the situation_analyze tool call.
func (t *SituationAnalyzeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := t.analyzer.Analyze(ctx, t.user, req.GetString("project_id", ""), req.GetString("situation", ""))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mcp.NewToolResultError("project not found"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Summary\n%s\n", res.Summary)
	writeList(&b, "Key risks", res.KeyRisks)
	writeList(&b, "Root causes", res.RootCauses)
	writeList(&b, "Recommended steps", res.RecommendedSteps)
	writeList(&b, "Warnings", res.Warnings)
	return mcp.NewToolResultText(b.String()), nil
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n", heading)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}
