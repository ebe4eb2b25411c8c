// Package server wires all components and creates the MCP server and the
// HTTP handler.
//
// This is the composition root: it creates the store and the completion
// client and injects them into the advisor, the document assembler and
// the analyzer, which the MCP tools and the HTTP API share. No business
// logic lives here, only wiring.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/HendryAvila/analyser/internal/advisor"
	"github.com/HendryAvila/analyser/internal/analysis"
	"github.com/HendryAvila/analyser/internal/api"
	"github.com/HendryAvila/analyser/internal/config"
	"github.com/HendryAvila/analyser/internal/documents"
	"github.com/HendryAvila/analyser/internal/llm"
	"github.com/HendryAvila/analyser/internal/prompts"
	"github.com/HendryAvila/analyser/internal/resources"
	"github.com/HendryAvila/analyser/internal/store"
	"github.com/HendryAvila/analyser/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Components are the core services shared by every surface.
type Components struct {
	Store     *store.Store
	Advisor   *advisor.Advisor
	Documents *documents.Assembler
	Analyzer  *analysis.Analyzer
}

// Build opens the store and creates the core services. The returned
// cleanup function closes the store; it is always non-nil.
func Build(cfg *config.Config, logger *slog.Logger) (*Components, func(), error) {
	client := llm.NewClient(cfg.Completion(), logger)
	if !client.Configured() {
		logger.Warn("no completion API key configured; advisor, document and analysis calls will fail")
	}
	return build(cfg, client, logger)
}

func build(cfg *config.Config, c llm.Completer, logger *slog.Logger) (*Components, func(), error) {
	st, err := store.New(cfg.Store())
	if err != nil {
		return nil, noop, fmt.Errorf("opening store: %w", err)
	}
	cleanup := func() {
		if err := st.Close(); err != nil {
			logger.Warn("store close failed", "error", err)
		}
	}
	return &Components{
		Store:     st,
		Advisor:   advisor.New(c, st, logger),
		Documents: documents.NewAssembler(c, st, logger),
		Analyzer:  analysis.NewAnalyzer(c, st, logger),
	}, cleanup, nil
}

// New creates the MCP server with all tools, prompts and resources
// registered, acting as cfg.User.
//
// The returned cleanup function closes the store's database connection
// and must be called on shutdown (typically via defer).
func New(cfg *config.Config, logger *slog.Logger) (*server.MCPServer, func(), error) {
	comp, cleanup, err := Build(cfg, logger)
	if err != nil {
		return nil, noop, err
	}
	return NewMCP(comp, cfg.User), cleanup, nil
}

// NewMCP registers every MCP surface over comp for user.
func NewMCP(comp *Components, user string) *server.MCPServer {
	s := server.NewMCPServer(
		"analyser",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	for _, t := range toolSet(comp, user) {
		s.AddTool(t.Definition(), t.Handle)
	}

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	resourceHandler := resources.NewHandler(comp.Store, user)
	s.AddResource(resourceHandler.ProjectsResource(), resourceHandler.HandleProjects)

	return s
}

// NewHTTPHandler builds the HTTP API. Bearer tokens resolve to users via
// the configured token table.
func NewHTTPHandler(cfg *config.Config, comp *Components, logger *slog.Logger) http.Handler {
	return api.NewRouter(&api.Handlers{
		Advisor:   comp.Advisor,
		Documents: comp.Documents,
		Analyzer:  comp.Analyzer,
		Store:     comp.Store,
		Auth:      cfg.UserForToken,
		Logger:    logger,
	})
}

type tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

func toolSet(comp *Components, user string) []tool {
	st := comp.Store
	return []tool{
		// Projects
		tools.NewProjectCreateTool(st, user),
		tools.NewProjectListTool(st, user),
		tools.NewProjectGetTool(st, user),
		tools.NewProjectStatusTool(st, user),

		// Evidence
		tools.NewEvidenceAddTool(st, user),
		tools.NewEvidenceListTool(st, user),
		tools.NewEvidenceSearchTool(st, user),
		tools.NewEvidenceDeleteTool(st, user),

		// Pattern memory
		tools.NewPatternAddTool(st, user),
		tools.NewPatternListTool(st, user),
		tools.NewPatternSeenTool(st, user),
		tools.NewPatternDeleteTool(st, user),

		// Conversations
		tools.NewThreadListTool(st, user),
		tools.NewThreadMessagesTool(st, user),
		tools.NewThreadUpdateTool(st, user),
		tools.NewAdvisorTurnTool(comp.Advisor, user),

		tools.NewDocumentGenerateTool(comp.Documents, user),
		tools.NewSituationAnalyzeTool(comp.Analyzer, user),
	}
}

// noop is the cleanup returned when nothing was opened.
func noop() {}

// serverInstructions tells the host model how to use the server.
func serverInstructions() string {
	return `You have access to Analyser, an advisor for freelancers and small agencies managing client engagements.

## What it tracks
- Projects move through seven stages: client_onboarding, requirements, first_draft,
  client_feedback, revision, final_delivery, payment. Each project has a health
  status: healthy, watch or risk.
- Evidence is the written record of what the client agreed to: scope definitions,
  approvals, requirements, decisions, notes and references. Evidence is never edited.
- Patterns are private lessons from past engagements. They steer the advisor and are
  never shown to clients.

## How to use the tools
1. When the user talks about a client project, find it with project_list or create it
   with project_create.
2. Pass the user's messages about that project to advisor_turn with the project_id. The
   advisor may move the project to another stage or change its health; the reply says so.
3. Whenever the user mentions an agreement, an approval or a scope decision, record it
   with evidence_add using the right evidence_type. Quote the client precisely.
4. Use document_generate for summaries, invoices and contracts. Invoices need a
   scope_definition and an approval; contracts need a scope_definition. If generation
   is refused, tell the user exactly which evidence is missing.
5. For a tense or confusing situation, use situation_analyze.
6. When the user draws a general lesson from a project, offer to save it with pattern_add.
   When an old lesson proves true again, call pattern_seen; when it no longer holds,
   pattern_delete.
7. Mark finished or abandoned projects with project_status.

## Rules
- Never invent evidence the user did not state.
- Never quote pattern memory to a client.`
}
