package documents

import (
	"context"
	"log/slog"

	"github.com/HendryAvila/analyser/internal/llm"
	"github.com/HendryAvila/analyser/internal/prompt"
	"github.com/HendryAvila/analyser/internal/store"
)

// Document is a generated document, returned exactly as the model wrote it.
type Document struct {
	Content      string `json:"content"`
	Type         Type   `json:"documentType"`
	ProjectTitle string `json:"projectTitle"`
	// ID is the history record, empty when saving it failed.
	ID string `json:"id,omitempty"`
}

// Assembler generates gated documents from project evidence.
type Assembler struct {
	llm    llm.Completer
	store  *store.Store
	logger *slog.Logger
}

// NewAssembler creates an Assembler.
func NewAssembler(c llm.Completer, s *store.Store, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{llm: c, store: s, logger: logger}
}

// Generate produces a document of type t for the caller's project.
//
// The project and its evidence are both looked up scoped to userID, so a
// project owned by someone else yields store.ErrNotFound. Evidence is read
// once and the same snapshot feeds the gate and the prompt. A failed gate
// returns a *GateError without calling the completion service.
func (a *Assembler) Generate(ctx context.Context, userID, projectID string, t Type) (*Document, error) {
	if err := ValidateType(t); err != nil {
		return nil, err
	}

	project, err := a.store.GetProject(userID, projectID)
	if err != nil {
		return nil, err
	}
	evidence, err := a.store.ListEvidence(userID, projectID)
	if err != nil {
		return nil, err
	}

	if gateErr := CheckGate(t, evidence); gateErr != nil {
		a.logger.Info("document gate failed", "project", projectID, "type", t, "reason", gateErr.Reason)
		return nil, gateErr
	}

	resp, err := a.llm.Complete(ctx, llm.Request{
		Messages: []prompt.Turn{
			{Role: prompt.RoleSystem, Content: systemPrompt},
			{Role: prompt.RoleUser, Content: UserPrompt(t, project, evidence)},
		},
		Temperature: llm.DocumentTemperature,
		MaxTokens:   llm.DocumentMaxTokens,
	})
	if err != nil {
		a.logger.Error("document generation failed", "project", projectID, "type", t, "error", err)
		return nil, err
	}

	doc := &Document{Content: resp.Content, Type: t, ProjectTitle: project.Title}
	if saved, err := a.store.SaveDocument(userID, projectID, string(t), resp.Content); err != nil {
		a.logger.Warn("failed to save document history", "project", projectID, "error", err)
	} else {
		doc.ID = saved.ID
	}

	a.logger.Info("generated document", "type", t, "project", project.Title, "evidence", len(evidence))
	return doc, nil
}
