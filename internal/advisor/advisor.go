// Package advisor runs one conversational turn: it classifies risk,
// composes the instruction, calls the completion service, strips the
// hidden stage directive from the reply, and applies the resulting stage
// and health changes to the project.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/HendryAvila/analyser/internal/conversation"
	"github.com/HendryAvila/analyser/internal/llm"
	"github.com/HendryAvila/analyser/internal/prompt"
	"github.com/HendryAvila/analyser/internal/risk"
	"github.com/HendryAvila/analyser/internal/stages"
	"github.com/HendryAvila/analyser/internal/store"
)

// TitleLength is how many runes of the first message become a general
// thread's title.
const TitleLength = 50

// ErrEmptyConversation is returned when a turn has no messages.
var ErrEmptyConversation = errors.New("please provide messages")

// Request is a stateless turn: the caller supplies the full history.
type Request struct {
	History  []conversation.Message `json:"messages"`
	Project  *prompt.ProjectContext `json:"projectContext,omitempty"`
	Patterns []prompt.PatternEntry  `json:"patternMemory,omitempty"`
}

// Reply is the advisor's answer to one turn.
type Reply struct {
	// Content is the reply with the stage directive removed.
	Content string `json:"content"`
	// StageTransition is the stage the model proposed, if any. It is
	// reported as written by the model.
	StageTransition string          `json:"stageTransition,omitempty"`
	HealthUpdate    stages.Health   `json:"healthUpdate"`
	DetectedRisks   []risk.Category `json:"detectedRisks"`
	RiskScore       int             `json:"riskScore"`
	Usage           llm.Usage       `json:"usage"`
}

// TurnResult is the outcome of a persistent turn.
type TurnResult struct {
	Reply
	ThreadID    string         `json:"threadId"`
	UserMessage *store.Message `json:"userMessage"`
	// AnalyserMessage is the persisted, cleaned reply.
	AnalyserMessage *store.Message `json:"analyserMessage"`
	// Project is the project after stage and health updates, or nil for
	// threads without a project.
	Project       *store.Project `json:"project,omitempty"`
	StageChanged  bool           `json:"stageChanged"`
	HealthChanged bool           `json:"healthChanged"`
}

// Advisor orchestrates turns against a completion service and a store.
type Advisor struct {
	llm    llm.Completer
	store  *store.Store
	logger *slog.Logger
}

// New creates an Advisor. store may be nil when only Reply is used.
func New(c llm.Completer, s *store.Store, logger *slog.Logger) *Advisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Advisor{llm: c, store: s, logger: logger}
}

// Reply runs the stateless part of a turn over req.History, which must
// already include the newest user message.
func (a *Advisor) Reply(ctx context.Context, req Request) (*Reply, error) {
	if len(req.History) == 0 {
		return nil, ErrEmptyConversation
	}

	detected := risk.Detect(req.History)
	patterns := req.Patterns
	if len(patterns) > prompt.MaxPatterns {
		patterns = patterns[:prompt.MaxPatterns]
	}
	instruction := prompt.Compose(prompt.Input{
		Project:  req.Project,
		Patterns: patterns,
		Risk:     detected,
	})

	stage := "general"
	if req.Project != nil {
		stage = string(stages.Normalize(req.Project.Stage))
	}
	a.logger.Info("processing advisor turn",
		"messages", len(req.History),
		"stage", stage,
		"risks", strings.Join(detected.Names(), ","))

	resp, err := a.llm.Complete(ctx, llm.Request{
		Messages:    prompt.Messages(instruction, req.History),
		Temperature: llm.ChatTemperature,
		MaxTokens:   llm.ChatMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	content, proposed, _ := ExtractStageTransition(resp.Content)
	if proposed != "" {
		a.logger.Info("advisor proposed stage transition", "stage", proposed)
	}
	return &Reply{
		Content:         content,
		StageTransition: proposed,
		HealthUpdate:    detected.SuggestedHealth,
		DetectedRisks:   detected.Categories,
		RiskScore:       detected.Score,
		Usage:           resp.Usage,
	}, nil
}

// Turn runs a persistent turn in the project's primary conversation.
// The user message is stored before the completion call and is kept
// even when the call fails. Stage and health updates are best-effort:
// failures are logged and the reply is still returned.
func (a *Advisor) Turn(ctx context.Context, userID, projectID, content string) (*TurnResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyConversation
	}
	project, err := a.store.GetProject(userID, projectID)
	if err != nil {
		return nil, err
	}
	thread, err := a.store.PrimaryThread(userID, projectID)
	if err != nil {
		return nil, fmt.Errorf("primary thread: %w", err)
	}

	res, err := a.converse(ctx, userID, thread.ID, content, projectContext(project))
	if err != nil {
		return nil, err
	}

	a.applyStage(userID, project, res)
	a.applyHealth(userID, project, res)

	if res.StageChanged || res.HealthChanged {
		if refreshed, err := a.store.GetProject(userID, projectID); err == nil {
			project = refreshed
		}
	}
	res.Project = project
	return res, nil
}

// GeneralTurn runs a turn in a conversation thread. An empty threadID
// starts a new thread titled after content.
// Threads attached to a project get that project's context, but their
// replies never change the project's stage or health.
func (a *Advisor) GeneralTurn(ctx context.Context, userID, threadID, content string) (*TurnResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyConversation
	}

	var thread *store.Thread
	var err error
	if threadID == "" {
		title := conversation.Truncate(strings.TrimSpace(content), TitleLength)
		thread, err = a.store.CreateThread(userID, "", title)
	} else {
		thread, err = a.store.GetThread(userID, threadID)
	}
	if err != nil {
		return nil, err
	}

	var pc *prompt.ProjectContext
	if thread.ProjectID != nil {
		if p, err := a.store.GetProject(userID, *thread.ProjectID); err == nil {
			pc = projectContext(p)
		}
	}

	return a.converse(ctx, userID, thread.ID, content, pc)
}

// converse persists the user message, replies over the thread's full
// history, and persists the cleaned reply.
func (a *Advisor) converse(ctx context.Context, userID, threadID, content string, pc *prompt.ProjectContext) (*TurnResult, error) {
	userMsg, err := a.store.AddMessage(userID, threadID, conversation.RoleUser, content)
	if err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}

	msgs, err := a.store.ListMessages(userID, threadID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	patterns, err := a.store.RecentPatterns(userID, prompt.MaxPatterns)
	if err != nil {
		a.logger.Warn("failed to load pattern memory", "error", err)
		patterns = nil
	}

	reply, err := a.Reply(ctx, Request{
		History:  store.History(msgs),
		Project:  pc,
		Patterns: patternEntries(patterns),
	})
	if err != nil {
		a.logger.Error("advisor turn failed",
			"thread", threadID,
			"input", conversation.Truncate(content, 100),
			"error", err)
		return nil, err
	}

	replyMsg, err := a.store.AddMessage(userID, threadID, conversation.RoleAnalyser, reply.Content)
	if err != nil {
		return nil, fmt.Errorf("save reply: %w", err)
	}

	return &TurnResult{
		Reply:           *reply,
		ThreadID:        threadID,
		UserMessage:     userMsg,
		AnalyserMessage: replyMsg,
	}, nil
}

func (a *Advisor) applyStage(userID string, p *store.Project, res *TurnResult) {
	proposed := stages.Stage(res.StageTransition)
	if proposed == "" || proposed == p.CurrentStage() {
		return
	}
	if !stages.Valid(proposed) {
		a.logger.Warn("ignoring unknown proposed stage", "project", p.ID, "stage", proposed)
		return
	}
	if err := a.store.UpdateProjectStage(userID, p.ID, proposed); err != nil {
		a.logger.Error("failed to update project stage", "project", p.ID, "stage", proposed, "error", err)
		return
	}
	res.StageChanged = true
}

func (a *Advisor) applyHealth(userID string, p *store.Project, res *TurnResult) {
	if res.HealthUpdate == "" || res.HealthUpdate == p.HealthStatus {
		return
	}
	if err := a.store.UpdateProjectHealth(userID, p.ID, res.HealthUpdate); err != nil {
		a.logger.Error("failed to update project health", "project", p.ID, "health", res.HealthUpdate, "error", err)
		return
	}
	res.HealthChanged = true
}

func projectContext(p *store.Project) *prompt.ProjectContext {
	return &prompt.ProjectContext{
		ID:          p.ID,
		Title:       p.Title,
		ClientName:  deref(p.ClientName),
		Description: deref(p.Description),
		Stage:       p.CurrentStage(),
		Health:      p.HealthStatus,
		DaysInStage: p.DaysInStage,
	}
}

func patternEntries(pm []store.PatternMemory) []prompt.PatternEntry {
	out := make([]prompt.PatternEntry, len(pm))
	for i, p := range pm {
		out[i] = prompt.PatternEntry{Type: p.PatternType, Content: p.Content}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
