// Package analysis turns a free-text description of a difficult client
// situation into structured guidance: a summary, key risks, root causes,
// recommended steps and warnings.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/HendryAvila/analyser/internal/conversation"
	"github.com/HendryAvila/analyser/internal/llm"
	"github.com/HendryAvila/analyser/internal/prompt"
	"github.com/HendryAvila/analyser/internal/store"
)

// ErrEmptySituation is returned when there is nothing to analyze.
var ErrEmptySituation = errors.New("please provide a situation to analyze")

const systemPrompt = `You are ANALYSER, a calm, professional AI reasoning system designed to help users think clearly about complex situations.

Your role is to provide structured, actionable analysis without panic or moral judgment. You help users:
- Understand their situation clearly
- Identify risks and root causes
- Get concrete next steps
- Stay calm and in control

IMPORTANT: Always respond with a JSON object containing exactly these 5 sections:
1. summary: A calm, clear 2-3 sentence overview of the situation
2. keyRisks: An array of 2-4 potential risks or concerns
3. rootCauses: An array of 2-4 underlying causes or contributing factors
4. recommendedSteps: An array of 3-5 specific, actionable next steps
5. warnings: An array of 0-3 important things to avoid or be careful about

Your tone must be:
- Calm and reassuring
- Professional and neutral
- Clear and direct
- Never panicked or alarmist
- Never morally judgmental

Focus on clarity and practical guidance. Help the user feel they understand their situation and have a clear path forward.`

const userPrefix = "Please analyze this situation and provide structured guidance:\n\n"

// DefaultSummary is used when the model returns no summary.
const DefaultSummary = "Analysis complete."

// fallbackSummaryLength bounds the raw reply used as summary when the
// reply is not JSON.
const fallbackSummaryLength = 500

var fenced = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// Result is structured guidance for one situation.
type Result struct {
	ID               string   `json:"id,omitempty"`
	Summary          string   `json:"summary"`
	KeyRisks         []string `json:"keyRisks"`
	RootCauses       []string `json:"rootCauses"`
	RecommendedSteps []string `json:"recommendedSteps"`
	Warnings         []string `json:"warnings"`
}

// Analyzer asks the completion service for structured guidance.
type Analyzer struct {
	llm    llm.Completer
	store  *store.Store
	logger *slog.Logger
}

// NewAnalyzer creates an Analyzer. store may be nil, in which case
// results are not kept.
func NewAnalyzer(c llm.Completer, s *store.Store, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{llm: c, store: s, logger: logger}
}

// Analyze returns guidance for situation. projectID is optional; when set
// it must belong to userID and the result is filed under that project.
// Saving the result is best-effort.
func (a *Analyzer) Analyze(ctx context.Context, userID, projectID, situation string) (*Result, error) {
	if strings.TrimSpace(situation) == "" {
		return nil, ErrEmptySituation
	}
	if projectID != "" && a.store != nil {
		if _, err := a.store.GetProject(userID, projectID); err != nil {
			return nil, err
		}
	}

	a.logger.Info("analyzing situation", "input", conversation.Truncate(situation, 100))

	resp, err := a.llm.Complete(ctx, llm.Request{
		Messages: []prompt.Turn{
			{Role: prompt.RoleSystem, Content: systemPrompt},
			{Role: prompt.RoleUser, Content: userPrefix + situation},
		},
		Temperature: llm.AnalysisTemperature,
	})
	if err != nil {
		return nil, err
	}

	result, err := Parse(resp.Content)
	if err != nil {
		a.logger.Warn("analysis reply was not valid JSON", "error", err)
	}

	if a.store != nil {
		rec := &store.Analysis{
			InputText:        situation,
			Summary:          result.Summary,
			KeyRisks:         result.KeyRisks,
			RootCauses:       result.RootCauses,
			RecommendedSteps: result.RecommendedSteps,
			Warnings:         result.Warnings,
		}
		if projectID != "" {
			rec.ProjectID = &projectID
		}
		if err := a.store.SaveAnalysis(userID, rec); err != nil {
			a.logger.Warn("failed to save analysis", "error", err)
		} else {
			result.ID = rec.ID
		}
	}
	return result, nil
}

// Parse extracts a Result from a model reply. The reply may wrap the JSON
// in a fenced code block. Missing or mistyped fields get defaults. When
// the reply is not JSON at all, Parse returns a placeholder result built
// from the raw text together with the parse error.
func Parse(content string) (*Result, error) {
	raw := content
	if m := fenced.FindStringSubmatch(content); m != nil && m[1] != "" {
		raw = m[1]
	}

	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return fallback(content), fmt.Errorf("parse analysis: %w", err)
	}

	fields, _ := decoded.(map[string]any)
	r := &Result{
		Summary:          DefaultSummary,
		KeyRisks:         stringList(fields["keyRisks"]),
		RootCauses:       stringList(fields["rootCauses"]),
		RecommendedSteps: stringList(fields["recommendedSteps"]),
		Warnings:         stringList(fields["warnings"]),
	}
	if s, ok := fields["summary"].(string); ok && s != "" {
		r.Summary = s
	}
	return r, nil
}

func fallback(content string) *Result {
	summary := content
	if runes := []rune(content); len(runes) > fallbackSummaryLength {
		summary = string(runes[:fallbackSummaryLength])
	}
	return &Result{
		Summary:          summary,
		KeyRisks:         []string{"Unable to parse detailed risks - please try again"},
		RootCauses:       []string{"Unable to parse root causes - please try again"},
		RecommendedSteps: []string{"Review the situation and try submitting again with more details"},
		Warnings:         []string{},
	}
}

// stringList keeps array values, rendering non-string elements as text.
// Anything that is not an array becomes an empty list.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
			continue
		}
		b, err := json.Marshal(item)
		if err != nil {
			continue
		}
		out = append(out, string(b))
	}
	return out
}
