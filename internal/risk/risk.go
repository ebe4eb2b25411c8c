// Package risk scans recent conversation text for keyword signals and
// classifies them into a project health suggestion.
//
// Matching is deliberately simple: lower-cased substring search over the
// concatenated window, no tokenization or stemming. A category counts once
// no matter how many of its phrases appear.
package risk

import (
	"strings"

	"github.com/HendryAvila/analyser/internal/conversation"
	"github.com/HendryAvila/analyser/internal/stages"
)

// Window is the number of most recent messages examined.
const Window = 10

// Category is one class of conversational risk signal.
type Category string

const (
	ScopeCreep        Category = "scope_creep"
	PaymentRisk       Category = "payment_risk"
	CommunicationRisk Category = "communication_risk"
	TimelineRisk      Category = "timeline_risk"
)

// Pattern pairs a category with its trigger phrases.
type Pattern struct {
	Category Category
	Triggers []string
}

// patterns is in declaration order; detection output follows it.
var patterns = []Pattern{
	{
		Category: ScopeCreep,
		Triggers: []string{
			"one more thing",
			"small change",
			"quick addition",
			"while you're at it",
			"can you also",
			"just add",
			"shouldn't take long",
			"easy fix",
			"minor tweak",
		},
	},
	{
		Category: PaymentRisk,
		Triggers: []string{
			"tight budget",
			"pay later",
			"can't pay yet",
			"payment delayed",
			"invoice issue",
			"need more time to pay",
			"financial difficulty",
		},
	},
	{
		Category: CommunicationRisk,
		Triggers: []string{
			"not responding",
			"ghosting",
			"no reply",
			"haven't heard back",
			"ignoring messages",
			"delayed response",
		},
	},
	{
		Category: TimelineRisk,
		Triggers: []string{
			"running late",
			"behind schedule",
			"need extension",
			"deadline issue",
			"can't make it",
			"delayed delivery",
		},
	},
}

// Result is the outcome of one detection pass.
type Result struct {
	Categories      []Category    `json:"detected_risks"`
	Score           int           `json:"risk_score"`
	SuggestedHealth stages.Health `json:"suggested_health"`
}

// Detected reports whether any category fired.
func (r Result) Detected() bool {
	return len(r.Categories) > 0
}

// Names returns the detected categories as plain strings.
func (r Result) Names() []string {
	names := make([]string, len(r.Categories))
	for i, c := range r.Categories {
		names[i] = string(c)
	}
	return names
}

// Detect classifies the last Window messages of history.
func Detect(history []conversation.Message) Result {
	recent := history
	if len(recent) > Window {
		recent = recent[len(recent)-Window:]
	}

	parts := make([]string, len(recent))
	for i, m := range recent {
		parts[i] = strings.ToLower(m.Content)
	}
	text := strings.Join(parts, " ")

	result := Result{Categories: []Category{}}
	for _, p := range patterns {
		for _, trigger := range p.Triggers {
			if strings.Contains(text, strings.ToLower(trigger)) {
				result.Categories = append(result.Categories, p.Category)
				break
			}
		}
	}
	result.Score = len(result.Categories)
	result.SuggestedHealth = HealthForScore(result.Score)
	return result
}

// HealthForScore maps a risk score to a health level:
// 3 or more → risk, 1 or 2 → watch, 0 → healthy.
func HealthForScore(score int) stages.Health {
	switch {
	case score >= 3:
		return stages.Risk
	case score >= 1:
		return stages.Watch
	default:
		return stages.Healthy
	}
}
