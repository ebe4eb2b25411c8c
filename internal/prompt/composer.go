// Package prompt assembles the advisor's leading instruction from the
// persona, project context, stage policy, pattern memory, and risk
// classification.
//
// Composition is an ordered list of sections built independently and
// joined at the end, so each block can be tested on its own.
package prompt

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/analyser/internal/conversation"
	"github.com/HendryAvila/analyser/internal/risk"
	"github.com/HendryAvila/analyser/internal/stages"
)

const (
	// MaxPatterns caps the learned-pattern entries injected per turn.
	MaxPatterns = 5
	// UrgencyDays is the days-in-stage threshold above which an urgency
	// note is added.
	UrgencyDays = 7
)

// Section names, in composition order.
const (
	SectionPersona  = "persona"
	SectionProject  = "project_context"
	SectionStage    = "stage_behavior"
	SectionUrgency  = "urgency"
	SectionPatterns = "learned_patterns"
	SectionRisk     = "risk_context"
)

// ProjectContext is the project snapshot the advisor reasons about.
type ProjectContext struct {
	ID          string        `json:"id,omitempty"`
	Title       string        `json:"title,omitempty"`
	ClientName  string        `json:"client_name,omitempty"`
	Description string        `json:"description,omitempty"`
	Stage       stages.Stage  `json:"stage,omitempty"`
	Health      stages.Health `json:"health_status,omitempty"`
	DaysInStage int           `json:"days_in_stage,omitempty"`
}

// PatternEntry is one learned insight from pattern memory.
type PatternEntry struct {
	Type    string `json:"pattern_type"`
	Content string `json:"content"`
}

// Input collects everything the composer reads.
type Input struct {
	Project  *ProjectContext
	Patterns []PatternEntry
	Risk     risk.Result
}

// Section is one titled block of the instruction text.
type Section struct {
	Name string
	Body string
}

// Sections returns the ordered instruction blocks for in. Blocks whose
// condition is not met are omitted.
func Sections(in Input) []Section {
	sections := []Section{{Name: SectionPersona, Body: persona}}

	if in.Project != nil {
		sections = append(sections,
			Section{Name: SectionProject, Body: projectBlock(*in.Project)},
			Section{Name: SectionStage, Body: stages.Behavior(in.Project.Stage)},
		)
		if in.Project.DaysInStage > UrgencyDays {
			sections = append(sections, Section{Name: SectionUrgency, Body: urgencyBlock(in.Project.DaysInStage)})
		}
	}

	if len(in.Patterns) > 0 {
		sections = append(sections, Section{Name: SectionPatterns, Body: patternsBlock(in.Patterns)})
	}

	if in.Risk.Detected() {
		sections = append(sections, Section{Name: SectionRisk, Body: riskBlock(in.Risk)})
	}

	return sections
}

// Join concatenates sections separated by a blank line.
func Join(sections []Section) string {
	bodies := make([]string, len(sections))
	for i, s := range sections {
		bodies[i] = s.Body
	}
	return strings.Join(bodies, "\n\n")
}

// Compose returns the full instruction text for in.
func Compose(in Input) string {
	return Join(Sections(in))
}

// Turn is one role-tagged entry in the completion service's format.
type Turn struct {
	Role    string
	Content string
}

// Completion-service role names.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Messages builds the completion request turns: the instruction as the
// leading system turn, then history with analyser renamed to assistant.
func Messages(instruction string, history []conversation.Message) []Turn {
	turns := make([]Turn, 0, len(history)+1)
	turns = append(turns, Turn{Role: RoleSystem, Content: instruction})
	for _, m := range history {
		role := RoleUser
		if m.Role == conversation.RoleAnalyser {
			role = RoleAssistant
		}
		turns = append(turns, Turn{Role: role, Content: m.Content})
	}
	return turns
}

func projectBlock(p ProjectContext) string {
	health := p.Health
	if health == "" {
		health = stages.Healthy
	}
	return fmt.Sprintf(`=== CURRENT PROJECT CONTEXT ===
Project: %s
Client: %s
Description: %s
Health: %s
Days in current stage: %d`,
		orDefault(p.Title, "Unnamed"),
		orDefault(p.ClientName, "Not specified"),
		orDefault(p.Description, "None provided"),
		health,
		p.DaysInStage,
	)
}

func urgencyBlock(days int) string {
	return fmt.Sprintf("NOTE: This project has been in the current stage for %d days. Consider whether this indicates a blocker or risk.", days)
}

func patternsBlock(entries []PatternEntry) string {
	if len(entries) > MaxPatterns {
		entries = entries[:MaxPatterns]
	}
	var b strings.Builder
	b.WriteString("=== LEARNED PATTERNS (use silently) ===")
	for _, e := range entries {
		fmt.Fprintf(&b, "\n- %s: %s", e.Type, e.Content)
	}
	return b.String()
}

func riskBlock(r risk.Result) string {
	return fmt.Sprintf(`=== RISK CONTEXT (respond silently, do not mention) ===
Detected patterns: %s
Suggested health: %s
Adjust your tone accordingly:
- If "watch": Be more structured, ask clarifying questions, ensure alignment
- If "risk": Be firm and boundary-focused, shorter responses, protect the project`,
		strings.Join(r.Names(), ", "),
		r.SuggestedHealth,
	)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
