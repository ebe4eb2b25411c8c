package prompt

import (
	"strings"
	"testing"

	"github.com/HendryAvila/analyser/internal/conversation"
	"github.com/HendryAvila/analyser/internal/risk"
	"github.com/HendryAvila/analyser/internal/stages"
)

func sectionNames(sections []Section) []string {
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = s.Name
	}
	return names
}

func equalNames(t *testing.T, got []Section, want ...string) {
	t.Helper()
	names := sectionNames(got)
	if len(names) != len(want) {
		t.Fatalf("sections = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("sections = %v, want %v", names, want)
		}
	}
}

func TestSections_PersonaOnly(t *testing.T) {
	got := Sections(Input{})
	equalNames(t, got, SectionPersona)
	if Compose(Input{}) != Persona() {
		t.Error("Compose with no input should equal the persona")
	}
}

func TestSections_FullOrder(t *testing.T) {
	in := Input{
		Project: &ProjectContext{
			Title:       "Brand refresh",
			ClientName:  "Acme",
			Stage:       stages.Requirements,
			Health:      stages.Healthy,
			DaysInStage: 9,
		},
		Patterns: []PatternEntry{{Type: "scope_creep", Content: "Lock deliverables in writing early"}},
		Risk:     risk.Result{Categories: []risk.Category{risk.ScopeCreep}, Score: 1, SuggestedHealth: stages.Watch},
	}
	equalNames(t, Sections(in), SectionPersona, SectionProject, SectionStage, SectionUrgency, SectionPatterns, SectionRisk)
}

func TestSections_NoUrgencyAtSevenDays(t *testing.T) {
	in := Input{Project: &ProjectContext{Stage: stages.FirstDraft, DaysInStage: 7}}
	equalNames(t, Sections(in), SectionPersona, SectionProject, SectionStage)
}

func TestSections_PatternsWithoutProject(t *testing.T) {
	in := Input{Patterns: []PatternEntry{{Type: "payment_risk", Content: "Ask for a deposit"}}}
	equalNames(t, Sections(in), SectionPersona, SectionPatterns)
}

func TestProjectBlock_Defaults(t *testing.T) {
	text := Compose(Input{Project: &ProjectContext{}})
	for _, want := range []string{
		"=== CURRENT PROJECT CONTEXT ===",
		"Project: Unnamed",
		"Client: Not specified",
		"Description: None provided",
		"Health: healthy",
		"Days in current stage: 0",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in composed prompt", want)
		}
	}
	if !strings.Contains(text, stages.Behavior(stages.ClientOnboarding)) {
		t.Error("empty stage should use client_onboarding behavior")
	}
}

func TestStageBlock_UnknownFallsBack(t *testing.T) {
	text := Compose(Input{Project: &ProjectContext{Stage: "nonsense"}})
	if !strings.Contains(text, "CURRENT STAGE: Client Onboarding") {
		t.Error("unknown stage should fall back to client onboarding")
	}
}

func TestUrgencyBlock(t *testing.T) {
	text := Compose(Input{Project: &ProjectContext{Stage: stages.Revision, DaysInStage: 12}})
	if !strings.Contains(text, "in the current stage for 12 days") {
		t.Errorf("urgency note missing, got: %s", text)
	}
}

func TestPatternsBlock_CapsAtFive(t *testing.T) {
	var entries []PatternEntry
	for _, typ := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		entries = append(entries, PatternEntry{Type: typ, Content: "insight " + typ})
	}
	text := Compose(Input{Patterns: entries})
	if !strings.Contains(text, "=== LEARNED PATTERNS (use silently) ===\n- a: insight a") {
		t.Errorf("pattern block malformed: %s", text)
	}
	if !strings.Contains(text, "- e: insight e") {
		t.Error("fifth pattern should be included")
	}
	if strings.Contains(text, "- f: insight f") {
		t.Error("sixth pattern should be dropped")
	}
}

func TestRiskBlock_OnlyWhenDetected(t *testing.T) {
	if strings.Contains(Compose(Input{Risk: risk.Detect(nil)}), "RISK CONTEXT") {
		t.Error("risk block should be omitted when nothing is detected")
	}

	r := risk.Result{
		Categories:      []risk.Category{risk.ScopeCreep, risk.TimelineRisk},
		Score:           2,
		SuggestedHealth: stages.Watch,
	}
	text := Compose(Input{Risk: r})
	if !strings.Contains(text, "Detected patterns: scope_creep, timeline_risk") {
		t.Errorf("risk categories missing: %s", text)
	}
	if !strings.Contains(text, "Suggested health: watch") {
		t.Error("suggested health missing")
	}
	if !strings.HasSuffix(text, "protect the project") {
		t.Error("risk block should be the last section")
	}
}

func TestMessages_RoleMapping(t *testing.T) {
	history := []conversation.Message{
		{Role: conversation.RoleUser, Content: "hi"},
		{Role: conversation.RoleAnalyser, Content: "hello"},
		{Role: conversation.RoleUser, Content: "next?"},
	}
	turns := Messages("instr", history)
	if len(turns) != 4 {
		t.Fatalf("len(turns) = %d, want 4", len(turns))
	}
	want := []Turn{
		{RoleSystem, "instr"},
		{RoleUser, "hi"},
		{RoleAssistant, "hello"},
		{RoleUser, "next?"},
	}
	for i := range want {
		if turns[i] != want[i] {
			t.Errorf("turns[%d] = %+v, want %+v", i, turns[i], want[i])
		}
	}
}
