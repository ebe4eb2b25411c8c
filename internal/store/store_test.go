package store

import (
	"errors"
	"testing"
	"time"

	"github.com/HendryAvila/analyser/internal/conversation"
	"github.com/HendryAvila/analyser/internal/stages"
)

// ─── Test helpers ────────────────────────────────────────────────────────────

// testClock is a manually advanced clock.
type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// newTestStore creates a Store in a temp directory with a controllable clock.
func newTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	s, err := New(Config{DataDir: t.TempDir(), MaxSearchResults: 20, Now: clock.Now})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, clock
}

func mustProject(t *testing.T, s *Store, userID, title string) *Project {
	t.Helper()
	p, err := s.CreateProject(userID, CreateProjectParams{Title: title, ClientName: "Acme"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return p
}

// ─── Projects ────────────────────────────────────────────────────────────────

func TestCreateProject_Defaults(t *testing.T) {
	s, _ := newTestStore(t)
	p := mustProject(t, s, "u1", "Website redesign")

	if p.ID == "" || p.UserID != "u1" {
		t.Errorf("unexpected identity: %+v", p)
	}
	if p.CurrentStage() != stages.ClientOnboarding {
		t.Errorf("stage = %q, want client_onboarding", p.CurrentStage())
	}
	if p.HealthStatus != stages.Healthy {
		t.Errorf("health = %q, want healthy", p.HealthStatus)
	}
	if p.Status != ProjectActive || p.DaysInStage != 0 {
		t.Errorf("status/days = %q/%d", p.Status, p.DaysInStage)
	}
	if derefString(p.ClientName) != "Acme" || p.Description != nil {
		t.Errorf("client/description = %v/%v", p.ClientName, p.Description)
	}
}

func TestCreateProject_RequiresTitle(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.CreateProject("u1", CreateProjectParams{Title: "  "}); err == nil {
		t.Error("expected error for blank title")
	}
	if _, err := s.CreateProject("", CreateProjectParams{Title: "x"}); err == nil {
		t.Error("expected error for missing user")
	}
}

func TestGetProject_OwnershipFiltered(t *testing.T) {
	s, _ := newTestStore(t)
	p := mustProject(t, s, "owner", "Secret")

	if _, err := s.GetProject("intruder", p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("other user's lookup err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetProject("owner", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing project err = %v, want ErrNotFound", err)
	}
}

func TestDaysInStage_ComputedFromStageStart(t *testing.T) {
	s, clock := newTestStore(t)
	p := mustProject(t, s, "u1", "Logo")

	clock.Advance(9*24*time.Hour + time.Hour)
	got, err := s.GetProject("u1", p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.DaysInStage != 9 {
		t.Errorf("DaysInStage = %d, want 9", got.DaysInStage)
	}

	if err := s.UpdateProjectStage("u1", p.ID, stages.Requirements); err != nil {
		t.Fatalf("UpdateProjectStage: %v", err)
	}
	got, _ = s.GetProject("u1", p.ID)
	if got.DaysInStage != 0 {
		t.Errorf("DaysInStage after transition = %d, want 0", got.DaysInStage)
	}
	if got.CurrentStage() != stages.Requirements {
		t.Errorf("stage = %q, want requirements", got.CurrentStage())
	}
	if got.StageStartedAt == nil || *got.StageStartedAt != clock.Now().UTC().Format(timeFormat) {
		t.Errorf("StageStartedAt = %v, want now", got.StageStartedAt)
	}
}

func TestUpdateProjectStage_RejectsUnknown(t *testing.T) {
	s, _ := newTestStore(t)
	p := mustProject(t, s, "u1", "App")
	if err := s.UpdateProjectStage("u1", p.ID, "launch"); err == nil {
		t.Error("expected error for unknown stage")
	}
	if err := s.UpdateProjectStage("u2", p.ID, stages.Payment); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign update err = %v, want ErrNotFound", err)
	}
}

func TestUpdateProjectHealth(t *testing.T) {
	s, _ := newTestStore(t)
	p := mustProject(t, s, "u1", "App")

	if err := s.UpdateProjectHealth("u1", p.ID, stages.Watch); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetProject("u1", p.ID)
	if got.HealthStatus != stages.Watch {
		t.Errorf("health = %q, want watch", got.HealthStatus)
	}
	if err := s.UpdateProjectHealth("u1", p.ID, "at_risk"); err == nil {
		t.Error("expected error for unknown health")
	}
}

func TestListProjects_StatusFilterAndOrder(t *testing.T) {
	s, clock := newTestStore(t)
	a := mustProject(t, s, "u1", "A")
	clock.Advance(time.Minute)
	b := mustProject(t, s, "u1", "B")
	mustProject(t, s, "u2", "Other user")

	clock.Advance(time.Minute)
	if err := s.UpdateProjectStatus("u1", a.ID, ProjectCompleted); err != nil {
		t.Fatal(err)
	}

	all, err := s.ListProjects("u1", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].ID != a.ID || all[1].ID != b.ID {
		t.Errorf("ListProjects order wrong: %+v", all)
	}

	active, _ := s.ListProjects("u1", ProjectActive)
	if len(active) != 1 || active[0].ID != b.ID {
		t.Errorf("active filter = %+v", active)
	}

	if err := s.UpdateProjectStatus("u1", a.ID, "deleted"); err == nil {
		t.Error("expected error for unknown status")
	}
}

// ─── Threads & messages ──────────────────────────────────────────────────────

func TestPrimaryThread_CreatedOnceAndReused(t *testing.T) {
	s, clock := newTestStore(t)
	p := mustProject(t, s, "u1", "App")

	first, err := s.PrimaryThread("u1", p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if first.Title != ProjectThreadTitle || first.Status != ThreadActive {
		t.Errorf("primary thread = %+v", first)
	}

	clock.Advance(time.Minute)
	if _, err := s.CreateThread("u1", p.ID, "Side discussion"); err != nil {
		t.Fatal(err)
	}

	again, err := s.PrimaryThread("u1", p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != first.ID {
		t.Errorf("PrimaryThread returned %s, want first-created %s", again.ID, first.ID)
	}
}

func TestPrimaryThread_ForeignProject(t *testing.T) {
	s, _ := newTestStore(t)
	p := mustProject(t, s, "owner", "App")
	if _, err := s.PrimaryThread("intruder", p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMessages_OrderedAndValidated(t *testing.T) {
	s, _ := newTestStore(t)
	th, err := s.CreateThread("u1", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if th.Title != GeneralThreadTitle || th.ProjectID != nil {
		t.Errorf("general thread = %+v", th)
	}

	// Same clock reading for both: insertion order must still hold.
	if _, err := s.AddMessage("u1", th.ID, conversation.RoleUser, "first"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddMessage("u1", th.ID, conversation.RoleAnalyser, "second"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddMessage("u1", th.ID, conversation.RoleUser, "   "); err == nil {
		t.Error("expected error for empty user message")
	}
	if _, err := s.AddMessage("u1", th.ID, "assistant", "bad role"); err == nil {
		t.Error("expected error for invalid role")
	}
	if _, err := s.AddMessage("u2", th.ID, conversation.RoleUser, "not mine"); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign thread err = %v, want ErrNotFound", err)
	}

	msgs, err := s.ListMessages("u1", th.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].Content != "first" || msgs[1].Role != conversation.RoleAnalyser {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestAddMessage_EmptyAnalyserReply(t *testing.T) {
	s, _ := newTestStore(t)
	th, err := s.CreateThread("u1", "", "")
	if err != nil {
		t.Fatal(err)
	}
	m, err := s.AddMessage("u1", th.ID, conversation.RoleAnalyser, "")
	if err != nil {
		t.Fatalf("empty analyser reply: %v", err)
	}
	msgs, _ := s.ListMessages("u1", th.ID)
	if len(msgs) != 1 || msgs[0].ID != m.ID || msgs[0].Content != "" {
		t.Errorf("messages = %+v", msgs)
	}

	hist := History(msgs)
	if hist[1].Content != "second" || hist[1].Role != conversation.RoleAnalyser {
		t.Errorf("History = %+v", hist)
	}
}

func TestThreads_ListRenameStatus(t *testing.T) {
	s, clock := newTestStore(t)
	p := mustProject(t, s, "u1", "App")
	general, _ := s.CreateThread("u1", "", "Pricing question")
	clock.Advance(time.Second)
	projectThread, _ := s.PrimaryThread("u1", p.ID)

	generalOnly, _ := s.ListThreads("u1", "", true)
	if len(generalOnly) != 1 || generalOnly[0].ID != general.ID {
		t.Errorf("general threads = %+v", generalOnly)
	}
	byProject, _ := s.ListThreads("u1", p.ID, false)
	if len(byProject) != 1 || byProject[0].ID != projectThread.ID {
		t.Errorf("project threads = %+v", byProject)
	}
	all, _ := s.ListThreads("u1", "", false)
	if len(all) != 2 || all[0].ID != projectThread.ID {
		t.Errorf("all threads = %+v", all)
	}

	if err := s.RenameThread("u1", general.ID, "Renamed"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetThreadStatus("u1", general.ID, ThreadResolved); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetThread("u1", general.ID)
	if got.Title != "Renamed" || got.Status != ThreadResolved {
		t.Errorf("thread = %+v", got)
	}
	if err := s.SetThreadStatus("u1", general.ID, "closed"); err == nil {
		t.Error("expected error for invalid status")
	}
}

// ─── Evidence ────────────────────────────────────────────────────────────────

func TestEvidence_AddListDelete(t *testing.T) {
	s, clock := newTestStore(t)
	p := mustProject(t, s, "u1", "App")

	scope, err := s.AddEvidence("u1", AddEvidenceParams{
		ProjectID: p.ID, Type: EvidenceScopeDefinition, Title: "Phase 1 scope", Content: "Five pages",
	})
	if err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Hour)
	note, err := s.AddEvidence("u1", AddEvidenceParams{ProjectID: p.ID, Title: "Kickoff call"})
	if err != nil {
		t.Fatal(err)
	}
	if note.Type != EvidenceNote || note.Content != nil {
		t.Errorf("default note = %+v", note)
	}
	if len(scope.ShortID()) != 8 {
		t.Errorf("ShortID = %q", scope.ShortID())
	}

	list, err := s.ListEvidence("u1", p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != scope.ID || list[1].ID != note.ID {
		t.Errorf("evidence order = %+v", list)
	}

	if other, _ := s.ListEvidence("u2", p.ID); len(other) != 0 {
		t.Errorf("other user sees evidence: %+v", other)
	}
	if err := s.DeleteEvidence("u2", scope.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign delete err = %v", err)
	}
	if err := s.DeleteEvidence("u1", scope.ID); err != nil {
		t.Fatal(err)
	}
	list, _ = s.ListEvidence("u1", p.ID)
	if len(list) != 1 {
		t.Errorf("after delete len = %d, want 1", len(list))
	}
}

func TestEvidence_Validation(t *testing.T) {
	s, _ := newTestStore(t)
	p := mustProject(t, s, "owner", "App")

	if _, err := s.AddEvidence("owner", AddEvidenceParams{Type: "invoice", Title: "x"}); err == nil {
		t.Error("expected error for unknown type")
	}
	if _, err := s.AddEvidence("owner", AddEvidenceParams{Title: " "}); err == nil {
		t.Error("expected error for blank title")
	}
	if _, err := s.AddEvidence("intruder", AddEvidenceParams{ProjectID: p.ID, Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("attaching to foreign project err = %v", err)
	}
}

func TestSearchEvidence(t *testing.T) {
	s, _ := newTestStore(t)
	p := mustProject(t, s, "u1", "App")
	mustAdd := func(typ EvidenceType, title, content string) {
		t.Helper()
		if _, err := s.AddEvidence("u1", AddEvidenceParams{ProjectID: p.ID, Type: typ, Title: title, Content: content}); err != nil {
			t.Fatal(err)
		}
	}
	mustAdd(EvidenceApproval, "Homepage sign-off", "Client approved the homepage mockup")
	mustAdd(EvidenceRequirement, "Accessibility", "WCAG AA required")
	if _, err := s.AddEvidence("u2", AddEvidenceParams{Title: "homepage notes"}); err != nil {
		t.Fatal(err)
	}

	hits, err := s.SearchEvidence("u1", "homepage", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Type != EvidenceApproval {
		t.Errorf("search hits = %+v", hits)
	}

	recent, err := s.SearchEvidence("u1", "   ", p.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Errorf("empty query should list recent evidence, got %d", len(recent))
	}

	if _, err := s.SearchEvidence("u1", `"unbalanced quote`, "", 10); err != nil {
		t.Errorf("quotes should be sanitized, got %v", err)
	}
}

// ─── Patterns ────────────────────────────────────────────────────────────────

func TestPatterns_RecentFirstAndLimit(t *testing.T) {
	s, clock := newTestStore(t)
	var ids []string
	for i, typ := range []string{"scope_creep", "payment_risk", "communication_risk", "timeline_risk", "scope_creep", "payment_risk"} {
		conf := float64(i) / 10
		pm, err := s.AddPattern("u1", AddPatternParams{PatternType: typ, Content: "insight", ConfidenceScore: &conf})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, pm.ID)
		clock.Advance(time.Minute)
	}

	got, err := s.RecentPatterns("u1", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 || got[0].ID != ids[5] {
		t.Errorf("RecentPatterns = %+v", got)
	}

	if err := s.TouchPattern("u1", ids[0]); err != nil {
		t.Fatal(err)
	}
	got, _ = s.RecentPatterns("u1", 1)
	if got[0].ID != ids[0] {
		t.Errorf("touched pattern should be most recent, got %s", got[0].ID)
	}

	if err := s.DeletePattern("u1", ids[0]); err != nil {
		t.Fatal(err)
	}
	all, _ := s.RecentPatterns("u1", 0)
	if len(all) != 5 {
		t.Errorf("after delete len = %d, want 5", len(all))
	}
}

func TestAddPattern_ReadBackScopedToUser(t *testing.T) {
	s, _ := newTestStore(t)
	pm, err := s.AddPattern("u1", AddPatternParams{PatternType: "payment_risk", Content: "deposits first"})
	if err != nil {
		t.Fatal(err)
	}
	if pm.UserID != "u1" || pm.Content != "deposits first" {
		t.Errorf("pattern = %+v", pm)
	}
	if err := s.TouchPattern("u2", pm.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign touch err = %v, want ErrNotFound", err)
	}
	if err := s.DeletePattern("u2", pm.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign delete err = %v, want ErrNotFound", err)
	}
	if others, _ := s.RecentPatterns("u2", 0); len(others) != 0 {
		t.Errorf("u2 sees %d patterns", len(others))
	}
}

func TestPatterns_Validation(t *testing.T) {
	s, _ := newTestStore(t)
	bad := 1.5
	if _, err := s.AddPattern("u1", AddPatternParams{PatternType: "x", Content: "y", ConfidenceScore: &bad}); err == nil {
		t.Error("expected error for confidence > 1")
	}
	if _, err := s.AddPattern("u1", AddPatternParams{PatternType: "", Content: "y"}); err == nil {
		t.Error("expected error for empty type")
	}
}

// ─── Analyses & documents ────────────────────────────────────────────────────

func TestAnalyses_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	p := mustProject(t, s, "u1", "App")
	a := &Analysis{
		ProjectID: &p.ID,
		InputText: "Client wants to renegotiate",
		Summary:   "Stay calm.",
		KeyRisks:  []string{"Margin erosion"},
	}
	if err := s.SaveAnalysis("u1", a); err != nil {
		t.Fatal(err)
	}
	if a.ID == "" || a.CreatedAt == "" {
		t.Errorf("SaveAnalysis did not fill identity: %+v", a)
	}

	list, err := s.ListAnalyses("u1", p.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].KeyRisks[0] != "Margin erosion" || len(list[0].Warnings) != 0 {
		t.Errorf("ListAnalyses = %+v", list)
	}
}

func TestDocuments_History(t *testing.T) {
	s, clock := newTestStore(t)
	p := mustProject(t, s, "u1", "App")
	if _, err := s.SaveDocument("u1", p.ID, "invoice", "# Invoice"); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Minute)
	if _, err := s.SaveDocument("u1", p.ID, "contract", "# Contract"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveDocument("u2", p.ID, "invoice", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign save err = %v", err)
	}

	docs, err := s.ListDocuments("u1", p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[0].DocumentType != "contract" {
		t.Errorf("ListDocuments = %+v", docs)
	}
}
