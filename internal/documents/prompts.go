package documents

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/analyser/internal/store"
)

// systemPrompt frames every document generation call.
const systemPrompt = `You are ANALYSER, a professional document generator.
You produce clean, client-ready documents from real project evidence.
Never invent facts. Use only the evidence provided.
Language must be neutral, professional, and suitable for legal and business documents.
Never say "as an AI". Never speculate. If evidence is missing, state "Not documented".
Output in clean Markdown format.`

// NoEvidence replaces the evidence block when a project has none.
const NoEvidence = "No evidence recorded yet."

var instructions = map[Type]string{
	ProjectSummary: `Generate a Project Memory PDF document. Include these sections:

1. **Project Overview** — Project name, client name, start date, current stage and status.
2. **Phase Scope Summary** — Phase 1 scope with explicit inclusions and exclusions/deferrals.
3. **Key Decisions & Approvals** — Chronological list with dates and evidence references.
4. **Requirements & Constraints** — Finalized requirements, technical/creative constraints, timeline boundaries.
5. **Tools & Platforms Used** — Design tools, dev platforms, hosting/CMS decisions (if mentioned in evidence).
6. **References & Assets** — Links, files, inspirations (if any in evidence).
7. **Risks & Mitigations** — Identified risks and how they were handled.
8. **Current Status Summary** — What is complete, in progress, and pending.

Formatting: Clear headings, professional tone, suitable for client sharing. No AI language. No speculation.`,

	Invoice: `Generate a professional invoice document. Rules:
- Line items MUST come from approved scope items and completed stages only.
- Each line item must reference an Evidence ID and completion date.
- Do NOT include unapproved features or Phase 2 backlog items.
- Clearly state what was delivered, under which phase, and payment terms.
- If evidence is insufficient to justify a line item, flag it as "EVIDENCE INSUFFICIENT — cannot invoice".

Include sections:
1. **Invoice Header** — Project name, client, invoice date, invoice number (draft).
2. **Line Items** — Description, evidence reference, completion date, amount (placeholder).
3. **Summary** — Total, payment terms, phase reference.
4. **Notes** — Any conditions or follow-up items.`,

	Contract: `Generate a professional contract document assembled from validated project evidence. Include these clauses:

1. **Scope Clause** — From Scope Definition evidence. Explicit inclusion + exclusion list.
2. **Timeline Clause** — Derived from stage transitions. Includes agreed dates.
3. **Change Management Clause** — Auto-insert if Phase 2 backlog exists: "Additional features are handled as a separate phase and do not impact the agreed timeline."
4. **Payment Clause** — Mirrors invoice logic. Tied to completed milestones.
5. **Approval Clause** — References approval evidence. States that approvals lock the scope.
6. **Dispute Protection Clause** — States that decisions are based on documented evidence and approvals.

Contract must match project reality and never contradict stored evidence.`,
}

// Instruction returns the generation instruction for t, or "" when t is
// unknown.
func Instruction(t Type) string {
	return instructions[t]
}

// RenderEvidence formats evidence as citation blocks in the given order,
// separated by blank lines.
func RenderEvidence(evidence []store.Evidence) string {
	blocks := make([]string, len(evidence))
	for i, e := range evidence {
		content := "No details."
		if e.Content != nil && *e.Content != "" {
			content = *e.Content
		}
		blocks[i] = fmt.Sprintf("[%s] (ID: %s) %s\nDate: %s\n%s",
			strings.ToUpper(string(e.Type)), e.ShortID(), e.Title, e.CreatedAt, content)
	}
	return strings.Join(blocks, "\n\n")
}

// UserPrompt builds the grounding prompt: the type instruction, the
// project metadata, and the rendered evidence.
func UserPrompt(t Type, p *store.Project, evidence []store.Evidence) string {
	rendered := RenderEvidence(evidence)
	if rendered == "" {
		rendered = NoEvidence
	}
	return fmt.Sprintf(`%s

=== PROJECT ===
Name: %s
Client: %s
Description: %s
Stage: %s
Health: %s
Created: %s

=== EVIDENCE (%d entries) ===
%s`,
		Instruction(t),
		p.Title,
		orDefault(p.ClientName, "Not specified"),
		orDefault(p.Description, "None"),
		p.CurrentStage(),
		p.HealthStatus,
		p.CreatedAt,
		len(evidence),
		rendered,
	)
}

func orDefault(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}
