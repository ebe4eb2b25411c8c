// Package documents generates client-facing documents (project summary,
// invoice, contract) from a project's recorded evidence. Invoices and
// contracts are gated: they are refused unless the evidence that
// justifies them exists.
package documents

import (
	"fmt"

	"github.com/HendryAvila/analyser/internal/store"
)

// Type is a document kind.
type Type string

const (
	ProjectSummary Type = "project_summary"
	Invoice        Type = "invoice"
	Contract       Type = "contract"
)

// Types returns the document kinds in display order.
func Types() []Type {
	return []Type{ProjectSummary, Invoice, Contract}
}

// ValidateType returns an error if t is not a known document type.
func ValidateType(t Type) error {
	switch t {
	case ProjectSummary, Invoice, Contract:
		return nil
	}
	return fmt.Errorf("invalid document type %q: must be one of: project_summary, invoice, contract", t)
}

// Gate failure reasons.
const (
	ReasonMissingScope    = "No Scope Definition evidence found. Add a scope definition first."
	ReasonMissingApproval = "No Approval evidence found. At least one approval is required."
)

// GateError reports that the evidence does not justify the requested
// document.
type GateError struct {
	Type Type
	// Message is the short failure title ("Cannot generate invoice").
	Message string
	// Reason names exactly which prerequisite is missing.
	Reason string
}

func (e *GateError) Error() string {
	return e.Message + ": " + e.Reason
}

// CheckGate verifies the prerequisites for generating t from evidence.
// Invoices need scope definition and approval evidence; contracts need
// scope definition evidence; project summaries need nothing. When both
// are missing for an invoice, the scope reason is reported.
func CheckGate(t Type, evidence []store.Evidence) *GateError {
	hasScope := hasType(evidence, store.EvidenceScopeDefinition)

	switch t {
	case Invoice:
		if !hasScope {
			return &GateError{Type: t, Message: "Cannot generate invoice", Reason: ReasonMissingScope}
		}
		if !hasType(evidence, store.EvidenceApproval) {
			return &GateError{Type: t, Message: "Cannot generate invoice", Reason: ReasonMissingApproval}
		}
	case Contract:
		if !hasScope {
			return &GateError{Type: t, Message: "Cannot generate contract", Reason: ReasonMissingScope}
		}
	}
	return nil
}

func hasType(evidence []store.Evidence, t store.EvidenceType) bool {
	for _, e := range evidence {
		if e.Type == t {
			return true
		}
	}
	return false
}
