// Package stages holds the fixed delivery pipeline every client project
// moves through, and the project health scale the advisor adapts to.
//
// The tables here are closed enumerations: lookups on unknown keys fall
// back to the first stage rather than failing, so callers never have to
// handle a missing policy.
package stages

import "fmt"

// --- Stage enum ---

// Stage identifies one phase of a client engagement.
type Stage string

const (
	ClientOnboarding Stage = "client_onboarding"
	Requirements     Stage = "requirements"
	FirstDraft       Stage = "first_draft"
	ClientFeedback   Stage = "client_feedback"
	Revision         Stage = "revision"
	FinalDelivery    Stage = "final_delivery"
	Payment          Stage = "payment"
)

// Default is the stage assumed when a project has none recorded.
const Default = ClientOnboarding

// order is the nominal forward sequence of stages.
var order = []Stage{
	ClientOnboarding,
	Requirements,
	FirstDraft,
	ClientFeedback,
	Revision,
	FinalDelivery,
	Payment,
}

// Order returns the stages in their nominal forward order.
// The returned slice is a copy.
func Order() []Stage {
	result := make([]Stage, len(order))
	copy(result, order)
	return result
}

// Index returns the position of s in the stage order, or -1 if unknown.
func Index(s Stage) int {
	for i, st := range order {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the fixed stage identifiers.
func Valid(s Stage) bool {
	_, ok := policies[s]
	return ok
}

// Validate returns an error if s is not a known stage.
func Validate(s Stage) error {
	if !Valid(s) {
		return fmt.Errorf("invalid stage %q: must be one of: client_onboarding, requirements, first_draft, client_feedback, revision, final_delivery, payment", s)
	}
	return nil
}

// Normalize maps empty or unknown stage identifiers to Default.
func Normalize(s Stage) Stage {
	if Valid(s) {
		return s
	}
	return Default
}

// Next returns the stage after s and true, or ("", false) when s is the
// last stage or unknown.
func Next(s Stage) (Stage, bool) {
	idx := Index(s)
	if idx < 0 || idx >= len(order)-1 {
		return "", false
	}
	return order[idx+1], true
}

// --- Health enum ---

// Health is the three-valued project risk indicator.
type Health string

const (
	Healthy Health = "healthy"
	Watch   Health = "watch"
	Risk    Health = "risk"
)

var validHealth = map[Health]bool{
	Healthy: true,
	Watch:   true,
	Risk:    true,
}

// ValidateHealth returns an error if h is not a recognized health value.
func ValidateHealth(h Health) error {
	if !validHealth[h] {
		return fmt.Errorf("invalid health %q: must be one of: healthy, watch, risk", h)
	}
	return nil
}

// legacyRisk is the health value older records used for Risk.
const legacyRisk Health = "at_risk"

// NormalizeHealth maps the legacy "at_risk" value to Risk and empty or
// unknown values to Healthy.
func NormalizeHealth(h Health) Health {
	if validHealth[h] {
		return h
	}
	if h == legacyRisk {
		return Risk
	}
	return Healthy
}
