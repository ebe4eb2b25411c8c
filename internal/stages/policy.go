package stages

// Policy is the advisor guidance attached to one stage.
type Policy struct {
	Stage Stage
	// Title is the human-readable stage name.
	Title string
	// Focus lists the behaviors the advisor adopts in this stage.
	Focus []string
	// Readiness describes when the advisor may signal a transition.
	// It is instruction text only; nothing checks it programmatically.
	Readiness string
	// ReadinessVerb is "advance" for every stage except the last.
	ReadinessVerb string
}

var policies = map[Stage]Policy{
	ClientOnboarding: {
		Stage: ClientOnboarding,
		Title: "Client Onboarding",
		Focus: []string{
			"Ask clarifying questions to understand the client and their needs",
			"Rephrase client goals to confirm understanding",
			"Identify missing basics (budget, timeline, decision-makers)",
			"Help establish clear expectations",
		},
		Readiness:     "client goals are clear, communication is established, project parameters identified.",
		ReadinessVerb: "advance",
	},
	Requirements: {
		Stage: Requirements,
		Title: "Requirements",
		Focus: []string{
			"Summarize and confirm scope",
			"Highlight contradictions or gaps in requirements",
			"Stop exploratory questions — focus on locking in specifics",
			"Help document deliverables and timeline",
		},
		Readiness:     "scope is documented, deliverables defined, timeline set.",
		ReadinessVerb: "advance",
	},
	FirstDraft: {
		Stage: FirstDraft,
		Title: "First Draft",
		Focus: []string{
			"Reassure the user during creation",
			"Prevent premature feedback panic",
			"Help focus on execution over perfection",
			"Address blockers calmly",
		},
		Readiness:     "first version is complete and ready for client review.",
		ReadinessVerb: "advance",
	},
	ClientFeedback: {
		Stage: ClientFeedback,
		Title: "Client Feedback",
		Focus: []string{
			"Help translate emotional feedback into actionable items",
			"Reframe vague feedback into specific requests",
			"Suggest response language for difficult feedback",
			"Watch for scope creep disguised as feedback",
		},
		Readiness:     "feedback is documented and next steps are clear.",
		ReadinessVerb: "advance",
	},
	Revision: {
		Stage: Revision,
		Title: "Revision",
		Focus: []string{
			"Help contain scope — refinement, not rebuilding",
			"Protect project boundaries politely",
			`Identify when "one more thing" becomes scope creep`,
			"Support firm but professional communication",
		},
		Readiness:     "agreed changes implemented, client confirms satisfaction.",
		ReadinessVerb: "advance",
	},
	FinalDelivery: {
		Stage: FinalDelivery,
		Title: "Final Delivery",
		Focus: []string{
			"Help package the final delivery professionally",
			"Prepare confirmation language",
			"Ensure clear handoff documentation",
			"Watch for last-minute change requests",
		},
		Readiness:     "deliverables provided, client confirms receipt.",
		ReadinessVerb: "advance",
	},
	Payment: {
		Stage: Payment,
		Title: "Payment",
		Focus: []string{
			"Keep tone neutral and professional",
			"Be firm if payment is delayed",
			"Help draft follow-up communications",
			"Prepare for potential disputes calmly",
		},
		Readiness:     "payment confirmed, project formally closed.",
		ReadinessVerb: "close",
	},
}

// PolicyFor returns the policy for s, falling back to the
// client_onboarding policy for empty or unknown stages.
func PolicyFor(s Stage) Policy {
	p := policies[Normalize(s)]
	focus := make([]string, len(p.Focus))
	copy(focus, p.Focus)
	p.Focus = focus
	return p
}

// Behavior renders the instruction block the advisor receives for s.
func Behavior(s Stage) string {
	return PolicyFor(s).Render()
}

// Title returns the display name of s (client_onboarding for unknown).
func Title(s Stage) string {
	return PolicyFor(s).Title
}

// Readiness returns the condition under which the advisor should propose
// leaving s.
func Readiness(s Stage) string {
	return PolicyFor(s).Readiness
}

// Render formats the policy as the stage instruction block.
func (p Policy) Render() string {
	out := "CURRENT STAGE: " + p.Title + "\nYour behavior in this stage:"
	for _, f := range p.Focus {
		out += "\n- " + f
	}
	out += "\nSignal readiness to " + p.ReadinessVerb + " when: " + p.Readiness
	return out
}
