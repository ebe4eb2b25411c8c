package advisor

import (
	"regexp"
	"strings"
)

// stageDirective matches the machine-readable stage proposal the model
// may embed in a reply.
var stageDirective = regexp.MustCompile(`\[STAGE_TRANSITION:\s*(\w+)\]`)

// ExtractStageTransition removes the first stage directive from text.
// It returns the trimmed text, the proposed stage identifier, and
// whether a directive was present. Text without a directive is returned
// unchanged. Only the first directive counts; any later ones stay in the
// text verbatim. The identifier is not checked against the known stages
// here.
func ExtractStageTransition(text string) (clean, stage string, ok bool) {
	loc := stageDirective.FindStringSubmatchIndex(text)
	if loc == nil {
		return text, "", false
	}
	stage = text[loc[2]:loc[3]]
	clean = strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
	return clean, stage, true
}
