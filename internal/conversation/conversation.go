// Package conversation defines the message shape shared by the risk
// detector, the prompt composer, and the advisor.
package conversation

import "fmt"

// Role identifies who authored a message.
type Role string

const (
	RoleUser     Role = "user"
	RoleAnalyser Role = "analyser"
)

// ValidateRole returns an error unless r is user or analyser.
func ValidateRole(r Role) error {
	if r != RoleUser && r != RoleAnalyser {
		return fmt.Errorf("invalid role %q: must be one of: user, analyser", r)
	}
	return nil
}

// Message is one turn of a conversation, in creation order.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Truncate shortens s to at most n runes, appending "..." when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
