package models

import (
	"strings"
)

// MaxPromptLength is the maximum accepted prompt length in characters
const MaxPromptLength = 5000

// Query represents a single inbound due-diligence question. Created per
// request, immutable once validated, discarded when the request completes.
type Query struct {
	// Prompt is the question text. Must be non-blank after trimming and
	// at most MaxPromptLength characters.
	Prompt string `json:"prompt" validate:"required,max=5000"`

	// History is the optional prior conversation, oldest first. Entries
	// with unknown roles or empty content are dropped during assembly.
	History []Message `json:"history,omitempty"`

	// Template is the optional name of a report template to render from.
	Template string `json:"template,omitempty"`
}

// Question returns the trimmed prompt text.
func (q *Query) Question() string {
	return strings.TrimSpace(q.Prompt)
}

// ValidHistory filters the caller-supplied history down to well-formed
// messages: known role and non-empty content. Order is preserved.
func (q *Query) ValidHistory() []Message {
	if len(q.History) == 0 {
		return nil
	}
	valid := make([]Message, 0, len(q.History))
	for _, msg := range q.History {
		if ValidRole(msg.Role) && msg.Content != "" {
			valid = append(valid, msg)
		}
	}
	return valid
}
