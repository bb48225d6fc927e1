package models

// Message represents a single message in a conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string `json:"role"`

	// Content contains the text content of the message
	Content string `json:"content"`
}

// ValidRole reports whether role is one of the accepted conversation roles.
func ValidRole(role string) bool {
	switch role {
	case "system", "user", "assistant":
		return true
	}
	return false
}
