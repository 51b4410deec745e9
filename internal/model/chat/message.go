package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one immutable transcript entry.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMessage stamps a message with a time-ordered identifier.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// SessionRequest is the outbound payload for a single turn.
type SessionRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// NewSessionRequest builds a request with a freshly generated session id.
func NewSessionRequest(text string) SessionRequest {
	return SessionRequest{
		SessionID: "session-" + uuid.NewString(),
		Message:   text,
	}
}
