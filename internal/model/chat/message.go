package chat

import "time"

// Role identifies which side of the conversation authored a message.
type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// Message is a single immutable conversation turn.
type Message struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Clock renders the creation time the way the transcript displays it.
func (m Message) Clock() string {
	return m.CreatedAt.Format("15:04")
}
