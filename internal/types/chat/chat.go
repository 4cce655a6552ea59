package chat

import (
	"time"

	"github.com/google/uuid"
)

const (
	// MaxContentLength bounds the trimmed message body, counted in runes.
	MaxContentLength = 2000

	// DefaultConversationLimit is applied when a caller asks for a
	// conversation without an explicit limit.
	DefaultConversationLimit = 50

	EventTypeMessage = "chat.message"
)

// Message is a stored direct message. Rows are immutable once written.
type Message struct {
	ID          int64     `json:"id" db:"id"`
	SenderID    uuid.UUID `json:"senderId" db:"sender_id"`
	RecipientID uuid.UUID `json:"recipientId" db:"recipient_id"`
	Content     string    `json:"content" db:"content"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Event is the realtime envelope published to a conversation channel.
type Event struct {
	Type    string       `json:"type"`
	Payload EventPayload `json:"payload"`
}

type EventPayload struct {
	ID          int64     `json:"id"`
	SenderID    uuid.UUID `json:"senderId"`
	RecipientID uuid.UUID `json:"recipientId"`
	Content     string    `json:"content"`
	CreatedAt   string    `json:"createdAt"`
}

// NewMessageEvent builds the outbound event for a freshly stored message.
// Timestamps are serialized as RFC3339 so browser clients can parse them
// with Date directly.
func NewMessageEvent(m *Message) *Event {
	return &Event{
		Type: EventTypeMessage,
		Payload: EventPayload{
			ID:          m.ID,
			SenderID:    m.SenderID,
			RecipientID: m.RecipientID,
			Content:     m.Content,
			CreatedAt:   m.CreatedAt.UTC().Format(time.RFC3339),
		},
	}
}

type SendMessageRequest struct {
	Content string `json:"content"`
}
