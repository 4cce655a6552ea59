package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"pairchatAPI/internal/types/chat"
)

// ConversationStore is the durable message log. It does not know about
// friendships; gating is the ChatService's job.
type ConversationStore struct {
	db *pgxpool.Pool
}

func NewConversationStore(db *pgxpool.Pool) *ConversationStore {
	return &ConversationStore{db: db}
}

// Append stores one message and returns it with its assigned id.
func (s *ConversationStore) Append(ctx context.Context, senderID, recipientID uuid.UUID, content string, createdAt time.Time) (*chat.Message, error) {
	m := &chat.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
	}

	query := `
		INSERT INTO messages (sender_id, recipient_id, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := s.db.QueryRow(ctx, query, senderID, recipientID, content, createdAt).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		log.Printf("ConversationStore: Failed to insert message: %v", err)
		return nil, fmt.Errorf("failed to store message: %w", err)
	}
	return m, nil
}

// RecentBetween returns at most limit messages exchanged between a and b,
// oldest first. The newest rows are selected descending and reversed, so the
// cap applies to the most recent slice of the conversation while callers
// still get chronological order.
func (s *ConversationStore) RecentBetween(ctx context.Context, a, b uuid.UUID, limit int) ([]*chat.Message, error) {
	messages := []*chat.Message{}
	if limit <= 0 {
		return messages, nil
	}

	// Matches the expression index on the canonical pair, covering both
	// directions with one scan.
	query := `
		SELECT id, sender_id, recipient_id, content, created_at
		FROM messages
		WHERE LEAST(sender_id, recipient_id) = LEAST($1::uuid, $2::uuid)
		  AND GREATEST(sender_id, recipient_id) = GREATEST($1::uuid, $2::uuid)
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`
	rows, err := s.db.Query(ctx, query, a, b, limit)
	if err != nil {
		log.Printf("ConversationStore: Failed to query conversation: %v", err)
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m := &chat.Message{}
		err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	// Chronological order, oldest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
