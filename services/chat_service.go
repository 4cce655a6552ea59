package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"pairchatAPI/internal/types/chat"
	"pairchatAPI/realtime"
)

// The orchestrator depends on narrow interfaces so the gate, the log and the
// fan-out stay independently replaceable. The pgx-backed services above
// satisfy them in production.

type FriendshipChecker interface {
	IsFriend(ctx context.Context, a, b uuid.UUID) (bool, error)
}

type MessageStore interface {
	Append(ctx context.Context, senderID, recipientID uuid.UUID, content string, createdAt time.Time) (*chat.Message, error)
	RecentBetween(ctx context.Context, a, b uuid.UUID, limit int) ([]*chat.Message, error)
}

type UserResolver interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// MessageNotifier is the optional push hook, fed after a successful send.
type MessageNotifier interface {
	NotifyNewMessage(senderID, recipientID uuid.UUID, preview string)
}

// ChatService gates, validates, persists and fans out direct messages.
type ChatService struct {
	friends  FriendshipChecker
	store    MessageStore
	users    UserResolver
	bus      realtime.Broadcaster
	notifier MessageNotifier
}

func NewChatService(friends FriendshipChecker, store MessageStore, users UserResolver, bus realtime.Broadcaster) *ChatService {
	return &ChatService{
		friends: friends,
		store:   store,
		users:   users,
		bus:     bus,
	}
}

// SetNotifier injects the push dispatcher. Without one, sends simply skip
// the push step.
func (s *ChatService) SetNotifier(n MessageNotifier) {
	s.notifier = n
}

// Send validates, authorizes, stores and fans out one direct message. The
// check order is contractual: empty, then too long, then unknown recipient,
// then the friendship gate. Callers map the first applicable failure to a
// response code.
//
// By the time publish runs the message is already stored, so a publish
// failure is logged and counted but the send still succeeds.
func (s *ChatService) Send(ctx context.Context, senderID, recipientID uuid.UUID, rawContent string) (*chat.Message, error) {
	content := strings.TrimSpace(rawContent)
	if content == "" {
		return nil, fmt.Errorf("send: %w", ErrEmptyMessage)
	}
	if utf8.RuneCountInString(content) > chat.MaxContentLength {
		return nil, fmt.Errorf("send: %w", ErrMessageTooLong)
	}

	exists, err := s.users.Exists(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("recipient %s: %w", recipientID, ErrUserNotFound)
	}

	allowed, err := s.friends.IsFriend(ctx, senderID, recipientID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("send from %s to %s: %w", senderID, recipientID, ErrNotFriends)
	}

	msg, err := s.store.Append(ctx, senderID, recipientID, content, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	channel := realtime.ChannelFor(senderID, recipientID)
	event := chat.NewMessageEvent(msg)
	if err := s.bus.Publish(ctx, channel, event); err != nil {
		log.Printf("ChatService: Publish failed on %s: %v", channel, err)
	}

	if s.notifier != nil {
		s.notifier.NotifyNewMessage(senderID, recipientID, content)
	}

	return msg, nil
}

// GetConversation returns the recent messages between requester and peer,
// oldest first, after checking that peer exists and that the two are
// friends.
func (s *ChatService) GetConversation(ctx context.Context, requesterID, peerID uuid.UUID, limit int) ([]*chat.Message, error) {
	exists, err := s.users.Exists(ctx, peerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("peer %s: %w", peerID, ErrUserNotFound)
	}

	allowed, err := s.friends.IsFriend(ctx, requesterID, peerID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("conversation %s with %s: %w", requesterID, peerID, ErrNotFriends)
	}

	return s.store.RecentBetween(ctx, requesterID, peerID, limit)
}
