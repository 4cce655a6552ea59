package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"pairchatAPI/internal/types/notification"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

const previewLength = 120

// PushService notifies recipients about new messages on their registered
// devices. Delivery is best-effort through a small worker pool; a full queue
// or a provider failure never reaches the send path.
type PushService struct {
	db       *pgxpool.Pool
	provider PushNotificationProvider
	workers  int
	jobQueue chan *notification.PushJob
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewPushService(db *pgxpool.Pool) *PushService {
	s := &PushService{
		db:       db,
		workers:  5,
		jobQueue: make(chan *notification.PushJob, 100),
		stopChan: make(chan struct{}),
	}
	s.startWorkers()
	return s
}

// SetPushProvider injects the real FCM provider from main.go. Without one,
// jobs are drained and dropped.
func (s *PushService) SetPushProvider(provider PushNotificationProvider) {
	s.provider = provider
}

// RegisterDevice stores or refreshes a push token for a user.
func (s *PushService) RegisterDevice(ctx context.Context, userID uuid.UUID, token, platform string) error {
	query := `
		INSERT INTO device_tokens (user_id, token, platform, last_used)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, token) DO UPDATE
		SET platform = EXCLUDED.platform, last_used = NOW()
	`
	if _, err := s.db.Exec(ctx, query, userID, token, platform); err != nil {
		log.Printf("PushService: Failed to register device for %s: %v", userID, err)
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

// NotifyNewMessage queues a push job for the recipient. Non-blocking: if the
// queue is full the job is dropped and logged.
func (s *PushService) NotifyNewMessage(senderID, recipientID uuid.UUID, preview string) {
	senderName := s.lookupUsername(senderID)
	job := &notification.PushJob{
		RecipientID: recipientID,
		SenderName:  senderName,
		Preview:     preview,
	}

	select {
	case s.jobQueue <- job:
	default:
		log.Printf("PushService: Queue full, dropping push for %s", recipientID)
	}
}

func (s *PushService) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}

func (s *PushService) startWorkers() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
}

func (s *PushService) worker() {
	defer s.wg.Done()
	for {
		select {
		case job := <-s.jobQueue:
			s.processJob(job)
		case <-s.stopChan:
			return
		}
	}
}

func (s *PushService) processJob(job *notification.PushJob) {
	if s.provider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tokens, err := s.deviceTokens(ctx, job.RecipientID)
	if err != nil {
		log.Printf("PushService: Failed to load tokens for %s: %v", job.RecipientID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	body := job.Preview
	if utf8.RuneCountInString(body) > previewLength {
		body = string([]rune(body)[:previewLength]) + "…"
	}

	title := "New message"
	if job.SenderName != "" {
		title = fmt.Sprintf("New message from %s", job.SenderName)
	}

	err = s.provider.SendPush(ctx, tokens, title, body, map[string]any{
		"type": "chat.message",
	})
	if err != nil {
		log.Printf("PushService: Push failed for %s: %v", job.RecipientID, err)
	}
}

func (s *PushService) deviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `SELECT token, platform, last_used FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform, &t.LastUsed); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (s *PushService) lookupUsername(userID uuid.UUID) string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var username string
	if err := s.db.QueryRow(ctx, `SELECT username FROM users WHERE id = $1`, userID).Scan(&username); err != nil {
		return ""
	}
	return username
}
