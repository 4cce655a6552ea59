package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pairchatAPI/internal/types/user"
)

// UserService is the account directory mirror. Accounts live in Clerk; rows
// here are kept in sync by the Clerk webhook so the chat core can resolve
// and validate identities locally.
type UserService struct {
	db *pgxpool.Pool
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

// ResolveClerkID maps the authenticated Clerk subject to the internal user
// id that every core operation takes explicitly.
func (s *UserService) ResolveClerkID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("clerk id %s: %w", clerkID, ErrUserNotFound)
		}
		log.Printf("UserService: Failed to resolve clerk_id %s: %v", clerkID, err)
		return uuid.Nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return id, nil
}

func (s *UserService) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		log.Printf("UserService: Failed to check user %s: %v", id, err)
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return exists, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u := &user.User{}
	query := `
		SELECT id, clerk_id, email, username, image_url, created_at, updated_at
		FROM users WHERE id = $1
	`
	err := s.db.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.ImageURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// CreateUser inserts the local mirror row for a Clerk account. Re-delivered
// webhooks hit the clerk_id conflict and update instead of duplicating.
func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	u := &user.User{}
	query := `
		INSERT INTO users (clerk_id, email, username, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (clerk_id) DO UPDATE
		SET email = EXCLUDED.email, username = EXCLUDED.username,
		    image_url = EXCLUDED.image_url, updated_at = NOW()
		RETURNING id, clerk_id, email, username, image_url, created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query, req.ClerkID, req.Email, req.Username, req.ImageURL).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.ImageURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		log.Printf("UserService: Failed to create user %s: %v", req.ClerkID, err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("UserService: Synced user %s (%s)", u.Username, u.ClerkID)
	return u, nil
}

// DeleteUserByClerkID removes the account mirror and every friendship edge
// and device token touching it. Messages are left in place: conversation
// history survives account deletion the same way it survives an unfriend.
func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	id, err := s.ResolveClerkID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Already gone; webhook redeliveries are fine.
			return nil
		}
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM friendships WHERE user_a = $1 OR user_b = $1`, id); err != nil {
		log.Printf("UserService: Failed to cascade friendships for %s: %v", id, err)
		return fmt.Errorf("failed to delete friendships: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM device_tokens WHERE user_id = $1`, id); err != nil {
		log.Printf("UserService: Failed to delete device tokens for %s: %v", id, err)
		return fmt.Errorf("failed to delete device tokens: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		log.Printf("UserService: Failed to delete user %s: %v", id, err)
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	log.Printf("UserService: Deleted user %s", clerkID)
	return nil
}
