package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"pairchatAPI/internal/types/friendship"
	"pairchatAPI/internal/types/user"
)

// FriendshipService maintains the symmetric friendship relation. There is
// exactly one row per unordered pair, stored as (user_a, user_b) with
// user_a < user_b, so both directions of every operation hit the same row
// and the relation can never drift asymmetric.
type FriendshipService struct {
	db *pgxpool.Pool
}

func NewFriendshipService(db *pgxpool.Pool) *FriendshipService {
	return &FriendshipService{db: db}
}

// IsFriend reports whether an edge exists between a and b. The reflexive
// case short-circuits to false without touching the database.
func (s *FriendshipService) IsFriend(ctx context.Context, a, b uuid.UUID) (bool, error) {
	if a == b {
		return false, nil
	}

	lo, hi := friendship.CanonicalPair(a, b)

	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE user_a = $1 AND user_b = $2
		)
	`
	if err := s.db.QueryRow(ctx, query, lo, hi).Scan(&exists); err != nil {
		log.Printf("FriendshipService: Failed to check friendship: %v", err)
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return exists, nil
}

// AddFriend records the edge between a and b. Idempotent: re-adding an
// existing edge is a no-op. The single canonical insert with ON CONFLICT
// keeps concurrent adds from producing duplicate or one-sided edges.
func (s *FriendshipService) AddFriend(ctx context.Context, a, b uuid.UUID) error {
	if a == b {
		log.Printf("FriendshipService: User %s attempted to friend themselves", a)
		return fmt.Errorf("add friend: %w", ErrSelfFriend)
	}

	lo, hi := friendship.CanonicalPair(a, b)

	insertQuery := `
		INSERT INTO friendships (user_a, user_b, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_a, user_b) DO NOTHING
	`
	if _, err := s.db.Exec(ctx, insertQuery, lo, hi); err != nil {
		log.Printf("FriendshipService: Failed to insert friendship: %v", err)
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	return nil
}

// RemoveFriend deletes the edge between a and b. Idempotent: removing a
// missing edge is a no-op, not an error.
func (s *FriendshipService) RemoveFriend(ctx context.Context, a, b uuid.UUID) error {
	if a == b {
		log.Printf("FriendshipService: User %s attempted to unfriend themselves", a)
		return fmt.Errorf("remove friend: %w", ErrSelfFriend)
	}

	lo, hi := friendship.CanonicalPair(a, b)

	deleteQuery := `
		DELETE FROM friendships
		WHERE user_a = $1 AND user_b = $2
	`
	if _, err := s.db.Exec(ctx, deleteQuery, lo, hi); err != nil {
		log.Printf("FriendshipService: Failed to delete friendship: %v", err)
		return fmt.Errorf("failed to remove friendship: %w", err)
	}
	return nil
}

// GetFriends returns the users on the other end of every edge touching
// userID.
func (s *FriendshipService) GetFriends(ctx context.Context, userID uuid.UUID) ([]*user.User, error) {
	query := `
		SELECT u.id, u.clerk_id, u.email, u.username, u.image_url, u.created_at, u.updated_at
		FROM users u
		INNER JOIN friendships f ON (
			(f.user_a = $1 AND f.user_b = u.id) OR
			(f.user_b = $1 AND f.user_a = u.id)
		)
		ORDER BY u.username
	`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		log.Printf("FriendshipService: Failed to query friends: %v", err)
		return nil, fmt.Errorf("failed to get friends: %w", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		u := &user.User{}
		err := rows.Scan(
			&u.ID,
			&u.ClerkID,
			&u.Email,
			&u.Username,
			&u.ImageURL,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

// GetDiscovery lists accounts that are neither userID itself nor already
// friends with it, as candidates for the friends page.
func (s *FriendshipService) GetDiscovery(ctx context.Context, userID uuid.UUID) ([]*user.User, error) {
	query := `
		SELECT u.id, u.clerk_id, u.email, u.username, u.image_url, u.created_at, u.updated_at
		FROM users u
		WHERE u.id != $1
		  AND NOT EXISTS (
			SELECT 1 FROM friendships f
			WHERE (f.user_a = $1 AND f.user_b = u.id)
			   OR (f.user_b = $1 AND f.user_a = u.id)
		  )
		ORDER BY u.created_at DESC
		LIMIT 50
	`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		log.Printf("FriendshipService: Failed to query discovery: %v", err)
		return nil, fmt.Errorf("failed to get discovery: %w", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		u := &user.User{}
		err := rows.Scan(
			&u.ID,
			&u.ClerkID,
			&u.Email,
			&u.Username,
			&u.ImageURL,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}
