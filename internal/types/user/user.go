package user

import (
	"time"

	"github.com/google/uuid"
)

// User is the slice of the account directory this service needs: enough to
// resolve the authenticated Clerk subject to an internal id and to render
// friend lists. Account lifecycle itself lives in Clerk and reaches us
// through webhooks.
type User struct {
	ID        uuid.UUID `json:"id"`
	ClerkID   string    `json:"clerkId"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateUserRequest struct {
	ClerkID  string `json:"clerkId"`
	Email    string `json:"email"`
	Username string `json:"username"`
	ImageURL string `json:"imageUrl,omitempty"`
}

type AddFriendRequest struct {
	FriendID string `json:"friendId"`
}
