package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	usertypes "pairchatAPI/internal/types/user"
	"pairchatAPI/services"
)

type friendshipService interface {
	AddFriend(ctx context.Context, a, b uuid.UUID) error
	RemoveFriend(ctx context.Context, a, b uuid.UUID) error
	GetFriends(ctx context.Context, userID uuid.UUID) ([]*usertypes.User, error)
	GetDiscovery(ctx context.Context, userID uuid.UUID) ([]*usertypes.User, error)
}

type userExistence interface {
	identityResolver
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type FriendHandler struct {
	friendshipService friendshipService
	users             userExistence
}

func NewFriendHandler(friendshipService friendshipService, users userExistence) *FriendHandler {
	return &FriendHandler{
		friendshipService: friendshipService,
		users:             users,
	}
}

func (h *FriendHandler) GetFriends(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	me, ok := requireUser(ctx, w, h.users)
	if !ok {
		return
	}

	friends, err := h.friendshipService.GetFriends(ctx, me)
	if err != nil {
		log.Printf("GetFriends Handler: Service error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to get friends")
		return
	}

	respondWithJSON(w, http.StatusOK, friends)
}

func (h *FriendHandler) GetDiscovery(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	me, ok := requireUser(ctx, w, h.users)
	if !ok {
		return
	}

	candidates, err := h.friendshipService.GetDiscovery(ctx, me)
	if err != nil {
		log.Printf("GetDiscovery Handler: Service error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to get discovery")
		return
	}

	respondWithJSON(w, http.StatusOK, candidates)
}

// AddFriend is idempotent: adding an existing friend succeeds with no
// change, so clients can safely retry.
func (h *FriendHandler) AddFriend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	me, ok := requireUser(ctx, w, h.users)
	if !ok {
		return
	}

	var req usertypes.AddFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("AddFriend Handler: Failed to decode request body: %v", err)
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	friendID, err := uuid.Parse(req.FriendID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid friendId")
		return
	}

	if !h.requireExists(ctx, w, friendID) {
		return
	}

	if err := h.friendshipService.AddFriend(ctx, me, friendID); err != nil {
		log.Printf("AddFriend Handler: Service error: %v", err)
		if errors.Is(err, services.ErrSelfFriend) {
			respondWithError(w, http.StatusBadRequest, "You cannot add yourself as a friend")
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to add friend")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{
		"message": "Friend added successfully",
	})
}

// RemoveFriend is idempotent like AddFriend; removing a non-friend is a 200.
func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	me, ok := requireUser(ctx, w, h.users)
	if !ok {
		return
	}

	raw := r.URL.Query().Get("friendId")
	if raw == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'friendId' is required")
		return
	}
	friendID, err := uuid.Parse(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid friendId")
		return
	}

	if !h.requireExists(ctx, w, friendID) {
		return
	}

	if err := h.friendshipService.RemoveFriend(ctx, me, friendID); err != nil {
		log.Printf("RemoveFriend Handler: Service error: %v", err)
		if errors.Is(err, services.ErrSelfFriend) {
			respondWithError(w, http.StatusBadRequest, "You cannot remove yourself")
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to remove friend")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Friend removed successfully",
	})
}

func (h *FriendHandler) requireExists(ctx context.Context, w http.ResponseWriter, id uuid.UUID) bool {
	exists, err := h.users.Exists(ctx, id)
	if err != nil {
		log.Printf("FriendHandler: Failed to check user %s: %v", id, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to check user")
		return false
	}
	if !exists {
		respondWithError(w, http.StatusNotFound, "User not found")
		return false
	}
	return true
}
