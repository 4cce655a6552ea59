package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"pairchatAPI/internal/types/chat"
	"pairchatAPI/middleware"
	"pairchatAPI/services"
)

type chatService interface {
	Send(ctx context.Context, senderID, recipientID uuid.UUID, rawContent string) (*chat.Message, error)
	GetConversation(ctx context.Context, requesterID, peerID uuid.UUID, limit int) ([]*chat.Message, error)
}

type identityResolver interface {
	ResolveClerkID(ctx context.Context, clerkID string) (uuid.UUID, error)
}

type ChatHandler struct {
	chatService chatService
	users       identityResolver
}

func NewChatHandler(chatService chatService, users identityResolver) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		users:       users,
	}
}

func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	me, ok := requireUser(ctx, w, h.users)
	if !ok {
		return
	}

	peerID, err := uuid.Parse(mux.Vars(r)["peerId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid peer id")
		return
	}

	limit := chat.DefaultConversationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	messages, err := h.chatService.GetConversation(ctx, me, peerID, limit)
	if err != nil {
		log.Printf("GetConversation Handler: Service error: %v", err)
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			respondWithError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, services.ErrNotFriends):
			respondWithError(w, http.StatusForbidden, "You are not friends with this user")
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to load conversation")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, messages)
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	me, ok := requireUser(ctx, w, h.users)
	if !ok {
		return
	}

	peerID, err := uuid.Parse(mux.Vars(r)["peerId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid peer id")
		return
	}

	var req chat.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg, err := h.chatService.Send(ctx, me, peerID, req.Content)
	if err != nil {
		log.Printf("SendMessage Handler: Service error: %v", err)
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			respondWithError(w, http.StatusBadRequest, "Message is empty")
		case errors.Is(err, services.ErrMessageTooLong):
			respondWithError(w, http.StatusBadRequest, "Message is too long")
		case errors.Is(err, services.ErrUserNotFound):
			respondWithError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, services.ErrNotFriends):
			respondWithError(w, http.StatusForbidden, "You are not friends with this user")
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to send message")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, msg)
}

// requireUser extracts the authenticated Clerk subject and resolves it to
// the internal user id passed explicitly into every service call.
func requireUser(ctx context.Context, w http.ResponseWriter, users identityResolver) (uuid.UUID, bool) {
	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return uuid.Nil, false
	}

	id, err := users.ResolveClerkID(ctx, clerkID)
	if err != nil {
		log.Printf("Handler: Failed to resolve clerk_id %s: %v", clerkID, err)
		if errors.Is(err, services.ErrUserNotFound) {
			respondWithError(w, http.StatusUnauthorized, "Unknown account")
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to resolve user")
		}
		return uuid.Nil, false
	}
	return id, true
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
