package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"pairchatAPI/internal/types/chat"
	"pairchatAPI/middleware"
	"pairchatAPI/services"
)

type stubChatService struct {
	sendErr error
	getErr  error
	msg     *chat.Message
	msgs    []*chat.Message
	limit   int
}

func (s *stubChatService) Send(_ context.Context, senderID, recipientID uuid.UUID, rawContent string) (*chat.Message, error) {
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return s.msg, nil
}

func (s *stubChatService) GetConversation(_ context.Context, requesterID, peerID uuid.UUID, limit int) ([]*chat.Message, error) {
	s.limit = limit
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.msgs, nil
}

type stubResolver struct {
	ids map[string]uuid.UUID
}

func (s *stubResolver) ResolveClerkID(_ context.Context, clerkID string) (uuid.UUID, error) {
	id, ok := s.ids[clerkID]
	if !ok {
		return uuid.Nil, fmt.Errorf("clerk id %s: %w", clerkID, services.ErrUserNotFound)
	}
	return id, nil
}

func authedRequest(method, target, body, clerkID string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if clerkID != "" {
		ctx := context.WithValue(r.Context(), middleware.ClerkIDKey, clerkID)
		r = r.WithContext(ctx)
	}
	return r
}

func newChatRouter(h *ChatHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/chat/{peerId}/messages", h.GetConversation).Methods("GET")
	r.HandleFunc("/api/v1/chat/{peerId}/messages", h.SendMessage).Methods("POST")
	return r
}

func TestSendMessageStatusMapping(t *testing.T) {
	me := uuid.New()
	peer := uuid.New()
	resolver := &stubResolver{ids: map[string]uuid.UUID{"clerk_me": me}}

	tests := []struct {
		name       string
		sendErr    error
		wantStatus int
	}{
		{"empty content", fmt.Errorf("send: %w", services.ErrEmptyMessage), http.StatusBadRequest},
		{"too long", fmt.Errorf("send: %w", services.ErrMessageTooLong), http.StatusBadRequest},
		{"unknown recipient", fmt.Errorf("send: %w", services.ErrUserNotFound), http.StatusNotFound},
		{"not friends", fmt.Errorf("send: %w", services.ErrNotFriends), http.StatusForbidden},
		{"store failure", fmt.Errorf("failed to store message"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			h := NewChatHandler(&stubChatService{sendErr: tt.sendErr}, resolver)

			w := httptest.NewRecorder()
			r := authedRequest("POST", "/api/v1/chat/"+peer.String()+"/messages", `{"content":"hi"}`, "clerk_me")
			newChatRouter(h).ServeHTTP(w, r)

			req.Equal(tt.wantStatus, w.Code)
		})
	}
}

func TestSendMessageSuccess(t *testing.T) {
	req := require.New(t)
	me := uuid.New()
	peer := uuid.New()
	resolver := &stubResolver{ids: map[string]uuid.UUID{"clerk_me": me}}

	stored := &chat.Message{
		ID:          7,
		SenderID:    me,
		RecipientID: peer,
		Content:     "hi",
		CreatedAt:   time.Now().UTC(),
	}
	h := NewChatHandler(&stubChatService{msg: stored}, resolver)

	w := httptest.NewRecorder()
	r := authedRequest("POST", "/api/v1/chat/"+peer.String()+"/messages", `{"content":"hi"}`, "clerk_me")
	newChatRouter(h).ServeHTTP(w, r)

	req.Equal(http.StatusCreated, w.Code)

	var got chat.Message
	req.NoError(json.Unmarshal(w.Body.Bytes(), &got))
	req.Equal(stored.ID, got.ID)
	req.Equal(stored.Content, got.Content)
}

func TestSendMessageRejectsBadInput(t *testing.T) {
	req := require.New(t)
	me := uuid.New()
	resolver := &stubResolver{ids: map[string]uuid.UUID{"clerk_me": me}}
	h := NewChatHandler(&stubChatService{}, resolver)
	router := newChatRouter(h)

	// Not authenticated.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("POST", "/api/v1/chat/"+uuid.NewString()+"/messages", `{"content":"hi"}`, ""))
	req.Equal(http.StatusUnauthorized, w.Code)

	// Authenticated but unknown locally.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("POST", "/api/v1/chat/"+uuid.NewString()+"/messages", `{"content":"hi"}`, "clerk_ghost"))
	req.Equal(http.StatusUnauthorized, w.Code)

	// Malformed peer id.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("POST", "/api/v1/chat/nope/messages", `{"content":"hi"}`, "clerk_me"))
	req.Equal(http.StatusBadRequest, w.Code)

	// Malformed body.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("POST", "/api/v1/chat/"+uuid.NewString()+"/messages", `{"content":`, "clerk_me"))
	req.Equal(http.StatusBadRequest, w.Code)
}

func TestGetConversationLimit(t *testing.T) {
	req := require.New(t)
	me := uuid.New()
	peer := uuid.New()
	resolver := &stubResolver{ids: map[string]uuid.UUID{"clerk_me": me}}
	stub := &stubChatService{msgs: []*chat.Message{}}
	h := NewChatHandler(stub, resolver)
	router := newChatRouter(h)

	// Default limit when none is given.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("GET", "/api/v1/chat/"+peer.String()+"/messages", "", "clerk_me"))
	req.Equal(http.StatusOK, w.Code)
	req.Equal(chat.DefaultConversationLimit, stub.limit)

	// Explicit limit is passed through.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("GET", "/api/v1/chat/"+peer.String()+"/messages?limit=3", "", "clerk_me"))
	req.Equal(http.StatusOK, w.Code)
	req.Equal(3, stub.limit)

	// Garbage limit is a 400.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("GET", "/api/v1/chat/"+peer.String()+"/messages?limit=abc", "", "clerk_me"))
	req.Equal(http.StatusBadRequest, w.Code)
}

func TestGetConversationStatusMapping(t *testing.T) {
	me := uuid.New()
	peer := uuid.New()
	resolver := &stubResolver{ids: map[string]uuid.UUID{"clerk_me": me}}

	tests := []struct {
		name       string
		getErr     error
		wantStatus int
	}{
		{"unknown peer", fmt.Errorf("peer: %w", services.ErrUserNotFound), http.StatusNotFound},
		{"not friends", fmt.Errorf("conversation: %w", services.ErrNotFriends), http.StatusForbidden},
		{"store failure", fmt.Errorf("failed to load conversation"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			h := NewChatHandler(&stubChatService{getErr: tt.getErr}, resolver)

			w := httptest.NewRecorder()
			newChatRouter(h).ServeHTTP(w, authedRequest("GET", "/api/v1/chat/"+peer.String()+"/messages", "", "clerk_me"))
			req.Equal(tt.wantStatus, w.Code)
		})
	}
}
