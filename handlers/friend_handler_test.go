package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	usertypes "pairchatAPI/internal/types/user"
	"pairchatAPI/services"
)

type stubFriendshipService struct {
	addErr    error
	removeErr error
	added     [][2]uuid.UUID
	removed   [][2]uuid.UUID
}

func (s *stubFriendshipService) AddFriend(_ context.Context, a, b uuid.UUID) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.added = append(s.added, [2]uuid.UUID{a, b})
	return nil
}

func (s *stubFriendshipService) RemoveFriend(_ context.Context, a, b uuid.UUID) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	s.removed = append(s.removed, [2]uuid.UUID{a, b})
	return nil
}

func (s *stubFriendshipService) GetFriends(_ context.Context, _ uuid.UUID) ([]*usertypes.User, error) {
	return []*usertypes.User{}, nil
}

func (s *stubFriendshipService) GetDiscovery(_ context.Context, _ uuid.UUID) ([]*usertypes.User, error) {
	return []*usertypes.User{}, nil
}

type stubDirectory struct {
	stubResolver
	existing map[uuid.UUID]bool
}

func (s *stubDirectory) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return s.existing[id], nil
}

func newFriendRouter(h *FriendHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/friends", h.GetFriends).Methods("GET")
	r.HandleFunc("/api/v1/friends", h.AddFriend).Methods("POST")
	r.HandleFunc("/api/v1/friends", h.RemoveFriend).Methods("DELETE")
	r.HandleFunc("/api/v1/friends/discovery", h.GetDiscovery).Methods("GET")
	return r
}

func TestAddFriend(t *testing.T) {
	req := require.New(t)
	me := uuid.New()
	friend := uuid.New()

	dir := &stubDirectory{
		stubResolver: stubResolver{ids: map[string]uuid.UUID{"clerk_me": me}},
		existing:     map[uuid.UUID]bool{me: true, friend: true},
	}
	svc := &stubFriendshipService{}
	router := newFriendRouter(NewFriendHandler(svc, dir))

	body := fmt.Sprintf(`{"friendId":%q}`, friend)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("POST", "/api/v1/friends", body, "clerk_me"))

	req.Equal(http.StatusCreated, w.Code)
	req.Equal([][2]uuid.UUID{{me, friend}}, svc.added)
}

func TestAddFriendRejections(t *testing.T) {
	me := uuid.New()
	known := uuid.New()

	dir := &stubDirectory{
		stubResolver: stubResolver{ids: map[string]uuid.UUID{"clerk_me": me}},
		existing:     map[uuid.UUID]bool{me: true, known: true},
	}

	tests := []struct {
		name       string
		body       string
		addErr     error
		wantStatus int
	}{
		{"malformed body", `{"friendId":`, nil, http.StatusBadRequest},
		{"not a uuid", `{"friendId":"nope"}`, nil, http.StatusBadRequest},
		{"unknown user", fmt.Sprintf(`{"friendId":%q}`, uuid.New()), nil, http.StatusNotFound},
		{"self friend", fmt.Sprintf(`{"friendId":%q}`, me), fmt.Errorf("add friend: %w", services.ErrSelfFriend), http.StatusBadRequest},
		{"store failure", fmt.Sprintf(`{"friendId":%q}`, known), fmt.Errorf("failed to create friendship"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			svc := &stubFriendshipService{addErr: tt.addErr}
			router := newFriendRouter(NewFriendHandler(svc, dir))

			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest("POST", "/api/v1/friends", tt.body, "clerk_me"))
			req.Equal(tt.wantStatus, w.Code)
		})
	}
}

func TestRemoveFriend(t *testing.T) {
	req := require.New(t)
	me := uuid.New()
	friend := uuid.New()

	dir := &stubDirectory{
		stubResolver: stubResolver{ids: map[string]uuid.UUID{"clerk_me": me}},
		existing:     map[uuid.UUID]bool{me: true, friend: true},
	}
	svc := &stubFriendshipService{}
	router := newFriendRouter(NewFriendHandler(svc, dir))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("DELETE", "/api/v1/friends?friendId="+friend.String(), "", "clerk_me"))

	req.Equal(http.StatusOK, w.Code)
	req.Equal([][2]uuid.UUID{{me, friend}}, svc.removed)

	// Missing friendId query parameter.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("DELETE", "/api/v1/friends", "", "clerk_me"))
	req.Equal(http.StatusBadRequest, w.Code)
}
