package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"pairchatAPI/realtime"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type RealtimeHandler struct {
	hub   *realtime.Hub
	users identityResolver
}

func NewRealtimeHandler(hub *realtime.Hub, users identityResolver) *RealtimeHandler {
	return &RealtimeHandler{
		hub:   hub,
		users: users,
	}
}

// Subscribe upgrades the connection and registers it with the hub. The
// socket is receive-only: new messages arrive here, but sending stays on
// the HTTP API.
func (h *RealtimeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	me, ok := requireUser(r.Context(), w, h.users)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Realtime Handler: Could not upgrade connection: %v", err)
		return
	}

	client := realtime.NewClient(h.hub, conn, me)
	h.hub.RegisterClient(client)
	go client.Serve()
}
