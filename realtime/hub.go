package realtime

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

var connectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "realtime_connected_clients",
	Help: "Number of websocket clients currently registered with the hub",
})

// Hub holds the websocket connections of this instance and subscribes to the
// conversation channels on Redis so messages published by any instance reach
// the local participants.
type Hub struct {
	rdb        *redis.Client
	clients    map[uuid.UUID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	deliver    chan *delivery
}

type delivery struct {
	channel string
	payload []byte
}

func NewHub(rdb *redis.Client) *Hub {
	h := &Hub{
		rdb:        rdb,
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan *delivery, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	pubsub := h.rdb.PSubscribe(context.Background(), channelPrefix+"*")
	ch := pubsub.Channel()
	go func() {
		for msg := range ch {
			h.deliver <- &delivery{channel: msg.Channel, payload: []byte(msg.Payload)}
		}
	}()

	for {
		select {
		case c := <-h.register:
			if _, ok := h.clients[c.userID]; !ok {
				h.clients[c.userID] = make(map[*Client]bool)
			}
			h.clients[c.userID][c] = true
			connectedClients.Inc()
			log.Printf("Hub: client registered for user %s", c.userID)
		case c := <-h.unregister:
			if conns, ok := h.clients[c.userID]; ok {
				if _, exists := conns[c]; exists {
					delete(conns, c)
					close(c.send)
					connectedClients.Dec()
				}
				if len(conns) == 0 {
					delete(h.clients, c.userID)
				}
			}
		case d := <-h.deliver:
			a, b, err := ParseChannel(d.channel)
			if err != nil {
				log.Printf("Hub: dropping event: %v", err)
				continue
			}
			// Only the two participants of the conversation ever receive
			// the event.
			h.sendToUser(a, d.payload)
			h.sendToUser(b, d.payload)
		}
	}
}

func (h *Hub) sendToUser(userID uuid.UUID, payload []byte) {
	conns, ok := h.clients[userID]
	if !ok {
		return
	}
	for c := range conns {
		select {
		case c.send <- payload:
		default:
			// Slow consumer: drop the connection rather than block the hub.
			close(c.send)
			delete(conns, c)
			connectedClients.Dec()
		}
	}
}

func (h *Hub) RegisterClient(c *Client) {
	h.register <- c
}

func (h *Hub) UnregisterClient(c *Client) {
	h.unregister <- c
}
