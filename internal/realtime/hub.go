// Package realtime pushes discussion events to websocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type MessageType string

const (
	MessageJoin  MessageType = "join"
	MessageLeave MessageType = "leave"
	MessagePing  MessageType = "ping"
	MessagePong  MessageType = "pong"
	MessageEvent MessageType = "event"
)

const (
	EventNewDiscussion   = "newDiscussion"
	EventMessageReceived = "messageReceived"
)

// Message is the frame exchanged with clients. Clients send join, leave and
// ping; the server sends pong and event.
type Message struct {
	Type      MessageType `json:"type"`
	Room      string      `json:"room,omitempty"`
	Event     string      `json:"event,omitempty"`
	Data      any         `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// DiscussionRoom is the room receiving one thread's messages.
func DiscussionRoom(discussionID string) string {
	return "discussion:" + discussionID
}

type Hub struct {
	clients    map[*Client]bool
	rooms      map[string]map[*Client]bool
	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	logger     *zap.Logger
}

// NewHub accepts connections from allowedOrigins; an empty list or "*"
// allows any origin.
func NewHub(allowedOrigins []string, logger *zap.Logger) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := map[string]bool{}
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || len(set) == 0 || set["*"] || set[origin]
	}
}

// Run serves the hub until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.rooms = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("realtime: client registered", zap.String("client_id", client.id))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				for room, clients := range h.rooms {
					if clients[client] {
						delete(clients, client)
						if len(clients) == 0 {
							delete(h.rooms, room)
						}
					}
				}
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("realtime: client unregistered", zap.String("client_id", client.id))

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("realtime: failed to marshal message", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := h.clients
	if msg.Room != "" {
		targets = h.rooms[msg.Room]
	}
	for client := range targets {
		select {
		case client.send <- data:
		default:
			h.logger.Warn("realtime: client send buffer full", zap.String("client_id", client.id))
		}
	}
}

// Publish queues event for every client, or only for the members of room
// when room is set. It never blocks; events are dropped when the queue is
// full.
func (h *Hub) Publish(event, room string, data any) {
	msg := &Message{Type: MessageEvent, Event: event, Room: room, Data: data, Timestamp: time.Now()}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("realtime: broadcast queue full, event dropped", zap.String("event", event))
	}
}

// leave detaches client; it returns at once when the hub has stopped.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) JoinRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
}

func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.rooms[room]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Stats reports the number of connected clients and room members.
func (h *Hub) Stats() map[string]any {
	h.mu.RLock()
	defer h.mu.RUnlock()

	roomSizes := make(map[string]int, len(h.rooms))
	for room, clients := range h.rooms {
		roomSizes[room] = len(clients)
	}
	return map[string]any{
		"clients": len(h.clients),
		"rooms":   roomSizes,
	}
}

// ServeHTTP upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("realtime: upgrade failed", zap.Error(err))
		return
	}

	client := newClient(h, conn)
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
