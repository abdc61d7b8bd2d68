// Package realtime implements the websocket layer of the Parley chat server.
// A single Hub tracks every connected client, groups them into rooms, and
// fans chat events out to room members. Messages sent over the socket go
// through the same pipeline and storage as messages sent over HTTP.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parley-chat/parley/domain"
)

const (
	pingInterval = 30 * time.Second
	readTimeout  = 60 * time.Second
	presenceTTL  = 2 * pingInterval
)

// MessageService persists chat messages after running them through the
// extension pipeline. It is implemented by the root parley.Server.
type MessageService interface {
	SendDirectMessage(sender uuid.UUID, receiver uuid.UUID, body string) (*domain.DirectMessage, bool, error)
	SendGroupMessage(sender uuid.UUID, groupID uuid.UUID, body string) (*domain.GroupMessage, bool, error)
}

// PresenceTracker records which users are currently connected.
// It is implemented by the Redis-backed presence.Client.
type PresenceTracker interface {
	Heartbeat(ctx context.Context, userID uuid.UUID, ttl time.Duration) error
	SetOffline(ctx context.Context, userID uuid.UUID) error
	OnlineUserIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Hub manages WebSocket connections, rooms, and broadcasts.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	reg     chan *Client
	unreg   chan *Client

	service  MessageService
	groups   domain.GroupRepository
	users    domain.UserRepository
	presence PresenceTracker
}

// NewHub creates a new WebSocket hub.
func NewHub(service MessageService, groups domain.GroupRepository, users domain.UserRepository, presence PresenceTracker) *Hub {
	return &Hub{
		clients:  make(map[*Client]struct{}),
		rooms:    make(map[string]map[*Client]struct{}),
		reg:      make(chan *Client, 16),
		unreg:    make(chan *Client, 16),
		service:  service,
		groups:   groups,
		users:    users,
		presence: presence,
	}
}

// Run processes register/unregister events. It is meant to run as a goroutine
// for the lifetime of the server.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.reg:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			h.userConnected(ctx, c)
		case c := <-h.unreg:
			h.mu.Lock()
			delete(h.clients, c)
			for room := range c.rooms {
				h.removeFromRoom(room, c)
			}
			h.mu.Unlock()
			close(c.send)
			h.userDisconnected(ctx, c)
		}
	}
}

// userConnected marks the user online, tells everyone, and sends the online
// roster to the new client.
func (h *Hub) userConnected(ctx context.Context, c *Client) {
	if h.users != nil {
		if err := h.users.SetOnline(c.userID, true); err != nil {
			c.trySend(errorEvent(err.Error()))
		}
	}
	if h.presence != nil {
		if err := h.presence.Heartbeat(ctx, c.userID, presenceTTL); err != nil {
			c.trySend(errorEvent(err.Error()))
		}
	}

	h.Broadcast(userStatusEvent(c.userID, true))

	if h.presence != nil {
		online, err := h.presence.OnlineUserIDs(ctx)
		if err != nil {
			c.trySend(errorEvent(err.Error()))
			return
		}
		c.trySend(onlineUsersEvent(online))
	}
}

// userDisconnected flips the user offline once their last connection is gone.
func (h *Hub) userDisconnected(ctx context.Context, c *Client) {
	if h.connectionCount(c.userID) > 0 {
		return
	}
	if h.users != nil {
		h.users.SetOnline(c.userID, false)
	}
	if h.presence != nil {
		h.presence.SetOffline(ctx, c.userID)
	}
	h.Broadcast(userStatusEvent(c.userID, false))
}

func (h *Hub) connectionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for c := range h.clients {
		if c.userID == userID {
			count++
		}
	}
	return count
}

// Broadcast sends data to every connected client.
func (h *Hub) Broadcast(data []byte) {
	if data == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		c.trySend(data)
	}
}

// BroadcastToRoom sends data to every client in the room. The skip client,
// when non-nil, is excluded.
func (h *Hub) BroadcastToRoom(room string, data []byte, skip *Client) {
	if data == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[room] {
		if c == skip {
			continue
		}
		c.trySend(data)
	}
}

// BroadcastGroupMessage fans a stored group message out to the group's room.
// It is the entry point for messages that arrived over HTTP instead of the
// socket.
func (h *Hub) BroadcastGroupMessage(msg *domain.GroupMessage) {
	if msg == nil {
		return
	}
	h.BroadcastToRoom(GroupRoom(msg.GroupID), groupMessageEvent(msg), nil)
}

// BroadcastDirectMessage fans a stored direct message out to the thread's room.
func (h *Hub) BroadcastDirectMessage(msg *domain.DirectMessage) {
	if msg == nil {
		return
	}
	h.BroadcastToRoom(DirectRoom(msg.SenderID, msg.ReceiverID), directMessageEvent(msg), nil)
}

func (h *Hub) joinRoom(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
	c.rooms[room] = true
}

func (h *Hub) leaveRoom(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoom(room, c)
	delete(c.rooms, room)
}

// removeFromRoom expects h.mu to be held.
func (h *Hub) removeFromRoom(room string, c *Client) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// RoomSize returns the number of clients currently in the room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
