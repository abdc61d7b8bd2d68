package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
)

// Client is one authenticated websocket connection. A user may hold several
// at once, one per device or tab.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID
	send   chan []byte
	rooms  map[string]bool
}

// trySend queues data for the write pump, dropping the frame when the client
// is too slow to keep up.
func (c *Client) trySend(data []byte) {
	if data == nil {
		return
	}
	select {
	case c.send <- data:
	default:
		// client too slow, skip
	}
}

// HandleWS upgrades the request and manages the connection for an already
// authenticated user.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // browser clients connect from their own origin
	})
	if err != nil {
		log.Printf("[ws] accept error: %v", err)
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 64),
		rooms:  make(map[string]bool),
	}

	h.reg <- client

	ctx := r.Context()
	go client.pingLoop(ctx)
	go client.writePump(ctx)
	client.readPump(ctx)
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
			if c.hub.presence != nil {
				c.hub.presence.Heartbeat(ctx, c.userID, presenceTTL)
			}
		}
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unreg <- c
		c.conn.Close(websocket.StatusNormalClosure, "bye")
	}()

	for {
		readCtx, cancel := context.WithTimeout(ctx, readTimeout)
		_, data, err := c.conn.Read(readCtx)
		cancel()
		if err != nil {
			return
		}

		var event clientEvent
		if err := json.Unmarshal(data, &event); err != nil {
			c.trySend(errorEvent("malformed event"))
			continue
		}
		c.hub.dispatch(c, event)
	}
}

func (c *Client) writePump(ctx context.Context) {
	for data := range c.send {
		if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
			return
		}
	}
}

// dispatch routes one inbound event to its handler.
func (h *Hub) dispatch(c *Client, event clientEvent) {
	switch event.Type {
	case "join_group":
		h.handleJoinGroup(c, event)
	case "leave_group":
		h.handleLeaveGroup(c, event)
	case "join_direct":
		h.handleJoinDirect(c, event)
	case "leave_direct":
		h.handleLeaveDirect(c, event)
	case "send_group_message":
		h.handleSendGroupMessage(c, event)
	case "send_direct_message":
		h.handleSendDirectMessage(c, event)
	case "typing":
		h.handleTyping(c, event)
	default:
		c.trySend(errorEvent(fmt.Sprintf("unknown event type %q", event.Type)))
	}
}

func (h *Hub) handleJoinGroup(c *Client, event clientEvent) {
	groupID, err := uuid.Parse(event.GroupID)
	if err != nil {
		c.trySend(errorEvent("invalid group id"))
		return
	}

	member, err := h.groups.IsMember(groupID, c.userID)
	if err != nil {
		c.trySend(errorEvent(err.Error()))
		return
	}
	if !member {
		c.trySend(errorEvent("not a member of this group"))
		return
	}

	room := GroupRoom(groupID)
	h.joinRoom(room, c)
	c.trySend(joinedGroupEvent(room))
	h.BroadcastToRoom(room, userJoinedEvent(room, c.userID), c)
}

func (h *Hub) handleLeaveGroup(c *Client, event clientEvent) {
	groupID, err := uuid.Parse(event.GroupID)
	if err != nil {
		c.trySend(errorEvent("invalid group id"))
		return
	}

	room := GroupRoom(groupID)
	h.leaveRoom(room, c)
	h.BroadcastToRoom(room, userLeftEvent(room, c.userID), c)
}

func (h *Hub) handleJoinDirect(c *Client, event clientEvent) {
	peerID, err := uuid.Parse(event.UserID)
	if err != nil {
		c.trySend(errorEvent("invalid user id"))
		return
	}
	h.joinRoom(DirectRoom(c.userID, peerID), c)
}

func (h *Hub) handleLeaveDirect(c *Client, event clientEvent) {
	peerID, err := uuid.Parse(event.UserID)
	if err != nil {
		c.trySend(errorEvent("invalid user id"))
		return
	}
	h.leaveRoom(DirectRoom(c.userID, peerID), c)
}

func (h *Hub) handleSendGroupMessage(c *Client, event clientEvent) {
	groupID, err := uuid.Parse(event.GroupID)
	if err != nil {
		c.trySend(errorEvent("invalid group id"))
		return
	}

	msg, delivered, err := h.service.SendGroupMessage(c.userID, groupID, event.Body)
	if err != nil {
		c.trySend(errorEvent(err.Error()))
		return
	}
	if !delivered {
		return
	}
	h.BroadcastToRoom(GroupRoom(groupID), groupMessageEvent(msg), nil)
}

func (h *Hub) handleSendDirectMessage(c *Client, event clientEvent) {
	receiverID, err := uuid.Parse(event.UserID)
	if err != nil {
		c.trySend(errorEvent("invalid user id"))
		return
	}

	msg, delivered, err := h.service.SendDirectMessage(c.userID, receiverID, event.Body)
	if err != nil {
		c.trySend(errorEvent(err.Error()))
		return
	}
	if !delivered {
		return
	}
	h.BroadcastToRoom(DirectRoom(c.userID, receiverID), directMessageEvent(msg), nil)
}

func (h *Hub) handleTyping(c *Client, event clientEvent) {
	if event.Room == "" {
		c.trySend(errorEvent("room is required"))
		return
	}
	if !c.rooms[event.Room] {
		return
	}
	h.BroadcastToRoom(event.Room, userTypingEvent(event.Room, c.userID), c)
}
