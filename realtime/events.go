package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/parley-chat/parley/domain"
)

// clientEvent is the envelope every inbound websocket frame is decoded into.
// Only the fields relevant to the event type are set.
type clientEvent struct {
	Type    string `json:"type"`
	GroupID string `json:"group_id,omitempty"`
	UserID  string `json:"user_id,omitempty"`
	Room    string `json:"room,omitempty"`
	Body    string `json:"body,omitempty"`
}

// messagePayload is the wire shape of a chat message in server events.
type messagePayload struct {
	ID        uuid.UUID `json:"id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func marshalEvent(eventType string, fields map[string]any) []byte {
	payload := map[string]any{"type": eventType}
	for key, value := range fields {
		payload[key] = value
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

func onlineUsersEvent(userIDs []uuid.UUID) []byte {
	if userIDs == nil {
		userIDs = []uuid.UUID{}
	}
	return marshalEvent("online_users", map[string]any{"users": userIDs})
}

func userStatusEvent(userID uuid.UUID, online bool) []byte {
	status := "offline"
	if online {
		status = "online"
	}
	return marshalEvent("user_status", map[string]any{"user_id": userID, "status": status})
}

func joinedGroupEvent(room string) []byte {
	return marshalEvent("joined_group", map[string]any{"room": room})
}

func userJoinedEvent(room string, userID uuid.UUID) []byte {
	return marshalEvent("user_joined", map[string]any{"room": room, "user_id": userID})
}

func userLeftEvent(room string, userID uuid.UUID) []byte {
	return marshalEvent("user_left", map[string]any{"room": room, "user_id": userID})
}

func groupMessageEvent(msg *domain.GroupMessage) []byte {
	return marshalEvent("group_message", map[string]any{
		"room":     GroupRoom(msg.GroupID),
		"group_id": msg.GroupID,
		"message": messagePayload{
			ID:        msg.ID,
			SenderID:  msg.SenderID,
			Body:      msg.Body,
			CreatedAt: msg.CreatedAt,
		},
	})
}

func directMessageEvent(msg *domain.DirectMessage) []byte {
	return marshalEvent("direct_message", map[string]any{
		"room":        DirectRoom(msg.SenderID, msg.ReceiverID),
		"receiver_id": msg.ReceiverID,
		"message": messagePayload{
			ID:        msg.ID,
			SenderID:  msg.SenderID,
			Body:      msg.Body,
			CreatedAt: msg.CreatedAt,
		},
	})
}

func userTypingEvent(room string, userID uuid.UUID) []byte {
	return marshalEvent("user_typing", map[string]any{"room": room, "user_id": userID})
}

func errorEvent(message string) []byte {
	return marshalEvent("error", map[string]any{"message": message})
}
