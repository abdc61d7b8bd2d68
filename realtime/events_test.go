package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/parley-chat/parley/domain"
)

func decodeEvent(t *testing.T, data []byte) map[string]any {
	t.Helper()

	if data == nil {
		t.Fatalf("\nwanted:\nencoded event\ngot:\nnil")
	}
	var event map[string]any
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("unmarshalling event : %v", err)
	}
	return event
}

func TestUserStatusEvent(t *testing.T) {
	userID := uuid.New()

	t.Run("online", func(t *testing.T) {
		event := decodeEvent(t, userStatusEvent(userID, true))
		if event["type"] != "user_status" {
			t.Fatalf("\nwanted:\nuser_status\ngot:\n%v", event["type"])
		}
		if event["status"] != "online" {
			t.Errorf("\nwanted:\nonline\ngot:\n%v", event["status"])
		}
		if event["user_id"] != userID.String() {
			t.Errorf("\nwanted:\n%v\ngot:\n%v", userID, event["user_id"])
		}
	})

	t.Run("offline", func(t *testing.T) {
		event := decodeEvent(t, userStatusEvent(userID, false))
		if event["status"] != "offline" {
			t.Errorf("\nwanted:\noffline\ngot:\n%v", event["status"])
		}
	})
}

func TestOnlineUsersEvent(t *testing.T) {
	t.Run("nil roster encodes as an empty list", func(t *testing.T) {
		event := decodeEvent(t, onlineUsersEvent(nil))
		users, ok := event["users"].([]any)
		if !ok {
			t.Fatalf("\nwanted:\na list\ngot:\n%T", event["users"])
		}
		if len(users) != 0 {
			t.Errorf("\nwanted:\n0 users\ngot:\n%d", len(users))
		}
	})

	t.Run("roster carries every id", func(t *testing.T) {
		ids := []uuid.UUID{uuid.New(), uuid.New()}
		event := decodeEvent(t, onlineUsersEvent(ids))
		users := event["users"].([]any)
		if len(users) != 2 {
			t.Fatalf("\nwanted:\n2 users\ngot:\n%d", len(users))
		}
		if users[0] != ids[0].String() {
			t.Errorf("\nwanted:\n%v\ngot:\n%v", ids[0], users[0])
		}
	})
}

func TestGroupMessageEvent(t *testing.T) {
	msg := &domain.GroupMessage{
		ID:        uuid.New(),
		GroupID:   uuid.New(),
		SenderID:  uuid.New(),
		Body:      "life before death",
		CreatedAt: time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC),
	}

	event := decodeEvent(t, groupMessageEvent(msg))
	if event["type"] != "group_message" {
		t.Fatalf("\nwanted:\ngroup_message\ngot:\n%v", event["type"])
	}
	if event["room"] != GroupRoom(msg.GroupID) {
		t.Errorf("\nwanted:\n%v\ngot:\n%v", GroupRoom(msg.GroupID), event["room"])
	}

	payload, ok := event["message"].(map[string]any)
	if !ok {
		t.Fatalf("\nwanted:\nmessage payload\ngot:\n%T", event["message"])
	}
	if payload["id"] != msg.ID.String() {
		t.Errorf("\nwanted:\n%v\ngot:\n%v", msg.ID, payload["id"])
	}
	if payload["sender_id"] != msg.SenderID.String() {
		t.Errorf("\nwanted:\n%v\ngot:\n%v", msg.SenderID, payload["sender_id"])
	}
	if payload["body"] != msg.Body {
		t.Errorf("\nwanted:\n%v\ngot:\n%v", msg.Body, payload["body"])
	}
}

func TestDirectMessageEvent(t *testing.T) {
	msg := &domain.DirectMessage{
		ID:         uuid.New(),
		SenderID:   uuid.New(),
		ReceiverID: uuid.New(),
		Body:       "strength before weakness",
		CreatedAt:  time.Now().UTC(),
	}

	event := decodeEvent(t, directMessageEvent(msg))
	if event["type"] != "direct_message" {
		t.Fatalf("\nwanted:\ndirect_message\ngot:\n%v", event["type"])
	}
	want := DirectRoom(msg.SenderID, msg.ReceiverID)
	if event["room"] != want {
		t.Errorf("\nwanted:\n%v\ngot:\n%v", want, event["room"])
	}
	if event["receiver_id"] != msg.ReceiverID.String() {
		t.Errorf("\nwanted:\n%v\ngot:\n%v", msg.ReceiverID, event["receiver_id"])
	}
}

func TestErrorEvent(t *testing.T) {
	event := decodeEvent(t, errorEvent("something broke"))
	if event["type"] != "error" {
		t.Fatalf("\nwanted:\nerror\ngot:\n%v", event["type"])
	}
	if event["message"] != "something broke" {
		t.Errorf("\nwanted:\nsomething broke\ngot:\n%v", event["message"])
	}
}
