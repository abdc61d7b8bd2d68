package realtime

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestGroupRoom(t *testing.T) {
	groupID, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("generating uuid : %v", err)
	}

	room := GroupRoom(groupID)
	want := "group_" + groupID.String()
	if room != want {
		t.Fatalf("\nwanted:\n%v\ngot:\n%v", want, room)
	}
}

func TestDirectRoom(t *testing.T) {
	a, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("generating uuid : %v", err)
	}
	b, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("generating uuid : %v", err)
	}

	t.Run("is symmetric", func(t *testing.T) {
		if DirectRoom(a, b) != DirectRoom(b, a) {
			t.Fatalf("\nwanted:\nsame room both ways\ngot:\n%v and %v", DirectRoom(a, b), DirectRoom(b, a))
		}
	})

	t.Run("orders the ids", func(t *testing.T) {
		room := DirectRoom(a, b)
		parts := strings.SplitN(strings.TrimPrefix(room, "direct_"), "_", 2)
		if len(parts) != 2 {
			t.Fatalf("\nwanted:\ntwo ids in room name\ngot:\n%v", room)
		}
		if parts[0] > parts[1] {
			t.Errorf("\nwanted:\nids in ascending order\ngot:\n%v", room)
		}
	})
}
