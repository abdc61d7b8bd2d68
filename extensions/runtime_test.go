package extensions

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/parley-chat/parley/domain"
)

func testMessage(t *testing.T) *Message {
	t.Helper()

	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("generating uuid : %v", err)
	}
	sender, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("generating uuid : %v", err)
	}
	target, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("generating uuid : %v", err)
	}

	return &Message{
		ID:       id,
		Kind:     "direct",
		SenderID: sender,
		TargetID: target,
		Body:     "hello there",
		SentAt:   time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC),
	}
}

func TestPrepareState(t *testing.T) {
	t.Run("should error when extension data is nil", func(t *testing.T) {
		runtime := &Runtime{}
		err := runtime.PrepareState(&mockChatService{}, nil)
		if err == nil {
			t.Fatalf("wanted:\nerror\ngot:\nnil")
		}
	})

	t.Run("should error when lua source does not compile", func(t *testing.T) {
		id, err := uuid.NewV7()
		if err != nil {
			t.Fatalf("generating uuid : %v", err)
		}
		runtime := &Runtime{Data: &domain.Extension{
			ID:         id,
			Name:       "broken",
			LuaContent: `function on_message(`,
		}}

		err = runtime.PrepareState(&mockChatService{}, nil)
		if err == nil {
			t.Fatalf("wanted:\nerror\ngot:\nnil")
		}
	})

	t.Run("should store the extension ID in the registry", func(t *testing.T) {
		ext, _ := setupTestExtension(t, "")

		got := getExtensionID(ext.State())
		if got != ext.Data.ID {
			t.Errorf("wanted:\n%v\ngot:\n%v", ext.Data.ID, got)
		}
	})

	t.Run("should run options after the libraries are registered", func(t *testing.T) {
		called := false
		option := func(runtime *Runtime) error {
			called = true
			return nil
		}

		setupTestExtension(t, "", option)

		if !called {
			t.Errorf("wanted:\noption called\ngot:\nnot called")
		}
	})
}

func TestOnMessage(t *testing.T) {
	t.Run("should pass message through when no hook is defined", func(t *testing.T) {
		ext, _ := setupTestExtension(t, `-- no hooks here`)

		msg := testMessage(t)
		got, deliver, err := ext.OnMessage(msg)
		if err != nil {
			t.Fatalf("running hook : %v", err)
		}
		if !deliver {
			t.Errorf("wanted:\ndeliver\ngot:\ndropped")
		}
		if got.Body != msg.Body {
			t.Errorf("wanted:\n%q\ngot:\n%q", msg.Body, got.Body)
		}
	})

	t.Run("should rewrite the body when the hook returns a table", func(t *testing.T) {
		ext, _ := setupTestExtension(t, `
			function on_message(msg)
				msg.body = parley.strings:upper(msg.body)
				return msg
			end
		`)

		msg := testMessage(t)
		got, deliver, err := ext.OnMessage(msg)
		if err != nil {
			t.Fatalf("running hook : %v", err)
		}
		if !deliver {
			t.Errorf("wanted:\ndeliver\ngot:\ndropped")
		}
		if got.Body != "HELLO THERE" {
			t.Errorf("wanted:\n%q\ngot:\n%q", "HELLO THERE", got.Body)
		}
		if got.ID != msg.ID {
			t.Errorf("wanted:\n%v\ngot:\n%v", msg.ID, got.ID)
		}
	})

	t.Run("should drop the message when the hook returns false", func(t *testing.T) {
		ext, _ := setupTestExtension(t, `
			function on_message(msg)
				if parley.strings:contains(msg.body, "hello") then
					return false
				end
				return msg
			end
		`)

		msg := testMessage(t)
		_, deliver, err := ext.OnMessage(msg)
		if err != nil {
			t.Fatalf("running hook : %v", err)
		}
		if deliver {
			t.Errorf("wanted:\ndropped\ngot:\ndelivered")
		}
	})

	t.Run("should pass message through when the hook returns nil", func(t *testing.T) {
		ext, _ := setupTestExtension(t, `
			function on_message(msg)
				return nil
			end
		`)

		msg := testMessage(t)
		got, deliver, err := ext.OnMessage(msg)
		if err != nil {
			t.Fatalf("running hook : %v", err)
		}
		if !deliver {
			t.Errorf("wanted:\ndeliver\ngot:\ndropped")
		}
		if got.Body != msg.Body {
			t.Errorf("wanted:\n%q\ngot:\n%q", msg.Body, got.Body)
		}
	})

	t.Run("should surface runtime errors without dropping the message", func(t *testing.T) {
		ext, _ := setupTestExtension(t, `
			function on_message(msg)
				error("broken hook")
			end
		`)

		msg := testMessage(t)
		got, deliver, err := ext.OnMessage(msg)
		if err == nil {
			t.Fatalf("wanted:\nerror\ngot:\nnil")
		}
		if !strings.Contains(err.Error(), "broken hook") {
			t.Errorf("wanted:\nerror containing 'broken hook'\ngot:\n%v", err)
		}
		if !deliver {
			t.Errorf("wanted:\ndeliver\ngot:\ndropped")
		}
		if got.Body != msg.Body {
			t.Errorf("wanted:\n%q\ngot:\n%q", msg.Body, got.Body)
		}
	})

	t.Run("should see all message fields from lua", func(t *testing.T) {
		ext, _ := setupTestExtension(t, `
			function on_message(msg)
				msg.body = msg.kind .. "|" .. msg.sender .. "|" .. msg.target
				return msg
			end
		`)

		msg := testMessage(t)
		got, _, err := ext.OnMessage(msg)
		if err != nil {
			t.Fatalf("running hook : %v", err)
		}

		want := msg.Kind + "|" + msg.SenderID.String() + "|" + msg.TargetID.String()
		if got.Body != want {
			t.Errorf("wanted:\n%q\ngot:\n%q", want, got.Body)
		}
	})
}
