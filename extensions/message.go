package extensions

import (
	"fmt"
	"time"

	"github.com/Shopify/goluago/util"
	"github.com/google/uuid"
)

// Message is the view of a chat message handed to Lua hooks. Direct and group
// messages share this shape; Kind tells them apart.
type Message struct {
	ID       uuid.UUID
	Kind     string // "direct" or "group"
	SenderID uuid.UUID
	TargetID uuid.UUID // receiver for direct messages, group for group messages
	Body     string
	SentAt   time.Time
}

// toTable converts the message into the map shape pushed onto the Lua stack.
func (message *Message) toTable() map[string]interface{} {
	return map[string]interface{}{
		"id":      message.ID.String(),
		"kind":    message.Kind,
		"sender":  message.SenderID.String(),
		"target":  message.TargetID.String(),
		"body":    message.Body,
		"sent_at": message.SentAt.UTC().Format(time.RFC3339),
	}
}

// OnMessage invokes the extension's on_message hook with the message. The hook
// may return a table with a replacement body, false to drop the message, or
// nothing to pass it through untouched. The returned boolean reports whether
// the message should be delivered.
func (runtime *Runtime) OnMessage(message *Message) (*Message, bool, error) {
	l := runtime.state
	if l == nil {
		return message, true, fmt.Errorf("extension %s : state not prepared", runtime.Data.Name)
	}

	l.Global("on_message")
	if !l.IsFunction(-1) {
		l.Pop(1)
		return message, true, nil
	}

	util.DeepPush(l, message.toTable())

	if err := l.ProtectedCall(1, 1, 0); err != nil {
		return message, true, fmt.Errorf("running on_message for %s : %w", runtime.Data.Name, err)
	}
	defer l.Pop(1)

	switch {
	case l.IsBoolean(-1):
		return message, l.ToBoolean(-1), nil
	case l.IsTable(-1):
		l.Field(-1, "body")
		body, ok := l.ToString(-1)
		l.Pop(1)
		if ok {
			rewritten := *message
			rewritten.Body = body
			return &rewritten, true, nil
		}
		return message, true, nil
	default:
		return message, true, nil
	}
}
