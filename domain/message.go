package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageRepository is the interface that holds all the message related repository methods in Parley
type MessageRepository interface {
	// InsertDirectMessage will insert the DirectMessage in the DB
	InsertDirectMessage(msg *DirectMessage) error

	// InsertGroupMessage will insert the GroupMessage in the DB and bump
	// the parent group's updated timestamp
	InsertGroupMessage(msg *GroupMessage) error

	// GetConversation returns every direct message exchanged between the two
	// users, oldest first.
	GetConversation(a, b uuid.UUID) ([]*DirectMessage, error)

	// GetConversationSummaries returns one entry per distinct chat partner of
	// the given user, each carrying the most recent message of that thread.
	// Ordered by the last message time, newest first.
	GetConversationSummaries(userID uuid.UUID) ([]*ConversationSummary, error)

	// GetGroupMessages returns the limit most recent messages of a group in
	// chronological order. A negative limit returns the full history.
	GetGroupMessages(groupID uuid.UUID, limit int) ([]*GroupMessage, error)

	// MarkConversationRead flags every message sent by sender to receiver as read.
	MarkConversationRead(sender, receiver uuid.UUID) error
}

// DirectMessage is a one-on-one message between two users.
type DirectMessage struct {
	ID         uuid.UUID // Unique identifier for the message
	SenderID   uuid.UUID // Author
	ReceiverID uuid.UUID // Recipient
	Body       string    // Message text
	CreatedAt  time.Time // When the message was sent
	IsRead     bool      // Whether the recipient has read the message
}

// GroupMessage is a message posted to a group.
type GroupMessage struct {
	ID        uuid.UUID // Unique identifier for the message
	GroupID   uuid.UUID // Group the message was posted to
	SenderID  uuid.UUID // Author
	Body      string    // Message text
	CreatedAt time.Time // When the message was sent
}

// ConversationSummary is one row of the conversation list: the chat partner
// together with the latest message of the thread.
type ConversationSummary struct {
	OtherUserID uuid.UUID      // The other participant of the thread
	LastMessage *DirectMessage // Most recent message in either direction
}
