package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/parley-chat/parley/domain"
)

var _ domain.MessageRepository = (*Repository)(nil)

// dbDirectMessage represents a direct message as stored in the database.
type dbDirectMessage struct {
	ID         uuid.UUID `db:"id"`          // Unique identifier for the message.
	SenderID   uuid.UUID `db:"sender_id"`   // Author.
	ReceiverID uuid.UUID `db:"receiver_id"` // Recipient.
	Body       string    `db:"body"`        // Message text.
	CreatedAt  time.Time `db:"created_at"`  // When the message was sent.
	IsRead     bool      `db:"is_read"`     // Whether the recipient has read the message.
}

// dbGroupMessage represents a group message as stored in the database.
type dbGroupMessage struct {
	ID        uuid.UUID `db:"id"`
	GroupID   uuid.UUID `db:"group_id"`
	SenderID  uuid.UUID `db:"sender_id"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
}

func toDomainDirectMessage(msg *dbDirectMessage) *domain.DirectMessage {
	return &domain.DirectMessage{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Body:       msg.Body,
		CreatedAt:  msg.CreatedAt,
		IsRead:     msg.IsRead,
	}
}

func toDomainGroupMessage(msg *dbGroupMessage) *domain.GroupMessage {
	return &domain.GroupMessage{
		ID:        msg.ID,
		GroupID:   msg.GroupID,
		SenderID:  msg.SenderID,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt,
	}
}

// InsertDirectMessage implements the domain.MessageRepository interface.
func (repo *Repository) InsertDirectMessage(msg *domain.DirectMessage) error {
	query := `INSERT INTO direct_messages (id, sender_id, receiver_id, body, created_at, is_read)
	          VALUES (:id, :sender_id, :receiver_id, :body, :created_at, :is_read)`

	_, err := repo.dbConn.NamedExec(query, &dbDirectMessage{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Body:       msg.Body,
		CreatedAt:  msg.CreatedAt,
		IsRead:     msg.IsRead,
	})
	if err != nil {
		return fmt.Errorf("inserting direct message %s: %w", msg.ID, err)
	}

	return nil
}

// InsertGroupMessage implements the domain.MessageRepository interface.
// The parent group's updated timestamp is bumped in the same transaction so
// group listings sort by latest activity.
func (repo *Repository) InsertGroupMessage(msg *domain.GroupMessage) error {
	tx, err := repo.dbConn.Beginx()
	if err != nil {
		return fmt.Errorf("starting transaction for message %s: %w", msg.ID, err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(`INSERT INTO group_messages (id, group_id, sender_id, body, created_at)
	                       VALUES (:id, :group_id, :sender_id, :body, :created_at)`,
		&dbGroupMessage{
			ID:        msg.ID,
			GroupID:   msg.GroupID,
			SenderID:  msg.SenderID,
			Body:      msg.Body,
			CreatedAt: msg.CreatedAt,
		})
	if err != nil {
		return fmt.Errorf("inserting group message %s: %w", msg.ID, err)
	}

	_, err = tx.Exec(`UPDATE groups SET updated_at = ? WHERE id = ?`, msg.CreatedAt, msg.GroupID)
	if err != nil {
		return fmt.Errorf("bumping group %s: %w", msg.GroupID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing group message %s: %w", msg.ID, err)
	}

	return nil
}

// GetConversation implements the domain.MessageRepository interface.
func (repo *Repository) GetConversation(a, b uuid.UUID) ([]*domain.DirectMessage, error) {
	var dbMsgs []*dbDirectMessage
	query := `SELECT * FROM direct_messages
	          WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
	          ORDER BY created_at ASC, id ASC`

	err := repo.dbConn.Select(&dbMsgs, query, a, b, b, a)
	if err != nil {
		return nil, fmt.Errorf("fetching conversation %s/%s: %w", a, b, err)
	}

	msgs := make([]*domain.DirectMessage, len(dbMsgs))
	for i, msg := range dbMsgs {
		msgs[i] = toDomainDirectMessage(msg)
	}

	return msgs, nil
}

// GetConversationSummaries implements the domain.MessageRepository interface.
// Messages involving the user are walked newest first and the first message
// seen per partner wins, which yields one summary per thread.
func (repo *Repository) GetConversationSummaries(userID uuid.UUID) ([]*domain.ConversationSummary, error) {
	var dbMsgs []*dbDirectMessage
	query := `SELECT * FROM direct_messages
	          WHERE sender_id = ? OR receiver_id = ?
	          ORDER BY created_at DESC, id DESC`

	err := repo.dbConn.Select(&dbMsgs, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching conversations for %s: %w", userID, err)
	}

	seen := make(map[uuid.UUID]bool)
	summaries := make([]*domain.ConversationSummary, 0)

	for _, msg := range dbMsgs {
		other := msg.SenderID
		if other == userID {
			other = msg.ReceiverID
		}
		if seen[other] {
			continue
		}
		seen[other] = true

		summaries = append(summaries, &domain.ConversationSummary{
			OtherUserID: other,
			LastMessage: toDomainDirectMessage(msg),
		})
	}

	return summaries, nil
}

// GetGroupMessages implements the domain.MessageRepository interface.
// The limit most recent messages are returned in chronological order, which
// is the shape clients need for an infinite-scroll history pane.
func (repo *Repository) GetGroupMessages(groupID uuid.UUID, limit int) ([]*domain.GroupMessage, error) {
	var dbMsgs []*dbGroupMessage
	query := `SELECT * FROM (
	              SELECT * FROM group_messages WHERE group_id = ?
	              ORDER BY created_at DESC, id DESC LIMIT ?
	          ) ORDER BY created_at ASC, id ASC`

	err := repo.dbConn.Select(&dbMsgs, query, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching messages for group %s: %w", groupID, err)
	}

	msgs := make([]*domain.GroupMessage, len(dbMsgs))
	for i, msg := range dbMsgs {
		msgs[i] = toDomainGroupMessage(msg)
	}

	return msgs, nil
}

// MarkConversationRead implements the domain.MessageRepository interface.
func (repo *Repository) MarkConversationRead(sender, receiver uuid.UUID) error {
	_, err := repo.dbConn.Exec(`UPDATE direct_messages SET is_read = TRUE WHERE sender_id = ? AND receiver_id = ?`,
		sender, receiver)
	if err != nil {
		return fmt.Errorf("marking conversation %s -> %s read: %w", sender, receiver, err)
	}

	return nil
}
