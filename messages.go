package parley

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/parley-chat/parley/core"
	"github.com/parley-chat/parley/domain"
	"github.com/parley-chat/parley/extensions"
)

// SendDirectMessage runs the body through the extension pipeline and persists
// the result. The returned boolean reports whether the message survived the
// pipeline; a vetoed message is not stored and not delivered.
func (server *Server) SendDirectMessage(sender uuid.UUID, receiver uuid.UUID, body string) (*domain.DirectMessage, bool, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, false, fmt.Errorf("generating message uuid : %w", err)
	}

	processed, deliver := server.ProcessMessage(&extensions.Message{
		ID:       id,
		Kind:     "direct",
		SenderID: sender,
		TargetID: receiver,
		Body:     body,
		SentAt:   time.Now().UTC(),
	})
	if !deliver {
		server.WriteLog("INFO", fmt.Sprintf("direct message %s vetoed by extension", id), core.LogWithMessageID(id))
		return nil, false, nil
	}

	msg := &domain.DirectMessage{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		Body:       processed.Body,
		CreatedAt:  processed.SentAt,
	}
	if err := server.Repo.InsertDirectMessage(msg); err != nil {
		return nil, false, fmt.Errorf("inserting direct message : %w", err)
	}
	return msg, true, nil
}

// SendGroupMessage checks membership, runs the body through the extension
// pipeline, and persists the result.
func (server *Server) SendGroupMessage(sender uuid.UUID, groupID uuid.UUID, body string) (*domain.GroupMessage, bool, error) {
	member, err := server.Repo.IsMember(groupID, sender)
	if err != nil {
		return nil, false, fmt.Errorf("checking membership : %w", err)
	}
	if !member {
		return nil, false, fmt.Errorf("user %s is not a member of group %s", sender, groupID)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, false, fmt.Errorf("generating message uuid : %w", err)
	}

	processed, deliver := server.ProcessMessage(&extensions.Message{
		ID:       id,
		Kind:     "group",
		SenderID: sender,
		TargetID: groupID,
		Body:     body,
		SentAt:   time.Now().UTC(),
	})
	if !deliver {
		server.WriteLog("INFO", fmt.Sprintf("group message %s vetoed by extension", id), core.LogWithMessageID(id))
		return nil, false, nil
	}

	msg := &domain.GroupMessage{
		ID:        id,
		GroupID:   groupID,
		SenderID:  sender,
		Body:      processed.Body,
		CreatedAt: processed.SentAt,
	}
	if err := server.Repo.InsertGroupMessage(msg); err != nil {
		return nil, false, fmt.Errorf("inserting group message : %w", err)
	}
	return msg, true, nil
}
