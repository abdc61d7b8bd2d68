package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/parley-chat/parley/domain"
)

// defaultMessageLimit bounds how many group messages one page returns.
const defaultMessageLimit = 50

type sendMessageDTO struct {
	Body string `json:"body" binding:"required"`
}

type directMessageDTO struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	IsRead     bool      `json:"is_read"`
}

type groupMessageDTO struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func toDirectMessageDTO(msg *domain.DirectMessage) directMessageDTO {
	return directMessageDTO{
		ID:         msg.ID.String(),
		SenderID:   msg.SenderID.String(),
		ReceiverID: msg.ReceiverID.String(),
		Body:       msg.Body,
		CreatedAt:  msg.CreatedAt,
		IsRead:     msg.IsRead,
	}
}

func toGroupMessageDTO(msg *domain.GroupMessage) groupMessageDTO {
	return groupMessageDTO{
		ID:        msg.ID.String(),
		GroupID:   msg.GroupID.String(),
		SenderID:  msg.SenderID.String(),
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt,
	}
}

// ListConversations returns one entry per chat partner with the latest
// message of the thread, newest first.
func (h *Handler) ListConversations(c *gin.Context) {
	callerID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	summaries, err := h.Server.Repo.GetConversationSummaries(callerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing conversations failed"})
		return
	}

	type summaryDTO struct {
		UserID      string           `json:"user_id"`
		LastMessage directMessageDTO `json:"last_message"`
	}
	results := make([]summaryDTO, 0, len(summaries))
	for _, summary := range summaries {
		results = append(results, summaryDTO{
			UserID:      summary.OtherUserID.String(),
			LastMessage: toDirectMessageDTO(summary.LastMessage),
		})
	}
	c.JSON(http.StatusOK, gin.H{"conversations": results})
}

// GetConversation returns the full direct message history with another user,
// oldest first.
func (h *Handler) GetConversation(c *gin.Context) {
	callerID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	otherID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}

	messages, err := h.Server.Repo.GetConversation(callerID, otherID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "loading conversation failed"})
		return
	}

	results := make([]directMessageDTO, 0, len(messages))
	for _, msg := range messages {
		results = append(results, toDirectMessageDTO(msg))
	}
	c.JSON(http.StatusOK, gin.H{"messages": results})
}

// SendDirectMessage sends a direct message through the extension pipeline and
// fans it out to connected clients. A vetoed message returns 202 without a
// message body.
func (h *Handler) SendDirectMessage(c *gin.Context) {
	callerID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	receiverID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}
	if _, err := h.Server.Repo.GetUser(receiverID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	var in sendMessageDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, delivered, err := h.Server.SendDirectMessage(callerID, receiverID, in.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sending message failed"})
		return
	}
	if !delivered {
		c.JSON(http.StatusAccepted, gin.H{"delivered": false})
		return
	}

	if h.Hub != nil {
		h.Hub.BroadcastDirectMessage(msg)
	}
	c.JSON(http.StatusCreated, toDirectMessageDTO(msg))
}

// MarkConversationRead flags every message from the other user as read.
func (h *Handler) MarkConversationRead(c *gin.Context) {
	callerID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	otherID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}

	if err := h.Server.Repo.MarkConversationRead(otherID, callerID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "marking read failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetGroupMessages returns the most recent messages of a group in
// chronological order. Only members may read them.
func (h *Handler) GetGroupMessages(c *gin.Context) {
	callerID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	groupID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	member, err := h.Server.Repo.IsMember(groupID, callerID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
		return
	}

	limit := defaultMessageLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	messages, err := h.Server.Repo.GetGroupMessages(groupID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "loading messages failed"})
		return
	}

	results := make([]groupMessageDTO, 0, len(messages))
	for _, msg := range messages {
		results = append(results, toGroupMessageDTO(msg))
	}
	c.JSON(http.StatusOK, gin.H{"messages": results})
}

// SendGroupMessage posts a message to a group through the extension pipeline
// and fans it out to connected clients.
func (h *Handler) SendGroupMessage(c *gin.Context) {
	callerID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	groupID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var in sendMessageDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, delivered, err := h.Server.SendGroupMessage(callerID, groupID, in.Body)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	if !delivered {
		c.JSON(http.StatusAccepted, gin.H{"delivered": false})
		return
	}

	if h.Hub != nil {
		h.Hub.BroadcastGroupMessage(msg)
	}
	c.JSON(http.StatusCreated, toGroupMessageDTO(msg))
}
