package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// writeTranscript streams a JSON transcript to the client, compressed with
// brotli when the request advertises support for it.
func (h *Handler) writeTranscript(c *gin.Context, filename string, payload any) {
	compress := strings.Contains(c.GetHeader("Accept-Encoding"), "br")

	c.Header("Content-Type", "application/json")
	if compress {
		c.Header("Content-Encoding", "br")
		filename += ".br"
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	var writer io.Writer = c.Writer
	if compress {
		br := brotli.NewWriter(c.Writer)
		defer br.Close()
		writer = br
	}

	if err := json.NewEncoder(writer).Encode(payload); err != nil {
		h.Server.WriteLog("WARN", "writing transcript export failed: "+err.Error())
	}
}

// ExportConversation streams the full direct message history with another
// user. Long threads compress well, so brotli is offered via content
// negotiation.
func (h *Handler) ExportConversation(c *gin.Context) {
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

	export := make([]directMessageDTO, 0, len(messages))
	for _, msg := range messages {
		export = append(export, toDirectMessageDTO(msg))
	}

	h.writeTranscript(c, "conversation.json", gin.H{"messages": export})
}

// ExportGroup streams the full message history of a group the caller
// belongs to.
func (h *Handler) ExportGroup(c *gin.Context) {
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
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "checking membership failed"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
		return
	}

	messages, err := h.Server.Repo.GetGroupMessages(groupID, -1)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "loading messages failed"})
		return
	}

	export := make([]groupMessageDTO, 0, len(messages))
	for _, msg := range messages {
		export = append(export, toGroupMessageDTO(msg))
	}

	h.writeTranscript(c, "group.json", gin.H{"messages": export})
}
