package httpapi

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parley-chat/parley/blob"
	"github.com/parley-chat/parley/core"
)

// maxAvatarBytes caps avatar uploads at 5 MiB.
const maxAvatarBytes = 5 << 20

type profileUpdateDTO struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// GetMe returns the authenticated user's profile.
func (h *Handler) GetMe(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.Server.Repo.GetUser(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, h.toUserDTO(user))
}

// UpdateMe applies partial profile updates. Only the fields present in the
// body change.
func (h *Handler) UpdateMe(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var in profileUpdateDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Server.Repo.GetUser(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}

	if err := h.Server.Repo.UpdateUser(user); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.toUserDTO(user))
}

// UploadAvatar stores a new avatar image for the caller. The old object, if
// any, is removed from storage.
func (h *Handler) UploadAvatar(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if h.Server.Blobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "avatar storage is not configured"})
		return
	}

	file, _, err := c.Request.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reading upload failed"})
		return
	}
	if len(data) > maxAvatarBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "avatar exceeds size limit"})
		return
	}
	if _, _, err := blob.SniffImage(data); err != nil {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Server.Repo.GetUser(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	ctx := c.Request.Context()
	key, err := h.Server.Blobs.UploadAvatar(ctx, userID, data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storing avatar failed"})
		return
	}

	if user.AvatarKey != "" && user.AvatarKey != key {
		if err := h.Server.Blobs.Remove(ctx, user.AvatarKey); err != nil {
			h.Server.WriteLog("WARN", "removing old avatar failed: "+err.Error(),
				core.LogWithContext(map[string]any{"user_id": userID.String()}))
		}
	}

	if err := h.Server.Repo.UpdateAvatar(userID, key); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "saving avatar failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": h.Server.Blobs.PublicURL(key)})
}

// GetAvatar streams a user's avatar image.
func (h *Handler) GetAvatar(c *gin.Context) {
	if h.Server.Blobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "avatar storage is not configured"})
		return
	}

	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.Server.Repo.GetUser(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if user.AvatarKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "user has no avatar"})
		return
	}

	data, err := h.Server.Blobs.Fetch(c.Request.Context(), user.AvatarKey)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "avatar not found"})
		return
	}

	contentType, _, err := blob.SniffImage(data)
	if err != nil {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, data)
}

// SearchUsers finds users by username, email, or name. The caller is never
// part of the results.
func (h *Handler) SearchUsers(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	users, err := h.Server.Repo.SearchUsers(query, userID, 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	results := make([]userDTO, 0, len(users))
	for _, user := range users {
		results = append(results, h.toUserDTO(user))
	}
	c.JSON(http.StatusOK, gin.H{"users": results})
}

// GetUser returns another user's public profile.
func (h *Handler) GetUser(c *gin.Context) {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.Server.Repo.GetUser(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, h.toUserDTO(user))
}

type statusDTO struct {
	IsOnline bool `json:"is_online"`
}

// SetStatus updates the caller's stored online flag. The realtime hub keeps
// this current for websocket sessions; clients without a socket can report
// through here.
func (h *Handler) SetStatus(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var status statusDTO
	if err := c.ShouldBindJSON(&status); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Server.Repo.SetOnline(userID, status.IsOnline); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "updating status failed"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// OnlineUsers returns the IDs of users currently online, preferring the live
// Redis presence set over the stored flags.
func (h *Handler) OnlineUsers(c *gin.Context) {
	if h.Server.Presence != nil {
		ids, err := h.Server.Presence.OnlineUserIDs(c.Request.Context())
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"users": ids})
			return
		}
	}

	ids, err := h.Server.Repo.GetOnlineUserIDs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing online users failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": ids})
}
