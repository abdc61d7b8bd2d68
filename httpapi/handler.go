// Package httpapi exposes the Parley chat service over a REST API built with
// gin. Authentication uses short-lived bearer access tokens plus opaque
// refresh tokens stored in Redis. The websocket endpoint lives here too, so
// one router serves the whole surface.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/parley-chat/parley"
	"github.com/parley-chat/parley/domain"
	"github.com/parley-chat/parley/realtime"
)

// Handler carries the dependencies shared by every route.
type Handler struct {
	Server *parley.Server
	Hub    *realtime.Hub
}

// NewHandler creates the route handler around a configured server and hub.
func NewHandler(server *parley.Server, hub *realtime.Hub) *Handler {
	return &Handler{Server: server, Hub: hub}
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(h.requestLogger())

	router.GET("/health", h.Health)
	router.GET("/ws", h.ServeWS)

	api := router.Group("/api")
	{
		api.POST("/auth/signup", h.Signup)
		api.POST("/auth/login", h.Login)
		api.POST("/auth/refresh", h.Refresh)

		authed := api.Group("")
		authed.Use(h.WithAuthCheck())
		{
			authed.POST("/auth/logout", h.Logout)
			authed.GET("/me", h.GetMe)
			authed.PUT("/me", h.UpdateMe)
			authed.POST("/me/avatar", h.UploadAvatar)
			authed.POST("/me/status", h.SetStatus)

			authed.GET("/users", h.SearchUsers)
			authed.GET("/users/:id", h.GetUser)
			authed.GET("/users/:id/avatar", h.GetAvatar)
			authed.GET("/users/online", h.OnlineUsers)

			authed.POST("/groups", h.CreateGroup)
			authed.GET("/groups", h.ListGroups)
			authed.GET("/groups/:id", h.GetGroup)
			authed.POST("/groups/:id/members", h.AddGroupMember)
			authed.DELETE("/groups/:id/members/:user_id", h.RemoveGroupMember)
			authed.POST("/groups/:id/leave", h.LeaveGroup)
			authed.GET("/groups/:id/messages", h.GetGroupMessages)
			authed.POST("/groups/:id/messages", h.SendGroupMessage)
			authed.GET("/groups/:id/export", h.ExportGroup)

			authed.GET("/extensions", h.ListExtensions)
			authed.POST("/extensions", h.InstallExtension)
			authed.GET("/extensions/updates", h.CheckExtensionUpdates)
			authed.POST("/extensions/:name/toggle", h.ToggleExtension)
			authed.POST("/extensions/:name/update", h.UpdateExtension)
			authed.DELETE("/extensions/:name", h.RemoveExtension)

			authed.GET("/conversations", h.ListConversations)
			authed.GET("/conversations/:user_id", h.GetConversation)
			authed.POST("/conversations/:user_id", h.SendDirectMessage)
			authed.POST("/conversations/:user_id/read", h.MarkConversationRead)
			authed.GET("/conversations/:user_id/export", h.ExportConversation)
		}
	}

	return router
}

// Health reports service liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": parley.Version})
}

// requestLogger logs each request through the server's logrus logger.
func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.Server.Logger.WithFields(map[string]interface{}{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("request")
	}
}

// userDTO is the wire shape of a user. Password hashes and raw storage keys
// never leave the server.
type userDTO struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	IsOnline  bool      `json:"is_online"`
	LastSeen  time.Time `json:"last_seen"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) toUserDTO(user *domain.User) userDTO {
	dto := userDTO{
		ID:        user.ID.String(),
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		IsOnline:  user.IsOnline,
		LastSeen:  user.LastSeen,
		CreatedAt: user.CreatedAt,
	}
	if user.AvatarKey != "" && h.Server.Blobs != nil {
		dto.AvatarURL = h.Server.Blobs.PublicURL(user.AvatarKey)
	}
	return dto
}
