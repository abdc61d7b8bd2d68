package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parley-chat/parley/auth"
)

// ServeWS upgrades an authenticated websocket connection. Browsers cannot set
// headers on websocket requests, so the access token travels as a query
// parameter instead.
func (h *Handler) ServeWS(c *gin.Context) {
	if h.Hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "realtime is not configured"})
		return
	}

	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token is required"})
		return
	}

	claims, err := auth.ParseToken(token, h.Server.Config.JWTSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	h.Hub.HandleWS(c.Writer, c.Request, claims.UserID)
}
