package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/parley-chat/parley/auth"
)

const (
	bearerPrefix   = "Bearer "
	userContextKey = "user_id"
)

// WithAuthCheck rejects requests without a valid bearer access token and
// stores the caller's user ID in the request context.
func (h *Handler) WithAuthCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, err := auth.ParseToken(header[len(bearerPrefix):], h.Server.Config.JWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(userContextKey, claims.UserID)
		c.Next()
	}
}

// currentUserID returns the authenticated caller's ID set by WithAuthCheck.
func currentUserID(c *gin.Context) (uuid.UUID, error) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return uuid.Nil, errors.New("no user in context")
	}
	userID, ok := value.(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("invalid user in context")
	}
	return userID, nil
}

// pathUUID parses a UUID path parameter, writing a 400 on failure.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
