package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/parley-chat/parley/auth"
	"github.com/parley-chat/parley/domain"
)

type signupDTO struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshDTO struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type tokenResponseDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (h *Handler) accessTTL() time.Duration {
	return time.Duration(h.Server.Config.AccessTTL) * time.Minute
}

func (h *Handler) refreshTTL() time.Duration {
	return time.Duration(h.Server.Config.RefreshTTL) * time.Hour
}

// issueTokens mints an access/refresh token pair for the user and records the
// refresh token in Redis.
func (h *Handler) issueTokens(c *gin.Context, userID uuid.UUID, username string) (tokenResponseDTO, error) {
	access, err := auth.GenerateToken(userID, username, h.Server.Config.JWTSecret, h.accessTTL())
	if err != nil {
		return tokenResponseDTO{}, err
	}

	refresh, err := auth.NewRefreshToken()
	if err != nil {
		return tokenResponseDTO{}, err
	}

	err = h.Server.Presence.SaveRefreshToken(c.Request.Context(), refresh, userID, h.refreshTTL())
	if err != nil {
		return tokenResponseDTO{}, err
	}

	return tokenResponseDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(h.accessTTL().Seconds()),
	}, nil
}

// Signup registers a new account and signs the user in.
func (h *Handler) Signup(c *gin.Context) {
	var in signupDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hashing password failed"})
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generating id failed"})
		return
	}

	user := &domain.User{
		ID:           id,
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.Server.Repo.CreateUser(user); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	tokens, err := h.issueTokens(c, user.ID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issuing tokens failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": h.toUserDTO(user), "tokens": tokens})
}

// Login authenticates by username and password and returns a token pair.
func (h *Handler) Login(c *gin.Context) {
	var in loginDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Server.Repo.GetUserByUsername(in.Username)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "bad credentials"})
		return
	}
	if !auth.CheckPassword(user.PasswordHash, in.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "bad credentials"})
		return
	}

	tokens, err := h.issueTokens(c, user.ID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issuing tokens failed"})
		return
	}

	user.IsOnline = true
	if err := h.Server.Repo.SetOnline(user.ID, true); err != nil {
		h.Server.WriteLog("WARN", "marking user online failed: "+err.Error())
	}
	if err := h.Server.Presence.Heartbeat(c.Request.Context(), user.ID, h.accessTTL()); err != nil {
		h.Server.WriteLog("WARN", "recording presence failed: "+err.Error())
	}

	c.JSON(http.StatusOK, gin.H{"user": h.toUserDTO(user), "tokens": tokens})
}

// Refresh rotates a refresh token: the presented token is revoked and a fresh
// pair is issued, so a stolen token can be used at most once.
func (h *Handler) Refresh(c *gin.Context) {
	var in refreshDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID, err := h.Server.Presence.UserForRefreshToken(ctx, in.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	user, err := h.Server.Repo.GetUser(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	if err := h.Server.Presence.RevokeRefreshToken(ctx, in.RefreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rotating token failed"})
		return
	}

	tokens, err := h.issueTokens(c, user.ID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issuing tokens failed"})
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// Logout revokes the presented refresh token and marks the caller offline.
// The access token simply runs out its short lifetime.
func (h *Handler) Logout(c *gin.Context) {
	callerID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var in refreshDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := h.Server.Presence.RevokeRefreshToken(ctx, in.RefreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "revoking token failed"})
		return
	}

	if err := h.Server.Repo.SetOnline(callerID, false); err != nil {
		h.Server.WriteLog("WARN", "marking user offline failed: "+err.Error())
	}
	if err := h.Server.Presence.SetOffline(ctx, callerID); err != nil {
		h.Server.WriteLog("WARN", "clearing presence failed: "+err.Error())
	}

	c.Status(http.StatusNoContent)
}
