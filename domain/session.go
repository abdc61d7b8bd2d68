package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionStore is the interface for refresh token storage and live presence
// tracking in Parley. The presence package implements it on Redis.
type SessionStore interface {
	// SaveRefreshToken stores the refresh token for a user with the given TTL.
	SaveRefreshToken(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error

	// UserForRefreshToken resolves a refresh token to its user.
	// It returns an error for unknown, expired, or revoked tokens.
	UserForRefreshToken(ctx context.Context, token string) (uuid.UUID, error)

	// RevokeRefreshToken deletes a refresh token so it can no longer be redeemed.
	RevokeRefreshToken(ctx context.Context, token string) error

	// Heartbeat marks a user as online for the given TTL.
	Heartbeat(ctx context.Context, userID uuid.UUID, ttl time.Duration) error

	// SetOffline removes a user from the online set.
	SetOffline(ctx context.Context, userID uuid.UUID) error

	// OnlineUserIDs returns the IDs of all users currently marked online.
	OnlineUserIDs(ctx context.Context) ([]uuid.UUID, error)

	// Close releases the underlying connection.
	Close() error
}
