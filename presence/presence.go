// Package presence tracks refresh tokens and online users in Redis.
// Refresh tokens are opaque keys with a TTL so revocation is a delete and
// expiry needs no sweeper; presence uses one TTL key per user so a crashed
// client drops off the online list on its own.
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	refreshPrefix = "refresh:"
	onlinePrefix  = "online:"
)

// Client wraps the Redis connection used for sessions and presence.
type Client struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, addr, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("connecting to redis : %w", err)
	}

	return &Client{client: client}, nil
}

// SaveRefreshToken stores the refresh token for a user with the given TTL.
func (c *Client) SaveRefreshToken(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	err := c.client.Set(ctx, refreshPrefix+token, userID.String(), ttl).Err()
	if err != nil {
		return fmt.Errorf("saving refresh token : %w", err)
	}
	return nil
}

// UserForRefreshToken resolves a refresh token to its user.
// It returns an error for unknown, expired, or revoked tokens.
func (c *Client) UserForRefreshToken(ctx context.Context, token string) (uuid.UUID, error) {
	value, err := c.client.Get(ctx, refreshPrefix+token).Result()
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolving refresh token : %w", err)
	}

	userID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parsing user ID from session : %w", err)
	}

	return userID, nil
}

// RevokeRefreshToken deletes the refresh token. Revoking an unknown token is not an error.
func (c *Client) RevokeRefreshToken(ctx context.Context, token string) error {
	err := c.client.Del(ctx, refreshPrefix+token).Err()
	if err != nil {
		return fmt.Errorf("revoking refresh token : %w", err)
	}
	return nil
}

// Heartbeat marks the user online for the duration of the TTL.
// Callers refresh it periodically while a connection is alive.
func (c *Client) Heartbeat(ctx context.Context, userID uuid.UUID, ttl time.Duration) error {
	err := c.client.Set(ctx, onlinePrefix+userID.String(), "1", ttl).Err()
	if err != nil {
		return fmt.Errorf("recording heartbeat : %w", err)
	}
	return nil
}

// SetOffline removes the user's presence key immediately.
func (c *Client) SetOffline(ctx context.Context, userID uuid.UUID) error {
	err := c.client.Del(ctx, onlinePrefix+userID.String()).Err()
	if err != nil {
		return fmt.Errorf("clearing presence : %w", err)
	}
	return nil
}

// OnlineUserIDs returns the IDs of users with a live presence key.
func (c *Client) OnlineUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	iter := c.client.Scan(ctx, 0, onlinePrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		id, err := uuid.Parse(iter.Val()[len(onlinePrefix):])
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning presence keys : %w", err)
	}
	return ids, nil
}

// Close releases the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
