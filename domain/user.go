package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserRepository is the interface that holds all the user related repository methods in Parley
type UserRepository interface {
	// CreateUser will insert the User in the DB
	// It will return an error if the username or email is already taken
	CreateUser(user *User) error

	// GetUser will return the user for the given ID
	// It will return an error if the user doesn't exist
	GetUser(id uuid.UUID) (*User, error)

	// GetUserByUsername will return the user for the given username
	// It will return an error if the user doesn't exist
	GetUserByUsername(username string) (*User, error)

	// SearchUsers returns up to limit users whose username, email, first name, or last name
	// contains the query string. The user identified by exclude is never included.
	SearchUsers(query string, exclude uuid.UUID, limit int) ([]*User, error)

	// UpdateUser updates the mutable profile fields (email, first name, last name) of a user.
	UpdateUser(user *User) error

	// UpdateAvatar updates the stored avatar object key for a user.
	UpdateAvatar(id uuid.UUID, objectKey string) error

	// SetOnline updates the online flag for a user. Going offline also
	// updates the last seen timestamp.
	SetOnline(id uuid.UUID, online bool) error

	// GetOnlineUserIDs returns the IDs of all users currently flagged as online.
	GetOnlineUserIDs() ([]uuid.UUID, error)
}

// User represents a registered account, including the presence fields
// that back the online indicator in clients.
type User struct {
	ID           uuid.UUID // Unique identifier for the user
	Username     string    // Unique login name
	Email        string    // Unique email address
	FirstName    string    // Given name
	LastName     string    // Family name
	PasswordHash []byte    // bcrypt hash of the password, never serialized
	AvatarKey    string    // Object storage key of the avatar image, empty when unset
	IsOnline     bool      // Whether the user currently has an active session
	LastSeen     time.Time // Last time the user was seen online
	CreatedAt    time.Time // Account creation time
}
