package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/parley-chat/parley/domain"
)

var _ domain.UserRepository = (*Repository)(nil)

// dbUser represents a user account as stored in the database.
type dbUser struct {
	ID           uuid.UUID `db:"id"`            // Unique identifier for the user.
	Username     string    `db:"username"`      // Unique login name.
	Email        string    `db:"email"`         // Unique email address.
	FirstName    string    `db:"first_name"`    // Given name.
	LastName     string    `db:"last_name"`     // Family name.
	PasswordHash []byte    `db:"password_hash"` // bcrypt hash of the password.
	AvatarKey    string    `db:"avatar_key"`    // Object storage key of the avatar image.
	IsOnline     bool      `db:"is_online"`     // Whether the user currently has an active session.
	LastSeen     time.Time `db:"last_seen"`     // Last time the user was seen online.
	CreatedAt    time.Time `db:"created_at"`    // Account creation time.
}

// toDomainUser converts a dbUser to a domain.User.
func toDomainUser(dbUser *dbUser) *domain.User {
	return &domain.User{
		ID:           dbUser.ID,
		Username:     dbUser.Username,
		Email:        dbUser.Email,
		FirstName:    dbUser.FirstName,
		LastName:     dbUser.LastName,
		PasswordHash: dbUser.PasswordHash,
		AvatarKey:    dbUser.AvatarKey,
		IsOnline:     dbUser.IsOnline,
		LastSeen:     dbUser.LastSeen,
		CreatedAt:    dbUser.CreatedAt,
	}
}

// fromDomainUser converts a domain.User to a dbUser.
func fromDomainUser(user *domain.User) *dbUser {
	return &dbUser{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		PasswordHash: user.PasswordHash,
		AvatarKey:    user.AvatarKey,
		IsOnline:     user.IsOnline,
		LastSeen:     user.LastSeen,
		CreatedAt:    user.CreatedAt,
	}
}

// CreateUser implements the domain.UserRepository interface.
// The UNIQUE constraints on username and email surface as errors here.
func (repo *Repository) CreateUser(user *domain.User) error {
	dbUser := fromDomainUser(user)
	query := `INSERT INTO users (id, username, email, first_name, last_name, password_hash, avatar_key, is_online, last_seen, created_at)
	          VALUES (:id, :username, :email, :first_name, :last_name, :password_hash, :avatar_key, :is_online, :last_seen, :created_at)`

	_, err := repo.dbConn.NamedExec(query, dbUser)
	if err != nil {
		return fmt.Errorf("inserting user %s: %w", user.Username, err)
	}

	return nil
}

// GetUser implements the domain.UserRepository interface.
func (repo *Repository) GetUser(id uuid.UUID) (*domain.User, error) {
	var dbUser dbUser
	query := `SELECT * FROM users WHERE id = ?`

	err := repo.dbConn.Get(&dbUser, query, id)
	if err != nil {
		return nil, fmt.Errorf("fetching user %s: %w", id, err)
	}

	return toDomainUser(&dbUser), nil
}

// GetUserByUsername implements the domain.UserRepository interface.
func (repo *Repository) GetUserByUsername(username string) (*domain.User, error) {
	var dbUser dbUser
	query := `SELECT * FROM users WHERE username = ?`

	err := repo.dbConn.Get(&dbUser, query, username)
	if err != nil {
		return nil, fmt.Errorf("fetching user %s: %w", username, err)
	}

	return toDomainUser(&dbUser), nil
}

// SearchUsers implements the domain.UserRepository interface.
// The query string is matched case-insensitively against username, email,
// first name, and last name.
func (repo *Repository) SearchUsers(query string, exclude uuid.UUID, limit int) ([]*domain.User, error) {
	var dbUsers []*dbUser
	pattern := "%" + query + "%"
	stmt := `SELECT * FROM users
	         WHERE (username LIKE ? OR email LIKE ? OR first_name LIKE ? OR last_name LIKE ?)
	           AND id != ?
	         ORDER BY username ASC
	         LIMIT ?`

	err := repo.dbConn.Select(&dbUsers, stmt, pattern, pattern, pattern, pattern, exclude, limit)
	if err != nil {
		return nil, fmt.Errorf("searching users for %q: %w", query, err)
	}

	users := make([]*domain.User, len(dbUsers))
	for i, dbUser := range dbUsers {
		users[i] = toDomainUser(dbUser)
	}

	return users, nil
}

// UpdateUser implements the domain.UserRepository interface.
// Only the mutable profile fields are written.
func (repo *Repository) UpdateUser(user *domain.User) error {
	query := `UPDATE users SET email = ?, first_name = ?, last_name = ? WHERE id = ?`

	result, err := repo.dbConn.Exec(query, user.Email, user.FirstName, user.LastName, user.ID)
	if err != nil {
		return fmt.Errorf("updating user %s: %w", user.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows for user %s: %w", user.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("updating user %s: no such user", user.ID)
	}

	return nil
}

// UpdateAvatar implements the domain.UserRepository interface.
func (repo *Repository) UpdateAvatar(id uuid.UUID, objectKey string) error {
	query := `UPDATE users SET avatar_key = ? WHERE id = ?`

	result, err := repo.dbConn.Exec(query, objectKey, id)
	if err != nil {
		return fmt.Errorf("updating avatar for user %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows for user %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("updating avatar for user %s: no such user", id)
	}

	return nil
}

// SetOnline implements the domain.UserRepository interface.
// Going offline also records the moment as the user's last seen time.
func (repo *Repository) SetOnline(id uuid.UUID, online bool) error {
	var err error
	if online {
		_, err = repo.dbConn.Exec(`UPDATE users SET is_online = TRUE WHERE id = ?`, id)
	} else {
		_, err = repo.dbConn.Exec(`UPDATE users SET is_online = FALSE, last_seen = ? WHERE id = ?`, time.Now().UTC(), id)
	}
	if err != nil {
		return fmt.Errorf("setting online state for user %s: %w", id, err)
	}

	return nil
}

// GetOnlineUserIDs implements the domain.UserRepository interface.
func (repo *Repository) GetOnlineUserIDs() ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `SELECT id FROM users WHERE is_online = TRUE`

	err := repo.dbConn.Select(&ids, query)
	if err != nil {
		return nil, fmt.Errorf("fetching online users: %w", err)
	}

	return ids, nil
}
