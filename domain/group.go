package domain

import (
	"time"

	"github.com/google/uuid"
)

// GroupRepository is the interface that holds all the group related repository methods in Parley
type GroupRepository interface {
	// CreateGroup inserts the group and its initial member rows in a single transaction.
	// The creator must be part of members; member rows are deduplicated by user ID.
	CreateGroup(group *Group, members []uuid.UUID) error

	// GetGroup will return the group with its members for the given ID
	// It will return an error if the group doesn't exist
	GetGroup(id uuid.UUID) (*Group, error)

	// GetGroupsForUser returns all groups the given user is a member of,
	// most recently updated first.
	GetGroupsForUser(userID uuid.UUID) ([]*Group, error)

	// AddMember inserts a membership row.
	// It will return an error if the user is already a member.
	AddMember(groupID, userID uuid.UUID) error

	// RemoveMember deletes a membership row.
	// It will return an error if the user is not a member.
	RemoveMember(groupID, userID uuid.UUID) error

	// IsMember reports whether the user is a member of the group.
	IsMember(groupID, userID uuid.UUID) (bool, error)
}

// Group represents a named group chat.
type Group struct {
	ID        uuid.UUID      // Unique identifier for the group
	Name      string         // Display name
	CreatorID uuid.UUID      // User who created the group and manages membership
	Members   []*GroupMember // Membership rows, populated by GetGroup
	CreatedAt time.Time      // Group creation time
	UpdatedAt time.Time      // Bumped whenever the group or its messages change
}

// GroupMember is the membership row linking a user to a group.
type GroupMember struct {
	GroupID  uuid.UUID // Group the membership belongs to
	UserID   uuid.UUID // Member user
	JoinedAt time.Time // When the user joined
}
