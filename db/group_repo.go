package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/parley-chat/parley/domain"
)

var _ domain.GroupRepository = (*Repository)(nil)

// dbGroup represents a group as stored in the database.
type dbGroup struct {
	ID        uuid.UUID `db:"id"`         // Unique identifier for the group.
	Name      string    `db:"name"`       // Display name.
	CreatorID uuid.UUID `db:"creator_id"` // User who created the group.
	CreatedAt time.Time `db:"created_at"` // Group creation time.
	UpdatedAt time.Time `db:"updated_at"` // Bumped on group or message changes.
}

// dbGroupMember represents a membership row as stored in the database.
type dbGroupMember struct {
	GroupID  uuid.UUID `db:"group_id"`
	UserID   uuid.UUID `db:"user_id"`
	JoinedAt time.Time `db:"joined_at"`
}

func toDomainGroup(dbGroup *dbGroup, members []*dbGroupMember) *domain.Group {
	group := &domain.Group{
		ID:        dbGroup.ID,
		Name:      dbGroup.Name,
		CreatorID: dbGroup.CreatorID,
		CreatedAt: dbGroup.CreatedAt,
		UpdatedAt: dbGroup.UpdatedAt,
		Members:   make([]*domain.GroupMember, len(members)),
	}

	for i, member := range members {
		group.Members[i] = &domain.GroupMember{
			GroupID:  member.GroupID,
			UserID:   member.UserID,
			JoinedAt: member.JoinedAt,
		}
	}

	return group
}

// CreateGroup implements the domain.GroupRepository interface.
// The group row and all member rows are written in one transaction so a
// failed membership insert never leaves a memberless group behind.
func (repo *Repository) CreateGroup(group *domain.Group, members []uuid.UUID) error {
	tx, err := repo.dbConn.Beginx()
	if err != nil {
		return fmt.Errorf("starting transaction for group %s: %w", group.Name, err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(`INSERT INTO groups (id, name, creator_id, created_at, updated_at)
	                       VALUES (:id, :name, :creator_id, :created_at, :updated_at)`,
		&dbGroup{
			ID:        group.ID,
			Name:      group.Name,
			CreatorID: group.CreatorID,
			CreatedAt: group.CreatedAt,
			UpdatedAt: group.UpdatedAt,
		})
	if err != nil {
		return fmt.Errorf("inserting group %s: %w", group.Name, err)
	}

	seen := make(map[uuid.UUID]bool)
	for _, userID := range members {
		if seen[userID] {
			continue
		}
		seen[userID] = true

		_, err = tx.Exec(`INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)`,
			group.ID, userID, group.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting member %s into group %s: %w", userID, group.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing group %s: %w", group.Name, err)
	}

	return nil
}

// GetGroup implements the domain.GroupRepository interface.
// The returned group carries its membership rows ordered by join time.
func (repo *Repository) GetGroup(id uuid.UUID) (*domain.Group, error) {
	var dbGroup dbGroup
	err := repo.dbConn.Get(&dbGroup, `SELECT * FROM groups WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("fetching group %s: %w", id, err)
	}

	var members []*dbGroupMember
	err = repo.dbConn.Select(&members, `SELECT * FROM group_members WHERE group_id = ? ORDER BY joined_at ASC, user_id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("fetching members of group %s: %w", id, err)
	}

	return toDomainGroup(&dbGroup, members), nil
}

// GetGroupsForUser implements the domain.GroupRepository interface.
func (repo *Repository) GetGroupsForUser(userID uuid.UUID) ([]*domain.Group, error) {
	var dbGroups []*dbGroup
	query := `SELECT g.* FROM groups g
	          JOIN group_members gm ON gm.group_id = g.id
	          WHERE gm.user_id = ?
	          ORDER BY g.updated_at DESC`

	err := repo.dbConn.Select(&dbGroups, query, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching groups for user %s: %w", userID, err)
	}

	groups := make([]*domain.Group, len(dbGroups))
	for i, g := range dbGroups {
		group, err := repo.GetGroup(g.ID)
		if err != nil {
			return nil, err
		}
		groups[i] = group
	}

	return groups, nil
}

// AddMember implements the domain.GroupRepository interface.
// The composite primary key rejects duplicate memberships.
func (repo *Repository) AddMember(groupID, userID uuid.UUID) error {
	_, err := repo.dbConn.Exec(`INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)`,
		groupID, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("adding member %s to group %s: %w", userID, groupID, err)
	}

	return nil
}

// RemoveMember implements the domain.GroupRepository interface.
func (repo *Repository) RemoveMember(groupID, userID uuid.UUID) error {
	result, err := repo.dbConn.Exec(`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID)
	if err != nil {
		return fmt.Errorf("removing member %s from group %s: %w", userID, groupID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows for group %s: %w", groupID, err)
	}
	if affected == 0 {
		return fmt.Errorf("removing member %s from group %s: not a member", userID, groupID)
	}

	return nil
}

// IsMember implements the domain.GroupRepository interface.
func (repo *Repository) IsMember(groupID, userID uuid.UUID) (bool, error) {
	var count int
	err := repo.dbConn.Get(&count, `SELECT COUNT(*) FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID)
	if err != nil {
		return false, fmt.Errorf("checking membership of %s in group %s: %w", userID, groupID, err)
	}

	return count > 0, nil
}
