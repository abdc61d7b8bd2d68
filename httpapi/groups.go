package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/parley-chat/parley/domain"
)

type createGroupDTO struct {
	Name    string   `json:"name" binding:"required"`
	Members []string `json:"members" binding:"required,min=1"`
}

type addMemberDTO struct {
	UserID string `json:"user_id" binding:"required"`
}

type groupDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatorID string    `json:"creator_id"`
	Members   []string  `json:"members,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toGroupDTO(group *domain.Group) groupDTO {
	dto := groupDTO{
		ID:        group.ID.String(),
		Name:      group.Name,
		CreatorID: group.CreatorID.String(),
		CreatedAt: group.CreatedAt,
		UpdatedAt: group.UpdatedAt,
	}
	for _, member := range group.Members {
		dto.Members = append(dto.Members, member.UserID.String())
	}
	return dto
}

// CreateGroup creates a group chat. The caller becomes the creator and is
// always a member; a group needs at least one other member.
func (h *Handler) CreateGroup(c *gin.Context) {
	callerID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var in createGroupDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	members := []uuid.UUID{callerID}
	for _, raw := range in.Members {
		memberID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member id " + raw})
			return
		}
		if memberID != callerID {
			members = append(members, memberID)
		}
	}
	if len(members) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a group needs at least two members"})
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generating id failed"})
		return
	}

	now := time.Now().UTC()
	group := &domain.Group{
		ID:        id,
		Name:      in.Name,
		CreatorID: callerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Server.Repo.CreateGroup(group, members); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.Server.Repo.GetGroup(group.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "loading group failed"})
		return
	}
	c.JSON(http.StatusCreated, toGroupDTO(created))
}

// ListGroups returns the caller's groups, most recently active first.
func (h *Handler) ListGroups(c *gin.Context) {
	callerID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	groups, err := h.Server.Repo.GetGroupsForUser(callerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing groups failed"})
		return
	}

	results := make([]groupDTO, 0, len(groups))
	for _, group := range groups {
		results = append(results, toGroupDTO(group))
	}
	c.JSON(http.StatusOK, gin.H{"groups": results})
}

// GetGroup returns a group with its member list. Only members may see it.
func (h *Handler) GetGroup(c *gin.Context) {
	callerID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	groupID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	member, err := h.Server.Repo.IsMember(groupID, callerID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
		return
	}

	group, err := h.Server.Repo.GetGroup(groupID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	c.JSON(http.StatusOK, toGroupDTO(group))
}

// AddGroupMember adds a user to the group. Only the creator manages membership.
func (h *Handler) AddGroupMember(c *gin.Context) {
	callerID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	groupID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var in addMemberDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, err := uuid.Parse(in.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	group, err := h.Server.Repo.GetGroup(groupID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	if group.CreatorID != callerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the creator can add members"})
		return
	}

	if err := h.Server.Repo.AddMember(groupID, userID); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveGroupMember removes a user from the group. Only the creator manages
// membership, and the creator cannot be removed.
func (h *Handler) RemoveGroupMember(c *gin.Context) {
	callerID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	groupID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}

	group, err := h.Server.Repo.GetGroup(groupID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	if group.CreatorID != callerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the creator can remove members"})
		return
	}
	if userID == group.CreatorID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "the creator cannot be removed"})
		return
	}

	if err := h.Server.Repo.RemoveMember(groupID, userID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// LeaveGroup removes the caller from the group. The creator cannot leave
// their own group.
func (h *Handler) LeaveGroup(c *gin.Context) {
	callerID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	groupID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	group, err := h.Server.Repo.GetGroup(groupID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	if group.CreatorID == callerID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "the creator cannot leave the group"})
		return
	}

	if err := h.Server.Repo.RemoveMember(groupID, callerID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
