package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/squadup/status-api/internal/groups"
	"github.com/squadup/status-api/internal/models"

	log "github.com/sirupsen/logrus"
)

// GroupHandler manages group endpoints.
type GroupHandler struct {
	groupService *groups.Service
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(groupService *groups.Service) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// createGroupRequest defines the request body for group creation.
type createGroupRequest struct {
	Name    string `json:"name"`
	JoinKey string `json:"joinKey"`
}

// joinKeyRequest defines the request body for join and key rotation.
type joinKeyRequest struct {
	JoinKey string `json:"joinKey"`
}

// validJoinKey reports whether a join key satisfies the length bounds.
func validJoinKey(key string) bool {
	return len(key) >= 8 && len(key) <= 200
}

// groupResponse renders a group without its join key hash.
func groupResponse(group *models.Group) gin.H {
	return gin.H{
		"id":         group.ID,
		"name":       group.Name,
		"created_at": group.CreatedAt,
		"updated_at": group.UpdatedAt,
	}
}

// Create creates a new group.
func (h *GroupHandler) Create(c *gin.Context) {
	var body createGroupRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if len(name) < 2 || len(name) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name must be 2-100 characters"})
		return
	}
	if !validJoinKey(body.JoinKey) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "join key must be 8-200 characters"})
		return
	}

	group, errCreate := h.groupService.CreateGroup(c.Request.Context(), name, body.JoinKey)
	if errCreate != nil {
		log.WithError(errCreate).Error("create group failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create group failed"})
		return
	}
	c.JSON(http.StatusCreated, groupResponse(group))
}

// List returns all groups, optionally filtered by name.
func (h *GroupHandler) List(c *gin.Context) {
	nameFilter := strings.TrimSpace(c.Query("name"))

	rows, errList := h.groupService.ListGroups(c.Request.Context(), nameFilter)
	if errList != nil {
		log.WithError(errList).Error("list groups failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list groups failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, groupResponse(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"groups": out})
}

// MyGroups returns the groups the caller is a member of.
func (h *GroupHandler) MyGroups(c *gin.Context) {
	identity, ok := CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	rows, errFind := h.groupService.UserGroups(c.Request.Context(), identity.Memberships)
	if errFind != nil {
		log.WithError(errFind).Error("list user groups failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list groups failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, groupResponse(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"groups": out})
}

// Join verifies the join key and adds the caller to the group.
func (h *GroupHandler) Join(c *gin.Context) {
	identity, ok := CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	groupID := strings.TrimSpace(c.Param("groupId"))
	if groupID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing group id"})
		return
	}
	var body joinKeyRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !validJoinKey(body.JoinKey) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "join key must be 8-200 characters"})
		return
	}

	group, errJoin := h.groupService.JoinGroup(c.Request.Context(), groupID, body.JoinKey, identity.ID)
	if errJoin != nil {
		switch {
		case errors.Is(errJoin, groups.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		case errors.Is(errJoin, groups.ErrInvalidJoinKey):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid join key"})
		default:
			log.WithError(errJoin).Error("join group failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "join group failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": group.ID, "name": group.Name})
}

// RotateKey overwrites the group's join key.
func (h *GroupHandler) RotateKey(c *gin.Context) {
	groupID := strings.TrimSpace(c.Param("groupId"))
	var body joinKeyRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !validJoinKey(body.JoinKey) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "join key must be 8-200 characters"})
		return
	}

	group, errRotate := h.groupService.RotateJoinKey(c.Request.Context(), groupID, body.JoinKey)
	if errRotate != nil {
		if errors.Is(errRotate, groups.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return
		}
		log.WithError(errRotate).Error("rotate join key failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rotate join key failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": group.ID, "name": group.Name})
}
