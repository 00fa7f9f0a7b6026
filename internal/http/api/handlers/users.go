package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/squadup/status-api/internal/groups"

	log "github.com/sirupsen/logrus"
)

// UserHandler manages group member endpoints.
type UserHandler struct {
	groupService *groups.Service
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(groupService *groups.Service) *UserHandler {
	return &UserHandler{groupService: groupService}
}

// GroupUsers returns the members of a group with their per-group data.
func (h *UserHandler) GroupUsers(c *gin.Context) {
	groupID := strings.TrimSpace(c.Param("groupId"))

	members, errFind := h.groupService.GroupMembers(c.Request.Context(), groupID)
	if errFind != nil {
		log.WithError(errFind).Error("list group users failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list group users failed"})
		return
	}

	out := make([]gin.H, 0, len(members))
	for _, member := range members {
		out = append(out, gin.H{
			"id":           member.ID,
			"username":     member.Username,
			"last_seen_at": member.LastSeenAt,
			"data":         member.Data,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}
