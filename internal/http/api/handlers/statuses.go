package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/squadup/status-api/internal/models"
	"github.com/squadup/status-api/internal/statuses"

	log "github.com/sirupsen/logrus"
)

// StatusHandler manages per-group availability status endpoints.
type StatusHandler struct {
	statusService *statuses.Service
}

// NewStatusHandler constructs a StatusHandler.
func NewStatusHandler(statusService *statuses.Service) *StatusHandler {
	return &StatusHandler{statusService: statusService}
}

// updateStatusRequest defines the request body for status updates.
type updateStatusRequest struct {
	State   string   `json:"state"`
	GameIDs []string `json:"gameIds"`
	Message *string  `json:"message"`
}

// List returns the statuses published by the group's members.
func (h *StatusHandler) List(c *gin.Context) {
	groupID := strings.TrimSpace(c.Param("groupId"))

	rows, errList := h.statusService.GroupStatuses(c.Request.Context(), groupID)
	if errList != nil {
		log.WithError(errList).Error("list statuses failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list statuses failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"user": gin.H{
				"id":       row.UserID,
				"username": row.Username,
			},
			"state":      row.Status.State,
			"gameIds":    row.Status.GameIDs,
			"message":    row.Status.Message,
			"updated_at": row.Status.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"statuses": out})
}

// UpdateMine overwrites the caller's status for the group.
func (h *StatusHandler) UpdateMine(c *gin.Context) {
	identity, ok := CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	groupID := strings.TrimSpace(c.Param("groupId"))

	var body updateStatusRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !models.ValidState(body.State) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state"})
		return
	}

	status, errUpdate := h.statusService.UpdateUserStatus(
		c.Request.Context(), identity.ID, groupID, body.State, body.GameIDs, body.Message)
	if errUpdate != nil {
		if errors.Is(errUpdate, statuses.ErrNotMember) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
			return
		}
		log.WithError(errUpdate).Error("update status failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update status failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":       identity.ID,
			"username": identity.Username,
		},
		"state":      status.State,
		"gameIds":    status.GameIDs,
		"message":    status.Message,
		"updated_at": status.UpdatedAt,
	})
}
