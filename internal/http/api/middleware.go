package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/squadup/status-api/internal/auth"
	"github.com/squadup/status-api/internal/http/api/handlers"

	log "github.com/sirupsen/logrus"
)

// AuthMiddleware validates the bearer credential and attaches the resolved
// identity to the request context. The credential carries its owner's
// username before the first ':', so lookup needs no token index.
func AuthMiddleware(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}
		credential := parts[1]
		username, _, _ := strings.Cut(credential, ":")

		identity, errAuth := authService.TryAuthenticate(c.Request.Context(), username, credential)
		if errAuth != nil {
			log.WithError(errAuth).Error("token verification failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
			return
		}
		if identity == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(handlers.IdentityContextKey, identity)
		c.Next()
	}
}

// MembershipMiddleware rejects callers that do not hold a membership entry
// for the group named in the route path. It runs after AuthMiddleware and
// performs no I/O.
func MembershipMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := handlers.CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user not authenticated"})
			return
		}
		groupID := strings.TrimSpace(c.Param("groupId"))
		if groupID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "group id not provided"})
			return
		}
		if !identity.IsMemberOf(groupID) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
			return
		}
		c.Next()
	}
}
