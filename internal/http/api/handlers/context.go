package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/squadup/status-api/internal/auth"
)

// IdentityContextKey is the gin context key the auth middleware stores the
// resolved identity under.
const IdentityContextKey = "identity"

// CurrentIdentity reads the identity the auth middleware attached to the
// request context.
func CurrentIdentity(c *gin.Context) (*auth.Identity, bool) {
	value, exists := c.Get(IdentityContextKey)
	if !exists {
		return nil, false
	}
	identity, ok := value.(*auth.Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}
