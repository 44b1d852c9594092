// Package httpkit provides HTTP utilities including tenant scoping helpers.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TenantID extracts the organization ID set by AuthRequired.
// Returns false when the token carried no org claim.
func TenantID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(ContextTenantIDKey)
	if !ok {
		return uuid.Nil, false
	}
	tenantID, ok := value.(uuid.UUID)
	return tenantID, ok
}

// MustTenantID extracts the organization ID or aborts with 403.
// Handlers for tenant-scoped resources call this first.
func MustTenantID(c *gin.Context) (uuid.UUID, bool) {
	tenantID, ok := TenantID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing organization scope"})
		return uuid.Nil, false
	}
	return tenantID, true
}

// UserID extracts the authenticated user ID set by AuthRequired.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(ContextUserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}
