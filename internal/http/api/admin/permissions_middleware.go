package admin

import (
	"net/http"

	"github.com/fundops/fundledger/internal/http/api/admin/permissions"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// adminPermissionMiddleware allows a route when the admin is a super admin or holds its key.
// Routes missing from the catalogue are denied to everyone but super admins.
func adminPermissionMiddleware() gin.HandlerFunc {
	permissionMap := permissions.DefinitionMap()

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		adminIsSuperAdmin, okSuper := readAdminIsSuperAdminFromContext(c)
		adminPermissions, okPermissions := readAdminPermissionsFromContext(c)
		if !okSuper || !okPermissions {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
			return
		}
		if adminIsSuperAdmin {
			c.Next()
			return
		}

		path := c.FullPath()
		key := permissions.Key(c.Request.Method, path)
		if _, ok := permissionMap[key]; !ok || path == "" {
			log.WithField("route", key).Warn("admin route missing from permission catalogue")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}
		if !permissions.HasPermission(adminPermissions, key) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}
		c.Next()
	}
}

// readAdminPermissionsFromContext extracts permissions from the gin context.
func readAdminPermissionsFromContext(c *gin.Context) ([]string, bool) {
	value, ok := c.Get("adminPermissions")
	if !ok {
		return nil, false
	}
	permissionsList, ok := value.([]string)
	return permissionsList, ok
}

// readAdminIsSuperAdminFromContext extracts the super admin flag from context.
func readAdminIsSuperAdminFromContext(c *gin.Context) (bool, bool) {
	value, ok := c.Get("adminIsSuperAdmin")
	if !ok {
		return false, false
	}
	flag, ok := value.(bool)
	return flag, ok
}
