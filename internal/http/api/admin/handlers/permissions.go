package handlers

import (
	"net/http"

	"github.com/fundops/fundledger/internal/http/api/admin/permissions"
	"github.com/gin-gonic/gin"
)

// PermissionHandler exposes the permission catalogue.
type PermissionHandler struct{}

// NewPermissionHandler constructs a PermissionHandler.
func NewPermissionHandler() *PermissionHandler {
	return &PermissionHandler{}
}

// List returns every permission grouped under its module.
func (h *PermissionHandler) List(c *gin.Context) {
	modules := make([]string, 0)
	grouped := make(map[string][]gin.H)
	for _, def := range permissions.Definitions() {
		if _, ok := grouped[def.Module]; !ok {
			modules = append(modules, def.Module)
		}
		grouped[def.Module] = append(grouped[def.Module], gin.H{
			"key":    def.Key,
			"method": def.Method,
			"path":   def.Path,
			"label":  def.Label,
		})
	}
	out := make([]gin.H, 0, len(modules))
	for _, module := range modules {
		out = append(out, gin.H{"module": module, "permissions": grouped[module]})
	}
	c.JSON(http.StatusOK, gin.H{"modules": out})
}
