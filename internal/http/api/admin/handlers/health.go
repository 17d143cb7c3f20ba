package handlers

import (
	"context"
	"net/http"
	"time"

	dbutil "github.com/fundops/fundledger/internal/db"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// healthPingTimeout bounds the database ping.
const healthPingTimeout = 2 * time.Second

// HealthHandler serves the liveness probe.
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Healthz pings the record store.
func (h *HealthHandler) Healthz(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
	defer cancel()
	if errPing := sqlDB.PingContext(ctx); errPing != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "database": dbutil.DialectName(h.db)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "database": dbutil.DialectName(h.db)})
}
