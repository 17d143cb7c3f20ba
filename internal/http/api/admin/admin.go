// Package admin wires the back-office settlement API onto a gin engine.
package admin

import (
	"net/http"
	"strings"

	"github.com/fundops/fundledger/internal/allocation"
	"github.com/fundops/fundledger/internal/config"
	"github.com/fundops/fundledger/internal/http/api/admin/handlers"
	"github.com/fundops/fundledger/internal/http/api/admin/permissions"
	"github.com/fundops/fundledger/internal/merge"
	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/onboarding"
	"github.com/fundops/fundledger/internal/payout"
	"github.com/fundops/fundledger/internal/profit"
	"github.com/fundops/fundledger/internal/security"
	"github.com/fundops/fundledger/internal/store"
	"github.com/fundops/fundledger/internal/withdrawal"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the services the admin API dispatches to.
type Deps struct {
	DB          *gorm.DB
	Store       *store.Store
	JWT         config.JWTConfig
	Withdrawals *withdrawal.Service
	Payouts     *payout.Service
	Profit      *profit.Engine
	Merge       *merge.Service
	Onboarding  *onboarding.Service
	Allocations *allocation.Service
}

// RegisterAdminRoutes registers login, the MFA self-service routes and the permission-guarded API.
func RegisterAdminRoutes(r *gin.Engine, deps Deps) {
	if r == nil || deps.DB == nil || deps.Store == nil {
		return
	}

	api := r.Group("/v0/admin")

	authHandler := handlers.NewAuthHandler(deps.DB, deps.JWT)
	api.POST("/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(adminAuthMiddleware(deps.DB, deps.JWT))

	mfaHandler := handlers.NewMFAHandler(deps.DB)
	authed.GET("/mfa/status", mfaHandler.Status)
	authed.POST("/mfa/totp/prepare", mfaHandler.PrepareTOTP)
	authed.POST("/mfa/totp/confirm", mfaHandler.ConfirmTOTP)
	authed.POST("/mfa/totp/disable", mfaHandler.DisableTOTP)
	authed.GET("/version", handlers.NewVersionHandler().GetVersion)

	guarded := authed.Group("")
	guarded.Use(adminPermissionMiddleware())

	dashboardHandler := handlers.NewDashboardHandler(deps.DB)
	guarded.GET("/dashboard/kpi", dashboardHandler.KPI)

	transactionHandler := handlers.NewTransactionHandler(deps.DB)
	guarded.GET("/transactions", transactionHandler.List)

	withdrawalHandler := handlers.NewWithdrawalHandler(deps.Store, deps.Withdrawals)
	guarded.GET("/withdrawals", withdrawalHandler.List)
	guarded.POST("/withdrawals/:id/approve", withdrawalHandler.Approve)
	guarded.POST("/withdrawals/:id/reject", withdrawalHandler.Reject)
	guarded.POST("/withdrawals/:id/process", withdrawalHandler.Process)

	payoutHandler := handlers.NewPayoutHandler(deps.DB, deps.Store, deps.Payouts)
	guarded.GET("/payouts", payoutHandler.List)
	guarded.POST("/payouts/:id/approve", payoutHandler.Approve)
	guarded.POST("/payouts/:id/reject", payoutHandler.Reject)
	guarded.POST("/payouts/:id/process", payoutHandler.Process)

	profitHandler := handlers.NewProfitHandler(deps.Profit)
	guarded.GET("/profit/distributable", profitHandler.Distributable)
	guarded.POST("/profit/distribute", profitHandler.Distribute)
	guarded.POST("/profit/auto-payout", profitHandler.AutoPayout)

	investorHandler := handlers.NewInvestorHandler(deps.Store, deps.Merge)
	guarded.GET("/investors", investorHandler.List)
	guarded.GET("/investors/duplicates", investorHandler.Duplicates)
	guarded.POST("/investors/duplicates/merge", investorHandler.Merge)
	guarded.GET("/investors/:id", investorHandler.Get)

	requestHandler := handlers.NewInvestorRequestHandler(deps.Store, deps.Onboarding)
	guarded.GET("/investor-requests", requestHandler.List)
	guarded.POST("/investor-requests/:id/approve", requestHandler.Approve)
	guarded.POST("/investor-requests/:id/reject", requestHandler.Reject)

	allocationHandler := handlers.NewAllocationHandler(deps.Store, deps.Allocations)
	guarded.GET("/allocations", allocationHandler.List)
	guarded.POST("/allocations", allocationHandler.Create)
	guarded.PUT("/allocations/:id/value", allocationHandler.Revalue)

	planHandler := handlers.NewPlanHandler(deps.Store)
	guarded.GET("/plans", planHandler.List)
	guarded.POST("/plans", planHandler.Create)
	guarded.GET("/plans/:id", planHandler.Get)
	guarded.PUT("/plans/:id", planHandler.Update)

	settingsHandler := handlers.NewSettingsHandler(deps.DB)
	guarded.GET("/settings", settingsHandler.Get)
	guarded.PUT("/settings", settingsHandler.Put)

	adminHandler := handlers.NewAdminHandler(deps.DB)
	guarded.GET("/admins", adminHandler.List)
	guarded.POST("/admins", adminHandler.Create)
	guarded.GET("/admins/:id", adminHandler.Get)
	guarded.PUT("/admins/:id", adminHandler.Update)
	guarded.POST("/admins/:id/disable", adminHandler.Disable)
	guarded.POST("/admins/:id/enable", adminHandler.Enable)
	guarded.PUT("/admins/:id/password", adminHandler.ResetPassword)

	permissionHandler := handlers.NewPermissionHandler()
	guarded.GET("/permissions", permissionHandler.List)
}

// adminAuthMiddleware validates admin JWTs and loads the admin into context.
func adminAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseAdminToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errJWT.Error()})
			return
		}

		var admin models.Admin
		if errFind := db.WithContext(c.Request.Context()).
			Select("id", "active", "permissions", "is_super_admin").
			First(&admin, claims.AdminID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
			return
		}
		if !admin.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin account is disabled"})
			return
		}

		c.Set("adminID", admin.ID)
		c.Set("adminUsername", claims.Username)
		c.Set("adminPermissions", permissions.ParsePermissions(admin.Permissions))
		c.Set("adminIsSuperAdmin", admin.IsSuperAdmin)
		c.Next()
	}
}
