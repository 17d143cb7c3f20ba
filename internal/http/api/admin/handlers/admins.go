package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	dbutil "github.com/fundops/fundledger/internal/db"
	"github.com/fundops/fundledger/internal/http/api/admin/permissions"
	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/security"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// minAdminPasswordLength is the shortest password accepted for admin accounts.
const minAdminPasswordLength = 8

// AdminHandler manages back-office operator accounts.
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// createAdminRequest defines the request body for admin creation.
type createAdminRequest struct {
	Username     string   `json:"username"`
	Password     string   `json:"password"`
	Permissions  []string `json:"permissions"`
	IsSuperAdmin bool     `json:"is_super_admin"`
}

// Create adds an operator with the given permission keys.
func (h *AdminHandler) Create(c *gin.Context) {
	var body createAdminRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	username := strings.TrimSpace(body.Username)
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing username"})
		return
	}
	password := strings.TrimSpace(body.Password)
	if len(password) < minAdminPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
		return
	}
	permissionsJSON, ok := encodePermissions(c, body.Permissions)
	if !ok {
		return
	}
	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}

	admin := models.Admin{
		Username:     username,
		Password:     hash,
		Active:       true,
		IsSuperAdmin: body.IsSuperAdmin,
		Permissions:  permissionsJSON,
	}
	ctx := c.Request.Context()
	var taken int64
	if errCount := h.db.WithContext(ctx).Model(&models.Admin{}).Where("username = ?", username).Count(&taken).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if taken > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
		return
	}
	if errCreate := h.db.WithContext(ctx).Create(&admin).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create admin failed"})
		return
	}
	c.JSON(http.StatusCreated, formatAdmin(&admin))
}

// List returns operators, optionally filtered by a username fragment.
func (h *AdminHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Admin{})
	if usernameQ := strings.TrimSpace(c.Query("username")); usernameQ != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+usernameQ+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "username"), pattern)
	}

	var rows []models.Admin
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list admins failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, formatAdmin(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"admins": out})
}

// Get returns one operator.
func (h *AdminHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var admin models.Admin
	if errFind := h.db.WithContext(c.Request.Context()).First(&admin, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, formatAdmin(&admin))
}

// updateAdminRequest defines the request body for admin updates.
type updateAdminRequest struct {
	Permissions  *[]string `json:"permissions"`
	IsSuperAdmin *bool     `json:"is_super_admin"`
}

// Update changes an operator's permissions or super admin flag.
func (h *AdminHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body updateAdminRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if body.Permissions != nil {
		permissionsJSON, okPermissions := encodePermissions(c, *body.Permissions)
		if !okPermissions {
			return
		}
		updates["permissions"] = permissionsJSON
	}
	if body.IsSuperAdmin != nil {
		if self, _ := readAdminIDFromContext(c); self == id && !*body.IsSuperAdmin {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot revoke your own super admin flag"})
			return
		}
		updates["is_super_admin"] = *body.IsSuperAdmin
	}
	h.applyUpdates(c, id, updates)
}

// Disable deactivates an operator.
func (h *AdminHandler) Disable(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if self, _ := readAdminIDFromContext(c); self == id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot disable your own account"})
		return
	}
	h.applyUpdates(c, id, map[string]any{"active": false, "updated_at": time.Now().UTC()})
}

// Enable reactivates an operator.
func (h *AdminHandler) Enable(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	h.applyUpdates(c, id, map[string]any{"active": true, "updated_at": time.Now().UTC()})
}

// resetPasswordRequest defines the request body for password resets.
type resetPasswordRequest struct {
	Password string `json:"password"`
}

// ResetPassword sets a new password and clears the operator's TOTP enrolment.
func (h *AdminHandler) ResetPassword(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body resetPasswordRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	password := strings.TrimSpace(body.Password)
	if len(password) < minAdminPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
		return
	}
	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}
	h.applyUpdates(c, id, map[string]any{"password": hash, "totp_secret": "", "updated_at": time.Now().UTC()})
}

func (h *AdminHandler) applyUpdates(c *gin.Context, id uint64, updates map[string]any) {
	res := h.db.WithContext(c.Request.Context()).Model(&models.Admin{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// encodePermissions validates keys and encodes them for storage.
func encodePermissions(c *gin.Context, keys []string) (datatypes.JSON, bool) {
	normalized := permissions.NormalizePermissions(keys)
	if errValidate := permissions.ValidatePermissions(normalized); errValidate != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid permissions: " + errValidate.Error()})
		return nil, false
	}
	raw, errMarshal := permissions.MarshalPermissions(normalized)
	if errMarshal != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "marshal permissions failed"})
		return nil, false
	}
	return datatypes.JSON(raw), true
}

func formatAdmin(admin *models.Admin) gin.H {
	return gin.H{
		"id":             admin.ID,
		"username":       admin.Username,
		"active":         admin.Active,
		"is_super_admin": admin.IsSuperAdmin,
		"totp_enabled":   security.TOTPEnabled(admin.TOTPSecret),
		"permissions":    permissions.ParsePermissions(admin.Permissions),
		"created_at":     admin.CreatedAt,
		"updated_at":     admin.UpdatedAt,
	}
}
