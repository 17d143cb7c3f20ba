package handlers

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image/png"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/security"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// totpEnrollTTL bounds how long a prepared secret waits for confirmation.
const totpEnrollTTL = 10 * time.Minute

// MFAHandler handles TOTP enrolment for the signed-in admin.
type MFAHandler struct {
	db      *gorm.DB
	pending *secretStore
}

// NewMFAHandler constructs an MFAHandler.
func NewMFAHandler(db *gorm.DB) *MFAHandler {
	return &MFAHandler{db: db, pending: newSecretStore(totpEnrollTTL)}
}

// secretEntry stores a TOTP secret with expiry.
type secretEntry struct {
	secret  string
	expires time.Time
}

// secretStore keeps unconfirmed TOTP secrets in memory.
type secretStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[uint64]secretEntry
	now   func() time.Time
}

func newSecretStore(ttl time.Duration) *secretStore {
	return &secretStore{ttl: ttl, items: make(map[uint64]secretEntry), now: time.Now}
}

// Set stores a secret and drops every expired entry.
func (s *secretStore) Set(adminID uint64, secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, entry := range s.items {
		if now.After(entry.expires) {
			delete(s.items, id)
		}
	}
	s.items[adminID] = secretEntry{secret: secret, expires: now.Add(s.ttl)}
}

func (s *secretStore) Get(adminID uint64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[adminID]
	if !ok {
		return "", false
	}
	if s.now().After(entry.expires) {
		delete(s.items, adminID)
		return "", false
	}
	return entry.secret, true
}

func (s *secretStore) Delete(adminID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, adminID)
}

// Status reports whether the admin has TOTP enrolled.
func (h *MFAHandler) Status(c *gin.Context) {
	admin, ok := h.currentAdmin(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"totp_enabled": security.TOTPEnabled(admin.TOTPSecret)})
}

// PrepareTOTP generates a new secret and QR code pending confirmation.
func (h *MFAHandler) PrepareTOTP(c *gin.Context) {
	admin, ok := h.currentAdmin(c)
	if !ok {
		return
	}
	key, errKey := security.GenerateTOTP(admin.Username)
	if errKey != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generate totp secret failed"})
		return
	}
	h.pending.Set(admin.ID, key.Secret())

	qrImage := ""
	if img, errImage := key.Image(220, 220); errImage == nil {
		var buf bytes.Buffer
		if errEncode := png.Encode(&buf, img); errEncode == nil {
			qrImage = "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"secret":      key.Secret(),
		"otpauth_url": key.URL(),
		"qr_image":    qrImage,
	})
}

// totpCodeRequest carries a TOTP code.
type totpCodeRequest struct {
	Code string `json:"code"`
}

// ConfirmTOTP validates a code against the prepared secret and enrols it.
func (h *MFAHandler) ConfirmTOTP(c *gin.Context) {
	adminID, ok := readAdminIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
		return
	}
	var body totpCodeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	secret, ok := h.pending.Get(adminID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "totp setup expired"})
		return
	}
	if !security.ValidateTOTP(body.Code, secret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid code"})
		return
	}
	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.Admin{}).
		Where("id = ?", adminID).
		Updates(map[string]any{"totp_secret": secret, "updated_at": time.Now().UTC()}).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	h.pending.Delete(adminID)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DisableTOTP removes the admin's secret after checking a current code.
func (h *MFAHandler) DisableTOTP(c *gin.Context) {
	admin, ok := h.currentAdmin(c)
	if !ok {
		return
	}
	var body totpCodeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !security.ValidateTOTP(body.Code, admin.TOTPSecret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid code"})
		return
	}
	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.Admin{}).
		Where("id = ?", admin.ID).
		Updates(map[string]any{"totp_secret": "", "updated_at": time.Now().UTC()}).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *MFAHandler) currentAdmin(c *gin.Context) (*models.Admin, bool) {
	adminID, ok := readAdminIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
		return nil, false
	}
	var admin models.Admin
	if errFind := h.db.WithContext(c.Request.Context()).First(&admin, adminID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "admin " + strconv.FormatUint(adminID, 10) + " not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return nil, false
	}
	return &admin, true
}

// requireTOTP enforces a TOTP code on sensitive actions for admins who enrolled one.
// It writes the error response and returns false when the check fails.
func requireTOTP(c *gin.Context, db *gorm.DB, code string) bool {
	adminID, ok := readAdminIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
		return false
	}
	var admin models.Admin
	if errFind := db.WithContext(c.Request.Context()).Select("id", "totp_secret").First(&admin, adminID).Error; errFind != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
		return false
	}
	if !security.TOTPEnabled(admin.TOTPSecret) {
		return true
	}
	if strings.TrimSpace(code) == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "totp code required"})
		return false
	}
	if !security.ValidateTOTP(code, admin.TOTPSecret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid code"})
		return false
	}
	return true
}
