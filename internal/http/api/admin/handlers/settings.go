package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fundops/fundledger/internal/settings"
	"github.com/fundops/fundledger/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SettingsHandler reads and writes platform settings.
type SettingsHandler struct {
	db *gorm.DB
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

// Get lists every setting. Credential values are masked.
func (h *SettingsHandler) Get(c *gin.Context) {
	snap, errLoad := settings.Load(c.Request.Context(), h.db)
	if errLoad != nil {
		writeError(c, errLoad)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": maskedSettings(snap), "updated_at": snap.UpdatedAt()})
}

// putSettingsRequest carries the settings to upsert.
type putSettingsRequest struct {
	Settings map[string]json.RawMessage `json:"settings"`
}

// Put upserts the given settings. A credential sent back in its masked form is left unchanged.
func (h *SettingsHandler) Put(c *gin.Context) {
	var body putSettingsRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(body.Settings) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no settings provided"})
		return
	}

	ctx := c.Request.Context()
	current, errLoad := settings.Load(ctx, h.db)
	if errLoad != nil {
		writeError(c, errLoad)
		return
	}
	errTx := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key, value := range body.Settings {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			if settings.IsSecret(key) && isMaskedEcho(current, key, value) {
				continue
			}
			if errPut := settings.Put(ctx, tx, key, value); errPut != nil {
				return errPut
			}
		}
		return nil
	})
	if errTx != nil {
		writeError(c, errTx)
		return
	}

	snap, errReload := settings.Load(ctx, h.db)
	if errReload != nil {
		writeError(c, errReload)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": maskedSettings(snap), "updated_at": snap.UpdatedAt()})
}

func maskedSettings(snap settings.Snapshot) gin.H {
	out := gin.H{}
	for _, key := range snap.Keys() {
		if settings.IsSecret(key) {
			out[key] = util.MaskSecret(snap.String(key, ""))
			continue
		}
		raw, _ := snap.Raw(key)
		out[key] = raw
	}
	return out
}

// isMaskedEcho reports whether value is the masked form of the stored credential.
func isMaskedEcho(current settings.Snapshot, key string, value json.RawMessage) bool {
	var text string
	if errUnmarshal := json.Unmarshal(value, &text); errUnmarshal != nil {
		return false
	}
	stored := current.String(key, "")
	return stored != "" && text == util.MaskSecret(stored)
}
