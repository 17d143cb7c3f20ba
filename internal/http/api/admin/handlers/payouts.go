package handlers

import (
	"net/http"
	"strings"

	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/payout"
	"github.com/fundops/fundledger/internal/settings"
	"github.com/fundops/fundledger/internal/store"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Payout processing modes.
const (
	processModeManual    = "manual"
	processModeAutomated = "automated"
)

// PayoutHandler exposes the payout workflow.
type PayoutHandler struct {
	db      *gorm.DB
	store   *store.Store
	service *payout.Service
}

// NewPayoutHandler constructs a PayoutHandler.
func NewPayoutHandler(db *gorm.DB, s *store.Store, svc *payout.Service) *PayoutHandler {
	return &PayoutHandler{db: db, store: s, service: svc}
}

// List returns payout requests, newest first.
func (h *PayoutHandler) List(c *gin.Context) {
	conds, ok := requestFilters(c)
	if !ok {
		return
	}
	rows, errSearch := h.store.Payouts.Search(c.Request.Context(), conds, "created_at DESC, id DESC", parseLimit(c))
	if errSearch != nil {
		writeError(c, errSearch)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, formatPayout(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"payouts": out})
}

// Approve accepts a pending payout.
func (h *PayoutHandler) Approve(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body notesRequest
	if !bindOptionalJSON(c, &body) {
		return
	}
	req, errApprove := h.service.Approve(c.Request.Context(), id, body.AdminNotes)
	if errApprove != nil {
		writeError(c, errApprove)
		return
	}
	c.JSON(http.StatusOK, formatPayout(req))
}

// Reject closes a pending or approved payout.
func (h *PayoutHandler) Reject(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body reasonRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req, errReject := h.service.Reject(c.Request.Context(), id, body.Reason)
	if errReject != nil {
		writeError(c, errReject)
		return
	}
	c.JSON(http.StatusOK, formatPayout(req))
}

// processPayoutRequest selects manual settlement (with a UTR) or gateway processing.
// An empty mode means manual.
type processPayoutRequest struct {
	Mode       string `json:"mode"`
	UTRNumber  string `json:"utr_number"`
	AdminNotes string `json:"admin_notes"`
	TOTPCode   string `json:"totp_code"`
}

// Process settles an approved payout. Admins with TOTP enrolled must confirm with a code
// unless the platform setting turns the check off.
func (h *PayoutHandler) Process(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body processPayoutRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	mode := strings.ToLower(strings.TrimSpace(body.Mode))
	if mode == "" {
		mode = processModeManual
	}
	if mode != processModeManual && mode != processModeAutomated {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be manual or automated"})
		return
	}

	ctx := c.Request.Context()
	snap, errSnap := settings.Load(ctx, h.db)
	if errSnap != nil {
		writeError(c, errSnap)
		return
	}
	if snap.Bool(settings.PayoutTOTPRequiredKey, settings.DefaultPayoutTOTPRequired) && !requireTOTP(c, h.db, body.TOTPCode) {
		return
	}

	var (
		req        *models.FundPayoutRequest
		errProcess error
	)
	if mode == processModeManual {
		req, errProcess = h.service.ProcessManual(ctx, id, body.UTRNumber, body.AdminNotes)
	} else {
		req, errProcess = h.service.ProcessAutomated(ctx, id, body.AdminNotes, snap)
	}
	if errProcess != nil {
		writeError(c, errProcess)
		return
	}
	c.JSON(http.StatusOK, formatPayout(req))
}
