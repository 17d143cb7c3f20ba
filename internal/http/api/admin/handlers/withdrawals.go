package handlers

import (
	"net/http"

	"github.com/fundops/fundledger/internal/store"
	"github.com/fundops/fundledger/internal/withdrawal"
	"github.com/gin-gonic/gin"
)

// WithdrawalHandler exposes the withdrawal workflow.
type WithdrawalHandler struct {
	store   *store.Store
	service *withdrawal.Service
}

// NewWithdrawalHandler constructs a WithdrawalHandler.
func NewWithdrawalHandler(s *store.Store, svc *withdrawal.Service) *WithdrawalHandler {
	return &WithdrawalHandler{store: s, service: svc}
}

// notesRequest carries optional admin notes.
type notesRequest struct {
	AdminNotes string `json:"admin_notes"`
}

// reasonRequest carries a rejection reason.
type reasonRequest struct {
	Reason string `json:"reason"`
}

// List returns withdrawal requests, newest first.
func (h *WithdrawalHandler) List(c *gin.Context) {
	conds, ok := requestFilters(c)
	if !ok {
		return
	}
	rows, errSearch := h.store.Withdrawals.Search(c.Request.Context(), conds, "created_at DESC, id DESC", parseLimit(c))
	if errSearch != nil {
		writeError(c, errSearch)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, formatWithdrawal(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": out})
}

// Approve places the wallet hold.
func (h *WithdrawalHandler) Approve(c *gin.Context) {
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
	c.JSON(http.StatusOK, formatWithdrawal(req))
}

// Reject closes the request and releases any hold.
func (h *WithdrawalHandler) Reject(c *gin.Context) {
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
	c.JSON(http.StatusOK, formatWithdrawal(req))
}

// Process redeems the allocation into the wallet.
func (h *WithdrawalHandler) Process(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	req, errProcess := h.service.Process(c.Request.Context(), id)
	if errProcess != nil {
		writeError(c, errProcess)
		return
	}
	c.JSON(http.StatusOK, formatWithdrawal(req))
}
