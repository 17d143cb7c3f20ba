package handlers

import (
	"net/http"
	"strings"

	"github.com/fundops/fundledger/internal/onboarding"
	"github.com/fundops/fundledger/internal/store"
	"github.com/gin-gonic/gin"
)

// InvestorRequestHandler reviews onboarding applications.
type InvestorRequestHandler struct {
	store   *store.Store
	service *onboarding.Service
}

// NewInvestorRequestHandler constructs an InvestorRequestHandler.
func NewInvestorRequestHandler(s *store.Store, svc *onboarding.Service) *InvestorRequestHandler {
	return &InvestorRequestHandler{store: s, service: svc}
}

// List returns applications, newest first, optionally filtered by status.
func (h *InvestorRequestHandler) List(c *gin.Context) {
	conds := map[string]any{}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		conds["status"] = status
	}
	rows, errSearch := h.store.InvestorRequests.Search(c.Request.Context(), conds, "created_at DESC, id DESC", parseLimit(c))
	if errSearch != nil {
		writeError(c, errSearch)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, formatInvestorRequest(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"investor_requests": out})
}

// Approve onboards the applicant, or auto-rejects a user who is already an investor.
func (h *InvestorRequestHandler) Approve(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	outcome, errApprove := h.service.Approve(c.Request.Context(), id)
	if errApprove != nil {
		writeError(c, errApprove)
		return
	}
	resp := gin.H{
		"request":       formatInvestorRequest(outcome.Request),
		"auto_rejected": outcome.AutoRejected,
	}
	if outcome.Investor != nil {
		resp["investor"] = formatInvestor(outcome.Investor)
	}
	status := http.StatusOK
	if outcome.AutoRejected {
		status = http.StatusConflict
		resp["error"] = onboarding.DuplicateReason
	}
	c.JSON(status, resp)
}

// Reject closes an application with a reason.
func (h *InvestorRequestHandler) Reject(c *gin.Context) {
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
	c.JSON(http.StatusOK, formatInvestorRequest(req))
}
