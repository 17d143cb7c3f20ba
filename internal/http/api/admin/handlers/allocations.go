package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/fundops/fundledger/internal/allocation"
	"github.com/fundops/fundledger/internal/store"
	"github.com/gin-gonic/gin"
)

// AllocationHandler places and revalues investor capital.
type AllocationHandler struct {
	store   *store.Store
	service *allocation.Service
}

// NewAllocationHandler constructs an AllocationHandler.
func NewAllocationHandler(s *store.Store, svc *allocation.Service) *AllocationHandler {
	return &AllocationHandler{store: s, service: svc}
}

// List returns allocations filtered by investor, plan or status.
func (h *AllocationHandler) List(c *gin.Context) {
	conds, ok := requestFilters(c)
	if !ok {
		return
	}
	if raw := strings.TrimSpace(c.Query("fund_plan_id")); raw != "" {
		planID, errParse := strconv.ParseUint(raw, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fund_plan_id"})
			return
		}
		conds["fund_plan_id"] = planID
	}
	rows, errSearch := h.store.Allocations.Search(c.Request.Context(), conds, "", parseLimit(c))
	if errSearch != nil {
		writeError(c, errSearch)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, formatAllocation(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"allocations": out})
}

// investRequest places new capital into a plan.
type investRequest struct {
	InvestorID uint64  `json:"investor_id"`
	FundPlanID uint64  `json:"fund_plan_id"`
	Amount     float64 `json:"amount"`
	NAV        float64 `json:"nav"`
	Reference  string  `json:"reference"`
}

// Create records an investment as a new active allocation.
func (h *AllocationHandler) Create(c *gin.Context) {
	var body investRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.InvestorID == 0 || body.FundPlanID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "investor_id and fund_plan_id are required"})
		return
	}
	alloc, errInvest := h.service.Invest(c.Request.Context(), allocation.InvestInput{
		InvestorID: body.InvestorID,
		PlanID:     body.FundPlanID,
		Amount:     body.Amount,
		NAV:        body.NAV,
		Reference:  strings.TrimSpace(body.Reference),
	})
	if errInvest != nil {
		writeError(c, errInvest)
		return
	}
	c.JSON(http.StatusCreated, formatAllocation(alloc))
}

// revalueRequest sets an allocation's market value.
type revalueRequest struct {
	CurrentValue *float64 `json:"current_value"`
}

// Revalue updates the allocation's current value.
func (h *AllocationHandler) Revalue(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body revalueRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.CurrentValue == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing current_value"})
		return
	}
	alloc, errRevalue := h.service.Revalue(c.Request.Context(), id, *body.CurrentValue)
	if errRevalue != nil {
		writeError(c, errRevalue)
		return
	}
	c.JSON(http.StatusOK, formatAllocation(alloc))
}
