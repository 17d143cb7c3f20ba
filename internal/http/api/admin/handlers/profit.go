package handlers

import (
	"net/http"

	"github.com/fundops/fundledger/internal/money"
	"github.com/fundops/fundledger/internal/profit"
	"github.com/gin-gonic/gin"
)

// ProfitHandler exposes profit distribution.
type ProfitHandler struct {
	engine *profit.Engine
}

// NewProfitHandler constructs a ProfitHandler.
func NewProfitHandler(engine *profit.Engine) *ProfitHandler {
	return &ProfitHandler{engine: engine}
}

// Distributable lists every active allocation with paid and distributable profit.
func (h *ProfitHandler) Distributable(c *gin.Context) {
	candidates, errCandidates := h.engine.Candidates(c.Request.Context())
	if errCandidates != nil {
		writeError(c, errCandidates)
		return
	}
	out := make([]gin.H, 0, len(candidates))
	amounts := make([]float64, 0, len(candidates))
	for i := range candidates {
		item := formatAllocation(&candidates[i].Allocation)
		item["paid_profit"] = candidates[i].Paid
		item["distributable_profit"] = candidates[i].Distributable
		out = append(out, item)
		amounts = append(amounts, candidates[i].Distributable)
	}
	c.JSON(http.StatusOK, gin.H{"allocations": out, "total_distributable": money.Sum(amounts...)})
}

// distributeRequest carries the manual payout percentage.
type distributeRequest struct {
	Percentage float64 `json:"percentage"`
}

// Distribute pays a percentage of distributable profit on every active allocation.
func (h *ProfitHandler) Distribute(c *gin.Context) {
	var body distributeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	result, errDistribute := h.engine.ManualDistribute(c.Request.Context(), body.Percentage)
	if errDistribute != nil {
		writeError(c, errDistribute)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AutoPayout runs the monthly automated payout now.
func (h *ProfitHandler) AutoPayout(c *gin.Context) {
	result, errRun := h.engine.AutoMonthly(c.Request.Context())
	if errRun != nil {
		writeError(c, errRun)
		return
	}
	c.JSON(http.StatusOK, result)
}
