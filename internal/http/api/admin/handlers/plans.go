package handlers

import (
	"net/http"
	"strings"

	dbutil "github.com/fundops/fundledger/internal/db"
	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/store"
	"github.com/gin-gonic/gin"
)

// PlanHandler administers fund plans.
type PlanHandler struct {
	store *store.Store
}

// NewPlanHandler constructs a PlanHandler.
func NewPlanHandler(s *store.Store) *PlanHandler {
	return &PlanHandler{store: s}
}

var payoutFrequencies = map[string]struct{}{
	models.PayoutFrequencyMonthly:   {},
	models.PayoutFrequencyQuarterly: {},
	models.PayoutFrequencyYearly:    {},
	models.PayoutFrequencyNone:      {},
}

// createPlanRequest captures the payload for a new plan.
type createPlanRequest struct {
	PlanCode              string  `json:"plan_code"`
	Name                  string  `json:"name"`
	ExpectedReturnPercent float64 `json:"expected_return_percent"`
	ProfitPayoutFrequency string  `json:"profit_payout_frequency"` // Defaults to monthly.
	AutoPayoutEnabled     bool    `json:"auto_payout_enabled"`
	IsActive              *bool   `json:"is_active"` // Defaults to true.
}

// Create validates input and persists a new plan.
func (h *PlanHandler) Create(c *gin.Context) {
	var body createPlanRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	code := strings.ToUpper(strings.TrimSpace(body.PlanCode))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing plan_code"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}
	frequency := strings.ToLower(strings.TrimSpace(body.ProfitPayoutFrequency))
	if frequency == "" {
		frequency = models.PayoutFrequencyMonthly
	}
	if _, ok := payoutFrequencies[frequency]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profit_payout_frequency"})
		return
	}
	if body.ExpectedReturnPercent < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected_return_percent cannot be negative"})
		return
	}

	ctx := c.Request.Context()
	taken, errCount := h.store.Plans.Count(ctx, map[string]any{"plan_code": code})
	if errCount != nil {
		writeError(c, errCount)
		return
	}
	if taken > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "plan_code already exists"})
		return
	}

	plan := &models.FundPlan{
		PlanCode:              code,
		Name:                  name,
		ExpectedReturnPercent: body.ExpectedReturnPercent,
		ProfitPayoutFrequency: frequency,
		AutoPayoutEnabled:     body.AutoPayoutEnabled,
		IsActive:              true,
	}
	if errCreate := h.store.Plans.Create(ctx, plan); errCreate != nil {
		writeError(c, errCreate)
		return
	}
	// is_active carries a database default, so false only sticks through an update.
	if body.IsActive != nil && !*body.IsActive {
		if errUpdate := h.store.Plans.Update(ctx, plan.ID, map[string]any{"is_active": false}); errUpdate != nil {
			writeError(c, errUpdate)
			return
		}
		plan.IsActive = false
	}
	c.JSON(http.StatusCreated, formatPlan(plan))
}

// List returns plans filtered by name fragment and active flag.
func (h *PlanHandler) List(c *gin.Context) {
	conn := h.store.DB()
	q := conn.WithContext(c.Request.Context()).Model(&models.FundPlan{})
	if nameQ := strings.TrimSpace(c.Query("name")); nameQ != "" {
		pattern := dbutil.NormalizeLikePattern(conn, "%"+nameQ+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(conn, "name"), pattern)
	}
	switch strings.ToLower(strings.TrimSpace(c.Query("is_active"))) {
	case "true", "1":
		q = q.Where("is_active = ?", true)
	case "false", "0":
		q = q.Where("is_active = ?", false)
	}
	var rows []models.FundPlan
	if errFind := q.Order("id ASC").Find(&rows).Error; errFind != nil {
		writeError(c, errFind)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, formatPlan(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"plans": out})
}

// Get returns one plan.
func (h *PlanHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	plan, errGet := h.store.Plans.Get(c.Request.Context(), id)
	if errGet != nil {
		writeError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, formatPlan(plan))
}

// updatePlanRequest captures partial plan updates.
type updatePlanRequest struct {
	Name                  *string  `json:"name"`
	ExpectedReturnPercent *float64 `json:"expected_return_percent"`
	ProfitPayoutFrequency *string  `json:"profit_payout_frequency"`
	AutoPayoutEnabled     *bool    `json:"auto_payout_enabled"`
	IsActive              *bool    `json:"is_active"`
}

// Update applies the provided fields. plan_code is immutable.
func (h *PlanHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body updatePlanRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	fields := map[string]any{}
	if body.Name != nil {
		name := strings.TrimSpace(*body.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
			return
		}
		fields["name"] = name
	}
	if body.ExpectedReturnPercent != nil {
		if *body.ExpectedReturnPercent < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expected_return_percent cannot be negative"})
			return
		}
		fields["expected_return_percent"] = *body.ExpectedReturnPercent
	}
	if body.ProfitPayoutFrequency != nil {
		frequency := strings.ToLower(strings.TrimSpace(*body.ProfitPayoutFrequency))
		if _, okFrequency := payoutFrequencies[frequency]; !okFrequency {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profit_payout_frequency"})
			return
		}
		fields["profit_payout_frequency"] = frequency
	}
	if body.AutoPayoutEnabled != nil {
		fields["auto_payout_enabled"] = *body.AutoPayoutEnabled
	}
	if body.IsActive != nil {
		fields["is_active"] = *body.IsActive
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	ctx := c.Request.Context()
	if errUpdate := h.store.Plans.Update(ctx, id, fields); errUpdate != nil {
		writeError(c, errUpdate)
		return
	}
	plan, errGet := h.store.Plans.Get(ctx, id)
	if errGet != nil {
		writeError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, formatPlan(plan))
}
