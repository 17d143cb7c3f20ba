// Package allocation recomputes allocation figures and the investor aggregates derived from them.
package allocation

import (
	"context"
	"fmt"

	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/money"
	"github.com/fundops/fundledger/internal/store"
)

// DefaultNAV is used when an allocation has no usable average NAV.
const DefaultNAV = 1.0

// NAV returns the allocation's average NAV, or DefaultNAV when it is absent or not positive.
func NAV(a *models.FundAllocation) float64 {
	if a.AverageNAV == nil || *a.AverageNAV <= 0 {
		return DefaultNAV
	}
	return *a.AverageNAV
}

// ApplyFullRedemption zeroes every financial field and marks the allocation redeemed.
func ApplyFullRedemption(a *models.FundAllocation) {
	a.UnitsHeld = 0
	a.TotalInvested = 0
	a.CurrentValue = 0
	a.ProfitLoss = 0
	a.ProfitLossPercent = 0
	a.Status = models.AllocationStatusRedeemed
}

// ApplyPartialRedemption takes amount out of both invested capital and current value.
func ApplyPartialRedemption(a *models.FundAllocation, amount float64) {
	remainingInvested := money.SubFloor(a.TotalInvested, amount)
	remainingValue := money.SubFloor(a.CurrentValue, amount)

	a.UnitsHeld = money.Units(remainingInvested, NAV(a))
	a.TotalInvested = remainingInvested
	a.CurrentValue = remainingValue
	refreshProfitLoss(a)
	if remainingInvested == 0 {
		a.Status = models.AllocationStatusRedeemed
	} else {
		a.Status = models.AllocationStatusActive
	}
}

func refreshProfitLoss(a *models.FundAllocation) {
	a.ProfitLoss = money.Sub(a.CurrentValue, a.TotalInvested)
	a.ProfitLossPercent = money.Ratio(a.ProfitLoss, a.TotalInvested)
}

// Fields returns the columns a recompute touches, for a partial update.
func Fields(a *models.FundAllocation) map[string]any {
	return map[string]any{
		"units_held":          a.UnitsHeld,
		"total_invested":      a.TotalInvested,
		"current_value":       a.CurrentValue,
		"profit_loss":         a.ProfitLoss,
		"profit_loss_percent": a.ProfitLossPercent,
		"status":              a.Status,
	}
}

// RecomputeInvestorTotals rebuilds the investor's aggregates from their active allocations.
func RecomputeInvestorTotals(ctx context.Context, tx *store.Store, investorID uint64) (*models.Investor, error) {
	active, errFilter := tx.Allocations.Filter(ctx, map[string]any{
		"investor_id": investorID,
		"status":      models.AllocationStatusActive,
	})
	if errFilter != nil {
		return nil, errFilter
	}
	invested := make([]float64, 0, len(active))
	values := make([]float64, 0, len(active))
	for i := range active {
		invested = append(invested, active[i].TotalInvested)
		values = append(values, active[i].CurrentValue)
	}
	totalInvested := money.Sum(invested...)
	currentValue := money.Sum(values...)
	totalProfitLoss := money.Sub(currentValue, totalInvested)

	if errUpdate := tx.Investors.Update(ctx, investorID, map[string]any{
		"total_invested":    totalInvested,
		"current_value":     currentValue,
		"total_profit_loss": totalProfitLoss,
	}); errUpdate != nil {
		return nil, fmt.Errorf("allocation: recompute investor %d: %w", investorID, errUpdate)
	}
	return tx.Investors.Get(ctx, investorID)
}
