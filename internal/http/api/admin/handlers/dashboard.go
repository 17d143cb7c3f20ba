package handlers

import (
	"net/http"
	"time"

	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/money"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DashboardHandler serves back-office summary figures.
type DashboardHandler struct {
	db  *gorm.DB // Database handle for aggregate queries.
	now func() time.Time
}

// NewDashboardHandler constructs a dashboard handler with database access.
func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// kpiResponse defines the KPI response payload.
type kpiResponse struct {
	ActiveInvestors     int64   `json:"active_investors"`     // Investors with status active.
	ActiveAllocations   int64   `json:"active_allocations"`   // Allocations with status active.
	TotalInvested       float64 `json:"total_invested"`       // Capital in active allocations.
	TotalAUM            float64 `json:"total_aum"`            // Current value of active allocations.
	TotalProfitLoss     float64 `json:"total_profit_loss"`    // AUM minus invested capital.
	WalletAvailable     float64 `json:"wallet_available"`     // Sum of available wallet balances.
	WalletLocked        float64 `json:"wallet_locked"`        // Sum of held wallet balances.
	MtdProfitPaid       float64 `json:"mtd_profit_paid"`      // Profit credited this month.
	ProfitPaidTrend     float64 `json:"profit_paid_trend"`    // Trend vs the same days last month.
	PendingRequests     int64   `json:"pending_requests"`     // Onboarding requests awaiting review.
	PendingWithdrawals  int64   `json:"pending_withdrawals"`  // Withdrawals awaiting approval.
	ApprovedWithdrawals int64   `json:"approved_withdrawals"` // Withdrawals awaiting processing.
	PendingPayouts      int64   `json:"pending_payouts"`      // Payouts awaiting approval.
	ApprovedPayouts     int64   `json:"approved_payouts"`     // Payouts awaiting processing.
}

// KPI returns fund-wide totals and workflow queue sizes.
func (h *DashboardHandler) KPI(c *gin.Context) {
	db := h.db.WithContext(c.Request.Context())
	var resp kpiResponse

	var allocationTotals struct {
		Count         int64
		TotalInvested float64
		CurrentValue  float64
	}
	if errScan := db.Model(&models.FundAllocation{}).
		Where("status = ?", models.AllocationStatusActive).
		Select("COUNT(*) AS count, COALESCE(SUM(total_invested), 0) AS total_invested, COALESCE(SUM(current_value), 0) AS current_value").
		Scan(&allocationTotals).Error; errScan != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query allocations failed"})
		return
	}
	resp.ActiveAllocations = allocationTotals.Count
	resp.TotalInvested = money.Round(allocationTotals.TotalInvested)
	resp.TotalAUM = money.Round(allocationTotals.CurrentValue)
	resp.TotalProfitLoss = money.Sub(resp.TotalAUM, resp.TotalInvested)

	var walletTotals struct {
		Available float64
		Locked    float64
	}
	if errScan := db.Model(&models.FundWallet{}).
		Select("COALESCE(SUM(available_balance), 0) AS available, COALESCE(SUM(locked_balance), 0) AS locked").
		Scan(&walletTotals).Error; errScan != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query wallets failed"})
		return
	}
	resp.WalletAvailable = money.Round(walletTotals.Available)
	resp.WalletLocked = money.Round(walletTotals.Locked)

	counts := []struct {
		model  any
		status string
		target *int64
	}{
		{&models.Investor{}, models.InvestorStatusActive, &resp.ActiveInvestors},
		{&models.InvestorRequest{}, models.RequestStatusPending, &resp.PendingRequests},
		{&models.FundWithdrawalRequest{}, models.RequestStatusPending, &resp.PendingWithdrawals},
		{&models.FundWithdrawalRequest{}, models.RequestStatusApproved, &resp.ApprovedWithdrawals},
		{&models.FundPayoutRequest{}, models.RequestStatusPending, &resp.PendingPayouts},
		{&models.FundPayoutRequest{}, models.RequestStatusApproved, &resp.ApprovedPayouts},
	}
	for _, q := range counts {
		if errCount := db.Model(q.model).Where("status = ?", q.status).Count(q.target).Error; errCount != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
			return
		}
	}

	now := h.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastMonthStart := monthStart.AddDate(0, -1, 0)
	lastMonthSameDay := lastMonthStart.Add(now.Sub(monthStart))
	mtd, errMtd := h.profitPaidBetween(db, monthStart, now.Add(time.Second))
	if errMtd != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query transactions failed"})
		return
	}
	lastMtd, errLast := h.profitPaidBetween(db, lastMonthStart, lastMonthSameDay)
	if errLast != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query transactions failed"})
		return
	}
	resp.MtdProfitPaid = mtd
	resp.ProfitPaidTrend = calcTrend(lastMtd, mtd)

	c.JSON(http.StatusOK, resp)
}

func (h *DashboardHandler) profitPaidBetween(db *gorm.DB, from, to time.Time) (float64, error) {
	var total float64
	errScan := db.Model(&models.FundTransaction{}).
		Where("transaction_type = ? AND status = ? AND transaction_date >= ? AND transaction_date < ?",
			models.TransactionTypeProfitPayout, models.TransactionStatusCompleted, from, to).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return money.Round(total), errScan
}

// calcTrend returns the percentage change from prev to current.
func calcTrend(prev, current float64) float64 {
	if prev == 0 {
		if current > 0 {
			return 100.0
		}
		return 0.0
	}
	return (current - prev) / prev * 100
}
