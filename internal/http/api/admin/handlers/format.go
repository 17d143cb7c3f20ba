package handlers

import (
	"github.com/fundops/fundledger/internal/allocation"
	"github.com/fundops/fundledger/internal/gateway"
	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/util"
	"github.com/gin-gonic/gin"
)

func formatInvestor(inv *models.Investor) gin.H {
	return gin.H{
		"id":                inv.ID,
		"user_id":           inv.UserID,
		"investor_code":     inv.InvestorCode,
		"full_name":         inv.FullName,
		"email":             inv.Email,
		"phone":             inv.Phone,
		"kyc_status":        inv.KYCStatus,
		"status":            inv.Status,
		"total_invested":    inv.TotalInvested,
		"current_value":     inv.CurrentValue,
		"total_profit_loss": inv.TotalProfitLoss,
		"created_at":        inv.CreatedAt,
		"updated_at":        inv.UpdatedAt,
	}
}

func formatWallet(w *models.FundWallet) gin.H {
	if w == nil {
		return nil
	}
	return gin.H{
		"id":                w.ID,
		"investor_id":       w.InvestorID,
		"available_balance": w.AvailableBalance,
		"locked_balance":    w.LockedBalance,
		"total_deposited":   w.TotalDeposited,
		"total_withdrawn":   w.TotalWithdrawn,
		"version":           w.Version,
		"updated_at":        w.UpdatedAt,
	}
}

func formatAllocation(a *models.FundAllocation) gin.H {
	return gin.H{
		"id":                  a.ID,
		"investor_id":         a.InvestorID,
		"fund_plan_id":        a.FundPlanID,
		"units_held":          a.UnitsHeld,
		"average_nav":         allocation.NAV(a),
		"total_invested":      a.TotalInvested,
		"current_value":       a.CurrentValue,
		"profit_loss":         a.ProfitLoss,
		"profit_loss_percent": a.ProfitLossPercent,
		"status":              a.Status,
		"created_at":          a.CreatedAt,
		"updated_at":          a.UpdatedAt,
	}
}

func formatTransaction(tx *models.FundTransaction) gin.H {
	return gin.H{
		"id":               tx.ID,
		"investor_id":      tx.InvestorID,
		"allocation_id":    tx.AllocationID,
		"fund_plan_id":     tx.FundPlanID,
		"transaction_type": tx.TransactionType,
		"amount":           tx.Amount,
		"status":           tx.Status,
		"reference":        tx.Reference,
		"description":      tx.Description,
		"transaction_date": tx.TransactionDate,
	}
}

func formatWithdrawal(req *models.FundWithdrawalRequest) gin.H {
	return gin.H{
		"id":                req.ID,
		"investor_id":       req.InvestorID,
		"allocation_id":     req.AllocationID,
		"withdrawal_amount": req.WithdrawalAmount,
		"withdrawal_type":   req.WithdrawalType,
		"status":            req.Status,
		"funds_locked":      req.FundsLocked,
		"admin_notes":       req.AdminNotes,
		"rejection_reason":  req.RejectionReason,
		"approved_at":       req.ApprovedAt,
		"processed_at":      req.ProcessedAt,
		"rejected_at":       req.RejectedAt,
		"created_at":        req.CreatedAt,
	}
}

// formatPayout masks the beneficiary account number.
func formatPayout(req *models.FundPayoutRequest) gin.H {
	item := gin.H{
		"id":                req.ID,
		"investor_id":       req.InvestorID,
		"requested_amount":  req.RequestedAmount,
		"payout_method":     req.PayoutMethod,
		"status":            req.Status,
		"utr_number":        req.UTRNumber,
		"gateway_reference": req.GatewayReference,
		"admin_notes":       req.AdminNotes,
		"rejection_reason":  req.RejectionReason,
		"last_error":        req.LastError,
		"approved_at":       req.ApprovedAt,
		"processed_at":      req.ProcessedAt,
		"rejected_at":       req.RejectedAt,
		"created_at":        req.CreatedAt,
	}
	if bank, errBank := gateway.ParseBankDetails(req.BankDetails); errBank == nil {
		item["bank_details"] = gin.H{
			"account_holder_name": bank.AccountHolderName,
			"account_number":      util.MaskSecret(bank.AccountNumber),
			"ifsc_code":           bank.IFSC,
			"bank_name":           bank.BankName,
			"upi_id":              bank.UPIID,
		}
	}
	return item
}

func formatPlan(p *models.FundPlan) gin.H {
	return gin.H{
		"id":                      p.ID,
		"plan_code":               p.PlanCode,
		"name":                    p.Name,
		"expected_return_percent": p.ExpectedReturnPercent,
		"profit_payout_frequency": p.ProfitPayoutFrequency,
		"auto_payout_enabled":     p.AutoPayoutEnabled,
		"last_auto_payout_month":  p.LastAutoPayoutMonth,
		"is_active":               p.IsActive,
		"created_at":              p.CreatedAt,
		"updated_at":              p.UpdatedAt,
	}
}

func formatInvestorRequest(req *models.InvestorRequest) gin.H {
	return gin.H{
		"id":               req.ID,
		"user_id":          req.UserID,
		"full_name":        req.FullName,
		"email":            req.Email,
		"phone":            req.Phone,
		"status":           req.Status,
		"rejection_reason": req.RejectionReason,
		"investor_id":      req.InvestorID,
		"created_at":       req.CreatedAt,
	}
}
