package models

import "time"

// Transaction types recorded in the audit trail.
const (
	TransactionTypeInvestment        = "investment"
	TransactionTypeProfitPayout      = "profit_payout"
	TransactionTypeRedemption        = "redemption"
	TransactionTypeWalletWithdrawal  = "wallet_withdrawal"
	TransactionTypeWithdrawalHold    = "withdrawal_hold"
	TransactionTypeWithdrawalRelease = "withdrawal_release"
)

// Transaction states.
const (
	TransactionStatusCompleted = "completed"
	TransactionStatusPending   = "pending"
	TransactionStatusFailed    = "failed"
)

// FundTransaction is an append-only audit row for a ledger event.
type FundTransaction struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	InvestorID   uint64  `gorm:"not null;index"` // Investor the event belongs to.
	AllocationID *uint64 `gorm:"index"`          // Allocation involved, if any.
	FundPlanID   *uint64 `gorm:"index"`          // Plan involved, if any.

	TransactionType string  `gorm:"type:varchar(32);not null;index"`               // Event type.
	Amount          float64 `gorm:"type:decimal(20,2);not null"`                   // Event amount.
	Status          string  `gorm:"type:varchar(32);not null;default:'completed'"` // completed, pending or failed.
	Reference       string  `gorm:"type:varchar(255)"`                             // External reference (UTR, gateway id).
	Description     string  `gorm:"type:text"`                                     // Free-form description.

	TransactionDate time.Time `gorm:"not null;index"`          // Business date of the event.
	CreatedAt       time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
