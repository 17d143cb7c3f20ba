package models

import "time"

// Request states shared by withdrawal, payout and investor requests.
const (
	RequestStatusPending   = "pending"
	RequestStatusApproved  = "approved"
	RequestStatusRejected  = "rejected"
	RequestStatusProcessed = "processed"
)

// Withdrawal types.
const (
	WithdrawalTypeFull    = "full"
	WithdrawalTypePartial = "partial"
)

// FundWithdrawalRequest asks to redeem capital from an allocation into the wallet.
type FundWithdrawalRequest struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	InvestorID   uint64 `gorm:"not null;index"` // Requesting investor.
	AllocationID uint64 `gorm:"not null;index"` // Allocation being redeemed.

	WithdrawalAmount float64 `gorm:"type:decimal(20,2);not null"`                       // Amount to redeem.
	WithdrawalType   string  `gorm:"type:varchar(16);not null"`                         // full or partial.
	Status           string  `gorm:"type:varchar(32);not null;default:'pending';index"` // Workflow state.
	FundsLocked      bool    `gorm:"not null;default:false"`                            // Wallet hold placed on approval.

	AdminNotes      string `gorm:"type:text"` // Notes recorded on approval.
	RejectionReason string `gorm:"type:text"` // Reason recorded on rejection.

	ApprovedAt  *time.Time // Approval time.
	ProcessedAt *time.Time // Processing time.
	RejectedAt  *time.Time // Rejection time.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
