package models

import (
	"time"

	"gorm.io/datatypes"
)

// Payout methods used to settle a payout request.
const (
	PayoutMethodManual   = "manual"
	PayoutMethodRazorpay = "razorpay"
	PayoutMethodStripe   = "stripe"
	PayoutMethodCashfree = "cashfree"
)

// FundPayoutRequest asks to cash out wallet balance to a bank account.
type FundPayoutRequest struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	InvestorID      uint64         `gorm:"not null;index"`                                    // Requesting investor.
	RequestedAmount float64        `gorm:"type:decimal(20,2);not null"`                       // Amount to pay out.
	BankDetails     datatypes.JSON `gorm:"type:jsonb"`                                        // Beneficiary details (account, ifsc, upi...).
	PayoutMethod    string         `gorm:"type:varchar(32)"`                                  // Method used at processing.
	Status          string         `gorm:"type:varchar(32);not null;default:'pending';index"` // Workflow state.

	UTRNumber        string `gorm:"type:varchar(255)"` // Bank transfer reference.
	GatewayReference string `gorm:"type:varchar(255)"` // Gateway payout id.
	AdminNotes       string `gorm:"type:text"`         // Notes recorded on approval.
	RejectionReason  string `gorm:"type:text"`         // Reason recorded on rejection.
	LastError        string `gorm:"type:text"`         // Last gateway failure.

	ApprovedAt  *time.Time // Approval time.
	ProcessedAt *time.Time // Processing time.
	RejectedAt  *time.Time // Rejection time.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
