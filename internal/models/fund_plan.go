package models

import "time"

// Profit payout frequencies supported by fund plans.
const (
	PayoutFrequencyMonthly   = "monthly"
	PayoutFrequencyQuarterly = "quarterly"
	PayoutFrequencyYearly    = "yearly"
	PayoutFrequencyNone      = "none"
)

// FundPlan configures a fund product that investors allocate capital into.
type FundPlan struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	PlanCode string `gorm:"type:varchar(64);not null;uniqueIndex"` // Unique plan code.
	Name     string `gorm:"type:text;not null"`                    // Display name.

	ExpectedReturnPercent float64 `gorm:"type:decimal(10,4);not null;default:0"`       // Monthly expected return.
	ProfitPayoutFrequency string  `gorm:"type:varchar(32);not null;default:'monthly'"` // monthly, quarterly, yearly or none.
	AutoPayoutEnabled     bool    `gorm:"not null;default:false"`                      // Enables scheduled payout.
	LastAutoPayoutMonth   *string `gorm:"type:varchar(7)"`                             // YYYY-MM of the last auto payout.

	IsActive bool `gorm:"not null;default:true"` // Soft active switch.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
