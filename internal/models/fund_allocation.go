package models

import "time"

// Allocation states.
const (
	AllocationStatusActive   = "active"
	AllocationStatusRedeemed = "redeemed"
)

// FundAllocation is an investor's stake in one fund plan.
type FundAllocation struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	InvestorID uint64 `gorm:"not null;index"` // Owning investor.
	FundPlanID uint64 `gorm:"not null;index"` // Plan the capital is allocated to.

	UnitsHeld         float64  `gorm:"type:decimal(24,8);not null;default:0"`            // Units held.
	AverageNAV        *float64 `gorm:"type:decimal(20,8)"`                               // Average purchase NAV, if known.
	TotalInvested     float64  `gorm:"type:decimal(20,2);not null;default:0"`            // Invested capital.
	CurrentValue      float64  `gorm:"type:decimal(20,2);not null;default:0"`            // Current market value.
	ProfitLoss        float64  `gorm:"type:decimal(20,2);not null;default:0"`            // CurrentValue - TotalInvested.
	ProfitLossPercent float64  `gorm:"type:decimal(12,4);not null;default:0"`            // ProfitLoss / TotalInvested * 100.
	Status            string   `gorm:"type:varchar(32);not null;default:'active';index"` // active or redeemed.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
