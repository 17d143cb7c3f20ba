package models

import "time"

// FundWallet holds an investor's cash balances outside fund allocations.
type FundWallet struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	InvestorID uint64 `gorm:"not null;uniqueIndex"` // Owning investor (1:1).

	AvailableBalance float64 `gorm:"type:decimal(20,2);not null;default:0"` // Spendable cash.
	LockedBalance    float64 `gorm:"type:decimal(20,2);not null;default:0"` // Held for approved withdrawals.
	TotalDeposited   float64 `gorm:"type:decimal(20,2);not null;default:0"` // Lifetime deposits.
	TotalWithdrawn   float64 `gorm:"type:decimal(20,2);not null;default:0"` // Lifetime cash-outs.

	Version uint64 `gorm:"not null;default:0"` // Optimistic concurrency counter.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
