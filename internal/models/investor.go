package models

import "time"

// KYC states for an investor.
const (
	KYCStatusPending  = "pending"
	KYCStatusVerified = "verified"
	KYCStatusFailed   = "failed"
)

// Investor account states.
const (
	InvestorStatusActive   = "active"
	InvestorStatusInactive = "inactive"
)

// Investor is a platform user onboarded into the fund.
type Investor struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID       string `gorm:"type:varchar(255);not null;index"`            // External user identity.
	InvestorCode string `gorm:"type:varchar(64);not null;uniqueIndex"`       // Generated INV<unix millis> code.
	FullName     string `gorm:"type:text"`                                   // Display name.
	Email        string `gorm:"type:text"`                                   // Contact email.
	Phone        string `gorm:"type:text"`                                   // Contact phone.
	KYCStatus    string `gorm:"type:varchar(32);not null;default:'pending'"` // pending, verified or failed.
	Status       string `gorm:"type:varchar(32);not null;default:'active'"`  // active or inactive.

	TotalInvested   float64 `gorm:"type:decimal(20,2);not null;default:0"` // Sum of active allocation capital.
	CurrentValue    float64 `gorm:"type:decimal(20,2);not null;default:0"` // Sum of active allocation value.
	TotalProfitLoss float64 `gorm:"type:decimal(20,2);not null;default:0"` // CurrentValue - TotalInvested.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
