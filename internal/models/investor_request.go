package models

import "time"

// InvestorRequest is a pending onboarding application.
type InvestorRequest struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID   string `gorm:"type:varchar(255);not null;index"` // External user identity.
	FullName string `gorm:"type:text"`                        // Applicant name.
	Email    string `gorm:"type:text"`                        // Applicant email.
	Phone    string `gorm:"type:text"`                        // Applicant phone.

	Status          string  `gorm:"type:varchar(32);not null;default:'pending';index"` // pending, approved or rejected.
	RejectionReason string  `gorm:"type:text"`                                         // Reason recorded on rejection.
	InvestorID      *uint64 // Investor created on approval.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
