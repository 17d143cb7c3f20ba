package db

import (
	"fmt"

	"github.com/fundops/fundledger/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates every table owned by the service.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errMigrate := conn.AutoMigrate(
		&models.Admin{},
		&models.Setting{},
		&models.Investor{},
		&models.InvestorRequest{},
		&models.FundWallet{},
		&models.FundPlan{},
		&models.FundAllocation{},
		&models.FundTransaction{},
		&models.FundWithdrawalRequest{},
		&models.FundPayoutRequest{},
		&models.Notification{},
		&models.NotificationOutbox{},
	); errMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errMigrate)
	}
	return nil
}
