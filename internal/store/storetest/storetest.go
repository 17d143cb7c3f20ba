// Package storetest opens migrated in-memory stores for package tests.
package storetest

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fundops/fundledger/internal/db"
	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/store"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// Open returns a Store over a fresh shared-cache in-memory SQLite database.
// The pool is capped at one connection so concurrent workers queue instead of
// tripping over SQLite table locks.
func Open(t testing.TB, name string) *store.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	sqlDB, errDB := conn.DB()
	if errDB != nil {
		t.Fatalf("sql db: %v", errDB)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return store.New(conn)
}

var seq atomic.Int64

// SeedInvestor creates an investor with a wallet holding available.
func SeedInvestor(t testing.TB, s *store.Store, userID string, available float64) (*models.Investor, *models.FundWallet) {
	t.Helper()
	inv := &models.Investor{
		UserID:       userID,
		InvestorCode: fmt.Sprintf("INV%d%03d", time.Now().UnixMilli(), seq.Add(1)),
		FullName:     "Investor " + userID,
		KYCStatus:    models.KYCStatusVerified,
		Status:       models.InvestorStatusActive,
	}
	if errCreate := s.Investors.Create(t.Context(), inv); errCreate != nil {
		t.Fatalf("create investor: %v", errCreate)
	}
	w := &models.FundWallet{InvestorID: inv.ID, AvailableBalance: available, TotalDeposited: available}
	if errCreate := s.Wallets.Create(t.Context(), w); errCreate != nil {
		t.Fatalf("create wallet: %v", errCreate)
	}
	return inv, w
}

// SeedPlan creates an active plan.
func SeedPlan(t testing.TB, s *store.Store, code string, expectedReturn float64) *models.FundPlan {
	t.Helper()
	plan := &models.FundPlan{
		PlanCode:              code,
		Name:                  "Plan " + code,
		ExpectedReturnPercent: expectedReturn,
		ProfitPayoutFrequency: models.PayoutFrequencyMonthly,
		IsActive:              true,
	}
	if errCreate := s.Plans.Create(t.Context(), plan); errCreate != nil {
		t.Fatalf("create plan: %v", errCreate)
	}
	return plan
}

// SeedAllocation creates an active allocation with the given capital and value.
func SeedAllocation(t testing.TB, s *store.Store, investorID, planID uint64, invested, value float64) *models.FundAllocation {
	t.Helper()
	nav := 1.0
	alloc := &models.FundAllocation{
		InvestorID:    investorID,
		FundPlanID:    planID,
		UnitsHeld:     invested,
		AverageNAV:    &nav,
		TotalInvested: invested,
		CurrentValue:  value,
		ProfitLoss:    value - invested,
		Status:        models.AllocationStatusActive,
	}
	if errCreate := s.Allocations.Create(t.Context(), alloc); errCreate != nil {
		t.Fatalf("create allocation: %v", errCreate)
	}
	return alloc
}
