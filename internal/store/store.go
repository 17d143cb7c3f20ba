// Package store is the record-store client the settlement workflows are written against.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fundops/fundledger/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("store: record not found")
	// ErrVersionConflict is returned when a wallet changed between read and write.
	ErrVersionConflict = errors.New("store: version conflict")
)

// Store bundles one Table per entity over a shared connection or transaction.
type Store struct {
	db *gorm.DB

	Investors        Table[models.Investor]
	InvestorRequests Table[models.InvestorRequest]
	Wallets          Table[models.FundWallet]
	Plans            Table[models.FundPlan]
	Allocations      Table[models.FundAllocation]
	Transactions     Table[models.FundTransaction]
	Withdrawals      Table[models.FundWithdrawalRequest]
	Payouts          Table[models.FundPayoutRequest]
	Outbox           Table[models.NotificationOutbox]
	Notifications    Table[models.Notification]
}

// New wraps db.
func New(db *gorm.DB) *Store {
	return &Store{
		db:               db,
		Investors:        NewTable[models.Investor](db),
		InvestorRequests: NewTable[models.InvestorRequest](db),
		Wallets:          NewTable[models.FundWallet](db),
		Plans:            NewTable[models.FundPlan](db),
		Allocations:      NewTable[models.FundAllocation](db),
		Transactions:     NewTable[models.FundTransaction](db),
		Withdrawals:      NewTable[models.FundWithdrawalRequest](db),
		Payouts:          NewTable[models.FundPayoutRequest](db),
		Outbox:           NewTable[models.NotificationOutbox](db),
		Notifications:    NewTable[models.Notification](db),
	}
}

// DB exposes the underlying handle for ad-hoc queries.
func (s *Store) DB() *gorm.DB { return s.db }

// Tx runs fn inside one database transaction; fn receives a Store bound to it.
func (s *Store) Tx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(New(gtx))
	})
}

// WalletByInvestor returns the investor's wallet or ErrNotFound.
func (s *Store) WalletByInvestor(ctx context.Context, investorID uint64) (*models.FundWallet, error) {
	return s.Wallets.First(ctx, map[string]any{"investor_id": investorID})
}

// SaveWalletCAS persists the wallet's balances only if its version is unchanged, then bumps the version.
func (s *Store) SaveWalletCAS(ctx context.Context, w *models.FundWallet) error {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).
		Model(&models.FundWallet{}).
		Where("id = ? AND version = ?", w.ID, w.Version).
		Updates(map[string]any{
			"available_balance": w.AvailableBalance,
			"locked_balance":    w.LockedBalance,
			"total_deposited":   w.TotalDeposited,
			"total_withdrawn":   w.TotalWithdrawn,
			"version":           w.Version + 1,
			"updated_at":        now,
		})
	if res.Error != nil {
		return fmt.Errorf("store: save wallet %d: %w", w.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	w.Version++
	w.UpdatedAt = now
	return nil
}

// PaidProfitByAllocation sums completed profit_payout transactions per allocation.
func (s *Store) PaidProfitByAllocation(ctx context.Context, allocationIDs []uint64) (map[uint64]float64, error) {
	out := make(map[uint64]float64, len(allocationIDs))
	if len(allocationIDs) == 0 {
		return out, nil
	}
	type paidRow struct {
		AllocationID uint64
		Total        float64
	}
	var rows []paidRow
	if errFind := s.db.WithContext(ctx).
		Model(&models.FundTransaction{}).
		Select("allocation_id, COALESCE(SUM(amount), 0) AS total").
		Where("transaction_type = ? AND status = ? AND allocation_id IN ?",
			models.TransactionTypeProfitPayout, models.TransactionStatusCompleted, allocationIDs).
		Group("allocation_id").
		Scan(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("store: sum paid profit: %w", errFind)
	}
	for _, row := range rows {
		out[row.AllocationID] = row.Total
	}
	return out, nil
}
