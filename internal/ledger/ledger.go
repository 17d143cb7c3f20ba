package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fundops/fundledger/internal/lock"
	"github.com/fundops/fundledger/internal/metrics"
	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/money"
	"github.com/fundops/fundledger/internal/store"
	log "github.com/sirupsen/logrus"
)

const maxApplyAttempts = 3

// Mutation changes a wallet value in memory.
type Mutation func(w *models.FundWallet) error

// Entry describes the audit transaction written with a wallet change.
type Entry struct {
	Type         string
	Amount       float64
	AllocationID *uint64
	FundPlanID   *uint64
	Status       string
	Reference    string
	Description  string
	Date         time.Time
}

// Ledger applies wallet mutations under the per-wallet lock and the version check.
type Ledger struct {
	locker lock.Locker
}

// New returns a Ledger using locker; nil falls back to an in-process locker.
func New(locker lock.Locker) *Ledger {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &Ledger{locker: locker}
}

// WithWallet runs fn while holding the investor's wallet lock.
func (l *Ledger) WithWallet(ctx context.Context, investorID uint64, fn func() error) error {
	release, errLock := l.locker.Lock(ctx, lock.WalletKey(investorID))
	if errLock != nil {
		return errLock
	}
	defer release()
	return fn()
}

// Apply reads the investor's wallet through tx, runs mutate, saves the wallet if
// its version is unchanged and appends exactly one FundTransaction for entry.
// A version conflict reruns the whole read-mutate-write, up to three attempts.
func (l *Ledger) Apply(ctx context.Context, tx *store.Store, investorID uint64, mutate Mutation, entry Entry) (*models.FundWallet, *models.FundTransaction, error) {
	if entry.Type == "" {
		return nil, nil, fmt.Errorf("ledger: entry type required")
	}
	var lastErr error
	for attempt := 1; attempt <= maxApplyAttempts; attempt++ {
		wallet, errWallet := tx.WalletByInvestor(ctx, investorID)
		if errWallet != nil {
			if errors.Is(errWallet, store.ErrNotFound) {
				return nil, nil, fmt.Errorf("%w: investor %d", ErrWalletNotFound, investorID)
			}
			return nil, nil, errWallet
		}
		if errMutate := mutate(wallet); errMutate != nil {
			return nil, nil, errMutate
		}
		errSave := tx.SaveWalletCAS(ctx, wallet)
		if errors.Is(errSave, store.ErrVersionConflict) {
			metrics.VersionConflicts.Inc()
			log.WithFields(log.Fields{"investor_id": investorID, "attempt": attempt}).Debug("ledger: wallet version conflict")
			lastErr = errSave
			continue
		}
		if errSave != nil {
			return nil, nil, errSave
		}

		record := entryRecord(investorID, entry)
		if errCreate := tx.Transactions.Create(ctx, record); errCreate != nil {
			return nil, nil, errCreate
		}
		metrics.LedgerEntries.WithLabelValues(record.TransactionType).Inc()
		return wallet, record, nil
	}
	return nil, nil, fmt.Errorf("ledger: investor %d after %d attempts: %w", investorID, maxApplyAttempts, lastErr)
}

// Record appends an audit transaction that has no wallet effect.
func Record(ctx context.Context, tx *store.Store, investorID uint64, entry Entry) (*models.FundTransaction, error) {
	record := entryRecord(investorID, entry)
	if errCreate := tx.Transactions.Create(ctx, record); errCreate != nil {
		return nil, errCreate
	}
	metrics.LedgerEntries.WithLabelValues(record.TransactionType).Inc()
	return record, nil
}

func entryRecord(investorID uint64, entry Entry) *models.FundTransaction {
	status := entry.Status
	if status == "" {
		status = models.TransactionStatusCompleted
	}
	date := entry.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	return &models.FundTransaction{
		InvestorID:      investorID,
		AllocationID:    entry.AllocationID,
		FundPlanID:      entry.FundPlanID,
		TransactionType: entry.Type,
		Amount:          money.Round(entry.Amount),
		Status:          status,
		Reference:       entry.Reference,
		Description:     entry.Description,
		TransactionDate: date,
	}
}
