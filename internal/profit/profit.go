// Package profit distributes allocation profit to investor wallets, manually or on the monthly schedule.
package profit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fundops/fundledger/internal/ledger"
	"github.com/fundops/fundledger/internal/metrics"
	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/money"
	"github.com/fundops/fundledger/internal/notify"
	"github.com/fundops/fundledger/internal/store"
	log "github.com/sirupsen/logrus"
)

// ErrInvalidPercentage is returned when a manual payout percentage is outside 1..100.
var ErrInvalidPercentage = errors.New("profit: percentage must be between 1 and 100")

const (
	defaultMaxConcurrency = 4
	notificationPage      = "wallet"
	monthLayout           = "2006-01"
)

// Distributable is the unrealized gain on a not yet paid out, never below zero.
func Distributable(a *models.FundAllocation, paid float64) float64 {
	return money.SubFloor(money.Sub(a.CurrentValue, a.TotalInvested), paid)
}

// Candidate is an active allocation with its payout position.
type Candidate struct {
	Allocation    models.FundAllocation `json:"allocation"`
	Paid          float64               `json:"paid"`
	Distributable float64               `json:"distributable"`
}

// AllocationError reports one allocation that could not be paid.
type AllocationError struct {
	AllocationID uint64 `json:"allocation_id"`
	InvestorID   uint64 `json:"investor_id"`
	Error        string `json:"error"`
}

// ManualResult aggregates a manual distribution run.
type ManualResult struct {
	Percentage float64           `json:"percentage"`
	Processed  int               `json:"processed"`
	Succeeded  int               `json:"succeeded"`
	Failed     int               `json:"failed"`
	Skipped    int               `json:"skipped"`
	TotalPaid  float64           `json:"total_paid"`
	Errors     []AllocationError `json:"errors,omitempty"`
}

// Engine computes and pays profit.
type Engine struct {
	store          *store.Store
	ledger         *ledger.Ledger
	maxConcurrency int
	now            func() time.Time
}

// NewEngine returns an Engine. maxConcurrency <= 0 uses 4 workers.
func NewEngine(s *store.Store, l *ledger.Ledger, maxConcurrency int) *Engine {
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}
	return &Engine{
		store:          s,
		ledger:         l,
		maxConcurrency: maxConcurrency,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Candidates lists every active allocation with its paid and distributable profit.
func (e *Engine) Candidates(ctx context.Context) ([]Candidate, error) {
	active, errFilter := e.store.Allocations.Filter(ctx, map[string]any{"status": models.AllocationStatusActive})
	if errFilter != nil {
		return nil, errFilter
	}
	ids := make([]uint64, 0, len(active))
	for i := range active {
		ids = append(ids, active[i].ID)
	}
	paid, errPaid := e.store.PaidProfitByAllocation(ctx, ids)
	if errPaid != nil {
		return nil, errPaid
	}
	out := make([]Candidate, 0, len(active))
	for i := range active {
		p := paid[active[i].ID]
		out = append(out, Candidate{
			Allocation:    active[i],
			Paid:          p,
			Distributable: Distributable(&active[i], p),
		})
	}
	return out, nil
}

// ManualDistribute pays percentage of each active allocation's distributable profit.
// Every allocation is its own unit of work; a failure is reported and never blocks the rest.
func (e *Engine) ManualDistribute(ctx context.Context, percentage float64) (*ManualResult, error) {
	if percentage < 1 || percentage > 100 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPercentage, percentage)
	}
	candidates, errCandidates := e.Candidates(ctx)
	if errCandidates != nil {
		return nil, errCandidates
	}

	result := &ManualResult{Percentage: percentage}
	var mu sync.Mutex
	sem := make(chan struct{}, e.maxConcurrency)
	var wg sync.WaitGroup

	for i := range candidates {
		c := candidates[i]
		if c.Distributable <= 0 {
			result.Skipped++
			continue
		}
		if ctx.Err() != nil {
			break
		}
		result.Processed++
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				<-sem
				wg.Done()
			}()
			paid, errPay := e.payManual(ctx, c.Allocation.ID, c.Allocation.InvestorID, percentage)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errPay != nil:
				result.Failed++
				result.Errors = append(result.Errors, AllocationError{
					AllocationID: c.Allocation.ID,
					InvestorID:   c.Allocation.InvestorID,
					Error:        errPay.Error(),
				})
				log.WithError(errPay).WithField("allocation_id", c.Allocation.ID).Warn("profit: manual payout failed")
			case paid == 0:
				result.Skipped++
				result.Processed--
			default:
				result.Succeeded++
				result.TotalPaid = money.Add(result.TotalPaid, paid)
			}
		}()
	}
	wg.Wait()

	sort.Slice(result.Errors, func(i, j int) bool { return result.Errors[i].AllocationID < result.Errors[j].AllocationID })
	metrics.ProfitPaid.WithLabelValues("manual").Add(result.TotalPaid)
	log.Infof("profit: manual distribution %.2f%% processed=%d succeeded=%d failed=%d skipped=%d total=%.2f",
		percentage, result.Processed, result.Succeeded, result.Failed, result.Skipped, result.TotalPaid)
	return result, nil
}

// payManual credits one allocation's share. The distributable amount is recomputed under the
// wallet lock so a concurrent run cannot pay the same profit twice.
func (e *Engine) payManual(ctx context.Context, allocationID, investorID uint64, percentage float64) (float64, error) {
	var paidAmount float64
	errRun := e.ledger.WithWallet(ctx, investorID, func() error {
		return e.store.Tx(ctx, func(tx *store.Store) error {
			alloc, errAlloc := tx.Allocations.Get(ctx, allocationID)
			if errAlloc != nil {
				return errAlloc
			}
			if alloc.Status != models.AllocationStatusActive {
				return nil
			}
			paid, errPaid := tx.PaidProfitByAllocation(ctx, []uint64{alloc.ID})
			if errPaid != nil {
				return errPaid
			}
			amount := money.Percent(Distributable(alloc, paid[alloc.ID]), percentage)
			if amount <= 0 {
				return nil
			}
			if _, _, errApply := e.ledger.Apply(ctx, tx, alloc.InvestorID, func(w *models.FundWallet) error {
				return ledger.Credit(w, amount)
			}, ledger.Entry{
				Type:         models.TransactionTypeProfitPayout,
				Amount:       amount,
				AllocationID: &alloc.ID,
				FundPlanID:   &alloc.FundPlanID,
				Description:  fmt.Sprintf("Profit distribution (%.2f%%)", percentage),
				Date:         e.now(),
			}); errApply != nil {
				return errApply
			}
			if errNotify := e.notifyCredit(ctx, tx, alloc.InvestorID, amount); errNotify != nil {
				return errNotify
			}
			paidAmount = amount
			return nil
		})
	})
	if errRun != nil {
		return 0, errRun
	}
	return paidAmount, nil
}

func (e *Engine) notifyCredit(ctx context.Context, tx *store.Store, investorID uint64, amount float64) error {
	inv, errInvestor := tx.Investors.Get(ctx, investorID)
	if errInvestor != nil {
		return fmt.Errorf("profit: investor %d: %w", investorID, errInvestor)
	}
	return notify.Enqueue(ctx, tx, notify.Message{
		UserID:  inv.UserID,
		Title:   "Profit credited",
		Message: fmt.Sprintf("%.2f profit has been credited to your wallet.", amount),
		Type:    notify.TypeSuccess,
		Page:    notificationPage,
	})
}
