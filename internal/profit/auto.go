package profit

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/fundops/fundledger/internal/ledger"
	"github.com/fundops/fundledger/internal/metrics"
	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/money"
	"github.com/fundops/fundledger/internal/store"
	log "github.com/sirupsen/logrus"
)

// PlanRun reports what one plan contributed to an automated run.
type PlanRun struct {
	PlanID   uint64  `json:"plan_id"`
	PlanCode string  `json:"plan_code"`
	Credited int     `json:"credited"`
	Skipped  int     `json:"skipped"`
	Paid     float64 `json:"paid"`
	Status   string  `json:"status"`
	Error    string  `json:"error,omitempty"`
}

// Plan run statuses.
const (
	PlanRunPaid             = "paid"
	PlanRunAlreadyProcessed = "already_processed"
	PlanRunFailed           = "failed"
)

// AutoResult aggregates an automated monthly run.
type AutoResult struct {
	Month     string    `json:"month"`
	Plans     []PlanRun `json:"plans"`
	TotalPaid float64   `json:"total_paid"`
}

// AutoMonthly pays every eligible monthly plan once for the current month. A plan's credits
// and its month stamp commit together, so a second run in the same month is a no-op.
func (e *Engine) AutoMonthly(ctx context.Context) (*AutoResult, error) {
	month := e.now().Format(monthLayout)
	plans, errPlans := e.store.Plans.Filter(ctx, map[string]any{
		"auto_payout_enabled":     true,
		"profit_payout_frequency": models.PayoutFrequencyMonthly,
	})
	if errPlans != nil {
		return nil, errPlans
	}

	result := &AutoResult{Month: month}
	for i := range plans {
		plan := plans[i]
		if plan.ExpectedReturnPercent <= 0 {
			continue
		}
		if plan.LastAutoPayoutMonth != nil && *plan.LastAutoPayoutMonth == month {
			log.Infof("profit: auto payout for plan %s already processed for %s", plan.PlanCode, month)
			result.Plans = append(result.Plans, PlanRun{PlanID: plan.ID, PlanCode: plan.PlanCode, Status: PlanRunAlreadyProcessed})
			continue
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		run, errRun := e.payPlan(ctx, plan.ID, month)
		if errRun != nil {
			log.WithError(errRun).Warnf("profit: auto payout for plan %s failed", plan.PlanCode)
			result.Plans = append(result.Plans, PlanRun{PlanID: plan.ID, PlanCode: plan.PlanCode, Status: PlanRunFailed, Error: errRun.Error()})
			continue
		}
		result.Plans = append(result.Plans, run)
		result.TotalPaid = money.Add(result.TotalPaid, run.Paid)
	}
	metrics.ProfitPaid.WithLabelValues("auto").Add(result.TotalPaid)
	return result, nil
}

func (e *Engine) payPlan(ctx context.Context, planID uint64, month string) (PlanRun, error) {
	allocs, errAllocs := e.store.Allocations.Filter(ctx, map[string]any{
		"fund_plan_id": planID,
		"status":       models.AllocationStatusActive,
	})
	if errAllocs != nil {
		return PlanRun{}, errAllocs
	}

	// Wallet locks are taken in investor order before the transaction opens.
	investorIDs := make([]uint64, 0, len(allocs))
	seen := make(map[uint64]struct{}, len(allocs))
	for i := range allocs {
		if _, ok := seen[allocs[i].InvestorID]; ok {
			continue
		}
		seen[allocs[i].InvestorID] = struct{}{}
		investorIDs = append(investorIDs, allocs[i].InvestorID)
	}
	sort.Slice(investorIDs, func(i, j int) bool { return investorIDs[i] < investorIDs[j] })

	var run PlanRun
	errLocked := e.withWallets(ctx, investorIDs, func() error {
		return e.store.Tx(ctx, func(tx *store.Store) error {
			plan, errPlan := tx.Plans.Get(ctx, planID)
			if errPlan != nil {
				return errPlan
			}
			run = PlanRun{PlanID: plan.ID, PlanCode: plan.PlanCode}
			if plan.LastAutoPayoutMonth != nil && *plan.LastAutoPayoutMonth == month {
				run.Status = PlanRunAlreadyProcessed
				return nil
			}

			current, errCurrent := tx.Allocations.Filter(ctx, map[string]any{
				"fund_plan_id": planID,
				"status":       models.AllocationStatusActive,
			})
			if errCurrent != nil {
				return errCurrent
			}
			for i := range current {
				alloc := current[i]
				if alloc.TotalInvested <= 0 {
					continue
				}
				if _, held := seen[alloc.InvestorID]; !held {
					// Allocated after the locks were taken; picked up next month.
					run.Skipped++
					continue
				}
				amount := money.Percent(alloc.TotalInvested, plan.ExpectedReturnPercent)
				if amount <= 0 {
					continue
				}
				_, _, errApply := e.ledger.Apply(ctx, tx, alloc.InvestorID, func(w *models.FundWallet) error {
					return ledger.Credit(w, amount)
				}, ledger.Entry{
					Type:         models.TransactionTypeProfitPayout,
					Amount:       amount,
					AllocationID: &alloc.ID,
					FundPlanID:   &plan.ID,
					Description:  fmt.Sprintf("Monthly auto payout %s (%s)", month, plan.Name),
					Date:         e.now(),
				})
				if errors.Is(errApply, ledger.ErrWalletNotFound) {
					log.WithField("investor_id", alloc.InvestorID).Warnf("profit: auto payout skipped, no wallet (plan=%s)", plan.PlanCode)
					run.Skipped++
					continue
				}
				if errApply != nil {
					return errApply
				}
				if errNotify := e.notifyCredit(ctx, tx, alloc.InvestorID, amount); errNotify != nil {
					return errNotify
				}
				run.Credited++
				run.Paid = money.Add(run.Paid, amount)
			}

			stamp := month
			if errStamp := tx.Plans.Update(ctx, plan.ID, map[string]any{"last_auto_payout_month": &stamp}); errStamp != nil {
				return errStamp
			}
			run.Status = PlanRunPaid
			return nil
		})
	})
	if errLocked != nil {
		return PlanRun{}, errLocked
	}
	if run.Status == PlanRunPaid {
		log.Infof("profit: auto payout plan=%s month=%s credited=%d skipped=%d paid=%.2f",
			run.PlanCode, month, run.Credited, run.Skipped, run.Paid)
	}
	return run, nil
}

// withWallets acquires the wallet locks for ids in order, runs fn and releases them.
func (e *Engine) withWallets(ctx context.Context, ids []uint64, fn func() error) error {
	if len(ids) == 0 {
		return fn()
	}
	return e.ledger.WithWallet(ctx, ids[0], func() error {
		return e.withWallets(ctx, ids[1:], fn)
	})
}
