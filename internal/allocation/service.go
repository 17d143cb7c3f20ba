package allocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fundops/fundledger/internal/ledger"
	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/money"
	"github.com/fundops/fundledger/internal/store"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrPlanInactive is returned when capital is allocated to a switched-off plan.
	ErrPlanInactive = errors.New("allocation: fund plan is not active")
	// ErrNotActive is returned when a redeemed allocation is revalued.
	ErrNotActive = errors.New("allocation: allocation is not active")
)

// InvestInput describes new capital placed into a plan.
type InvestInput struct {
	InvestorID uint64
	PlanID     uint64
	Amount     float64
	NAV        float64
	Reference  string
}

// Service performs allocation writes that also touch the audit trail and investor totals.
type Service struct {
	store *store.Store
}

// NewService returns a Service over s.
func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// Invest creates an active allocation, records the investment and refreshes investor totals.
func (s *Service) Invest(ctx context.Context, in InvestInput) (*models.FundAllocation, error) {
	if !(in.Amount > 0) {
		return nil, fmt.Errorf("%w: %v", ledger.ErrInvalidAmount, in.Amount)
	}
	nav := in.NAV
	if nav <= 0 {
		nav = DefaultNAV
	}

	var created *models.FundAllocation
	errTx := s.store.Tx(ctx, func(tx *store.Store) error {
		if _, errInvestor := tx.Investors.Get(ctx, in.InvestorID); errInvestor != nil {
			return fmt.Errorf("allocation: investor %d: %w", in.InvestorID, errInvestor)
		}
		plan, errPlan := tx.Plans.Get(ctx, in.PlanID)
		if errPlan != nil {
			return fmt.Errorf("allocation: plan %d: %w", in.PlanID, errPlan)
		}
		if !plan.IsActive {
			return ErrPlanInactive
		}

		amount := money.Round(in.Amount)
		alloc := &models.FundAllocation{
			InvestorID:    in.InvestorID,
			FundPlanID:    in.PlanID,
			UnitsHeld:     money.Units(amount, nav),
			AverageNAV:    &nav,
			TotalInvested: amount,
			CurrentValue:  amount,
			Status:        models.AllocationStatusActive,
		}
		if errCreate := tx.Allocations.Create(ctx, alloc); errCreate != nil {
			return errCreate
		}
		if _, errRecord := ledger.Record(ctx, tx, in.InvestorID, ledger.Entry{
			Type:         models.TransactionTypeInvestment,
			Amount:       amount,
			AllocationID: &alloc.ID,
			FundPlanID:   &plan.ID,
			Reference:    in.Reference,
			Description:  fmt.Sprintf("Investment in %s", plan.Name),
			Date:         time.Now().UTC(),
		}); errRecord != nil {
			return errRecord
		}
		if _, errTotals := RecomputeInvestorTotals(ctx, tx, in.InvestorID); errTotals != nil {
			return errTotals
		}
		created = alloc
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	log.WithFields(log.Fields{"investor_id": in.InvestorID, "plan_id": in.PlanID, "allocation_id": created.ID}).
		Infof("allocation: invested %.2f", created.TotalInvested)
	return created, nil
}

// Revalue sets the allocation's current value and refreshes profit figures and investor totals.
func (s *Service) Revalue(ctx context.Context, allocationID uint64, currentValue float64) (*models.FundAllocation, error) {
	if currentValue < 0 {
		return nil, fmt.Errorf("%w: %v", ledger.ErrInvalidAmount, currentValue)
	}
	var updated *models.FundAllocation
	errTx := s.store.Tx(ctx, func(tx *store.Store) error {
		alloc, errGet := tx.Allocations.Get(ctx, allocationID)
		if errGet != nil {
			return fmt.Errorf("allocation: %d: %w", allocationID, errGet)
		}
		if alloc.Status != models.AllocationStatusActive {
			return ErrNotActive
		}
		alloc.CurrentValue = money.Round(currentValue)
		refreshProfitLoss(alloc)
		if errUpdate := tx.Allocations.Update(ctx, alloc.ID, Fields(alloc)); errUpdate != nil {
			return errUpdate
		}
		if _, errTotals := RecomputeInvestorTotals(ctx, tx, alloc.InvestorID); errTotals != nil {
			return errTotals
		}
		updated = alloc
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return updated, nil
}
