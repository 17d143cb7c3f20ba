// Package withdrawal runs the allocation withdrawal workflow: approve, reject, process.
package withdrawal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fundops/fundledger/internal/allocation"
	"github.com/fundops/fundledger/internal/ledger"
	"github.com/fundops/fundledger/internal/metrics"
	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/notify"
	"github.com/fundops/fundledger/internal/store"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrInvalidTransition is returned when the request's status does not allow the action.
	ErrInvalidTransition = errors.New("withdrawal: invalid status transition")
	// ErrReasonRequired is returned when a rejection has no reason.
	ErrReasonRequired = errors.New("withdrawal: rejection reason required")
)

const notificationPage = "withdrawals"

// Service applies withdrawal transitions. Each transition runs under the investor's
// wallet lock inside one database transaction.
type Service struct {
	store  *store.Store
	ledger *ledger.Ledger
	now    func() time.Time
}

// NewService returns a Service.
func NewService(s *store.Store, l *ledger.Ledger) *Service {
	return &Service{
		store:  s,
		ledger: l,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Approve places a hold on the wallet for the withdrawal amount.
func (s *Service) Approve(ctx context.Context, id uint64, adminNotes string) (*models.FundWithdrawalRequest, error) {
	req, errTransition := s.transition(ctx, "approve", id, func(ctx context.Context, tx *store.Store, req *models.FundWithdrawalRequest, inv *models.Investor) error {
		if req.Status != models.RequestStatusPending {
			return fmt.Errorf("%w: approve from %s", ErrInvalidTransition, req.Status)
		}
		amount := req.WithdrawalAmount
		if _, _, errApply := s.ledger.Apply(ctx, tx, req.InvestorID, func(w *models.FundWallet) error {
			return ledger.LockForWithdrawal(w, amount)
		}, ledger.Entry{
			Type:         models.TransactionTypeWithdrawalHold,
			Amount:       amount,
			AllocationID: &req.AllocationID,
			Reference:    requestReference(req.ID),
			Description:  "Funds held for approved withdrawal",
			Date:         s.now(),
		}); errApply != nil {
			return errApply
		}

		now := s.now()
		req.Status = models.RequestStatusApproved
		req.AdminNotes = strings.TrimSpace(adminNotes)
		req.FundsLocked = true
		req.ApprovedAt = &now
		if errUpdate := tx.Withdrawals.Update(ctx, req.ID, map[string]any{
			"status":       req.Status,
			"admin_notes":  req.AdminNotes,
			"funds_locked": true,
			"approved_at":  &now,
		}); errUpdate != nil {
			return errUpdate
		}
		return notify.Enqueue(ctx, tx, notify.Message{
			UserID:  inv.UserID,
			Title:   "Withdrawal approved",
			Message: fmt.Sprintf("Your withdrawal request for %.2f has been approved and the funds are on hold.", amount),
			Type:    notify.TypeSuccess,
			Page:    notificationPage,
		})
	})
	return req, errTransition
}

// Reject closes a pending or approved request and releases any hold.
func (s *Service) Reject(ctx context.Context, id uint64, reason string) (*models.FundWithdrawalRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	req, errTransition := s.transition(ctx, "reject", id, func(ctx context.Context, tx *store.Store, req *models.FundWithdrawalRequest, inv *models.Investor) error {
		if req.Status != models.RequestStatusPending && req.Status != models.RequestStatusApproved {
			return fmt.Errorf("%w: reject from %s", ErrInvalidTransition, req.Status)
		}
		if req.FundsLocked {
			amount := req.WithdrawalAmount
			if _, _, errApply := s.ledger.Apply(ctx, tx, req.InvestorID, func(w *models.FundWallet) error {
				return ledger.ReleaseLock(w, amount)
			}, ledger.Entry{
				Type:         models.TransactionTypeWithdrawalRelease,
				Amount:       amount,
				AllocationID: &req.AllocationID,
				Reference:    requestReference(req.ID),
				Description:  "Hold released on rejected withdrawal",
				Date:         s.now(),
			}); errApply != nil {
				return errApply
			}
		}

		now := s.now()
		req.Status = models.RequestStatusRejected
		req.RejectionReason = reason
		req.FundsLocked = false
		req.RejectedAt = &now
		if errUpdate := tx.Withdrawals.Update(ctx, req.ID, map[string]any{
			"status":           req.Status,
			"rejection_reason": reason,
			"funds_locked":     false,
			"rejected_at":      &now,
		}); errUpdate != nil {
			return errUpdate
		}
		return notify.Enqueue(ctx, tx, notify.Message{
			UserID:  inv.UserID,
			Title:   "Withdrawal rejected",
			Message: fmt.Sprintf("Your withdrawal request for %.2f was rejected: %s", req.WithdrawalAmount, reason),
			Type:    notify.TypeError,
			Page:    notificationPage,
		})
	})
	return req, errTransition
}

// Process redeems the allocation, settles the hold and credits the proceeds to the wallet.
func (s *Service) Process(ctx context.Context, id uint64) (*models.FundWithdrawalRequest, error) {
	req, errTransition := s.transition(ctx, "process", id, func(ctx context.Context, tx *store.Store, req *models.FundWithdrawalRequest, inv *models.Investor) error {
		if req.Status != models.RequestStatusApproved {
			return fmt.Errorf("%w: process from %s", ErrInvalidTransition, req.Status)
		}
		alloc, errAlloc := tx.Allocations.Get(ctx, req.AllocationID)
		if errAlloc != nil {
			return fmt.Errorf("withdrawal: allocation %d: %w", req.AllocationID, errAlloc)
		}
		if req.WithdrawalType == models.WithdrawalTypeFull {
			allocation.ApplyFullRedemption(alloc)
		} else {
			allocation.ApplyPartialRedemption(alloc, req.WithdrawalAmount)
		}
		if errUpdate := tx.Allocations.Update(ctx, alloc.ID, allocation.Fields(alloc)); errUpdate != nil {
			return errUpdate
		}

		amount := req.WithdrawalAmount
		locked := req.FundsLocked
		if _, _, errApply := s.ledger.Apply(ctx, tx, req.InvestorID, func(w *models.FundWallet) error {
			if locked {
				if errSettle := ledger.SettleLock(w, amount); errSettle != nil {
					return errSettle
				}
			}
			return ledger.Credit(w, amount)
		}, ledger.Entry{
			Type:         models.TransactionTypeRedemption,
			Amount:       amount,
			AllocationID: &alloc.ID,
			FundPlanID:   &alloc.FundPlanID,
			Reference:    requestReference(req.ID),
			Description:  fmt.Sprintf("%s withdrawal processed", req.WithdrawalType),
			Date:         s.now(),
		}); errApply != nil {
			return errApply
		}
		if _, errTotals := allocation.RecomputeInvestorTotals(ctx, tx, req.InvestorID); errTotals != nil {
			return errTotals
		}

		now := s.now()
		req.Status = models.RequestStatusProcessed
		req.FundsLocked = false
		req.ProcessedAt = &now
		if errUpdate := tx.Withdrawals.Update(ctx, req.ID, map[string]any{
			"status":       req.Status,
			"funds_locked": false,
			"processed_at": &now,
		}); errUpdate != nil {
			return errUpdate
		}
		return notify.Enqueue(ctx, tx, notify.Message{
			UserID:  inv.UserID,
			Title:   "Withdrawal processed",
			Message: fmt.Sprintf("Your withdrawal of %.2f has been processed and credited to your wallet.", amount),
			Type:    notify.TypeSuccess,
			Page:    notificationPage,
		})
	})
	return req, errTransition
}

type stepFunc func(ctx context.Context, tx *store.Store, req *models.FundWithdrawalRequest, inv *models.Investor) error

// transition locks the investor's wallet, reloads the request inside a transaction and runs step.
func (s *Service) transition(ctx context.Context, name string, id uint64, step stepFunc) (*models.FundWithdrawalRequest, error) {
	head, errGet := s.store.Withdrawals.Get(ctx, id)
	if errGet != nil {
		return nil, fmt.Errorf("withdrawal: request %d: %w", id, errGet)
	}

	var out *models.FundWithdrawalRequest
	errRun := s.ledger.WithWallet(ctx, head.InvestorID, func() error {
		return s.store.Tx(ctx, func(tx *store.Store) error {
			req, errReload := tx.Withdrawals.Get(ctx, id)
			if errReload != nil {
				return errReload
			}
			inv, errInvestor := tx.Investors.Get(ctx, req.InvestorID)
			if errInvestor != nil {
				return fmt.Errorf("withdrawal: investor %d: %w", req.InvestorID, errInvestor)
			}
			if errStep := step(ctx, tx, req, inv); errStep != nil {
				return errStep
			}
			out = req
			return nil
		})
	})
	metrics.Transitions.WithLabelValues("withdrawal", name, metrics.Result(errRun)).Inc()
	if errRun != nil {
		log.WithError(errRun).WithField("withdrawal_id", id).Warnf("withdrawal: %s failed", name)
		return nil, errRun
	}
	log.WithFields(log.Fields{"withdrawal_id": id, "investor_id": out.InvestorID, "status": out.Status}).Infof("withdrawal: %s", name)
	return out, nil
}

func requestReference(id uint64) string {
	return fmt.Sprintf("WDR-%d", id)
}
