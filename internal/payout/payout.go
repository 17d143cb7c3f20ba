// Package payout runs the wallet payout workflow: approve, reject, and manual or gateway processing.
package payout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fundops/fundledger/internal/gateway"
	"github.com/fundops/fundledger/internal/ledger"
	"github.com/fundops/fundledger/internal/metrics"
	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/money"
	"github.com/fundops/fundledger/internal/notify"
	"github.com/fundops/fundledger/internal/settings"
	"github.com/fundops/fundledger/internal/store"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrInvalidTransition is returned when the request's status does not allow the action.
	ErrInvalidTransition = errors.New("payout: invalid status transition")
	// ErrReasonRequired is returned when a rejection has no reason.
	ErrReasonRequired = errors.New("payout: rejection reason required")
	// ErrReferenceRequired is returned when a manual payout has no UTR.
	ErrReferenceRequired = errors.New("payout: transaction reference (UTR) required")
	// ErrGatewayFailed wraps a transfer the gateway did not accept.
	ErrGatewayFailed = errors.New("payout: gateway transfer failed")
)

const notificationPage = "wallet"

// GatewayFactory resolves the gateway configured in a settings snapshot.
type GatewayFactory func(snap settings.Snapshot) (gateway.Gateway, error)

// Service applies payout transitions.
type Service struct {
	store    *store.Store
	ledger   *ledger.Ledger
	gateways GatewayFactory
	now      func() time.Time
}

// NewService returns a Service. A nil factory resolves gateways with default options.
func NewService(s *store.Store, l *ledger.Ledger, gateways GatewayFactory) *Service {
	if gateways == nil {
		gateways = func(snap settings.Snapshot) (gateway.Gateway, error) {
			return gateway.FromSettings(snap, gateway.Options{})
		}
	}
	return &Service{
		store:    s,
		ledger:   l,
		gateways: gateways,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Approve accepts a pending request. No funds move.
func (s *Service) Approve(ctx context.Context, id uint64, adminNotes string) (*models.FundPayoutRequest, error) {
	return s.transition(ctx, "approve", id, func(ctx context.Context, tx *store.Store, req *models.FundPayoutRequest, inv *models.Investor) error {
		if req.Status != models.RequestStatusPending {
			return fmt.Errorf("%w: approve from %s", ErrInvalidTransition, req.Status)
		}
		now := s.now()
		req.Status = models.RequestStatusApproved
		req.AdminNotes = strings.TrimSpace(adminNotes)
		req.ApprovedAt = &now
		if errUpdate := tx.Payouts.Update(ctx, req.ID, map[string]any{
			"status":      req.Status,
			"admin_notes": req.AdminNotes,
			"approved_at": &now,
		}); errUpdate != nil {
			return errUpdate
		}
		return notify.Enqueue(ctx, tx, notify.Message{
			UserID:  inv.UserID,
			Title:   "Payout approved",
			Message: fmt.Sprintf("Your payout request for %.2f has been approved.", req.RequestedAmount),
			Type:    notify.TypeSuccess,
			Page:    notificationPage,
		})
	})
}

// Reject closes a pending or approved request.
func (s *Service) Reject(ctx context.Context, id uint64, reason string) (*models.FundPayoutRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	return s.transition(ctx, "reject", id, func(ctx context.Context, tx *store.Store, req *models.FundPayoutRequest, inv *models.Investor) error {
		if req.Status != models.RequestStatusPending && req.Status != models.RequestStatusApproved {
			return fmt.Errorf("%w: reject from %s", ErrInvalidTransition, req.Status)
		}
		now := s.now()
		req.Status = models.RequestStatusRejected
		req.RejectionReason = reason
		req.RejectedAt = &now
		if errUpdate := tx.Payouts.Update(ctx, req.ID, map[string]any{
			"status":           req.Status,
			"rejection_reason": reason,
			"rejected_at":      &now,
		}); errUpdate != nil {
			return errUpdate
		}
		return notify.Enqueue(ctx, tx, notify.Message{
			UserID:  inv.UserID,
			Title:   "Payout rejected",
			Message: fmt.Sprintf("Your payout request for %.2f was rejected: %s", req.RequestedAmount, reason),
			Type:    notify.TypeError,
			Page:    notificationPage,
		})
	})
}

// ProcessManual settles an approved request paid outside the system, identified by its UTR.
func (s *Service) ProcessManual(ctx context.Context, id uint64, utr, adminNotes string) (*models.FundPayoutRequest, error) {
	utr = strings.TrimSpace(utr)
	if utr == "" {
		return nil, ErrReferenceRequired
	}
	return s.transition(ctx, "process_manual", id, func(ctx context.Context, tx *store.Store, req *models.FundPayoutRequest, inv *models.Investor) error {
		if req.Status != models.RequestStatusApproved {
			return fmt.Errorf("%w: process from %s", ErrInvalidTransition, req.Status)
		}
		fields := map[string]any{"utr_number": utr}
		if notes := strings.TrimSpace(adminNotes); notes != "" {
			fields["admin_notes"] = notes
			req.AdminNotes = notes
		}
		req.UTRNumber = utr
		return s.settle(ctx, tx, req, inv, models.PayoutMethodManual, utr, fields)
	})
}

// ProcessAutomated pays an approved request through the gateway configured in snap. The
// gateway must accept the transfer before the wallet is debited; on failure the request
// stays approved and records the error.
func (s *Service) ProcessAutomated(ctx context.Context, id uint64, adminNotes string, snap settings.Snapshot) (*models.FundPayoutRequest, error) {
	gw, errGateway := s.gateways(snap)
	if errGateway != nil {
		metrics.Transitions.WithLabelValues("payout", "process_automated", "error").Inc()
		return nil, errGateway
	}
	head, errGet := s.store.Payouts.Get(ctx, id)
	if errGet != nil {
		return nil, fmt.Errorf("payout: request %d: %w", id, errGet)
	}

	var out *models.FundPayoutRequest
	errRun := s.ledger.WithWallet(ctx, head.InvestorID, func() error {
		req, errReload := s.store.Payouts.Get(ctx, id)
		if errReload != nil {
			return errReload
		}
		if req.Status != models.RequestStatusApproved {
			return fmt.Errorf("%w: process from %s", ErrInvalidTransition, req.Status)
		}
		inv, errInvestor := s.store.Investors.Get(ctx, req.InvestorID)
		if errInvestor != nil {
			return fmt.Errorf("payout: investor %d: %w", req.InvestorID, errInvestor)
		}
		wallet, errWallet := s.store.WalletByInvestor(ctx, req.InvestorID)
		if errWallet != nil {
			if errors.Is(errWallet, store.ErrNotFound) {
				return fmt.Errorf("%w: investor %d", ledger.ErrWalletNotFound, req.InvestorID)
			}
			return errWallet
		}
		if money.Round(wallet.AvailableBalance) < money.Round(req.RequestedAmount) {
			return fmt.Errorf("%w: available %.2f, need %.2f", ledger.ErrInsufficientBalance, wallet.AvailableBalance, req.RequestedAmount)
		}
		bank, errBank := gateway.ParseBankDetails(req.BankDetails)
		if errBank != nil {
			return errBank
		}

		res, errPayout := gw.Payout(ctx, gateway.PayoutRequest{
			PayoutID:       req.ID,
			InvestorID:     req.InvestorID,
			Amount:         req.RequestedAmount,
			Currency:       snap.String(settings.CurrencyKey, settings.DefaultCurrency),
			Bank:           bank,
			Narration:      fmt.Sprintf("%s payout %d", snap.String(settings.PlatformNameKey, settings.DefaultPlatformName), req.ID),
			IdempotencyKey: fmt.Sprintf("payout-%d", req.ID),
		})
		metrics.GatewayCalls.WithLabelValues(gw.Name(), metrics.Result(errPayout)).Inc()
		if errPayout != nil {
			s.recordFailure(ctx, req.ID, errPayout.Error(), nil)
			return fmt.Errorf("%w: %s: %w", ErrGatewayFailed, gw.Name(), errPayout)
		}

		errTx := s.store.Tx(ctx, func(tx *store.Store) error {
			current, errCurrent := tx.Payouts.Get(ctx, id)
			if errCurrent != nil {
				return errCurrent
			}
			current.GatewayReference = res.Reference
			fields := map[string]any{"gateway_reference": res.Reference}
			if notes := strings.TrimSpace(adminNotes); notes != "" {
				fields["admin_notes"] = notes
				current.AdminNotes = notes
			}
			if errSettle := s.settle(ctx, tx, current, inv, gw.Name(), res.Reference, fields); errSettle != nil {
				return errSettle
			}
			out = current
			return nil
		})
		if errTx != nil {
			// Paid externally but not booked; keep the reference for reconciliation.
			ref := res.Reference
			s.recordFailure(ctx, req.ID, "gateway paid, ledger commit failed: "+errTx.Error(), &ref)
			return errTx
		}
		return nil
	})
	metrics.Transitions.WithLabelValues("payout", "process_automated", metrics.Result(errRun)).Inc()
	if errRun != nil {
		log.WithError(errRun).WithField("payout_id", id).Warn("payout: process_automated failed")
		return nil, errRun
	}
	log.WithFields(log.Fields{"payout_id": id, "gateway": gw.Name(), "reference": out.GatewayReference}).Info("payout: process_automated")
	return out, nil
}

// settle debits the wallet, records the withdrawal and marks the request processed. The
// status write only matches a request that is still approved.
func (s *Service) settle(ctx context.Context, tx *store.Store, req *models.FundPayoutRequest, inv *models.Investor, method, reference string, extra map[string]any) error {
	amount := req.RequestedAmount
	if _, _, errApply := s.ledger.Apply(ctx, tx, req.InvestorID, func(w *models.FundWallet) error {
		return ledger.DebitForPayout(w, amount)
	}, ledger.Entry{
		Type:        models.TransactionTypeWalletWithdrawal,
		Amount:      amount,
		Reference:   reference,
		Description: fmt.Sprintf("Wallet payout via %s", method),
		Date:        s.now(),
	}); errApply != nil {
		return errApply
	}

	now := s.now()
	req.Status = models.RequestStatusProcessed
	req.PayoutMethod = method
	req.ProcessedAt = &now
	req.LastError = ""
	fields := map[string]any{
		"status":        req.Status,
		"payout_method": method,
		"processed_at":  &now,
		"last_error":    "",
	}
	for k, v := range extra {
		fields[k] = v
	}
	n, errUpdate := tx.Payouts.UpdateWhere(ctx, map[string]any{
		"id":     req.ID,
		"status": models.RequestStatusApproved,
	}, fields)
	if errUpdate != nil {
		return errUpdate
	}
	if n == 0 {
		return fmt.Errorf("%w: request %d is no longer approved", ErrInvalidTransition, req.ID)
	}
	return notify.Enqueue(ctx, tx, notify.Message{
		UserID:  inv.UserID,
		Title:   "Payout processed",
		Message: fmt.Sprintf("Your payout of %.2f has been sent. Reference: %s", amount, reference),
		Type:    notify.TypeSuccess,
		Page:    notificationPage,
	})
}

func (s *Service) recordFailure(ctx context.Context, id uint64, message string, reference *string) {
	fields := map[string]any{"last_error": message}
	if reference != nil {
		fields["gateway_reference"] = *reference
	}
	if errUpdate := s.store.Payouts.Update(ctx, id, fields); errUpdate != nil {
		log.WithError(errUpdate).Warnf("payout: record failure for %d", id)
	}
}

type stepFunc func(ctx context.Context, tx *store.Store, req *models.FundPayoutRequest, inv *models.Investor) error

func (s *Service) transition(ctx context.Context, name string, id uint64, step stepFunc) (*models.FundPayoutRequest, error) {
	head, errGet := s.store.Payouts.Get(ctx, id)
	if errGet != nil {
		return nil, fmt.Errorf("payout: request %d: %w", id, errGet)
	}

	var out *models.FundPayoutRequest
	errRun := s.ledger.WithWallet(ctx, head.InvestorID, func() error {
		return s.store.Tx(ctx, func(tx *store.Store) error {
			req, errReload := tx.Payouts.Get(ctx, id)
			if errReload != nil {
				return errReload
			}
			inv, errInvestor := tx.Investors.Get(ctx, req.InvestorID)
			if errInvestor != nil {
				return fmt.Errorf("payout: investor %d: %w", req.InvestorID, errInvestor)
			}
			if errStep := step(ctx, tx, req, inv); errStep != nil {
				return errStep
			}
			out = req
			return nil
		})
	})
	metrics.Transitions.WithLabelValues("payout", name, metrics.Result(errRun)).Inc()
	if errRun != nil {
		log.WithError(errRun).WithField("payout_id", id).Warnf("payout: %s failed", name)
		return nil, errRun
	}
	log.WithFields(log.Fields{"payout_id": id, "investor_id": out.InvestorID, "status": out.Status}).Infof("payout: %s", name)
	return out, nil
}
