// Package onboarding turns approved investor requests into investors with wallets.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fundops/fundledger/internal/metrics"
	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/notify"
	"github.com/fundops/fundledger/internal/store"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrInvalidTransition is returned when the request is no longer pending.
	ErrInvalidTransition = errors.New("onboarding: request is not pending")
	// ErrReasonRequired is returned when a rejection has no reason.
	ErrReasonRequired = errors.New("onboarding: rejection reason required")
)

// DuplicateReason is recorded on requests rejected because the user is already an investor.
const DuplicateReason = "investor already exists for this user"

const notificationPage = "dashboard"

// Outcome is the result of an approval attempt.
type Outcome struct {
	Request      *models.InvestorRequest `json:"request"`
	Investor     *models.Investor        `json:"investor,omitempty"`
	AutoRejected bool                    `json:"auto_rejected"`
}

// Service approves and rejects investor requests.
type Service struct {
	store *store.Store
	now   func() time.Time
}

// NewService returns a Service.
func NewService(s *store.Store) *Service {
	return &Service{store: s, now: func() time.Time { return time.Now().UTC() }}
}

// Approve creates the investor and an empty wallet. A request from a user who already
// has an investor record is rejected instead.
func (s *Service) Approve(ctx context.Context, id uint64) (*Outcome, error) {
	var out *Outcome
	errTx := s.store.Tx(ctx, func(tx *store.Store) error {
		req, errGet := tx.InvestorRequests.Get(ctx, id)
		if errGet != nil {
			return fmt.Errorf("onboarding: request %d: %w", id, errGet)
		}
		if req.Status != models.RequestStatusPending {
			return fmt.Errorf("%w: %s", ErrInvalidTransition, req.Status)
		}

		existing, errExisting := tx.Investors.First(ctx, map[string]any{"user_id": req.UserID})
		if errExisting != nil && !errors.Is(errExisting, store.ErrNotFound) {
			return errExisting
		}
		if existing != nil {
			req.Status = models.RequestStatusRejected
			req.RejectionReason = DuplicateReason
			if errUpdate := tx.InvestorRequests.Update(ctx, req.ID, map[string]any{
				"status":           req.Status,
				"rejection_reason": req.RejectionReason,
			}); errUpdate != nil {
				return errUpdate
			}
			out = &Outcome{Request: req, Investor: existing, AutoRejected: true}
			return nil
		}

		code, errCode := s.nextInvestorCode(ctx, tx)
		if errCode != nil {
			return errCode
		}
		inv := &models.Investor{
			UserID:       req.UserID,
			InvestorCode: code,
			FullName:     req.FullName,
			Email:        req.Email,
			Phone:        req.Phone,
			KYCStatus:    models.KYCStatusPending,
			Status:       models.InvestorStatusActive,
		}
		if errCreate := tx.Investors.Create(ctx, inv); errCreate != nil {
			return errCreate
		}
		if errWallet := tx.Wallets.Create(ctx, &models.FundWallet{InvestorID: inv.ID}); errWallet != nil {
			return errWallet
		}

		req.Status = models.RequestStatusApproved
		req.InvestorID = &inv.ID
		if errUpdate := tx.InvestorRequests.Update(ctx, req.ID, map[string]any{
			"status":      req.Status,
			"investor_id": inv.ID,
		}); errUpdate != nil {
			return errUpdate
		}
		if errNotify := notify.Enqueue(ctx, tx, notify.Message{
			UserID:  req.UserID,
			Title:   "Welcome aboard",
			Message: fmt.Sprintf("Your investor account %s has been approved.", inv.InvestorCode),
			Type:    notify.TypeSuccess,
			Page:    notificationPage,
		}); errNotify != nil {
			return errNotify
		}
		out = &Outcome{Request: req, Investor: inv}
		return nil
	})
	metrics.Transitions.WithLabelValues("onboarding", "approve", metrics.Result(errTx)).Inc()
	if errTx != nil {
		log.WithError(errTx).WithField("request_id", id).Warn("onboarding: approve failed")
		return nil, errTx
	}
	if out.AutoRejected {
		log.WithFields(log.Fields{"request_id": id, "user_id": out.Request.UserID}).Info("onboarding: duplicate request auto-rejected")
	} else {
		log.WithFields(log.Fields{"request_id": id, "investor_id": out.Investor.ID}).Info("onboarding: investor created")
	}
	return out, nil
}

// Reject closes a pending request with reason.
func (s *Service) Reject(ctx context.Context, id uint64, reason string) (*models.InvestorRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	var out *models.InvestorRequest
	errTx := s.store.Tx(ctx, func(tx *store.Store) error {
		req, errGet := tx.InvestorRequests.Get(ctx, id)
		if errGet != nil {
			return fmt.Errorf("onboarding: request %d: %w", id, errGet)
		}
		if req.Status != models.RequestStatusPending {
			return fmt.Errorf("%w: %s", ErrInvalidTransition, req.Status)
		}
		req.Status = models.RequestStatusRejected
		req.RejectionReason = reason
		if errUpdate := tx.InvestorRequests.Update(ctx, req.ID, map[string]any{
			"status":           req.Status,
			"rejection_reason": reason,
		}); errUpdate != nil {
			return errUpdate
		}
		if errNotify := notify.Enqueue(ctx, tx, notify.Message{
			UserID:  req.UserID,
			Title:   "Application rejected",
			Message: "Your investor application was rejected: " + reason,
			Type:    notify.TypeError,
			Page:    notificationPage,
		}); errNotify != nil {
			return errNotify
		}
		out = req
		return nil
	})
	metrics.Transitions.WithLabelValues("onboarding", "reject", metrics.Result(errTx)).Inc()
	if errTx != nil {
		return nil, errTx
	}
	return out, nil
}

// nextInvestorCode returns INV<unix millis>, stepping forward past codes already taken.
func (s *Service) nextInvestorCode(ctx context.Context, tx *store.Store) (string, error) {
	millis := s.now().UnixMilli()
	for i := 0; i < 1000; i++ {
		code := fmt.Sprintf("INV%d", millis+int64(i))
		n, errCount := tx.Investors.Count(ctx, map[string]any{"investor_code": code})
		if errCount != nil {
			return "", errCount
		}
		if n == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("onboarding: no free investor code near %d", millis)
}
