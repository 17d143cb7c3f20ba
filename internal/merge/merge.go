// Package merge finds investors that share a user identity and folds them into one record.
package merge

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/fundops/fundledger/internal/allocation"
	"github.com/fundops/fundledger/internal/ledger"
	"github.com/fundops/fundledger/internal/metrics"
	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/money"
	"github.com/fundops/fundledger/internal/store"
	log "github.com/sirupsen/logrus"
)

// ErrNoDuplicates is returned when a user id maps to fewer than two investors.
var ErrNoDuplicates = errors.New("merge: no duplicate investors for user")

// Group is a set of investors sharing one user id, primary first.
type Group struct {
	UserID    string            `json:"user_id"`
	Investors []models.Investor `json:"investors"`
}

// Result describes a completed merge.
type Result struct {
	UserID     string             `json:"user_id"`
	PrimaryID  uint64             `json:"primary_id"`
	MergedIDs  []uint64           `json:"merged_ids"`
	Wallet     *models.FundWallet `json:"wallet"`
	Investor   *models.Investor   `json:"investor"`
	Reassigned int64              `json:"reassigned_rows"`
}

// Service detects and merges duplicate investors.
type Service struct {
	store  *store.Store
	ledger *ledger.Ledger
}

// NewService returns a Service.
func NewService(s *store.Store, l *ledger.Ledger) *Service {
	return &Service{store: s, ledger: l}
}

// Detect returns every user id held by more than one investor.
func (s *Service) Detect(ctx context.Context) ([]Group, error) {
	var userIDs []string
	if errFind := s.store.DB().WithContext(ctx).
		Model(&models.Investor{}).
		Select("user_id").
		Group("user_id").
		Having("COUNT(*) > 1").
		Order("user_id ASC").
		Pluck("user_id", &userIDs).Error; errFind != nil {
		return nil, fmt.Errorf("merge: detect: %w", errFind)
	}
	groups := make([]Group, 0, len(userIDs))
	for _, userID := range userIDs {
		members, errMembers := groupMembers(ctx, s.store, userID)
		if errMembers != nil {
			return nil, errMembers
		}
		groups = append(groups, Group{UserID: userID, Investors: members})
	}
	return groups, nil
}

// groupMembers lists a user's investors, earliest created first with id as tie-break.
func groupMembers(ctx context.Context, s *store.Store, userID string) ([]models.Investor, error) {
	var members []models.Investor
	if errFind := s.DB().WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&members).Error; errFind != nil {
		return nil, fmt.Errorf("merge: load group %s: %w", userID, errFind)
	}
	return members, nil
}

// reassigned lists the tables whose investor_id moves to the primary.
var reassigned = []any{
	&models.FundAllocation{},
	&models.FundTransaction{},
	&models.FundWithdrawalRequest{},
	&models.FundPayoutRequest{},
	&models.InvestorRequest{},
}

// Merge folds every duplicate of userID into the earliest-created investor in one transaction.
func (s *Service) Merge(ctx context.Context, userID string) (*Result, error) {
	members, errMembers := groupMembers(ctx, s.store, userID)
	if errMembers != nil {
		return nil, errMembers
	}
	if len(members) < 2 {
		return nil, fmt.Errorf("%w: %s", ErrNoDuplicates, userID)
	}
	ids := make([]uint64, 0, len(members))
	for i := range members {
		ids = append(ids, members[i].ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var result *Result
	errRun := s.withWallets(ctx, ids, func() error {
		return s.store.Tx(ctx, func(tx *store.Store) error {
			current, errCurrent := groupMembers(ctx, tx, userID)
			if errCurrent != nil {
				return errCurrent
			}
			if len(current) < 2 {
				return fmt.Errorf("%w: %s", ErrNoDuplicates, userID)
			}
			primary := current[0]
			res := &Result{UserID: userID, PrimaryID: primary.ID}

			primaryWallet, errWallet := tx.WalletByInvestor(ctx, primary.ID)
			if errors.Is(errWallet, store.ErrNotFound) {
				primaryWallet = &models.FundWallet{InvestorID: primary.ID}
				if errCreate := tx.Wallets.Create(ctx, primaryWallet); errCreate != nil {
					return errCreate
				}
			} else if errWallet != nil {
				return errWallet
			}

			for _, dup := range current[1:] {
				for _, model := range reassigned {
					moved := tx.DB().WithContext(ctx).Model(model).
						Where("investor_id = ?", dup.ID).
						Update("investor_id", primary.ID)
					if moved.Error != nil {
						return fmt.Errorf("merge: reassign %T from %d: %w", model, dup.ID, moved.Error)
					}
					res.Reassigned += moved.RowsAffected
				}

				dupWallet, errDup := tx.WalletByInvestor(ctx, dup.ID)
				switch {
				case errors.Is(errDup, store.ErrNotFound):
				case errDup != nil:
					return errDup
				default:
					primaryWallet.AvailableBalance = money.Add(primaryWallet.AvailableBalance, dupWallet.AvailableBalance)
					primaryWallet.LockedBalance = money.Add(primaryWallet.LockedBalance, dupWallet.LockedBalance)
					primaryWallet.TotalDeposited = money.Add(primaryWallet.TotalDeposited, dupWallet.TotalDeposited)
					primaryWallet.TotalWithdrawn = money.Add(primaryWallet.TotalWithdrawn, dupWallet.TotalWithdrawn)
					if errDelete := tx.Wallets.Delete(ctx, dupWallet.ID); errDelete != nil {
						return errDelete
					}
				}
				if errDelete := tx.Investors.Delete(ctx, dup.ID); errDelete != nil {
					return errDelete
				}
				res.MergedIDs = append(res.MergedIDs, dup.ID)
			}

			if errSave := tx.SaveWalletCAS(ctx, primaryWallet); errSave != nil {
				return errSave
			}
			inv, errTotals := allocation.RecomputeInvestorTotals(ctx, tx, primary.ID)
			if errTotals != nil {
				return errTotals
			}
			res.Wallet = primaryWallet
			res.Investor = inv
			result = res
			return nil
		})
	})
	metrics.Transitions.WithLabelValues("merge", "merge_group", metrics.Result(errRun)).Inc()
	if errRun != nil {
		log.WithError(errRun).WithField("user_id", userID).Warn("merge: group failed")
		return nil, errRun
	}
	log.WithFields(log.Fields{"user_id": userID, "primary_id": result.PrimaryID, "merged": result.MergedIDs}).Info("merge: group merged")
	return result, nil
}

func (s *Service) withWallets(ctx context.Context, ids []uint64, fn func() error) error {
	if len(ids) == 0 {
		return fn()
	}
	return s.ledger.WithWallet(ctx, ids[0], func() error {
		return s.withWallets(ctx, ids[1:], fn)
	})
}
