package merge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fundops/fundledger/internal/ledger"
	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/store"
	"github.com/fundops/fundledger/internal/store/storetest"
)

func seedInvestorAt(t *testing.T, s *store.Store, userID string, createdAt time.Time) *models.Investor {
	t.Helper()
	inv := &models.Investor{
		UserID:       userID,
		InvestorCode: "INV-" + userID + "-" + createdAt.Format("150405.000000"),
		Status:       models.InvestorStatusActive,
		KYCStatus:    models.KYCStatusPending,
		CreatedAt:    createdAt,
	}
	if errCreate := s.Investors.Create(context.Background(), inv); errCreate != nil {
		t.Fatalf("create investor: %v", errCreate)
	}
	return inv
}

func seedWallet(t *testing.T, s *store.Store, investorID uint64, available, locked, deposited, withdrawn float64) {
	t.Helper()
	w := &models.FundWallet{
		InvestorID:       investorID,
		AvailableBalance: available,
		LockedBalance:    locked,
		TotalDeposited:   deposited,
		TotalWithdrawn:   withdrawn,
	}
	if errCreate := s.Wallets.Create(context.Background(), w); errCreate != nil {
		t.Fatalf("create wallet: %v", errCreate)
	}
}

func TestDetectGroupsByUserID(t *testing.T) {
	s := storetest.Open(t, "merge_detect")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := seedInvestorAt(t, s, "dup", base.Add(time.Hour))
	earlier := seedInvestorAt(t, s, "dup", base)
	seedInvestorAt(t, s, "single", base)

	groups, errDetect := NewService(s, ledger.New(nil)).Detect(context.Background())
	if errDetect != nil {
		t.Fatalf("detect: %v", errDetect)
	}
	if len(groups) != 1 || groups[0].UserID != "dup" || len(groups[0].Investors) != 2 {
		t.Fatalf("groups = %+v", groups)
	}
	if groups[0].Investors[0].ID != earlier.ID || groups[0].Investors[1].ID != later.ID {
		t.Fatalf("primary must be the earliest created investor")
	}
}

func TestMergeConservesWalletAndCapital(t *testing.T) {
	s := storetest.Open(t, "merge_conserve")
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	primary := seedInvestorAt(t, s, "dup", base)
	second := seedInvestorAt(t, s, "dup", base.Add(time.Minute))
	third := seedInvestorAt(t, s, "dup", base.Add(2*time.Minute))
	plan := storetest.SeedPlan(t, s, "P1", 1)

	seedWallet(t, s, primary.ID, 100, 10, 500, 400)
	seedWallet(t, s, second.ID, 200, 20, 300, 80)
	// third has no wallet
	storetest.SeedAllocation(t, s, primary.ID, plan.ID, 1000, 1100)
	storetest.SeedAllocation(t, s, second.ID, plan.ID, 2000, 2500)
	storetest.SeedAllocation(t, s, third.ID, plan.ID, 3000, 2900)
	if errCreate := s.Transactions.Create(ctx, &models.FundTransaction{
		InvestorID: second.ID, TransactionType: models.TransactionTypeInvestment, Amount: 2000,
		Status: models.TransactionStatusCompleted, TransactionDate: base,
	}); errCreate != nil {
		t.Fatalf("create tx: %v", errCreate)
	}

	res, errMerge := NewService(s, ledger.New(nil)).Merge(ctx, "dup")
	if errMerge != nil {
		t.Fatalf("merge: %v", errMerge)
	}
	if res.PrimaryID != primary.ID || len(res.MergedIDs) != 2 {
		t.Fatalf("result = %+v", res)
	}

	w, _ := s.WalletByInvestor(ctx, primary.ID)
	if w.AvailableBalance+w.LockedBalance != 330 {
		t.Fatalf("wallet total = %v, want 330", w.AvailableBalance+w.LockedBalance)
	}
	if w.TotalDeposited != 800 || w.TotalWithdrawn != 480 {
		t.Fatalf("wallet = %+v", w)
	}
	if n, _ := s.Wallets.Count(ctx, nil); n != 1 {
		t.Fatalf("wallets = %d, want 1", n)
	}
	if n, _ := s.Investors.Count(ctx, map[string]any{"user_id": "dup"}); n != 1 {
		t.Fatalf("investors = %d, want 1", n)
	}

	inv, _ := s.Investors.Get(ctx, primary.ID)
	if inv.TotalInvested != 6000 || inv.CurrentValue != 6500 || inv.TotalProfitLoss != 500 {
		t.Fatalf("investor totals = %+v", inv)
	}
	if n, _ := s.Allocations.Count(ctx, map[string]any{"investor_id": primary.ID}); n != 3 {
		t.Fatalf("allocations on primary = %d, want 3", n)
	}
	if n, _ := s.Transactions.Count(ctx, map[string]any{"investor_id": primary.ID}); n != 1 {
		t.Fatalf("transactions on primary = %d, want 1", n)
	}
}

func TestMergeCreatesPrimaryWallet(t *testing.T) {
	s := storetest.Open(t, "merge_create_wallet")
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	primary := seedInvestorAt(t, s, "dup", base)
	second := seedInvestorAt(t, s, "dup", base.Add(time.Minute))
	seedWallet(t, s, second.ID, 75, 0, 75, 0)

	if _, errMerge := NewService(s, ledger.New(nil)).Merge(ctx, "dup"); errMerge != nil {
		t.Fatalf("merge: %v", errMerge)
	}
	w, errWallet := s.WalletByInvestor(ctx, primary.ID)
	if errWallet != nil {
		t.Fatalf("primary wallet: %v", errWallet)
	}
	if w.AvailableBalance != 75 {
		t.Fatalf("available = %v, want 75", w.AvailableBalance)
	}
}

func TestMergeWithoutDuplicates(t *testing.T) {
	s := storetest.Open(t, "merge_none")
	seedInvestorAt(t, s, "solo", time.Now())
	if _, err := NewService(s, ledger.New(nil)).Merge(context.Background(), "solo"); !errors.Is(err, ErrNoDuplicates) {
		t.Fatalf("err = %v, want ErrNoDuplicates", err)
	}
}
