package withdrawal

import (
	"context"
	"errors"
	"testing"

	"github.com/fundops/fundledger/internal/ledger"
	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/store"
	"github.com/fundops/fundledger/internal/store/storetest"
)

type fixture struct {
	store    *store.Store
	svc      *Service
	investor *models.Investor
	alloc    *models.FundAllocation
}

func newFixture(t *testing.T, name string, available float64) *fixture {
	t.Helper()
	s := storetest.Open(t, name)
	inv, _ := storetest.SeedInvestor(t, s, "user-1", available)
	plan := storetest.SeedPlan(t, s, "P1", 1)
	alloc := storetest.SeedAllocation(t, s, inv.ID, plan.ID, 100000, 120000)
	return &fixture{store: s, svc: NewService(s, ledger.New(nil)), investor: inv, alloc: alloc}
}

func (f *fixture) request(t *testing.T, amount float64, kind string) *models.FundWithdrawalRequest {
	t.Helper()
	req := &models.FundWithdrawalRequest{
		InvestorID:       f.investor.ID,
		AllocationID:     f.alloc.ID,
		WithdrawalAmount: amount,
		WithdrawalType:   kind,
		Status:           models.RequestStatusPending,
	}
	if errCreate := f.store.Withdrawals.Create(context.Background(), req); errCreate != nil {
		t.Fatalf("create request: %v", errCreate)
	}
	return req
}

func (f *fixture) wallet(t *testing.T) *models.FundWallet {
	t.Helper()
	w, errGet := f.store.WalletByInvestor(context.Background(), f.investor.ID)
	if errGet != nil {
		t.Fatalf("wallet: %v", errGet)
	}
	return w
}

func (f *fixture) transactions(t *testing.T, kind string) []models.FundTransaction {
	t.Helper()
	rows, errFilter := f.store.Transactions.Filter(context.Background(), map[string]any{"transaction_type": kind})
	if errFilter != nil {
		t.Fatalf("transactions: %v", errFilter)
	}
	return rows
}

func TestApproveLocksFunds(t *testing.T) {
	f := newFixture(t, "wd_approve", 50000)
	req := f.request(t, 30000, models.WithdrawalTypePartial)

	got, errApprove := f.svc.Approve(context.Background(), req.ID, "  looks fine ")
	if errApprove != nil {
		t.Fatalf("approve: %v", errApprove)
	}
	if got.Status != models.RequestStatusApproved || !got.FundsLocked || got.ApprovedAt == nil || got.AdminNotes != "looks fine" {
		t.Fatalf("request = %+v", got)
	}
	w := f.wallet(t)
	if w.AvailableBalance != 20000 || w.LockedBalance != 30000 {
		t.Fatalf("wallet = %+v", w)
	}
	if holds := f.transactions(t, models.TransactionTypeWithdrawalHold); len(holds) != 1 || holds[0].Amount != 30000 {
		t.Fatalf("hold transactions = %+v", holds)
	}
	if n, _ := f.store.Outbox.Count(context.Background(), map[string]any{"user_id": "user-1"}); n != 1 {
		t.Fatalf("outbox rows = %d, want 1", n)
	}
}

func TestApproveInsufficientBalanceHasNoSideEffects(t *testing.T) {
	f := newFixture(t, "wd_insufficient", 100)
	req := f.request(t, 30000, models.WithdrawalTypePartial)

	if _, errApprove := f.svc.Approve(context.Background(), req.ID, ""); !errors.Is(errApprove, ledger.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", errApprove)
	}
	reloaded, _ := f.store.Withdrawals.Get(context.Background(), req.ID)
	if reloaded.Status != models.RequestStatusPending || reloaded.FundsLocked {
		t.Fatalf("request changed: %+v", reloaded)
	}
	if w := f.wallet(t); w.AvailableBalance != 100 || w.LockedBalance != 0 {
		t.Fatalf("wallet changed: %+v", w)
	}
	if n, _ := f.store.Outbox.Count(context.Background(), nil); n != 0 {
		t.Fatalf("outbox rows = %d, want 0", n)
	}
}

func TestRejectRequiresReason(t *testing.T) {
	f := newFixture(t, "wd_reason", 100)
	req := f.request(t, 10, models.WithdrawalTypePartial)
	if _, errReject := f.svc.Reject(context.Background(), req.ID, "   "); !errors.Is(errReject, ErrReasonRequired) {
		t.Fatalf("err = %v, want ErrReasonRequired", errReject)
	}
}

func TestRejectAfterApproveReleasesHold(t *testing.T) {
	f := newFixture(t, "wd_reject", 50000)
	req := f.request(t, 30000, models.WithdrawalTypePartial)
	ctx := context.Background()
	if _, errApprove := f.svc.Approve(ctx, req.ID, ""); errApprove != nil {
		t.Fatalf("approve: %v", errApprove)
	}

	got, errReject := f.svc.Reject(ctx, req.ID, "documents missing")
	if errReject != nil {
		t.Fatalf("reject: %v", errReject)
	}
	if got.Status != models.RequestStatusRejected || got.FundsLocked || got.RejectionReason != "documents missing" {
		t.Fatalf("request = %+v", got)
	}
	if w := f.wallet(t); w.AvailableBalance != 50000 || w.LockedBalance != 0 {
		t.Fatalf("wallet = %+v", w)
	}
	if rel := f.transactions(t, models.TransactionTypeWithdrawalRelease); len(rel) != 1 {
		t.Fatalf("release transactions = %d, want 1", len(rel))
	}

	if _, errAgain := f.svc.Reject(ctx, req.ID, "again"); !errors.Is(errAgain, ErrInvalidTransition) {
		t.Fatalf("second reject err = %v, want ErrInvalidTransition", errAgain)
	}
}

func TestRejectPendingTouchesNoWallet(t *testing.T) {
	f := newFixture(t, "wd_reject_pending", 500)
	req := f.request(t, 100, models.WithdrawalTypePartial)
	if _, errReject := f.svc.Reject(context.Background(), req.ID, "duplicate"); errReject != nil {
		t.Fatalf("reject: %v", errReject)
	}
	if w := f.wallet(t); w.AvailableBalance != 500 || w.Version != 0 {
		t.Fatalf("wallet = %+v", w)
	}
	if n, _ := f.store.Transactions.Count(context.Background(), nil); n != 0 {
		t.Fatalf("transactions = %d, want 0", n)
	}
}

func TestProcessPartialWithdrawal(t *testing.T) {
	f := newFixture(t, "wd_process", 50000)
	req := f.request(t, 30000, models.WithdrawalTypePartial)
	ctx := context.Background()

	if _, errProcess := f.svc.Process(ctx, req.ID); !errors.Is(errProcess, ErrInvalidTransition) {
		t.Fatalf("process pending err = %v, want ErrInvalidTransition", errProcess)
	}
	if _, errApprove := f.svc.Approve(ctx, req.ID, ""); errApprove != nil {
		t.Fatalf("approve: %v", errApprove)
	}
	got, errProcess := f.svc.Process(ctx, req.ID)
	if errProcess != nil {
		t.Fatalf("process: %v", errProcess)
	}
	if got.Status != models.RequestStatusProcessed || got.ProcessedAt == nil {
		t.Fatalf("request = %+v", got)
	}

	alloc, _ := f.store.Allocations.Get(ctx, f.alloc.ID)
	if alloc.TotalInvested != 70000 || alloc.CurrentValue != 90000 || alloc.ProfitLoss != 20000 || alloc.Status != models.AllocationStatusActive {
		t.Fatalf("allocation = %+v", alloc)
	}
	if w := f.wallet(t); w.AvailableBalance != 50000 || w.LockedBalance != 0 {
		t.Fatalf("wallet = %+v", w)
	}
	if red := f.transactions(t, models.TransactionTypeRedemption); len(red) != 1 || red[0].Amount != 30000 {
		t.Fatalf("redemption transactions = %+v", red)
	}
	inv, _ := f.store.Investors.Get(ctx, f.investor.ID)
	if inv.TotalInvested != 70000 || inv.CurrentValue != 90000 || inv.TotalProfitLoss != 20000 {
		t.Fatalf("investor = %+v", inv)
	}

	if _, errAgain := f.svc.Approve(ctx, req.ID, ""); !errors.Is(errAgain, ErrInvalidTransition) {
		t.Fatalf("approve processed err = %v", errAgain)
	}
}

func TestProcessFullWithdrawal(t *testing.T) {
	f := newFixture(t, "wd_full", 120000)
	req := f.request(t, 120000, models.WithdrawalTypeFull)
	ctx := context.Background()
	if _, errApprove := f.svc.Approve(ctx, req.ID, ""); errApprove != nil {
		t.Fatalf("approve: %v", errApprove)
	}
	if _, errProcess := f.svc.Process(ctx, req.ID); errProcess != nil {
		t.Fatalf("process: %v", errProcess)
	}
	alloc, _ := f.store.Allocations.Get(ctx, f.alloc.ID)
	if alloc.Status != models.AllocationStatusRedeemed || alloc.TotalInvested != 0 || alloc.CurrentValue != 0 || alloc.UnitsHeld != 0 {
		t.Fatalf("allocation = %+v", alloc)
	}
	inv, _ := f.store.Investors.Get(ctx, f.investor.ID)
	if inv.TotalInvested != 0 || inv.CurrentValue != 0 {
		t.Fatalf("investor = %+v", inv)
	}
	// Hold, then redemption: one audit row per ledger-mutating transition.
	if n, _ := f.store.Transactions.Count(ctx, nil); n != 2 {
		t.Fatalf("transactions = %d, want 2", n)
	}
}
