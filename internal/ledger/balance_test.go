package ledger

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/fundops/fundledger/internal/models"
)

func TestLockForWithdrawalInsufficient(t *testing.T) {
	w := &models.FundWallet{AvailableBalance: 100}
	if err := LockForWithdrawal(w, 100.01); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if w.AvailableBalance != 100 || w.LockedBalance != 0 {
		t.Fatalf("wallet mutated on failure: %+v", w)
	}
}

func TestBalanceRules(t *testing.T) {
	w := &models.FundWallet{AvailableBalance: 1000}

	if err := LockForWithdrawal(w, 400); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if w.AvailableBalance != 600 || w.LockedBalance != 400 {
		t.Fatalf("after lock: %+v", w)
	}
	if err := ReleaseLock(w, 100); err != nil {
		t.Fatalf("release: %v", err)
	}
	if w.AvailableBalance != 700 || w.LockedBalance != 300 {
		t.Fatalf("after release: %+v", w)
	}
	if err := SettleLock(w, 500); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if w.LockedBalance != 0 {
		t.Fatalf("settle must floor locked at zero, got %v", w.LockedBalance)
	}
	if err := Credit(w, 0.1); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := Credit(w, 0.2); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if w.AvailableBalance != 700.3 {
		t.Fatalf("available = %v, want 700.3", w.AvailableBalance)
	}
	if err := DebitForPayout(w, 200.3); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if w.AvailableBalance != 500 || w.TotalWithdrawn != 200.3 {
		t.Fatalf("after debit: %+v", w)
	}
	if err := DebitForPayout(w, 500.01); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("overdraw err = %v", err)
	}
}

func TestRejectsNonPositiveAmounts(t *testing.T) {
	ops := map[string]func(*models.FundWallet, float64) error{
		"credit":  Credit,
		"lock":    LockForWithdrawal,
		"release": ReleaseLock,
		"settle":  SettleLock,
		"debit":   DebitForPayout,
	}
	for name, op := range ops {
		w := &models.FundWallet{AvailableBalance: 10, LockedBalance: 10}
		for _, amount := range []float64{0, -5} {
			if err := op(w, amount); !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("%s(%v) err = %v, want ErrInvalidAmount", name, amount, err)
			}
		}
		if w.AvailableBalance != 10 || w.LockedBalance != 10 {
			t.Fatalf("%s mutated wallet on invalid amount: %+v", name, w)
		}
	}
}

func TestBalancesNeverNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ops := []func(*models.FundWallet, float64) error{Credit, LockForWithdrawal, ReleaseLock, SettleLock, DebitForPayout}
	w := &models.FundWallet{AvailableBalance: 500}
	for i := 0; i < 5000; i++ {
		op := ops[rng.Intn(len(ops))]
		amount := float64(rng.Intn(100000)+1) / 100
		_ = op(w, amount)
		if w.AvailableBalance < 0 || w.LockedBalance < 0 {
			t.Fatalf("step %d: negative balance %+v", i, w)
		}
	}
}
