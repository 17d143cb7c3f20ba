package onboarding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/store"
	"github.com/fundops/fundledger/internal/store/storetest"
)

func seedRequest(t *testing.T, s *store.Store, userID string) *models.InvestorRequest {
	t.Helper()
	req := &models.InvestorRequest{UserID: userID, FullName: "Asha Rao", Email: "asha@example.com", Status: models.RequestStatusPending}
	if errCreate := s.InvestorRequests.Create(context.Background(), req); errCreate != nil {
		t.Fatalf("create request: %v", errCreate)
	}
	return req
}

func TestApproveCreatesInvestorAndWallet(t *testing.T) {
	s := storetest.Open(t, "onboarding_approve")
	ctx := context.Background()
	req := seedRequest(t, s, "user-1")
	svc := NewService(s)
	svc.now = func() time.Time { return time.UnixMilli(1760000000000) }

	out, errApprove := svc.Approve(ctx, req.ID)
	if errApprove != nil {
		t.Fatalf("approve: %v", errApprove)
	}
	if out.AutoRejected || out.Investor == nil {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Investor.InvestorCode != "INV1760000000000" || out.Investor.KYCStatus != models.KYCStatusPending {
		t.Fatalf("investor = %+v", out.Investor)
	}
	w, errWallet := s.WalletByInvestor(ctx, out.Investor.ID)
	if errWallet != nil || w.AvailableBalance != 0 {
		t.Fatalf("wallet = %+v err=%v", w, errWallet)
	}
	reloaded, _ := s.InvestorRequests.Get(ctx, req.ID)
	if reloaded.Status != models.RequestStatusApproved || reloaded.InvestorID == nil || *reloaded.InvestorID != out.Investor.ID {
		t.Fatalf("request = %+v", reloaded)
	}

	if _, errAgain := svc.Approve(ctx, req.ID); !errors.Is(errAgain, ErrInvalidTransition) {
		t.Fatalf("second approve err = %v", errAgain)
	}
}

func TestApproveDuplicateUserAutoRejects(t *testing.T) {
	s := storetest.Open(t, "onboarding_duplicate")
	ctx := context.Background()
	svc := NewService(s)
	first := seedRequest(t, s, "user-1")
	second := seedRequest(t, s, "user-1")

	if _, errApprove := svc.Approve(ctx, first.ID); errApprove != nil {
		t.Fatalf("approve first: %v", errApprove)
	}
	out, errApprove := svc.Approve(ctx, second.ID)
	if errApprove != nil {
		t.Fatalf("approve second: %v", errApprove)
	}
	if !out.AutoRejected || out.Request.RejectionReason != DuplicateReason {
		t.Fatalf("outcome = %+v", out)
	}
	if n, _ := s.Investors.Count(ctx, map[string]any{"user_id": "user-1"}); n != 1 {
		t.Fatalf("investors = %d, want 1", n)
	}
}

func TestInvestorCodeStepsPastCollision(t *testing.T) {
	s := storetest.Open(t, "onboarding_codes")
	ctx := context.Background()
	svc := NewService(s)
	svc.now = func() time.Time { return time.UnixMilli(1000) }

	a, _ := svc.Approve(ctx, seedRequest(t, s, "a").ID)
	b, _ := svc.Approve(ctx, seedRequest(t, s, "b").ID)
	if a.Investor.InvestorCode != "INV1000" || b.Investor.InvestorCode != "INV1001" {
		t.Fatalf("codes = %s, %s", a.Investor.InvestorCode, b.Investor.InvestorCode)
	}
}

func TestReject(t *testing.T) {
	s := storetest.Open(t, "onboarding_reject")
	ctx := context.Background()
	svc := NewService(s)
	req := seedRequest(t, s, "user-1")

	if _, err := svc.Reject(ctx, req.ID, ""); !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("err = %v, want ErrReasonRequired", err)
	}
	got, errReject := svc.Reject(ctx, req.ID, "incomplete KYC")
	if errReject != nil {
		t.Fatalf("reject: %v", errReject)
	}
	if got.Status != models.RequestStatusRejected || got.RejectionReason != "incomplete KYC" {
		t.Fatalf("request = %+v", got)
	}
	if n, _ := s.Investors.Count(ctx, nil); n != 0 {
		t.Fatalf("investors = %d, want 0", n)
	}
}
