package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fundops/fundledger/internal/allocation"
	"github.com/fundops/fundledger/internal/config"
	"github.com/fundops/fundledger/internal/gateway"
	"github.com/fundops/fundledger/internal/ledger"
	"github.com/fundops/fundledger/internal/merge"
	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/onboarding"
	"github.com/fundops/fundledger/internal/payout"
	"github.com/fundops/fundledger/internal/profit"
	"github.com/fundops/fundledger/internal/security"
	"github.com/fundops/fundledger/internal/settings"
	"github.com/fundops/fundledger/internal/store"
	"github.com/fundops/fundledger/internal/store/storetest"
	"github.com/fundops/fundledger/internal/withdrawal"
	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"gorm.io/datatypes"
)

const testJWTSecret = "test-secret-0123456789abcdef"

type stubGateway struct{ calls int }

func (g *stubGateway) Name() string { return gateway.NameRazorpay }

func (g *stubGateway) Payout(_ context.Context, req gateway.PayoutRequest) (gateway.Result, error) {
	g.calls++
	return gateway.Result{Reference: fmt.Sprintf("pout_%d", req.PayoutID), Status: "processing"}, nil
}

type testServer struct {
	router *gin.Engine
	store  *store.Store
	gw     *stubGateway
}

func newTestServer(t *testing.T, name string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := storetest.Open(t, name)
	l := ledger.New(nil)
	gw := &stubGateway{}
	r := gin.New()
	RegisterAdminRoutes(r, Deps{
		DB:          s.DB(),
		Store:       s,
		JWT:         config.JWTConfig{Secret: testJWTSecret},
		Withdrawals: withdrawal.NewService(s, l),
		Payouts:     payout.NewService(s, l, func(settings.Snapshot) (gateway.Gateway, error) { return gw, nil }),
		Profit:      profit.NewEngine(s, l, 1),
		Merge:       merge.NewService(s, l),
		Onboarding:  onboarding.NewService(s),
		Allocations: allocation.NewService(s),
	})
	return &testServer{router: r, store: s, gw: gw}
}

func (ts *testServer) createAdmin(t *testing.T, username string, super bool, perms []string, totpSecret string) {
	t.Helper()
	hash, errHash := security.HashPassword("password-123")
	if errHash != nil {
		t.Fatalf("hash: %v", errHash)
	}
	raw, _ := json.Marshal(perms)
	if perms == nil {
		raw = []byte("[]")
	}
	admin := &models.Admin{
		Username:     username,
		Password:     hash,
		Active:       true,
		IsSuperAdmin: super,
		Permissions:  datatypes.JSON(raw),
		TOTPSecret:   totpSecret,
	}
	if errCreate := ts.store.DB().Create(admin).Error; errCreate != nil {
		t.Fatalf("create admin: %v", errCreate)
	}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		payload, errMarshal := json.Marshal(body)
		if errMarshal != nil {
			t.Fatalf("marshal body: %v", errMarshal)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) login(t *testing.T, username string, code string) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/v0/admin/login", "", map[string]string{"username": username, "password": "password-123", "code": code})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	if resp.Token == "" {
		t.Fatal("empty token")
	}
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if errDecode := json.Unmarshal(w.Body.Bytes(), dst); errDecode != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), errDecode)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d, body=%s", w.Code, want, w.Body.String())
	}
}

func TestLoginAndAuthentication(t *testing.T) {
	ts := newTestServer(t, "admin_login")
	ts.createAdmin(t, "root", true, nil, "")

	w := ts.do(t, http.MethodPost, "/v0/admin/login", "", map[string]string{"username": "root", "password": "nope-nope"})
	expectStatus(t, w, http.StatusUnauthorized)

	expectStatus(t, ts.do(t, http.MethodGet, "/v0/admin/withdrawals", "", nil), http.StatusUnauthorized)
	expectStatus(t, ts.do(t, http.MethodGet, "/v0/admin/withdrawals", "garbage", nil), http.StatusUnauthorized)

	token := ts.login(t, "root", "")
	expectStatus(t, ts.do(t, http.MethodGet, "/v0/admin/withdrawals", token, nil), http.StatusOK)
}

func TestLoginRequiresTOTPWhenEnrolled(t *testing.T) {
	ts := newTestServer(t, "admin_login_totp")
	key, errKey := security.GenerateTOTP("mfa")
	if errKey != nil {
		t.Fatalf("generate: %v", errKey)
	}
	ts.createAdmin(t, "mfa", true, nil, key.Secret())

	w := ts.do(t, http.MethodPost, "/v0/admin/login", "", map[string]string{"username": "mfa", "password": "password-123"})
	expectStatus(t, w, http.StatusForbidden)

	code, _ := totp.GenerateCode(key.Secret(), time.Now())
	ts.login(t, "mfa", code)
}

func TestPermissionMiddleware(t *testing.T) {
	ts := newTestServer(t, "admin_perms")
	ts.createAdmin(t, "viewer", false, []string{"GET /v0/admin/plans"}, "")
	token := ts.login(t, "viewer", "")

	expectStatus(t, ts.do(t, http.MethodGet, "/v0/admin/plans", token, nil), http.StatusOK)
	expectStatus(t, ts.do(t, http.MethodGet, "/v0/admin/withdrawals", token, nil), http.StatusForbidden)
	expectStatus(t, ts.do(t, http.MethodPost, "/v0/admin/profit/distribute", token, map[string]float64{"percentage": 10}), http.StatusForbidden)
	// MFA self-service needs no catalogue permission.
	expectStatus(t, ts.do(t, http.MethodGet, "/v0/admin/mfa/status", token, nil), http.StatusOK)
}

func TestOnboardInvestAndDistributeProfit(t *testing.T) {
	ts := newTestServer(t, "admin_e2e")
	ts.createAdmin(t, "root", true, nil, "")
	token := ts.login(t, "root", "")
	ctx := context.Background()

	first := &models.InvestorRequest{UserID: "user-9", FullName: "Meera", Status: models.RequestStatusPending}
	second := &models.InvestorRequest{UserID: "user-9", FullName: "Meera", Status: models.RequestStatusPending}
	for _, req := range []*models.InvestorRequest{first, second} {
		if errCreate := ts.store.InvestorRequests.Create(ctx, req); errCreate != nil {
			t.Fatalf("create request: %v", errCreate)
		}
	}

	w := ts.do(t, http.MethodPost, fmt.Sprintf("/v0/admin/investor-requests/%d/approve", first.ID), token, nil)
	expectStatus(t, w, http.StatusOK)
	var approved struct {
		Investor struct {
			ID uint64 `json:"id"`
		} `json:"investor"`
	}
	decode(t, w, &approved)
	investorID := approved.Investor.ID

	w = ts.do(t, http.MethodPost, fmt.Sprintf("/v0/admin/investor-requests/%d/approve", second.ID), token, nil)
	expectStatus(t, w, http.StatusConflict)

	w = ts.do(t, http.MethodPost, "/v0/admin/plans", token, map[string]any{"plan_code": "growth", "name": "Growth"})
	expectStatus(t, w, http.StatusCreated)
	var plan struct {
		ID       uint64 `json:"id"`
		PlanCode string `json:"plan_code"`
	}
	decode(t, w, &plan)
	if plan.PlanCode != "GROWTH" {
		t.Fatalf("plan_code = %q", plan.PlanCode)
	}

	w = ts.do(t, http.MethodPost, "/v0/admin/allocations", token, map[string]any{"investor_id": investorID, "fund_plan_id": plan.ID, "amount": 200000})
	expectStatus(t, w, http.StatusCreated)
	var alloc struct {
		ID uint64 `json:"id"`
	}
	decode(t, w, &alloc)

	w = ts.do(t, http.MethodPut, fmt.Sprintf("/v0/admin/allocations/%d/value", alloc.ID), token, map[string]float64{"current_value": 250000})
	expectStatus(t, w, http.StatusOK)

	var distributable struct {
		Total float64 `json:"total_distributable"`
	}
	w = ts.do(t, http.MethodGet, "/v0/admin/profit/distributable", token, nil)
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &distributable)
	if distributable.Total != 50000 {
		t.Fatalf("total_distributable = %v, want 50000", distributable.Total)
	}

	expectStatus(t, ts.do(t, http.MethodPost, "/v0/admin/profit/distribute", token, map[string]float64{"percentage": 0}), http.StatusBadRequest)

	w = ts.do(t, http.MethodPost, "/v0/admin/profit/distribute", token, map[string]float64{"percentage": 10})
	expectStatus(t, w, http.StatusOK)
	var result profit.ManualResult
	decode(t, w, &result)
	if result.TotalPaid != 5000 || result.Succeeded != 1 {
		t.Fatalf("result = %+v", result)
	}

	w = ts.do(t, http.MethodGet, "/v0/admin/profit/distributable", token, nil)
	decode(t, w, &distributable)
	if distributable.Total != 45000 {
		t.Fatalf("total_distributable after payout = %v, want 45000", distributable.Total)
	}

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/v0/admin/investors/%d", investorID), token, nil)
	expectStatus(t, w, http.StatusOK)
	var detail struct {
		TotalInvested float64 `json:"total_invested"`
		CurrentValue  float64 `json:"current_value"`
		Wallet        struct {
			AvailableBalance float64 `json:"available_balance"`
		} `json:"wallet"`
		Transactions []struct {
			Type string `json:"transaction_type"`
		} `json:"transactions"`
	}
	decode(t, w, &detail)
	if detail.TotalInvested != 200000 || detail.CurrentValue != 250000 || detail.Wallet.AvailableBalance != 5000 {
		t.Fatalf("investor detail = %+v", detail)
	}
	if len(detail.Transactions) != 2 {
		t.Fatalf("transactions = %+v, want investment and profit payout", detail.Transactions)
	}
}

func TestWithdrawalWorkflowOverHTTP(t *testing.T) {
	ts := newTestServer(t, "admin_withdrawal")
	ts.createAdmin(t, "root", true, nil, "")
	token := ts.login(t, "root", "")
	ctx := context.Background()

	inv, _ := storetest.SeedInvestor(t, ts.store, "user-1", 50000)
	plan := storetest.SeedPlan(t, ts.store, "P1", 1)
	alloc := storetest.SeedAllocation(t, ts.store, inv.ID, plan.ID, 100000, 120000)
	req := &models.FundWithdrawalRequest{
		InvestorID:       inv.ID,
		AllocationID:     alloc.ID,
		WithdrawalAmount: 30000,
		WithdrawalType:   models.WithdrawalTypePartial,
		Status:           models.RequestStatusPending,
	}
	if errCreate := ts.store.Withdrawals.Create(ctx, req); errCreate != nil {
		t.Fatalf("create withdrawal: %v", errCreate)
	}

	base := fmt.Sprintf("/v0/admin/withdrawals/%d", req.ID)
	expectStatus(t, ts.do(t, http.MethodPost, base+"/process", token, nil), http.StatusConflict)
	expectStatus(t, ts.do(t, http.MethodPost, base+"/reject", token, map[string]string{"reason": " "}), http.StatusBadRequest)

	w := ts.do(t, http.MethodPost, base+"/approve", token, map[string]string{"admin_notes": "ok"})
	expectStatus(t, w, http.StatusOK)
	var approved struct {
		Status      string `json:"status"`
		FundsLocked bool   `json:"funds_locked"`
	}
	decode(t, w, &approved)
	if approved.Status != models.RequestStatusApproved || !approved.FundsLocked {
		t.Fatalf("approved = %+v", approved)
	}

	w = ts.do(t, http.MethodPost, base+"/process", token, nil)
	expectStatus(t, w, http.StatusOK)

	got, errGet := ts.store.Allocations.Get(ctx, alloc.ID)
	if errGet != nil {
		t.Fatalf("allocation: %v", errGet)
	}
	if got.TotalInvested != 70000 || got.CurrentValue != 90000 {
		t.Fatalf("allocation after redemption = %+v", got)
	}

	w = ts.do(t, http.MethodGet, "/v0/admin/withdrawals?status=processed", token, nil)
	var list struct {
		Withdrawals []map[string]any `json:"withdrawals"`
	}
	decode(t, w, &list)
	if len(list.Withdrawals) != 1 {
		t.Fatalf("processed withdrawals = %d, want 1", len(list.Withdrawals))
	}

	expectStatus(t, ts.do(t, http.MethodPost, "/v0/admin/withdrawals/999/approve", token, nil), http.StatusNotFound)
}

func TestPayoutProcessingRequiresTOTP(t *testing.T) {
	ts := newTestServer(t, "admin_payout_totp")
	key, errKey := security.GenerateTOTP("ops")
	if errKey != nil {
		t.Fatalf("generate: %v", errKey)
	}
	ts.createAdmin(t, "ops", true, nil, key.Secret())
	code, _ := totp.GenerateCode(key.Secret(), time.Now())
	token := ts.login(t, "ops", code)

	inv, _ := storetest.SeedInvestor(t, ts.store, "user-1", 1000)
	req := &models.FundPayoutRequest{
		InvestorID:      inv.ID,
		RequestedAmount: 400,
		BankDetails:     datatypes.JSON(`{"account_number":"123456789012","ifsc_code":"HDFC0001","account_holder_name":"A"}`),
		Status:          models.RequestStatusApproved,
	}
	if errCreate := ts.store.Payouts.Create(context.Background(), req); errCreate != nil {
		t.Fatalf("create payout: %v", errCreate)
	}
	path := fmt.Sprintf("/v0/admin/payouts/%d/process", req.ID)

	expectStatus(t, ts.do(t, http.MethodPost, path, token, map[string]string{"utr_number": "UTR1"}), http.StatusForbidden)
	expectStatus(t, ts.do(t, http.MethodPost, path, token, map[string]string{"utr_number": "UTR1", "totp_code": "000000x"}), http.StatusUnauthorized)

	w := ts.do(t, http.MethodPost, path, token, map[string]string{"utr_number": "UTR1", "totp_code": code})
	expectStatus(t, w, http.StatusOK)
	var processed struct {
		Status       string `json:"status"`
		PayoutMethod string `json:"payout_method"`
		Bank         struct {
			AccountNumber string `json:"account_number"`
		} `json:"bank_details"`
	}
	decode(t, w, &processed)
	if processed.Status != models.RequestStatusProcessed || processed.PayoutMethod != models.PayoutMethodManual {
		t.Fatalf("processed = %+v", processed)
	}
	if processed.Bank.AccountNumber != "1234...9012" {
		t.Fatalf("account number not masked: %q", processed.Bank.AccountNumber)
	}
	w2, _ := ts.store.WalletByInvestor(context.Background(), inv.ID)
	if w2.AvailableBalance != 600 {
		t.Fatalf("available = %v, want 600", w2.AvailableBalance)
	}
}

func TestAutomatedPayoutUsesGateway(t *testing.T) {
	ts := newTestServer(t, "admin_payout_auto")
	ts.createAdmin(t, "root", true, nil, "")
	token := ts.login(t, "root", "")
	if errPut := settings.Put(context.Background(), ts.store.DB(), settings.PayoutTOTPRequiredKey, false); errPut != nil {
		t.Fatalf("put setting: %v", errPut)
	}

	inv, _ := storetest.SeedInvestor(t, ts.store, "user-1", 1000)
	req := &models.FundPayoutRequest{InvestorID: inv.ID, RequestedAmount: 250, Status: models.RequestStatusPending}
	if errCreate := ts.store.Payouts.Create(context.Background(), req); errCreate != nil {
		t.Fatalf("create payout: %v", errCreate)
	}
	base := fmt.Sprintf("/v0/admin/payouts/%d", req.ID)

	expectStatus(t, ts.do(t, http.MethodPost, base+"/process", token, map[string]string{"mode": "automated"}), http.StatusConflict)
	expectStatus(t, ts.do(t, http.MethodPost, base+"/approve", token, nil), http.StatusOK)
	expectStatus(t, ts.do(t, http.MethodPost, base+"/process", token, map[string]string{"mode": "wire"}), http.StatusBadRequest)

	w := ts.do(t, http.MethodPost, base+"/process", token, map[string]string{"mode": "automated"})
	expectStatus(t, w, http.StatusOK)
	var processed struct {
		Status           string `json:"status"`
		GatewayReference string `json:"gateway_reference"`
	}
	decode(t, w, &processed)
	if processed.Status != models.RequestStatusProcessed || processed.GatewayReference != fmt.Sprintf("pout_%d", req.ID) {
		t.Fatalf("processed = %+v", processed)
	}
	if ts.gw.calls != 1 {
		t.Fatalf("gateway calls = %d, want 1", ts.gw.calls)
	}
}

func TestProcessPayoutWithoutModeNeedsUTR(t *testing.T) {
	ts := newTestServer(t, "admin_payout_default_mode")
	ts.createAdmin(t, "root", true, nil, "")
	token := ts.login(t, "root", "")
	if errPut := settings.Put(context.Background(), ts.store.DB(), settings.PayoutTOTPRequiredKey, false); errPut != nil {
		t.Fatalf("put setting: %v", errPut)
	}

	inv, _ := storetest.SeedInvestor(t, ts.store, "user-1", 1000)
	req := &models.FundPayoutRequest{InvestorID: inv.ID, RequestedAmount: 250, Status: models.RequestStatusApproved}
	if errCreate := ts.store.Payouts.Create(context.Background(), req); errCreate != nil {
		t.Fatalf("create payout: %v", errCreate)
	}
	path := fmt.Sprintf("/v0/admin/payouts/%d/process", req.ID)

	expectStatus(t, ts.do(t, http.MethodPost, path, token, map[string]string{}), http.StatusBadRequest)
	expectStatus(t, ts.do(t, http.MethodPost, path, token, map[string]string{"admin_notes": "paid by NEFT"}), http.StatusBadRequest)
	if ts.gw.calls != 0 {
		t.Fatalf("gateway calls = %d, want 0", ts.gw.calls)
	}
	reloaded, _ := ts.store.Payouts.Get(context.Background(), req.ID)
	if reloaded.Status != models.RequestStatusApproved {
		t.Fatalf("status = %s, want approved", reloaded.Status)
	}
	w, _ := ts.store.WalletByInvestor(context.Background(), inv.ID)
	if w.AvailableBalance != 1000 {
		t.Fatalf("available = %v, want 1000", w.AvailableBalance)
	}

	resp := ts.do(t, http.MethodPost, path, token, map[string]string{"mode": "automated", "admin_notes": "sent by gateway"})
	expectStatus(t, resp, http.StatusOK)
	var processed struct {
		AdminNotes string `json:"admin_notes"`
	}
	decode(t, resp, &processed)
	if processed.AdminNotes != "sent by gateway" || ts.gw.calls != 1 {
		t.Fatalf("admin_notes = %q, gateway calls = %d", processed.AdminNotes, ts.gw.calls)
	}
}

func TestSettingsMaskCredentials(t *testing.T) {
	ts := newTestServer(t, "admin_settings")
	ts.createAdmin(t, "root", true, nil, "")
	token := ts.login(t, "root", "")

	w := ts.do(t, http.MethodPut, "/v0/admin/settings", token, map[string]any{"settings": map[string]any{
		settings.PayoutGatewayKey:     "razorpay",
		settings.RazorpayKeySecretKey: "rzp_secret_abcdef",
	}})
	expectStatus(t, w, http.StatusOK)
	var resp struct {
		Settings map[string]any `json:"settings"`
	}
	decode(t, w, &resp)
	masked, _ := resp.Settings[settings.RazorpayKeySecretKey].(string)
	if masked != "rzp_...cdef" || resp.Settings[settings.PayoutGatewayKey] != "razorpay" {
		t.Fatalf("settings = %+v", resp.Settings)
	}

	// Sending the masked value back leaves the stored secret intact.
	w = ts.do(t, http.MethodPut, "/v0/admin/settings", token, map[string]any{"settings": map[string]any{
		settings.RazorpayKeySecretKey: masked,
	}})
	expectStatus(t, w, http.StatusOK)
	snap, errLoad := settings.Load(context.Background(), ts.store.DB())
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if got := snap.String(settings.RazorpayKeySecretKey, ""); got != "rzp_secret_abcdef" {
		t.Fatalf("stored secret = %q", got)
	}
}

func TestMergeDuplicatesOverHTTP(t *testing.T) {
	ts := newTestServer(t, "admin_merge")
	ts.createAdmin(t, "root", true, nil, "")
	token := ts.login(t, "root", "")

	expectStatus(t, ts.do(t, http.MethodPost, "/v0/admin/investors/duplicates/merge", token, map[string]string{"user_id": "user-1"}), http.StatusNotFound)

	storetest.SeedInvestor(t, ts.store, "user-1", 100)
	storetest.SeedInvestor(t, ts.store, "user-1", 50)

	w := ts.do(t, http.MethodGet, "/v0/admin/investors/duplicates", token, nil)
	expectStatus(t, w, http.StatusOK)
	var groups struct {
		Groups []struct {
			UserID    string           `json:"user_id"`
			Investors []map[string]any `json:"investors"`
		} `json:"groups"`
	}
	decode(t, w, &groups)
	if len(groups.Groups) != 1 || len(groups.Groups[0].Investors) != 2 {
		t.Fatalf("groups = %+v", groups)
	}

	w = ts.do(t, http.MethodPost, "/v0/admin/investors/duplicates/merge", token, map[string]string{"user_id": "user-1"})
	expectStatus(t, w, http.StatusOK)
	var merged struct {
		Wallet struct {
			AvailableBalance float64 `json:"available_balance"`
		} `json:"wallet"`
	}
	decode(t, w, &merged)
	if merged.Wallet.AvailableBalance != 150 {
		t.Fatalf("merged available = %v, want 150", merged.Wallet.AvailableBalance)
	}
}

func TestDashboardAndTransactionLog(t *testing.T) {
	ts := newTestServer(t, "admin_dashboard")
	ts.createAdmin(t, "root", true, nil, "")
	token := ts.login(t, "root", "")

	inv, _ := storetest.SeedInvestor(t, ts.store, "user-1", 1000)
	plan := storetest.SeedPlan(t, ts.store, "P1", 1)
	storetest.SeedAllocation(t, ts.store, inv.ID, plan.ID, 100000, 120000)
	pending := &models.FundPayoutRequest{InvestorID: inv.ID, RequestedAmount: 100, Status: models.RequestStatusPending}
	if errCreate := ts.store.Payouts.Create(context.Background(), pending); errCreate != nil {
		t.Fatalf("create payout: %v", errCreate)
	}

	expectStatus(t, ts.do(t, http.MethodPost, "/v0/admin/profit/distribute", token, map[string]float64{"percentage": 10}), http.StatusOK)

	w := ts.do(t, http.MethodGet, "/v0/admin/dashboard/kpi", token, nil)
	expectStatus(t, w, http.StatusOK)
	var kpi struct {
		ActiveInvestors int64   `json:"active_investors"`
		TotalInvested   float64 `json:"total_invested"`
		TotalAUM        float64 `json:"total_aum"`
		TotalProfitLoss float64 `json:"total_profit_loss"`
		WalletAvailable float64 `json:"wallet_available"`
		MtdProfitPaid   float64 `json:"mtd_profit_paid"`
		PendingPayouts  int64   `json:"pending_payouts"`
	}
	decode(t, w, &kpi)
	if kpi.ActiveInvestors != 1 || kpi.TotalInvested != 100000 || kpi.TotalAUM != 120000 || kpi.TotalProfitLoss != 20000 {
		t.Fatalf("kpi totals = %+v", kpi)
	}
	if kpi.WalletAvailable != 3000 || kpi.MtdProfitPaid != 2000 || kpi.PendingPayouts != 1 {
		t.Fatalf("kpi flows = %+v", kpi)
	}

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/v0/admin/transactions?investor_id=%d&type=%s", inv.ID, models.TransactionTypeProfitPayout), token, nil)
	expectStatus(t, w, http.StatusOK)
	var page struct {
		Total        int64 `json:"total"`
		Transactions []struct {
			Amount float64 `json:"amount"`
		} `json:"transactions"`
	}
	decode(t, w, &page)
	if page.Total != 1 || len(page.Transactions) != 1 || page.Transactions[0].Amount != 2000 {
		t.Fatalf("transactions = %+v", page)
	}

	expectStatus(t, ts.do(t, http.MethodGet, "/v0/admin/transactions?start_date=yesterday", token, nil), http.StatusBadRequest)
	expectStatus(t, ts.do(t, http.MethodGet, "/v0/admin/version", token, nil), http.StatusOK)
}
