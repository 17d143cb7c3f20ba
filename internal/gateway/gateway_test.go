package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fundops/fundledger/internal/settings"
)

func snapshot(values map[string]string) settings.Snapshot {
	raw := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		encoded, _ := json.Marshal(v)
		raw[k] = encoded
	}
	return settings.NewSnapshot(time.Now(), raw)
}

func TestFromSettingsMissingCredentials(t *testing.T) {
	cases := map[string]map[string]string{
		"none":     {},
		"razorpay": {settings.PayoutGatewayKey: "razorpay", settings.RazorpayKeyIDKey: "rzp_key"},
		"stripe":   {settings.PayoutGatewayKey: "Stripe"},
		"cashfree": {settings.PayoutGatewayKey: "cashfree", settings.CashfreeClientSecretKey: "secret"},
	}
	for name, values := range cases {
		if _, err := FromSettings(snapshot(values), Options{}); !errors.Is(err, ErrMissingCredentials) {
			t.Fatalf("%s: err = %v, want ErrMissingCredentials", name, err)
		}
	}
	if _, err := FromSettings(snapshot(map[string]string{settings.PayoutGatewayKey: "paypal"}), Options{}); !errors.Is(err, ErrUnknownGateway) {
		t.Fatalf("unknown gateway err = %v", err)
	}
}

func TestRazorpayPayout(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payouts" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_key" || pass != "rzp_secret" {
			t.Errorf("basic auth = %q/%q", user, pass)
		}
		if r.Header.Get("X-Payout-Idempotency") != "idem-1" {
			t.Errorf("idempotency header = %q", r.Header.Get("X-Payout-Idempotency"))
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"id":"pout_123","status":"processing"}`))
	}))
	defer srv.Close()

	gw, errGateway := FromSettings(snapshot(map[string]string{
		settings.PayoutGatewayKey:         "razorpay",
		settings.RazorpayKeyIDKey:         "rzp_key",
		settings.RazorpayKeySecretKey:     "rzp_secret",
		settings.RazorpayAccountNumberKey: "2323230000",
	}), Options{RazorpayBaseURL: srv.URL})
	if errGateway != nil {
		t.Fatalf("gateway: %v", errGateway)
	}
	res, errPayout := gw.Payout(context.Background(), PayoutRequest{
		PayoutID:       9,
		InvestorID:     3,
		Amount:         1234.56,
		Currency:       "inr",
		Bank:           BankDetails{AccountHolderName: "A", AccountNumber: "111", IFSC: "HDFC0001"},
		IdempotencyKey: "idem-1",
	})
	if errPayout != nil {
		t.Fatalf("payout: %v", errPayout)
	}
	if res.Reference != "pout_123" {
		t.Fatalf("reference = %q", res.Reference)
	}
	if gotBody["amount"] != float64(123456) || gotBody["currency"] != "INR" || gotBody["mode"] != "IMPS" {
		t.Fatalf("body = %+v", gotBody)
	}
}

func TestRazorpayNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"description":"bad ifsc"}}`))
	}))
	defer srv.Close()

	gw := newRazorpay(srv.Client(), srv.URL, "k", "s", "acc")
	_, errPayout := gw.Payout(context.Background(), PayoutRequest{Amount: 1, Bank: BankDetails{UPIID: "a@upi"}})
	var statusErr *StatusError
	if !errors.As(errPayout, &statusErr) || statusErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("err = %v, want StatusError 400", errPayout)
	}
	if !strings.Contains(statusErr.Body, "bad ifsc") {
		t.Fatalf("body = %q", statusErr.Body)
	}
}

func TestRazorpayRequiresReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"queued"}`))
	}))
	defer srv.Close()
	gw := newRazorpay(srv.Client(), srv.URL, "k", "s", "acc")
	if _, err := gw.Payout(context.Background(), PayoutRequest{Amount: 1, Bank: BankDetails{UPIID: "a@upi"}}); !errors.Is(err, ErrNoReference) {
		t.Fatalf("err = %v, want ErrNoReference", err)
	}
}

func TestRazorpayNeedsBeneficiary(t *testing.T) {
	gw := newRazorpay(http.DefaultClient, "http://127.0.0.1:1", "k", "s", "acc")
	if _, err := gw.Payout(context.Background(), PayoutRequest{Amount: 1}); !errors.Is(err, ErrMissingBeneficiary) {
		t.Fatalf("err = %v, want ErrMissingBeneficiary", err)
	}
}

func TestCashfreeAuthorizeThenTransfer(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/payout/v1/authorize":
			if r.Header.Get("X-Client-Id") != "cf_id" || r.Header.Get("X-Client-Secret") != "cf_secret" {
				t.Errorf("missing client headers")
			}
			_, _ = w.Write([]byte(`{"status":"SUCCESS","subCode":"200","data":{"token":"tok"}}`))
		case "/payout/v1/requestAsyncTransfer":
			if r.Header.Get("Authorization") != "Bearer tok" {
				t.Errorf("authorization = %q", r.Header.Get("Authorization"))
			}
			_, _ = w.Write([]byte(`{"status":"ACCEPTED","subCode":"202","data":{"referenceId":"cf_ref_77"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	gw, errGateway := FromSettings(snapshot(map[string]string{
		settings.PayoutGatewayKey:        "cashfree",
		settings.CashfreeClientIDKey:     "cf_id",
		settings.CashfreeClientSecretKey: "cf_secret",
	}), Options{CashfreeBaseURL: srv.URL, HTTPClient: srv.Client()})
	if errGateway != nil {
		t.Fatalf("gateway: %v", errGateway)
	}
	res, errPayout := gw.Payout(context.Background(), PayoutRequest{PayoutID: 1, Amount: 500, Bank: BankDetails{CashfreeBeneID: "bene1", AccountNumber: "1"}})
	if errPayout != nil {
		t.Fatalf("payout: %v", errPayout)
	}
	if res.Reference != "cf_ref_77" {
		t.Fatalf("reference = %q", res.Reference)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v", paths)
	}
}

func TestCashfreeErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ERROR","subCode":"403","message":"Token is not valid"}`))
	}))
	defer srv.Close()
	gw := newCashfree(srv.Client(), srv.URL, "id", "secret")
	if _, err := gw.Payout(context.Background(), PayoutRequest{Amount: 1, Bank: BankDetails{CashfreeBeneID: "b"}}); err == nil {
		t.Fatalf("expected error for ERROR envelope")
	}
}

func TestStripeTransfer(t *testing.T) {
	var form string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/transfers" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Idempotency-Key") != "idem-9" {
			t.Errorf("idempotency key = %q", r.Header.Get("Idempotency-Key"))
		}
		raw, _ := io.ReadAll(r.Body)
		form = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"tr_123","object":"transfer","amount":5000,"currency":"usd"}`))
	}))
	defer srv.Close()

	gw, errGateway := FromSettings(snapshot(map[string]string{
		settings.PayoutGatewayKey:   "stripe",
		settings.StripeSecretKeyKey: "sk_test_123",
	}), Options{StripeBackendURL: srv.URL, HTTPClient: srv.Client()})
	if errGateway != nil {
		t.Fatalf("gateway: %v", errGateway)
	}
	res, errPayout := gw.Payout(context.Background(), PayoutRequest{
		PayoutID:       4,
		Amount:         50,
		Currency:       "USD",
		Bank:           BankDetails{StripeAccountID: "acct_1"},
		IdempotencyKey: "idem-9",
	})
	if errPayout != nil {
		t.Fatalf("payout: %v", errPayout)
	}
	if res.Reference != "tr_123" {
		t.Fatalf("reference = %q", res.Reference)
	}
	if !strings.Contains(form, "destination=acct_1") || !strings.Contains(form, "amount=5000") {
		t.Fatalf("form = %q", form)
	}
}

func TestParseBankDetails(t *testing.T) {
	details, err := ParseBankDetails([]byte(`{"account_number":"123","ifsc_code":"SBIN0001","upi_id":"x@upi"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if details.AccountNumber != "123" || details.IFSC != "SBIN0001" || details.UPIID != "x@upi" {
		t.Fatalf("details = %+v", details)
	}
	if _, err = ParseBankDetails(nil); err != nil {
		t.Fatalf("empty: %v", err)
	}
}
