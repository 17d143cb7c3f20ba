// Package gateway sends automated payouts through Razorpay, Stripe or Cashfree.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fundops/fundledger/internal/settings"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Gateway names accepted in the PAYOUT_GATEWAY setting.
const (
	NameRazorpay = "razorpay"
	NameStripe   = "stripe"
	NameCashfree = "cashfree"
)

const (
	defaultRequestTimeout = 30 * time.Second
	maxErrorBodyBytes     = 512
)

var (
	// ErrMissingCredentials is returned when the selected gateway has no configured credentials.
	ErrMissingCredentials = errors.New("gateway: missing credentials")
	// ErrUnknownGateway is returned when PAYOUT_GATEWAY names no supported gateway.
	ErrUnknownGateway = errors.New("gateway: unknown gateway")
	// ErrMissingBeneficiary is returned when bank details lack what the gateway needs.
	ErrMissingBeneficiary = errors.New("gateway: missing beneficiary details")
	// ErrNoReference is returned when a 2xx response carries no payout id.
	ErrNoReference = errors.New("gateway: response has no reference id")
)

// BankDetails is the beneficiary stored on a payout request.
type BankDetails struct {
	AccountHolderName string `json:"account_holder_name"`
	AccountNumber     string `json:"account_number"`
	IFSC              string `json:"ifsc_code"`
	BankName          string `json:"bank_name"`
	UPIID             string `json:"upi_id"`
	StripeAccountID   string `json:"stripe_account_id"`
	CashfreeBeneID    string `json:"cashfree_bene_id"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
}

// ParseBankDetails decodes the JSON stored on a payout request. Empty input yields zero details.
func ParseBankDetails(raw []byte) (BankDetails, error) {
	var details BankDetails
	if len(strings.TrimSpace(string(raw))) == 0 {
		return details, nil
	}
	if errUnmarshal := json.Unmarshal(raw, &details); errUnmarshal != nil {
		return details, fmt.Errorf("gateway: parse bank details: %w", errUnmarshal)
	}
	return details, nil
}

// PayoutRequest is one transfer to send.
type PayoutRequest struct {
	PayoutID       uint64
	InvestorID     uint64
	Amount         float64
	Currency       string
	Bank           BankDetails
	Narration      string
	IdempotencyKey string
}

// Result is a gateway's acceptance of a transfer.
type Result struct {
	Reference string
	Status    string
}

// Gateway sends a payout and reports the gateway-assigned reference.
type Gateway interface {
	Name() string
	Payout(ctx context.Context, req PayoutRequest) (Result, error)
}

// Options overrides endpoints and transport, mainly for tests.
type Options struct {
	HTTPClient       *http.Client
	RazorpayBaseURL  string
	CashfreeBaseURL  string
	StripeBackendURL string
}

// Selected returns the gateway name configured in snap, lower-cased.
func Selected(snap settings.Snapshot) string {
	return strings.ToLower(strings.TrimSpace(snap.String(settings.PayoutGatewayKey, "")))
}

// FromSettings builds the gateway selected in snap. Credentials are checked here so a
// misconfiguration fails before any request or ledger change.
func FromSettings(snap settings.Snapshot, opts Options) (Gateway, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	name := Selected(snap)
	switch name {
	case NameRazorpay:
		keyID := snap.String(settings.RazorpayKeyIDKey, "")
		keySecret := snap.String(settings.RazorpayKeySecretKey, "")
		account := snap.String(settings.RazorpayAccountNumberKey, "")
		if keyID == "" || keySecret == "" || account == "" {
			return nil, fmt.Errorf("%w: razorpay", ErrMissingCredentials)
		}
		return newRazorpay(httpClient, opts.RazorpayBaseURL, keyID, keySecret, account), nil
	case NameCashfree:
		clientID := snap.String(settings.CashfreeClientIDKey, "")
		clientSecret := snap.String(settings.CashfreeClientSecretKey, "")
		if clientID == "" || clientSecret == "" {
			return nil, fmt.Errorf("%w: cashfree", ErrMissingCredentials)
		}
		return newCashfree(httpClient, opts.CashfreeBaseURL, clientID, clientSecret), nil
	case NameStripe:
		secret := snap.String(settings.StripeSecretKeyKey, "")
		if secret == "" {
			return nil, fmt.Errorf("%w: stripe", ErrMissingCredentials)
		}
		return newStripe(httpClient, opts.StripeBackendURL, secret), nil
	case "":
		return nil, fmt.Errorf("%w: no gateway configured", ErrMissingCredentials)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownGateway, name)
	}
}

// StatusError is a non-2xx gateway response.
type StatusError struct {
	Gateway    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway: %s status=%d body=%s", e.Gateway, e.StatusCode, e.Body)
}

// minorUnits converts amount to the smallest currency unit.
func minorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func doJSON(ctx context.Context, client *http.Client, gatewayName string, req *http.Request) ([]byte, error) {
	resp, errDo := client.Do(req.WithContext(ctx))
	if errDo != nil {
		return nil, fmt.Errorf("gateway: %s request: %w", gatewayName, errDo)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.Errorf("gateway: %s close response body error: %v", gatewayName, errClose)
		}
	}()
	payload, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		return nil, fmt.Errorf("gateway: %s read response: %w", gatewayName, errRead)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{Gateway: gatewayName, StatusCode: resp.StatusCode, Body: summarize(payload)}
	}
	return payload, nil
}

func summarize(payload []byte) string {
	s := strings.TrimSpace(string(payload))
	if len(s) > maxErrorBodyBytes {
		return s[:maxErrorBodyBytes] + "..."
	}
	return s
}
