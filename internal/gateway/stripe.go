package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
)

type stripeGateway struct {
	api *client.API
}

func newStripe(httpClient *http.Client, backendURL, secret string) *stripeGateway {
	cfg := &stripe.BackendConfig{HTTPClient: httpClient}
	if backendURL != "" {
		cfg.URL = stripe.String(backendURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, cfg)
	api := &client.API{}
	api.Init(secret, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return &stripeGateway{api: api}
}

func (s *stripeGateway) Name() string { return NameStripe }

func (s *stripeGateway) Payout(ctx context.Context, req PayoutRequest) (Result, error) {
	if req.Bank.StripeAccountID == "" {
		return Result{}, fmt.Errorf("%w: stripe needs stripe_account_id", ErrMissingBeneficiary)
	}
	params := &stripe.TransferParams{
		Amount:        stripe.Int64(minorUnits(req.Amount)),
		Currency:      stripe.String(strings.ToLower(req.Currency)),
		Destination:   stripe.String(req.Bank.StripeAccountID),
		Description:   stripe.String(req.Narration),
		TransferGroup: stripe.String(fmt.Sprintf("payout_%d", req.PayoutID)),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	transfer, errTransfer := s.api.Transfers.New(params)
	if errTransfer != nil {
		return Result{}, fmt.Errorf("gateway: stripe transfer: %w", errTransfer)
	}
	if transfer == nil || transfer.ID == "" {
		return Result{}, ErrNoReference
	}
	return Result{Reference: transfer.ID, Status: "paid"}, nil
}
