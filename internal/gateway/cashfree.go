package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

const cashfreeDefaultBaseURL = "https://payout-api.cashfree.com"

type cashfree struct {
	client       *http.Client
	baseURL      string
	clientID     string
	clientSecret string
}

func newCashfree(client *http.Client, baseURL, clientID, clientSecret string) *cashfree {
	if baseURL == "" {
		baseURL = cashfreeDefaultBaseURL
	}
	return &cashfree{
		client:       client,
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

func (c *cashfree) Name() string { return NameCashfree }

// cashfreeEnvelope is the v1 response shape; failures may arrive with HTTP 200 and status ERROR.
type cashfreeEnvelope struct {
	Status  string          `json:"status"`
	SubCode string          `json:"subCode"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *cashfree) call(ctx context.Context, path, token string, body any) (cashfreeEnvelope, error) {
	var env cashfreeEnvelope
	var reader *bytes.Reader
	if body != nil {
		raw, errMarshal := json.Marshal(body)
		if errMarshal != nil {
			return env, errMarshal
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	httpReq, errReq := http.NewRequest(http.MethodPost, c.baseURL+path, reader)
	if errReq != nil {
		return env, errReq
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if token == "" {
		httpReq.Header.Set("X-Client-Id", c.clientID)
		httpReq.Header.Set("X-Client-Secret", c.clientSecret)
	} else {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	payload, errDo := doJSON(ctx, c.client, NameCashfree, httpReq)
	if errDo != nil {
		return env, errDo
	}
	if errUnmarshal := json.Unmarshal(payload, &env); errUnmarshal != nil {
		return env, fmt.Errorf("gateway: cashfree decode %s: %w", path, errUnmarshal)
	}
	if strings.EqualFold(env.Status, "ERROR") {
		return env, fmt.Errorf("gateway: cashfree %s failed: subCode=%s message=%s", path, env.SubCode, env.Message)
	}
	return env, nil
}

func (c *cashfree) authorize(ctx context.Context) (string, error) {
	env, errCall := c.call(ctx, "/payout/v1/authorize", "", nil)
	if errCall != nil {
		return "", errCall
	}
	var data struct {
		Token string `json:"token"`
	}
	if errUnmarshal := json.Unmarshal(env.Data, &data); errUnmarshal != nil || data.Token == "" {
		return "", fmt.Errorf("gateway: cashfree authorize returned no token")
	}
	return data.Token, nil
}

func (c *cashfree) Payout(ctx context.Context, req PayoutRequest) (Result, error) {
	beneID := req.Bank.CashfreeBeneID
	if beneID == "" {
		return Result{}, fmt.Errorf("%w: cashfree needs cashfree_bene_id", ErrMissingBeneficiary)
	}
	mode := "banktransfer"
	if req.Bank.AccountNumber == "" && req.Bank.UPIID != "" {
		mode = "upi"
	}

	token, errAuth := c.authorize(ctx)
	if errAuth != nil {
		return Result{}, errAuth
	}
	env, errTransfer := c.call(ctx, "/payout/v1/requestAsyncTransfer", token, map[string]any{
		"beneId":       beneID,
		"amount":       decimal.NewFromFloat(req.Amount).StringFixed(2),
		"transferId":   fmt.Sprintf("payout_%d", req.PayoutID),
		"transferMode": mode,
		"remarks":      req.Narration,
	})
	if errTransfer != nil {
		return Result{}, errTransfer
	}
	var data struct {
		ReferenceID string `json:"referenceId"`
	}
	if len(env.Data) > 0 {
		if errUnmarshal := json.Unmarshal(env.Data, &data); errUnmarshal != nil {
			return Result{}, fmt.Errorf("gateway: cashfree decode transfer: %w", errUnmarshal)
		}
	}
	if data.ReferenceID == "" {
		return Result{}, ErrNoReference
	}
	return Result{Reference: data.ReferenceID, Status: env.Status}, nil
}
