package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const razorpayDefaultBaseURL = "https://api.razorpay.com"

type razorpay struct {
	client    *http.Client
	baseURL   string
	keyID     string
	keySecret string
	account   string
}

func newRazorpay(client *http.Client, baseURL, keyID, keySecret, account string) *razorpay {
	if baseURL == "" {
		baseURL = razorpayDefaultBaseURL
	}
	return &razorpay{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		keyID:     keyID,
		keySecret: keySecret,
		account:   account,
	}
}

func (r *razorpay) Name() string { return NameRazorpay }

type razorpayContact struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Contact     string `json:"contact,omitempty"`
	Type        string `json:"type"`
	ReferenceID string `json:"reference_id"`
}

type razorpayBankAccount struct {
	Name          string `json:"name"`
	IFSC          string `json:"ifsc"`
	AccountNumber string `json:"account_number"`
}

type razorpayVPA struct {
	Address string `json:"address"`
}

type razorpayFundAccount struct {
	AccountType string               `json:"account_type"`
	BankAccount *razorpayBankAccount `json:"bank_account,omitempty"`
	VPA         *razorpayVPA         `json:"vpa,omitempty"`
	Contact     razorpayContact      `json:"contact"`
}

type razorpayPayout struct {
	AccountNumber     string              `json:"account_number"`
	Amount            int64               `json:"amount"`
	Currency          string              `json:"currency"`
	Mode              string              `json:"mode"`
	Purpose           string              `json:"purpose"`
	FundAccount       razorpayFundAccount `json:"fund_account"`
	QueueIfLowBalance bool                `json:"queue_if_low_balance"`
	ReferenceID       string              `json:"reference_id"`
	Narration         string              `json:"narration,omitempty"`
}

func (r *razorpay) Payout(ctx context.Context, req PayoutRequest) (Result, error) {
	fundAccount := razorpayFundAccount{
		Contact: razorpayContact{
			Name:        req.Bank.AccountHolderName,
			Email:       req.Bank.Email,
			Contact:     req.Bank.Phone,
			Type:        "customer",
			ReferenceID: fmt.Sprintf("investor-%d", req.InvestorID),
		},
	}
	mode := "IMPS"
	switch {
	case req.Bank.AccountNumber != "" && req.Bank.IFSC != "":
		fundAccount.AccountType = "bank_account"
		fundAccount.BankAccount = &razorpayBankAccount{
			Name:          req.Bank.AccountHolderName,
			IFSC:          req.Bank.IFSC,
			AccountNumber: req.Bank.AccountNumber,
		}
	case req.Bank.UPIID != "":
		fundAccount.AccountType = "vpa"
		fundAccount.VPA = &razorpayVPA{Address: req.Bank.UPIID}
		mode = "UPI"
	default:
		return Result{}, fmt.Errorf("%w: razorpay needs account number and IFSC or a UPI id", ErrMissingBeneficiary)
	}

	body, errMarshal := json.Marshal(razorpayPayout{
		AccountNumber:     r.account,
		Amount:            minorUnits(req.Amount),
		Currency:          strings.ToUpper(req.Currency),
		Mode:              mode,
		Purpose:           "payout",
		FundAccount:       fundAccount,
		QueueIfLowBalance: true,
		ReferenceID:       fmt.Sprintf("payout-%d", req.PayoutID),
		Narration:         req.Narration,
	})
	if errMarshal != nil {
		return Result{}, errMarshal
	}

	httpReq, errReq := http.NewRequest(http.MethodPost, r.baseURL+"/v1/payouts", bytes.NewReader(body))
	if errReq != nil {
		return Result{}, errReq
	}
	httpReq.SetBasicAuth(r.keyID, r.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("X-Payout-Idempotency", req.IdempotencyKey)
	}

	payload, errDo := doJSON(ctx, r.client, NameRazorpay, httpReq)
	if errDo != nil {
		return Result{}, errDo
	}
	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if errUnmarshal := json.Unmarshal(payload, &resp); errUnmarshal != nil {
		return Result{}, fmt.Errorf("gateway: razorpay decode: %w", errUnmarshal)
	}
	if resp.ID == "" {
		return Result{}, ErrNoReference
	}
	return Result{Reference: resp.ID, Status: resp.Status}, nil
}
