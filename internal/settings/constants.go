package settings

// DB setting keys and defaults.
const (
	// PlatformNameKey is the display name used in investor notifications.
	PlatformNameKey = "PLATFORM_NAME"
	// DefaultPlatformName is the fallback platform name.
	DefaultPlatformName = "Fund"
	// CurrencyKey is the ISO currency code used for gateway transfers.
	CurrencyKey = "CURRENCY"
	// DefaultCurrency is the fallback currency.
	DefaultCurrency = "INR"

	// PayoutGatewayKey selects the gateway used for automated payout processing.
	PayoutGatewayKey = "PAYOUT_GATEWAY"

	// RazorpayKeyIDKey is the Razorpay API key id.
	RazorpayKeyIDKey = "RAZORPAY_KEY_ID"
	// RazorpayKeySecretKey is the Razorpay API key secret.
	RazorpayKeySecretKey = "RAZORPAY_KEY_SECRET"
	// RazorpayAccountNumberKey is the RazorpayX account payouts are debited from.
	RazorpayAccountNumberKey = "RAZORPAY_ACCOUNT_NUMBER"

	// StripeSecretKeyKey is the Stripe secret API key.
	StripeSecretKeyKey = "STRIPE_SECRET_KEY"

	// CashfreeClientIDKey is the Cashfree payouts client id.
	CashfreeClientIDKey = "CASHFREE_CLIENT_ID"
	// CashfreeClientSecretKey is the Cashfree payouts client secret.
	CashfreeClientSecretKey = "CASHFREE_CLIENT_SECRET"

	// PayoutTOTPRequiredKey forces TOTP confirmation on payout processing for admins with MFA.
	PayoutTOTPRequiredKey = "PAYOUT_TOTP_REQUIRED"
	// DefaultPayoutTOTPRequired is the fallback for PayoutTOTPRequiredKey.
	DefaultPayoutTOTPRequired = true

	// OutboxRetentionDaysKey controls how long delivered outbox rows are kept.
	OutboxRetentionDaysKey = "OUTBOX_RETENTION_DAYS"
	// DefaultOutboxRetentionDays is the fallback for OutboxRetentionDaysKey; 0 keeps rows forever.
	DefaultOutboxRetentionDays = 30
)

// secretKeys lists settings whose values are masked when listed over the API.
var secretKeys = map[string]struct{}{
	RazorpayKeySecretKey:    {},
	StripeSecretKeyKey:      {},
	CashfreeClientSecretKey: {},
}

// IsSecret reports whether key holds a credential.
func IsSecret(key string) bool {
	_, ok := secretKeys[key]
	return ok
}
