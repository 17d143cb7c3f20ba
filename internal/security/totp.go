package security

import (
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// totpIssuer labels enrolled secrets in authenticator apps.
const totpIssuer = "FundLedger"

// GenerateTOTP creates a new TOTP secret for account.
func GenerateTOTP(account string) (*otp.Key, error) {
	return totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: account,
	})
}

// TOTPEnabled reports whether secret holds an enrolled TOTP secret.
func TOTPEnabled(secret string) bool {
	return strings.TrimSpace(secret) != ""
}

// ValidateTOTP checks code against secret. An empty secret never validates.
func ValidateTOTP(code, secret string) bool {
	code = strings.TrimSpace(code)
	if code == "" || !TOTPEnabled(secret) {
		return false
	}
	return totp.Validate(code, secret)
}
