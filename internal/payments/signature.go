package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ComputeSignature returns the hex HMAC-SHA256 of the raw body
func ComputeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature header against the raw,
// byte-exact request body. The header may carry "sha256=<hex>" or a bare hex
// digest. Comparison is constant-time.
func VerifySignature(secret string, body []byte, header string) bool {
	if header == "" {
		return false
	}
	provided := strings.TrimSpace(header)
	provided = strings.TrimPrefix(provided, "sha256=")

	expected := ComputeSignature(secret, body)
	return hmac.Equal([]byte(strings.ToLower(provided)), []byte(expected))
}
