package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// SignatureHeader is the webhook signature header Paystack sends.
const SignatureHeader = "x-paystack-signature"

// Hmac512 generates the hex HMAC-SHA512 of body under key.
func Hmac512(body, key []byte) string {
	hash := hmac.New(sha512.New, key)
	hash.Write(body)
	return hex.EncodeToString(hash.Sum(nil))
}

// VerifyWebhookSignature checks the webhook signature against the raw
// request body using a constant-time comparison.
func VerifyWebhookSignature(body []byte, signature, secret string) bool {
	expected := Hmac512(body, []byte(secret))
	return hmac.Equal([]byte(expected), []byte(signature))
}
