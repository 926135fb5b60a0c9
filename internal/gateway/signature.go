package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signature computes the hex-encoded HMAC-SHA256 of
// "{gatewayOrderID}|{gatewayPaymentID}" under the gateway key secret. This
// is the value the gateway attaches to its payment callback.
func Signature(secret, gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the expected signature and compares it to the
// supplied one in constant time.
func VerifySignature(secret, gatewayOrderID, gatewayPaymentID, supplied string) bool {
	expected := Signature(secret, gatewayOrderID, gatewayPaymentID)
	return hmac.Equal([]byte(expected), []byte(supplied))
}
