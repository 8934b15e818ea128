package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SignPayment computes the lowercase hex HMAC-SHA256 digest Razorpay produces
// for a captured payment: the key secret over "<order_id>|<payment_id>".
func SignPayment(secret, gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s|%s", gatewayOrderID, gatewayPaymentID)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPaymentSignature reports whether the provided signature matches the
// expected digest. The comparison is constant time.
func VerifyPaymentSignature(secret, gatewayOrderID, gatewayPaymentID, provided string) bool {
	if secret == "" || gatewayOrderID == "" || gatewayPaymentID == "" || provided == "" {
		return false
	}
	expected := SignPayment(secret, gatewayOrderID, gatewayPaymentID)
	return hmac.Equal([]byte(expected), []byte(provided))
}
