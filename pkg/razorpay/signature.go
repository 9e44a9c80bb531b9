package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// VerifyPaymentSignature checks the signature the checkout frontend reports
// after payment. The gateway signs "order_id|payment_id" with the key secret.
func VerifyPaymentSignature(keySecret, gatewayOrderID, gatewayPaymentID, signature string) bool {
	payload := fmt.Sprintf("%s|%s", gatewayOrderID, gatewayPaymentID)
	return verifyHex(keySecret, []byte(payload), signature)
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against the
// raw request body. Webhook deliveries are signed with the webhook secret,
// which is distinct from the key secret.
func VerifyWebhookSignature(webhookSecret string, body []byte, signature string) bool {
	return verifyHex(webhookSecret, body, signature)
}

func verifyHex(secret string, message []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
