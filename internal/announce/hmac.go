package announce

import (
	"crypto/hmac"
	"crypto/sha256"
)

// HMACSize is the length of the HMAC-SHA256 signature in bytes.
const HMACSize = sha256.Size

// ComputeHMAC returns the HMAC-SHA256 signature for the given body using the
// shared secret.
func ComputeHMAC(body []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// VerifyHMAC performs a constant-time comparison of the expected HMAC against
// the provided signature.
func VerifyHMAC(sig, body []byte, secret string) bool {
	expected := ComputeHMAC(body, secret)
	return hmac.Equal(sig, expected)
}
