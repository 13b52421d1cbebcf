package gateway

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// Signature computes the notification signature the gateway attaches to
// webhooks: SHA-512 over order id + status code + gross amount + server key,
// hex encoded.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifySignature checks a supplied signature byte-for-byte. Hex case
// matters: the gateway always sends lowercase hex.
func VerifySignature(orderID, statusCode, grossAmount, serverKey, supplied string) bool {
	expected := Signature(orderID, statusCode, grossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(supplied)) == 1
}
