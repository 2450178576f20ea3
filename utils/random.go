package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// GenerateNonce returns n cryptographically random bytes encoded with the
// URL-safe base64 alphabet (no padding), so the result is safe inside a
// colon-delimited token.
func GenerateNonce(n int) (string, error) {
	byt := make([]byte, n)
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(byt), nil
}

// GenerateCode returns n random bytes as an uppercase hex string, used for
// ticket numbers and reference labels.
func GenerateCode(n int) (string, error) {
	byt := make([]byte, n)
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(byt)), nil
}
