package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateSecureCode returns 32 bytes of crypto/rand entropy encoded as a
// URL-safe base64 string. Gateway keys are minted with it, so the output has
// to be safe to put in an Authorization header as-is.
func GenerateSecureCode() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// MustGenerateSecureCode is GenerateSecureCode for one-shot tooling where a
// failed entropy read should just abort.
func MustGenerateSecureCode() string {
	code, err := GenerateSecureCode()
	if err != nil {
		panic("failed to generate secure code: " + err.Error())
	}
	return code
}
