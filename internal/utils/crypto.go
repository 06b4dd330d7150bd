// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"math/big"
)

func GenerateRandomString(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)

	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}

	return string(b), nil
}

// GenerateReadableID builds a human readable form identifier such as
// "BSD-20260831-K7F2M9QX".
func GenerateReadableID(prefix, datePart string) (string, error) {
	randomPart, err := GenerateRandomString(8)
	if err != nil {
		return "", err
	}
	return prefix + "-" + datePart + "-" + randomPart, nil
}
