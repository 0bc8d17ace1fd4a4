package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"
)

// RandomBytes fills and returns a slice of n cryptographically secure
// random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ToHex returns the lowercase hex encoding of data.
func ToHex(data []byte) string {
	return hex.EncodeToString(data)
}

// FromHex decodes a hex string into bytes.
func FromHex(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

// ToBase64 returns the standard base64 encoding of data.
func ToBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// FromBase64 decodes a standard base64 string into bytes.
func FromBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
