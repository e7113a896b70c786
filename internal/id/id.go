package id

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// UUID generates a random UUID v4 string.
func UUID() string {
	return uuid.NewString()
}

// Short generates a 16 character hex ID.
func Short() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Alphanumeric generates a random string of the given length drawn from
// [a-zA-Z0-9]. A non-positive length yields the empty string.
func Alphanumeric(length int) string {
	if length <= 0 {
		return ""
	}
	b := make([]byte, length)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = alphanumeric[int(b[i])%len(alphanumeric)]
	}
	return string(b)
}
