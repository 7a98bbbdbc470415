// Package uuid wraps google/uuid with the identifier formats Dompet uses.
package uuid

import (
	"strings"

	googleuuid "github.com/google/uuid"
)

// New generates a time-ordered UUIDv7 string, suitable for primary keys.
// It falls back to a random UUIDv4 if the v7 generator fails.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.New().String()
	}
	return id.String()
}

// InviteCode returns a short uppercase code of n hex characters taken from a
// random UUID. n is capped at 32.
func InviteCode(n int) string {
	raw := strings.ReplaceAll(googleuuid.New().String(), "-", "")
	if n > len(raw) {
		n = len(raw)
	}
	return strings.ToUpper(raw[:n])
}

// IsValid checks if a string is a valid UUID
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
