package id

import (
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultAccountNumberLength is the length of generated account numbers.
	DefaultAccountNumberLength = 16
	// MaxAccountNumberLength is the number of decimal digits a UUID always yields.
	MaxAccountNumberLength = 38
)

// Generator produces candidate account numbers. Uniqueness is not guaranteed;
// the store rejects collisions.
type Generator func() string

// UUIDGenerator returns a Generator that reads a random UUID as a 128-bit
// integer and keeps its leading length decimal digits.
func UUIDGenerator(length int) Generator {
	if length <= 0 || length > MaxAccountNumberLength {
		length = DefaultAccountNumberLength
	}
	return func() string {
		return FromUUID(uuid.New(), length)
	}
}

// FromUUID derives a length-digit account number from u.
func FromUUID(u uuid.UUID, length int) string {
	digits := new(big.Int).SetBytes(u[:]).String()
	if len(digits) < length {
		digits = strings.Repeat("0", length-len(digits)) + digits
	}
	return digits[:length]
}

// ValidAccountNumber reports whether s is exactly length ASCII digits.
func ValidAccountNumber(s string, length int) bool {
	if len(s) != length {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) < 0
}
