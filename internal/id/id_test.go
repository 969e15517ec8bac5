package id

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDGenerator(t *testing.T) {
	gen := UUIDGenerator(16)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		n := gen()
		require.Len(t, n, 16)
		assert.True(t, ValidAccountNumber(n, 16), "generated %q", n)
		seen[n] = true
	}
	assert.Greater(t, len(seen), 95, "generated numbers should rarely collide")
}

func TestUUIDGenerator_LengthFallback(t *testing.T) {
	assert.Len(t, UUIDGenerator(0)(), DefaultAccountNumberLength)
	assert.Len(t, UUIDGenerator(99)(), DefaultAccountNumberLength)
	assert.Len(t, UUIDGenerator(10)(), 10)
}

func TestFromUUID(t *testing.T) {
	u := uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff")
	// 2^128-1 = 340282366920938463463374607431768211455
	assert.Equal(t, "3402823669209384", FromUUID(u, 16))
	assert.Equal(t, "34028236692093846346337460743176821145", FromUUID(u, 38))

	small := uuid.MustParse("00000000-0000-0000-0000-00000000002a")
	assert.Equal(t, "0000000000000042", FromUUID(small, 16))
}

func TestValidAccountNumber(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0001110001110001", true},
		{"000111000111000", false},
		{"00011100011100011", false},
		{"000111000111000a", false},
		{"", false},
		{"-001110001110001", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidAccountNumber(tt.in, 16), "ValidAccountNumber(%q)", tt.in)
	}
}
