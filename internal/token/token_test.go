package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	tok, err := Generate()
	require.NoError(t, err)

	// 20 bytes -> 32 base32 characters, no padding
	assert.Len(t, tok, 32)
	for _, r := range tok {
		assert.Contains(t, "abcdefghijklmnopqrstuvwxyz234567", string(r))
	}
}

func TestGenerateUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok, err := Generate()
		require.NoError(t, err)
		_, dup := seen[tok]
		require.False(t, dup, "token repeated")
		seen[tok] = struct{}{}
	}
}

func TestHash(t *testing.T) {
	tok, err := Generate()
	require.NoError(t, err)

	h := Hash(tok)
	assert.Len(t, h, 64)
	assert.Equal(t, h, Hash(tok), "hash must be deterministic")
	assert.NotEqual(t, h, Hash(tok+"x"))
	assert.NotContains(t, h, tok)
}
