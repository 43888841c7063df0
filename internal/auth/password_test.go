package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("longenough1")
	require.NoError(t, err)

	assert.True(t, VerifyPassword("longenough1", hash))
	assert.False(t, VerifyPassword("longenough2", hash))
	assert.NotEqual(t, "longenough1", hash)
}

func TestPasswordHashesAreSalted(t *testing.T) {
	first, err := HashPassword("longenough1")
	require.NoError(t, err)
	second, err := HashPassword("longenough1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, VerifyPassword("longenough1", first))
	assert.True(t, VerifyPassword("longenough1", second))
}
