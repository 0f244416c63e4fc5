package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("purple-monkey-dinosaur")
	require.NoError(t, err)
	assert.NotEqual(t, "purple-monkey-dinosaur", hash)

	assert.NoError(t, VerifyPassword(hash, "purple-monkey-dinosaur"))
	assert.Error(t, VerifyPassword(hash, "dishwasher-funk"))
}

func TestHashIsSalted(t *testing.T) {
	first, err := HashPassword("purple-monkey-dinosaur")
	require.NoError(t, err)
	second, err := HashPassword("purple-monkey-dinosaur")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
