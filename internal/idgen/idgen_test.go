package idgen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLengthAndAlphabet(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := Generate(CodeLength)
		assert.Len(t, code, CodeLength)
		assert.Regexp(t, `^[A-Za-z0-9]+$`, code)
	}
}

func TestGenerateIsRandomPerCall(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[Generate(CodeLength)] = true
	}

	// 50 identical 6-char random codes would mean a broken generator.
	assert.Greater(t, len(seen), 1)
}

func TestGenerateUniqueRetriesOnCollision(t *testing.T) {
	calls := 0
	exists := func(ctx context.Context, code string) (bool, error) {
		calls++
		return calls <= 2, nil
	}

	code, err := GenerateUnique(context.Background(), CodeLength, exists)
	require.NoError(t, err)
	assert.Len(t, code, CodeLength)
	assert.Equal(t, 3, calls)
}

func TestGenerateUniqueGivesUpEventually(t *testing.T) {
	exists := func(ctx context.Context, code string) (bool, error) {
		return true, nil
	}

	_, err := GenerateUnique(context.Background(), CodeLength, exists)
	require.ErrorIs(t, err, ErrTriesExceeded)
}

func TestGenerateUniquePropagatesLookupError(t *testing.T) {
	boom := errors.New("storage is down")
	exists := func(ctx context.Context, code string) (bool, error) {
		return false, boom
	}

	_, err := GenerateUnique(context.Background(), CodeLength, exists)
	require.ErrorIs(t, err, boom)
}
