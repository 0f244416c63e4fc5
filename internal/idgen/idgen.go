// Package idgen produces the short random identifiers used as short-URL
// codes and as user IDs.
package idgen

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
)

const symbols = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// CodeLength is the length of every generated identifier.
const CodeLength = 6

const triesToGenerateUniqueCode = 10

// ErrTriesExceeded is returned when GenerateUnique keeps colliding with
// existing identifiers.
var ErrTriesExceeded = errors.New("the number of attempts to generate a unique code has been exceeded")

// ExistsFunc reports whether a candidate identifier is already taken.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generate returns a random string of the given length drawn uniformly from
// [A-Za-z0-9]. It performs no uniqueness check.
func Generate(length int) string {
	var result string

	for i := 0; i < length; i++ {
		randomIndex, _ := rand.Int(rand.Reader, big.NewInt(int64(len(symbols))))
		result += string(symbols[randomIndex.Int64()])
	}

	return result
}

// GenerateUnique returns a random identifier that the exists callback does
// not know yet, retrying a bounded number of times before giving up.
func GenerateUnique(ctx context.Context, length int, exists ExistsFunc) (string, error) {
	for i := 0; i < triesToGenerateUniqueCode; i++ {
		code := Generate(length)
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}

	return "", ErrTriesExceeded
}
