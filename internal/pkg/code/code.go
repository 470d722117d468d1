// Package code generates numeric verification codes.
package code

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
)

const (
	lowest = 1_000_000_000
	span   = 9_000_000_000 // lowest+span-1 == 9_999_999_999
)

// New returns a uniformly random 10-digit decimal string in [1000000000, 9999999999].
func New() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return strconv.FormatInt(lowest+n.Int64(), 10), nil
}
