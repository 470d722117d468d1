package code

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TenDigitsInRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		c, err := New()
		require.NoError(t, err)
		require.Len(t, c, 10)
		n, err := strconv.ParseInt(c, 10, 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, int64(1_000_000_000))
		assert.LessOrEqual(t, n, int64(9_999_999_999))
	}
}

func TestNew_Varies(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		c, err := New()
		require.NoError(t, err)
		seen[c] = struct{}{}
	}
	assert.Greater(t, len(seen), 1)
}
