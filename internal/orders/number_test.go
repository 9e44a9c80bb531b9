package orders

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderNumber(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	pattern := regexp.MustCompile(`^ORD\d{10}[0-9A-F]{8}$`)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		number := NewOrderNumber(now)
		require.Regexp(t, pattern, number)
		assert.False(t, seen[number], "duplicate order number %s", number)
		seen[number] = true
	}
}
