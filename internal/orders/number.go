package orders

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// NewOrderNumber returns a human-quotable unique order number of the form
// ORD<utc-unix-timestamp><8-hex-upper>.
func NewOrderNumber(now time.Time) string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// math-free fallback keyed off the clock; collisions are caught by
		// the unique index on order_number.
		return fmt.Sprintf("ORD%d%08X", now.UTC().Unix(), now.UnixNano()&0xFFFFFFFF)
	}
	return fmt.Sprintf("ORD%d%s", now.UTC().Unix(), strings.ToUpper(hex.EncodeToString(buf)))
}
