package order

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"
)

const suffixAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderNumber builds a human-legible order number from a monotonic
// time component and a short random suffix, e.g. ORD-MBCD12AB-X7K2.
// Collisions are improbable, not impossible; the unique constraint on
// orders.order_number is the backstop, and a violation surfaces as an
// error so the gateway retry regenerates a fresh number.
func NewOrderNumber(now time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))

	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}
	return "ORD-" + ts + "-" + string(buf)
}
