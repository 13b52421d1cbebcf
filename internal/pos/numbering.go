package pos

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Numbers are time-based with a random suffix. Collisions are treated as
// negligible, but the order_number/invoice_number unique indexes turn one
// into a visible insert error instead of silent data corruption.

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// NewOrderNumber builds a caller-generated unique order number.
func NewOrderNumber(t time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", t.Format("20060102"), shortID())
}

// NewInvoiceNumber builds a caller-generated unique invoice number.
func NewInvoiceNumber(t time.Time) string {
	return fmt.Sprintf("INV-%s-%s", t.Format("20060102"), shortID())
}

// NewGatewayOrderID builds the correlation id echoed by the payment gateway
// across the charge, QR display and webhook notification.
func NewGatewayOrderID(t time.Time) string {
	return fmt.Sprintf("POS-%s-%s", t.Format("20060102150405"), shortID())
}
