package pos

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/Createch-Studio/KateringPro-sub000/internal/billing"
)

var rupiahPrinter = message.NewPrinter(language.Indonesian)

// FormatRupiah renders an amount with Indonesian digit grouping, e.g.
// 85000 -> "Rp85.000".
func FormatRupiah(amount int64) string {
	return rupiahPrinter.Sprintf("Rp%v", number.Decimal(amount))
}

// ReceiptLine is one sold item on the success summary.
type ReceiptLine struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Total     int64  `json:"total"`
}

// Receipt is the success summary shown to the operator after a finalized
// sale, for either payment path.
type Receipt struct {
	OrderID       int64                 `json:"order_id"`
	OrderNumber   string                `json:"order_number"`
	InvoiceNumber string                `json:"invoice_number"`
	IssuedAt      time.Time             `json:"issued_at"`
	CustomerName  string                `json:"customer_name"`
	Method        billing.PaymentMethod `json:"method"`
	Lines         []ReceiptLine         `json:"lines"`
	Total         int64                 `json:"total"`
}

// Render produces the printable text slip.
func (r *Receipt) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.OrderNumber)
	fmt.Fprintf(&b, "%s\n", r.IssuedAt.Format("02 Jan 2006 15:04"))
	fmt.Fprintf(&b, "Pelanggan: %s\n", r.CustomerName)
	b.WriteString(strings.Repeat("-", 32) + "\n")
	for _, l := range r.Lines {
		fmt.Fprintf(&b, "%s x%d  %s\n", l.Name, l.Quantity, FormatRupiah(l.Total))
	}
	b.WriteString(strings.Repeat("-", 32) + "\n")
	fmt.Fprintf(&b, "Total  %s\n", FormatRupiah(r.Total))
	fmt.Fprintf(&b, "Metode %s\n", r.Method)
	return b.String()
}

func receiptLines(lines []CartLine) []ReceiptLine {
	out := make([]ReceiptLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, ReceiptLine{
			Name:      l.Item.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.Item.UnitPrice,
			Total:     l.Total(),
		})
	}
	return out
}
