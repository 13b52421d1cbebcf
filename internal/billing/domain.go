package billing

import "time"

// InvoiceStatus enumerates invoice statuses.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPartial   InvoiceStatus = "partial"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// PaymentMethod enumerates how money was received.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodQRIS         PaymentMethod = "qris"
	MethodOther        PaymentMethod = "other"
)

// PaymentType enumerates what the money covers.
type PaymentType string

const (
	TypeFullPayment PaymentType = "full_payment"
	TypeDownPayment PaymentType = "down_payment"
	TypeInstallment PaymentType = "installment"
	TypeRefund      PaymentType = "refund"
)

// Invoice bills an order. QRIS invoices start at `sent` with the gateway
// order id stamped, and move to `paid` exactly once via a compare-and-set.
type Invoice struct {
	ID                   int64         `json:"id" db:"id"`
	InvoiceNumber        string        `json:"invoice_number" db:"invoice_number"`
	OrderID              int64         `json:"order_id" db:"order_id"`
	InvoiceDate          time.Time     `json:"invoice_date" db:"invoice_date"`
	DueDate              time.Time     `json:"due_date" db:"due_date"`
	Amount               int64         `json:"amount" db:"amount"`
	TaxAmount            int64         `json:"tax_amount" db:"tax_amount"`
	TotalAmount          int64         `json:"total_amount" db:"total_amount"`
	Status               InvoiceStatus `json:"status" db:"status"`
	GatewayOrderID       *string       `json:"gateway_order_id,omitempty" db:"gateway_order_id"`
	GatewayTransactionID *string       `json:"gateway_transaction_id,omitempty" db:"gateway_transaction_id"`
	Notes                *string       `json:"notes,omitempty" db:"notes"`
	CreatedAt            time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at" db:"updated_at"`
}

// Payment records money actually received. For QRIS this only exists after
// the gateway confirmed settlement.
type Payment struct {
	ID              int64         `json:"id" db:"id"`
	OrderID         int64         `json:"order_id" db:"order_id"`
	InvoiceID       int64         `json:"invoice_id" db:"invoice_id"`
	SessionID       *int64        `json:"session_id,omitempty" db:"session_id"`
	PaymentDate     time.Time     `json:"payment_date" db:"payment_date"`
	Amount          int64         `json:"amount" db:"amount"`
	Method          PaymentMethod `json:"method" db:"method"`
	PaymentType     PaymentType   `json:"payment_type" db:"payment_type"`
	ReferenceNumber string        `json:"reference_number" db:"reference_number"`
	Notes           *string       `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
}
