package orders

import "time"

type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "draft"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a catering sale. POS checkouts create one per finalized cart; the
// event-catering desk creates them ahead of delivery dates.
type Order struct {
	ID          int64       `json:"id" db:"id"`
	OrderNumber string      `json:"order_number" db:"order_number"`
	CustomerID  int64       `json:"customer_id" db:"customer_id"`
	OrderDate   time.Time   `json:"order_date" db:"order_date"`
	EventDate   *time.Time  `json:"event_date,omitempty" db:"event_date"`
	Status      OrderStatus `json:"status" db:"status"`
	Subtotal    int64       `json:"subtotal" db:"subtotal"`
	Tax         int64       `json:"tax" db:"tax"`
	Total       int64       `json:"total" db:"total"`
	PaidAmount  int64       `json:"paid_amount" db:"paid_amount"`
	PaymentType string      `json:"payment_type" db:"payment_type"`
	Notes       *string     `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
	Items       []OrderItem `json:"items,omitempty" db:"-"`
}

// OrderItem is one sold menu line. Write-once: items are never updated after
// the checkout that created them.
type OrderItem struct {
	ID        int64     `json:"id" db:"id"`
	OrderID   int64     `json:"order_id" db:"order_id"`
	MenuID    int64     `json:"menu_id" db:"menu_id"`
	MenuName  string    `json:"menu_name" db:"menu_name"`
	Quantity  int       `json:"quantity" db:"quantity"`
	UnitPrice int64     `json:"unit_price" db:"unit_price"`
	Total     int64     `json:"total" db:"total"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
