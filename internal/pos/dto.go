package pos

type addItemRequest struct {
	MenuID int64 `json:"menu_id" validate:"required,gt=0"`
}

type changeQuantityRequest struct {
	MenuID int64 `json:"menu_id" validate:"required,gt=0"`
	Delta  int   `json:"delta" validate:"required"`
}

type removeItemRequest struct {
	MenuID int64 `json:"menu_id" validate:"required,gt=0"`
}

type cartResponse struct {
	Lines    []CartLine `json:"lines"`
	Subtotal int64      `json:"subtotal"`
}

type openRegisterRequest struct {
	OperatorID     int64  `json:"operator_id" validate:"required,gt=0"`
	PIN            string `json:"pin" validate:"required,min=4"`
	OpeningBalance int64  `json:"opening_balance" validate:"gte=0"`
}

type closeRegisterRequest struct {
	SessionID      int64 `json:"session_id" validate:"required,gt=0"`
	ClosingBalance int64 `json:"closing_balance" validate:"gte=0"`
}

type checkoutRequest struct {
	OperatorID int64   `json:"operator_id" validate:"required,gt=0"`
	CustomerID *int64  `json:"customer_id,omitempty"`
	Method     string  `json:"method" validate:"required,oneof=cash bank_transfer other"`
	Notes      *string `json:"notes,omitempty"`
}

type startQRISRequest struct {
	OperatorID int64  `json:"operator_id" validate:"required,gt=0"`
	CustomerID *int64 `json:"customer_id,omitempty"`
}
