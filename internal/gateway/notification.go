package gateway

// Notification is a payment notification delivered to the webhook endpoint.
// Unknown fields are kept in the raw payload by the reconciler, not here.
type Notification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"`
	TransactionID     string `json:"transaction_id"`
	StatusMessage     string `json:"status_message"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	PaymentType       string `json:"payment_type"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	FraudStatus       string `json:"fraud_status"`
	Currency          string `json:"currency"`
}

// Verify recomputes the expected signature against the supplied one.
func (n Notification) Verify(serverKey string) bool {
	return VerifySignature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey, n.SignatureKey)
}

// IsSuccessful reports whether the notification represents money received:
// settlement outright, or capture that passed fraud review. Everything else
// (pending, deny, cancel, expire, refund) is acknowledged and ignored.
func (n Notification) IsSuccessful() bool {
	switch n.TransactionStatus {
	case "settlement":
		return n.FraudStatus == "" || n.FraudStatus == "accept"
	case "capture":
		return n.FraudStatus == "accept"
	default:
		return false
	}
}
