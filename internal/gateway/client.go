// Package gateway wraps the QRIS payment gateway HTTP API: charge creation,
// QR action extraction and webhook signature verification.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoQRAction indicates the charge response carried no usable QR code action.
var ErrNoQRAction = errors.New("gateway: charge response has no QR code action")

// Client wraps interactions with the payment gateway charge API.
type Client struct {
	baseURL    string
	serverKey  string
	httpClient *http.Client
}

// NewClient constructs a new client. The server key authenticates charge
// requests via HTTP basic auth with an empty password.
func NewClient(baseURL, serverKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		serverKey: serverKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ChargeRequest describes a QRIS charge to create.
type ChargeRequest struct {
	OrderID       string
	GrossAmount   int64
	CustomerName  string
	CustomerEmail string
}

// Action is one follow-up URL offered by the gateway after a charge.
type Action struct {
	Name   string `json:"name"`
	Method string `json:"method"`
	URL    string `json:"url"`
}

// ChargeResponse is the subset of the gateway charge reply the POS needs.
type ChargeResponse struct {
	StatusCode        string   `json:"status_code"`
	StatusMessage     string   `json:"status_message"`
	TransactionID     string   `json:"transaction_id"`
	OrderID           string   `json:"order_id"`
	GrossAmount       string   `json:"gross_amount"`
	TransactionStatus string   `json:"transaction_status"`
	Actions           []Action `json:"actions"`
}

type chargePayload struct {
	PaymentType        string             `json:"payment_type"`
	TransactionDetails transactionDetails `json:"transaction_details"`
	CustomerDetails    *customerDetails   `json:"customer_details,omitempty"`
}

type transactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type customerDetails struct {
	FirstName string `json:"first_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// ChargeQRIS requests a QRIS charge for the given order.
func (c *Client) ChargeQRIS(ctx context.Context, req ChargeRequest) (*ChargeResponse, error) {
	if req.OrderID == "" {
		return nil, errors.New("gateway: order id required")
	}
	if req.GrossAmount <= 0 {
		return nil, errors.New("gateway: gross amount must be positive")
	}

	payload := chargePayload{
		PaymentType: "qris",
		TransactionDetails: transactionDetails{
			OrderID:     req.OrderID,
			GrossAmount: req.GrossAmount,
		},
	}
	if req.CustomerName != "" || req.CustomerEmail != "" {
		payload.CustomerDetails = &customerDetails{FirstName: req.CustomerName, Email: req.CustomerEmail}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gateway: marshal charge: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/charge", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.SetBasicAuth(c.serverKey, "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway: charge request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("gateway: read charge response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("gateway: charge failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var charge ChargeResponse
	if err := json.Unmarshal(raw, &charge); err != nil {
		return nil, fmt.Errorf("gateway: decode charge response: %w", err)
	}
	return &charge, nil
}

// QRCodeURL picks the QR-bearing action from a charge response. The v2
// action is preferred, the legacy one is the fallback.
func (r *ChargeResponse) QRCodeURL() (string, error) {
	var fallback string
	for _, action := range r.Actions {
		switch action.Name {
		case "generate-qr-code-v2":
			if action.URL != "" {
				return action.URL, nil
			}
		case "generate-qr-code":
			if fallback == "" {
				fallback = action.URL
			}
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", ErrNoQRAction
}
