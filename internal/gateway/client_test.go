package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChargeQRIS(t *testing.T) {
	var gotPayload chargePayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v2/charge", r.URL.Path)
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "server-key", user)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status_code": "201",
			"transaction_id": "tx-1",
			"order_id": "POS-1",
			"gross_amount": "85000.00",
			"transaction_status": "pending",
			"actions": [
				{"name": "generate-qr-code", "method": "GET", "url": "https://gw/legacy.png"},
				{"name": "generate-qr-code-v2", "method": "GET", "url": "https://gw/v2.png"}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "server-key", time.Second)
	resp, err := client.ChargeQRIS(context.Background(), ChargeRequest{
		OrderID:       "POS-1",
		GrossAmount:   85000,
		CustomerName:  "PoS Customer",
		CustomerEmail: "pos@katering.local",
	})
	require.NoError(t, err)

	require.Equal(t, "qris", gotPayload.PaymentType)
	require.Equal(t, int64(85000), gotPayload.TransactionDetails.GrossAmount)
	require.Equal(t, "PoS Customer", gotPayload.CustomerDetails.FirstName)

	url, err := resp.QRCodeURL()
	require.NoError(t, err)
	require.Equal(t, "https://gw/v2.png", url, "v2 action wins over legacy")
}

func TestChargeQRISGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status_message":"unauthorized"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad-key", time.Second)
	_, err := client.ChargeQRIS(context.Background(), ChargeRequest{OrderID: "POS-2", GrossAmount: 1000})
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")
}

func TestQRCodeURLFallback(t *testing.T) {
	resp := &ChargeResponse{Actions: []Action{
		{Name: "deeplink-redirect", URL: "https://gw/deeplink"},
		{Name: "generate-qr-code", URL: "https://gw/legacy.png"},
	}}
	url, err := resp.QRCodeURL()
	require.NoError(t, err)
	require.Equal(t, "https://gw/legacy.png", url)
}

func TestQRCodeURLMissing(t *testing.T) {
	resp := &ChargeResponse{Actions: []Action{{Name: "deeplink-redirect", URL: "https://gw/deeplink"}}}
	_, err := resp.QRCodeURL()
	require.ErrorIs(t, err, ErrNoQRAction)
}

func TestChargeQRISValidation(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", "key", time.Second)

	_, err := client.ChargeQRIS(context.Background(), ChargeRequest{GrossAmount: 100})
	require.Error(t, err)

	_, err = client.ChargeQRIS(context.Background(), ChargeRequest{OrderID: "POS-3"})
	require.Error(t, err)
}
