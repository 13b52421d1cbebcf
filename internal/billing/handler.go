package billing

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Createch-Studio/KateringPro-sub000/internal/gateway"
	"github.com/Createch-Studio/KateringPro-sub000/internal/observability"
	"github.com/Createch-Studio/KateringPro-sub000/internal/platform/httpx"
)

type Handler struct {
	logger     *slog.Logger
	service    *Service
	reconciler *Reconciler
	metrics    *observability.Metrics
	validator  *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, reconciler *Reconciler, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:     logger,
		service:    service,
		reconciler: reconciler,
		metrics:    metrics,
		validator:  validator.New(),
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices", h.ListInvoices)
	r.Get("/invoices/{id}", h.ShowInvoice)
	r.Get("/payments", h.ListPayments)
	r.Post("/payments", h.RegisterPayment)
}

// MountWebhookRoutes attaches the gateway-facing endpoint. Mounted outside
// the operator API group: the gateway calls it unauthenticated.
func (h *Handler) MountWebhookRoutes(r chi.Router) {
	r.Post("/webhooks/payment-gateway", h.PaymentNotification)
}

// PaymentNotification receives asynchronous payment notifications from the
// gateway. Response contract: 200 for everything recognized (even ignored),
// 403 on signature mismatch, 500 only on internal failure.
func (h *Handler) PaymentNotification(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unreadable body")
		return
	}

	var n gateway.Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed notification")
		return
	}
	var payload map[string]any
	_ = json.Unmarshal(raw, &payload)

	outcome, err := h.reconciler.Process(r.Context(), n, payload)
	if err != nil {
		if errors.Is(err, ErrBadSignature) {
			h.metrics.ObserveWebhook("bad_signature")
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "invalid signature")
			return
		}
		h.logger.Error("webhook processing failed",
			slog.String("gateway_order_id", n.OrderID), slog.Any("error", err))
		h.metrics.ObserveWebhook("error")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	h.metrics.ObserveWebhook(outcome)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok", "outcome": outcome})
}

func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	var status *InvoiceStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := InvoiceStatus(s)
		status = &st
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	invoices, err := h.service.ListInvoices(r.Context(), status, limit, offset)
	if err != nil {
		h.logger.Error("list invoices failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

func (h *Handler) ShowInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid invoice id")
		return
	}

	inv, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "invoice not found")
			return
		}
		h.logger.Error("get invoice failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	var sessionID *int64
	if s := r.URL.Query().Get("session_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid session_id")
			return
		}
		sessionID = &id
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	payments, err := h.service.ListPayments(r.Context(), sessionID, limit, offset)
	if err != nil {
		h.logger.Error("list payments failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payments": payments})
}

type registerPaymentRequest struct {
	OrderID         int64   `json:"order_id" validate:"required,gt=0"`
	InvoiceID       int64   `json:"invoice_id" validate:"required,gt=0"`
	Amount          int64   `json:"amount" validate:"required,gt=0"`
	Method          string  `json:"method" validate:"omitempty,oneof=cash bank_transfer qris other"`
	PaymentType     string  `json:"payment_type" validate:"omitempty,oneof=full_payment down_payment installment refund"`
	ReferenceNumber string  `json:"reference_number"`
	Notes           *string `json:"notes,omitempty"`
}

func (h *Handler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	var req registerPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed payment")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	id, err := h.service.RegisterPayment(r.Context(), Payment{
		OrderID:         req.OrderID,
		InvoiceID:       req.InvoiceID,
		Amount:          req.Amount,
		Method:          PaymentMethod(req.Method),
		PaymentType:     PaymentType(req.PaymentType),
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
	})
	if err != nil {
		h.logger.Error("register payment failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]int64{"id": id})
}
