package pos

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Createch-Studio/KateringPro-sub000/internal/billing"
	"github.com/Createch-Studio/KateringPro-sub000/internal/masterdata/menus"
	"github.com/Createch-Studio/KateringPro-sub000/internal/operators"
	"github.com/Createch-Studio/KateringPro-sub000/internal/platform/httpx"
	"github.com/Createch-Studio/KateringPro-sub000/internal/shared"
)

// MenuLookup resolves a menu id when an item is added to a cart.
type MenuLookup interface {
	Get(ctx context.Context, id int64) (*menus.Menu, error)
}

// Handler exposes the POS flow over HTTP: cart mutations, register
// open/close, cash checkout and the QRIS attempt lifecycle.
type Handler struct {
	logger    *slog.Logger
	validator *validator.Validate
	carts     *CartStore
	menus     MenuLookup
	register  *RegisterService
	checkout  *CheckoutService
	qris      *QRISCoordinator
}

func NewHandler(
	logger *slog.Logger,
	carts *CartStore,
	menuSvc MenuLookup,
	register *RegisterService,
	checkout *CheckoutService,
	qris *QRISCoordinator,
) *Handler {
	return &Handler{
		logger:    logger,
		validator: validator.New(),
		carts:     carts,
		menus:     menuSvc,
		register:  register,
		checkout:  checkout,
		qris:      qris,
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/pos", func(r chi.Router) {
		r.Route("/operators/{operatorID}/cart", func(r chi.Router) {
			r.Get("/", h.ShowCart)
			r.Post("/items", h.AddItem)
			r.Patch("/items", h.ChangeQuantity)
			r.Delete("/items", h.RemoveItem)
		})

		r.Post("/register/open", h.OpenRegister)
		r.Post("/register/close", h.CloseRegister)
		r.Get("/register/{operatorID}", h.ShowRegister)

		r.Post("/checkout", h.Checkout)

		r.Post("/qris", h.StartQRIS)
		r.Get("/qris/{gatewayOrderID}", h.QRISStatus)
		r.Post("/qris/{gatewayOrderID}/cancel", h.CancelQRIS)
	})
}

func (h *Handler) operatorID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "operatorID"), 10, 64)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) ShowCart(w http.ResponseWriter, r *http.Request) {
	opID, err := h.operatorID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid operator id")
		return
	}
	cart := h.carts.CartFor(opID)
	httpx.JSON(w, http.StatusOK, cartResponse{Lines: cart.Lines(), Subtotal: cart.Subtotal()})
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	opID, err := h.operatorID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid operator id")
		return
	}
	var req addItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	menu, err := h.menus.Get(r.Context(), req.MenuID)
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "menu not found")
		return
	}
	if !menu.IsActive {
		httpx.Problem(w, http.StatusConflict, "Menu Inactive", "menu is not sellable")
		return
	}

	cart := h.carts.CartFor(opID)
	cart.AddItem(CartItem{MenuID: menu.ID, Name: menu.Name, UnitPrice: menu.UnitPrice})
	httpx.JSON(w, http.StatusOK, cartResponse{Lines: cart.Lines(), Subtotal: cart.Subtotal()})
}

func (h *Handler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	opID, err := h.operatorID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid operator id")
		return
	}
	var req changeQuantityRequest
	if !h.decode(w, r, &req) {
		return
	}

	cart := h.carts.CartFor(opID)
	if err := cart.ChangeQuantity(req.MenuID, req.Delta); err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "cart line not found")
		return
	}
	httpx.JSON(w, http.StatusOK, cartResponse{Lines: cart.Lines(), Subtotal: cart.Subtotal()})
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	opID, err := h.operatorID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid operator id")
		return
	}
	var req removeItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	cart := h.carts.CartFor(opID)
	if err := cart.RemoveItem(req.MenuID); err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "cart line not found")
		return
	}
	httpx.JSON(w, http.StatusOK, cartResponse{Lines: cart.Lines(), Subtotal: cart.Subtotal()})
}

func (h *Handler) OpenRegister(w http.ResponseWriter, r *http.Request) {
	var req openRegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	sess, err := h.register.Open(r.Context(), req.OperatorID, req.PIN, req.OpeningBalance)
	if err != nil {
		h.respondPOSError(w, "open register failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sess)
}

func (h *Handler) CloseRegister(w http.ResponseWriter, r *http.Request) {
	var req closeRegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	sess, err := h.register.Close(r.Context(), req.SessionID, req.ClosingBalance)
	if err != nil {
		h.respondPOSError(w, "close register failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sess)
}

func (h *Handler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	opID, err := h.operatorID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid operator id")
		return
	}
	sess, err := h.register.Current(r.Context(), opID)
	if err != nil {
		h.respondPOSError(w, "show register failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sess)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !h.decode(w, r, &req) {
		return
	}

	receipt, err := h.checkout.Checkout(r.Context(), CheckoutRequest{
		OperatorID:     req.OperatorID,
		CustomerID:     req.CustomerID,
		Method:         billing.PaymentMethod(req.Method),
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
		Notes:          req.Notes,
	})
	if err != nil {
		h.respondPOSError(w, "checkout failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, receipt)
}

func (h *Handler) StartQRIS(w http.ResponseWriter, r *http.Request) {
	var req startQRISRequest
	if !h.decode(w, r, &req) {
		return
	}

	attempt, err := h.qris.Start(r.Context(), req.OperatorID, req.CustomerID)
	if err != nil {
		h.respondPOSError(w, "start qris failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, attempt)
}

func (h *Handler) QRISStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.qris.CheckStatus(r.Context(), chi.URLParam(r, "gatewayOrderID"))
	if err != nil {
		h.respondPOSError(w, "qris status failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, status)
}

func (h *Handler) CancelQRIS(w http.ResponseWriter, r *http.Request) {
	if err := h.qris.Cancel(r.Context(), chi.URLParam(r, "gatewayOrderID")); err != nil {
		h.respondPOSError(w, "qris cancel failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *Handler) respondPOSError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, ErrRegisterClosed),
		errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrNoCustomer),
		errors.Is(err, ErrInvalidMethod):
		httpx.Problem(w, http.StatusConflict, "Precondition Failed", err.Error())
	case errors.Is(err, ErrSessionAlreadyOpen):
		httpx.Problem(w, http.StatusConflict, "Session Already Open", err.Error())
	case errors.Is(err, ErrNoOpenSession):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrNegativeBalance):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrAttemptNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, operators.ErrInvalidPIN):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid operator pin")
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Duplicate Submission", err.Error())
	default:
		h.logger.Error(msg, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
