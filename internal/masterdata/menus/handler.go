package menus

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Createch-Studio/KateringPro-sub000/internal/platform/httpx"
)

type Handler struct {
	logger    *slog.Logger
	validator *validator.Validate
	service   *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, validator: validator.New(), service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/menus", h.Catalog)
	r.Get("/menus/{id}", h.Show)
	r.Post("/menus", h.Create)
	r.Put("/menus/{id}/price", h.SetPrice)
}

// Catalog serves the sellable menu list used by the POS terminal.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Catalog(r.Context())
	if err != nil {
		h.logger.Error("menu catalog failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"menus": list})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid menu id")
		return
	}
	menu, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "menu not found")
		return
	}
	httpx.JSON(w, http.StatusOK, menu)
}

type createMenuRequest struct {
	Name      string `json:"name" validate:"required"`
	Category  string `json:"category"`
	UnitPrice int64  `json:"unit_price" validate:"gte=0"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMenuRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	id, err := h.service.Create(r.Context(), Menu{
		Name:      req.Name,
		Category:  req.Category,
		UnitPrice: req.UnitPrice,
		IsActive:  true,
	})
	if err != nil {
		h.logger.Error("create menu failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]int64{"id": id})
}

type setPriceRequest struct {
	UnitPrice int64 `json:"unit_price" validate:"gte=0"`
}

func (h *Handler) SetPrice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid menu id")
		return
	}
	var req setPriceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if err := h.service.SetPrice(r.Context(), id, req.UnitPrice); err != nil {
		h.logger.Error("set menu price failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
