package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Createch-Studio/KateringPro-sub000/internal/billing"
	"github.com/Createch-Studio/KateringPro-sub000/internal/masterdata/customers"
	"github.com/Createch-Studio/KateringPro-sub000/internal/masterdata/menus"
	"github.com/Createch-Studio/KateringPro-sub000/internal/observability"
	"github.com/Createch-Studio/KateringPro-sub000/internal/pos"
	"github.com/Createch-Studio/KateringPro-sub000/internal/sales/orders"
	"github.com/Createch-Studio/KateringPro-sub000/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	POSHandler       *pos.Handler
	OrdersHandler    *orders.Handler
	BillingHandler   *billing.Handler
	MenusHandler     *menus.Handler
	CustomersHandler *customers.Handler
	JobHandler       *jobs.Handler
	Pool             *pgxpool.Pool
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with KateringPro defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.Pool != nil {
			if err := params.Pool.Ping(r.Context()); err != nil {
				params.Logger.Warn("healthz db ping", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	// The gateway posts notifications here; no operator auth applies.
	if params.BillingHandler != nil {
		params.BillingHandler.MountWebhookRoutes(r)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if params.POSHandler != nil {
			params.POSHandler.MountRoutes(r)
		}
		if params.OrdersHandler != nil {
			params.OrdersHandler.MountRoutes(r)
		}
		if params.BillingHandler != nil {
			params.BillingHandler.MountRoutes(r)
		}
		if params.MenusHandler != nil {
			params.MenusHandler.MountRoutes(r)
		}
		if params.CustomersHandler != nil {
			params.CustomersHandler.MountRoutes(r)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			params.JobHandler.MountRoutes(r)
		})
	}

	return r
}
