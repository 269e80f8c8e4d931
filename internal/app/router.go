package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/temple-erp/temple-erp/internal/accounting/fiscal"
	"github.com/temple-erp/temple-erp/internal/accounting/journals"
	"github.com/temple-erp/temple-erp/internal/accounting/ledgers"
	"github.com/temple-erp/temple-erp/internal/accounting/mappings"
	"github.com/temple-erp/temple-erp/internal/accounting/openings"
	"github.com/temple-erp/temple-erp/internal/accounting/reports"
	"github.com/temple-erp/temple-erp/internal/observability"
	"github.com/temple-erp/temple-erp/internal/purchases"
	"github.com/temple-erp/temple-erp/internal/settings"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	LedgersHandler  *ledgers.Handler
	JournalsHandler *journals.Handler
	ReportsHandler  *reports.Handler
	OpeningsHandler *openings.Handler
	FiscalHandler   *fiscal.Handler
	MappingsHandler *mappings.Handler
	SettingsHandler *settings.Handler
	InvoicesHandler *purchases.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
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
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/accounting", func(r chi.Router) {
		r.Route("/ledgers", func(r chi.Router) {
			if params.LedgersHandler != nil {
				params.LedgersHandler.MountRoutes(r)
			}
			if params.ReportsHandler != nil {
				params.ReportsHandler.MountLedgerRoutes(r)
			}
			if params.OpeningsHandler != nil {
				params.OpeningsHandler.MountLedgerRoutes(r)
			}
		})
		if params.JournalsHandler != nil {
			r.Route("/journals", params.JournalsHandler.MountRoutes)
		}
		if params.ReportsHandler != nil {
			r.Route("/reports", params.ReportsHandler.MountReportRoutes)
		}
		if params.OpeningsHandler != nil {
			params.OpeningsHandler.MountFiscalRoutes(r)
		}
		if params.FiscalHandler != nil {
			params.FiscalHandler.MountRoutes(r)
		}
		if params.MappingsHandler != nil {
			r.Route("/mappings", params.MappingsHandler.MountRoutes)
		}
	})

	if params.InvoicesHandler != nil {
		r.Route("/purchases/invoices", params.InvoicesHandler.MountRoutes)
	}
	if params.SettingsHandler != nil {
		r.Route("/settings", params.SettingsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
