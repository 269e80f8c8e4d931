package purchases

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/temple-erp/temple-erp/internal/accounting/shared"
	"github.com/temple-erp/temple-erp/internal/platform/httpx"
	"github.com/temple-erp/temple-erp/internal/settings"
)

// Poster migrates an invoice into the journal.
type Poster interface {
	PostInvoiceJournal(ctx context.Context, invoiceID int64) (entryID int64, entryCode string, err error)
}

// Handler exposes purchase invoice CRUD and journal migration over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
	poster  Poster
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, poster Poster) *Handler {
	return &Handler{logger: logger, service: service, poster: poster}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/post", h.PostJournal)
}

type lineRequest struct {
	ProductID   *int64          `json:"product_id"`
	ServiceID   *int64          `json:"service_id"`
	Description string          `json:"description"`
	Qty         decimal.Decimal `json:"qty" validate:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"required"`
	TaxRateID   *int64          `json:"tax_rate_id"`
	TaxPct      decimal.Decimal `json:"tax_pct"`
}

type createRequest struct {
	Number          string          `json:"number"`
	SupplierID      int64           `json:"supplier_id" validate:"required"`
	Date            string          `json:"date" validate:"required"`
	ShippingCharges decimal.Decimal `json:"shipping_charges"`
	OtherCharges    decimal.Decimal `json:"other_charges"`
	Lines           []lineRequest   `json:"lines" validate:"required,min=1,dive"`
}

type lineResponse struct {
	ID          int64           `json:"id"`
	ProductID   *int64          `json:"product_id,omitempty"`
	ServiceID   *int64          `json:"service_id,omitempty"`
	Description string          `json:"description,omitempty"`
	Qty         decimal.Decimal `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxPct      decimal.Decimal `json:"tax_pct"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type invoiceResponse struct {
	ID              int64           `json:"id"`
	Number          string          `json:"number"`
	SupplierID      int64           `json:"supplier_id"`
	Date            string          `json:"date"`
	ShippingCharges decimal.Decimal `json:"shipping_charges"`
	OtherCharges    decimal.Decimal `json:"other_charges"`
	Total           decimal.Decimal `json:"total"`
	IsMigrated      bool            `json:"is_migrated"`
	EntryID         *int64          `json:"entry_id,omitempty"`
	Lines           []lineResponse  `json:"lines,omitempty"`
}

func toInvoiceResponse(inv PurchaseInvoice) invoiceResponse {
	resp := invoiceResponse{
		ID:              inv.ID,
		Number:          inv.Number,
		SupplierID:      inv.SupplierID,
		Date:            inv.Date.Format("2006-01-02"),
		ShippingCharges: inv.ShippingCharges,
		OtherCharges:    inv.OtherCharges,
		Total:           inv.Total,
		IsMigrated:      inv.IsMigrated,
		EntryID:         inv.EntryID,
	}
	for _, line := range inv.Lines {
		resp.Lines = append(resp.Lines, lineResponse{
			ID:          line.ID,
			ProductID:   line.ProductID,
			ServiceID:   line.ServiceID,
			Description: line.Description,
			Qty:         line.Qty,
			UnitPrice:   line.UnitPrice,
			Subtotal:    line.Subtotal,
			TaxPct:      line.TaxPct,
			TaxAmount:   line.TaxAmount,
			LineTotal:   line.LineTotal,
		})
	}
	return resp
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	var mapping *shared.MappingError
	var imbalance *shared.ImbalanceError
	switch {
	case errors.Is(err, ErrInvoiceNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrAlreadyMigrated):
		httpx.Problem(w, http.StatusConflict, "Already Migrated", err.Error())
	case errors.As(err, &mapping), errors.As(err, &imbalance),
		errors.Is(err, shared.ErrNoActiveFund), errors.Is(err, shared.ErrNoActiveFiscalYear),
		errors.Is(err, shared.ErrFiscalYearNotFound), errors.Is(err, settings.ErrUnset),
		errors.Is(err, ErrEmptyInvoice):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Cannot Post", err.Error())
	default:
		h.logger.Error("invoice request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "date must be yyyy-mm-dd")
		return
	}
	input := CreateInvoiceInput{
		Number:          req.Number,
		SupplierID:      req.SupplierID,
		Date:            date,
		ShippingCharges: req.ShippingCharges,
		OtherCharges:    req.OtherCharges,
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, CreateInvoiceLineInput{
			ProductID:   line.ProductID,
			ServiceID:   line.ServiceID,
			Description: line.Description,
			Qty:         line.Qty,
			UnitPrice:   line.UnitPrice,
			TaxRateID:   line.TaxRateID,
			TaxPct:      line.TaxPct,
		})
	}
	invoice, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toInvoiceResponse(invoice))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	invoice, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toInvoiceResponse(invoice))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	invoices, err := h.service.List(r.Context(), limit)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	out := make([]invoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toInvoiceResponse(inv))
	}
	httpx.JSON(w, http.StatusOK, out)
}

type postJournalResponse struct {
	EntryID   int64  `json:"entry_id"`
	EntryCode string `json:"entry_code"`
}

func (h *Handler) PostJournal(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	entryID, entryCode, err := h.poster.PostInvoiceJournal(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, postJournalResponse{EntryID: entryID, EntryCode: entryCode})
}
