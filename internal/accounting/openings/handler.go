package openings

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/temple-erp/temple-erp/internal/accounting/shared"
	"github.com/temple-erp/temple-erp/internal/platform/httpx"
)

// Handler exposes opening balance maintenance over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountLedgerRoutes registers the per-ledger opening balance route.
func (h *Handler) MountLedgerRoutes(r chi.Router) {
	r.Put("/{id}/opening-balance", h.Set)
}

// MountFiscalRoutes registers the per-year opening balance listing.
func (h *Handler) MountFiscalRoutes(r chi.Router) {
	r.Get("/fiscal-years/{id}/opening-balances", h.ListByYear)
}

type setRequest struct {
	FiscalYearID int64            `json:"fiscal_year_id" validate:"required"`
	Amount       decimal.Decimal  `json:"amount" validate:"required"`
	Side         string           `json:"side" validate:"required"`
	Quantity     *decimal.Decimal `json:"quantity"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	UomID        *int64           `json:"uom_id"`
}

type openingResponse struct {
	ID           int64            `json:"id"`
	LedgerID     int64            `json:"ledger_id"`
	FiscalYearID int64            `json:"fiscal_year_id"`
	DrAmount     decimal.Decimal  `json:"dr_amount"`
	CrAmount     decimal.Decimal  `json:"cr_amount"`
	Quantity     *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice    *decimal.Decimal `json:"unit_price,omitempty"`
	UomID        *int64           `json:"uom_id,omitempty"`
	Warning      string           `json:"warning,omitempty"`
}

func toResponse(b OpeningBalance, warning string) openingResponse {
	return openingResponse{
		ID:           b.ID,
		LedgerID:     b.LedgerID,
		FiscalYearID: b.FiscalYearID,
		DrAmount:     b.DrAmount,
		CrAmount:     b.CrAmount,
		Quantity:     b.Quantity,
		UnitPrice:    b.UnitPrice,
		UomID:        b.UomID,
		Warning:      warning,
	}
}

func (h *Handler) Set(w http.ResponseWriter, r *http.Request) {
	ledgerID, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	var req setRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	result, err := h.service.Set(r.Context(), SetOpeningBalanceInput{
		LedgerID:     ledgerID,
		FiscalYearID: req.FiscalYearID,
		Amount:       req.Amount,
		Side:         req.Side,
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
		UomID:        req.UomID,
	})
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrLedgerNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		case errors.Is(err, shared.ErrInvalidSide):
			httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Side", err.Error())
		default:
			h.logger.Error("set opening balance", slog.Any("error", err))
			httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Opening Balance", err.Error())
		}
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(result.OpeningBalance, result.Warning))
}

func (h *Handler) ListByYear(w http.ResponseWriter, r *http.Request) {
	yearID, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	balances, err := h.service.ListByYear(r.Context(), yearID)
	if err != nil {
		h.logger.Error("list opening balances", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]openingResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, toResponse(b, ""))
	}
	httpx.JSON(w, http.StatusOK, out)
}
