package settings

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/temple-erp/temple-erp/internal/platform/httpx"
)

// Handler exposes posting configuration over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers settings routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/posting", h.GetPosting)
	r.Put("/posting", h.SetPosting)
}

type postingSettings struct {
	TaxInclusive         bool   `json:"tax_inclusive"`
	OtherChargesLedgerID *int64 `json:"other_charges_ledger_id"`
}

func (h *Handler) GetPosting(w http.ResponseWriter, r *http.Request) {
	inclusive, err := h.service.IsTaxInclusive(r.Context())
	if err != nil {
		h.logger.Error("read settings failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	resp := postingSettings{TaxInclusive: inclusive}
	ledgerID, err := h.service.OtherChargesLedgerID(r.Context())
	switch {
	case err == nil:
		resp.OtherChargesLedgerID = &ledgerID
	case errors.Is(err, ErrUnset):
	default:
		h.logger.Error("read settings failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) SetPosting(w http.ResponseWriter, r *http.Request) {
	var req postingSettings
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.service.SetTaxInclusive(r.Context(), req.TaxInclusive); err != nil {
		h.logger.Error("write settings failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if req.OtherChargesLedgerID != nil {
		if err := h.service.SetOtherChargesLedgerID(r.Context(), *req.OtherChargesLedgerID); err != nil {
			h.logger.Error("write settings failed", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
