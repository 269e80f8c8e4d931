package ledgers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/temple-erp/temple-erp/internal/accounting/shared"
	"github.com/temple-erp/temple-erp/internal/platform/httpx"
)

// Handler exposes chart of accounts maintenance over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type ledgerRequest struct {
	Code              string `json:"code" validate:"required"`
	Name              string `json:"name" validate:"required"`
	NormalSide        string `json:"normal_side" validate:"required"`
	IsBank            bool   `json:"is_bank"`
	IsInventory       bool   `json:"is_inventory"`
	HasAging          bool   `json:"has_aging"`
	HasCreditAging    bool   `json:"has_credit_aging"`
	HasReconciliation bool   `json:"has_reconciliation"`
}

type ledgerResponse struct {
	ID                int64  `json:"id"`
	Code              string `json:"code"`
	Name              string `json:"name"`
	NormalSide        string `json:"normal_side"`
	IsBank            bool   `json:"is_bank"`
	IsInventory       bool   `json:"is_inventory"`
	HasAging          bool   `json:"has_aging"`
	HasCreditAging    bool   `json:"has_credit_aging"`
	HasReconciliation bool   `json:"has_reconciliation"`
	IsActive          bool   `json:"is_active"`
}

func toResponse(l Ledger) ledgerResponse {
	return ledgerResponse{
		ID:                l.ID,
		Code:              l.Code,
		Name:              l.Name,
		NormalSide:        string(l.NormalSide),
		IsBank:            l.IsBank,
		IsInventory:       l.IsInventory,
		HasAging:          l.HasAging,
		HasCreditAging:    l.HasCreditAging,
		HasReconciliation: l.HasReconciliation,
		IsActive:          l.IsActive,
	}
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrLedgerNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrLedgerInUse):
		httpx.Problem(w, http.StatusConflict, "Ledger In Use", err.Error())
	case errors.Is(err, shared.ErrInvalidSide):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Side", err.Error())
	default:
		h.logger.Error("ledger request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req ledgerRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	side, err := shared.ParseSide(req.NormalSide)
	if err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Side", err.Error())
		return
	}
	ledger, err := h.service.Create(r.Context(), CreateLedgerInput{
		Code:              req.Code,
		Name:              req.Name,
		NormalSide:        side,
		IsBank:            req.IsBank,
		IsInventory:       req.IsInventory,
		HasAging:          req.HasAging,
		HasCreditAging:    req.HasCreditAging,
		HasReconciliation: req.HasReconciliation,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(ledger))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	var req ledgerRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	ledger, err := h.service.Update(r.Context(), UpdateLedgerInput{
		ID:                id,
		Name:              req.Name,
		IsBank:            req.IsBank,
		IsInventory:       req.IsInventory,
		HasAging:          req.HasAging,
		HasCreditAging:    req.HasCreditAging,
		HasReconciliation: req.HasReconciliation,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(ledger))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	ledger, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(ledger))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "1"
	ledgers, err := h.service.List(r.Context(), activeOnly)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	out := make([]ledgerResponse, 0, len(ledgers))
	for _, l := range ledgers {
		out = append(out, toResponse(l))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
