package mappings

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/temple-erp/temple-erp/internal/platform/httpx"
)

var validModules = map[string]bool{
	ModuleProduct:  true,
	ModuleService:  true,
	ModuleSupplier: true,
	ModuleTax:      true,
}

// Handler exposes ledger mapping upserts and listings over JSON.
type Handler struct {
	logger *slog.Logger
	repo   Repository
}

func NewHandler(logger *slog.Logger, repo Repository) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers mapping routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{module}", h.ListByModule)
	r.Put("/{module}/{refID}", h.Set)
}

type setRequest struct {
	LedgerID int64 `json:"ledger_id" validate:"required,gt=0"`
}

type mappingResponse struct {
	Module   string `json:"module"`
	RefID    int64  `json:"ref_id"`
	LedgerID int64  `json:"ledger_id"`
}

func moduleParam(r *http.Request) (string, bool) {
	module := strings.ToUpper(chi.URLParam(r, "module"))
	return module, validModules[module]
}

func (h *Handler) ListByModule(w http.ResponseWriter, r *http.Request) {
	module, ok := moduleParam(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "unknown mapping module")
		return
	}
	list, err := h.repo.ListByModule(r.Context(), module)
	if err != nil {
		h.logger.Error("list mappings failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]mappingResponse, 0, len(list))
	for _, m := range list {
		out = append(out, mappingResponse{Module: m.Module, RefID: m.RefID, LedgerID: m.LedgerID})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Set(w http.ResponseWriter, r *http.Request) {
	module, ok := moduleParam(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "unknown mapping module")
		return
	}
	refID, err := httpx.URLParamInt64(r, "refID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	var req setRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	mapping, err := h.repo.Set(r.Context(), module, refID, req.LedgerID)
	if err != nil {
		h.logger.Error("set mapping failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, mappingResponse{Module: mapping.Module, RefID: mapping.RefID, LedgerID: mapping.LedgerID})
}
