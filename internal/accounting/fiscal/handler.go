package fiscal

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/temple-erp/temple-erp/internal/accounting/shared"
	"github.com/temple-erp/temple-erp/internal/platform/httpx"
)

// Handler exposes fiscal years and funds over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers fiscal year and fund routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/fiscal-years", h.ListYears)
	r.Post("/fiscal-years/{id}/activate", h.ActivateYear)
	r.Get("/funds", h.ListFunds)
}

type yearResponse struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	IsActive  bool   `json:"is_active"`
}

type fundResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

func (h *Handler) ListYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.ListYears(r.Context())
	if err != nil {
		h.logger.Error("list fiscal years failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]yearResponse, 0, len(years))
	for _, y := range years {
		out = append(out, yearResponse{
			ID:        y.ID,
			Code:      y.Code,
			StartDate: y.StartDate.Format("2006-01-02"),
			EndDate:   y.EndDate.Format("2006-01-02"),
			IsActive:  y.IsActive,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) ActivateYear(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.service.ActivateYear(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrFiscalYearNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("activate fiscal year failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListFunds(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	funds, err := h.service.ListFunds(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("list funds failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]fundResponse, 0, len(funds))
	for _, f := range funds {
		out = append(out, fundResponse{ID: f.ID, Name: f.Name, IsActive: f.IsActive})
	}
	httpx.JSON(w, http.StatusOK, out)
}
