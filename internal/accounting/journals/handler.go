package journals

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/temple-erp/temple-erp/internal/accounting/shared"
	"github.com/temple-erp/temple-erp/internal/platform/httpx"
)

// Handler exposes manual journal posting and entry reads over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers journal routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Post)
	r.Get("/{id}", h.Get)
}

type lineRequest struct {
	LedgerID  int64           `json:"ledger_id" validate:"required"`
	Side      string          `json:"side" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Narration string          `json:"narration"`
}

type postRequest struct {
	Date      string        `json:"date" validate:"required"`
	FundID    int64         `json:"fund_id" validate:"required"`
	Narration string        `json:"narration"`
	Reference string        `json:"reference" validate:"required"`
	Lines     []lineRequest `json:"lines" validate:"required,min=2,dive"`
}

type itemResponse struct {
	LedgerID  int64           `json:"ledger_id"`
	Side      string          `json:"side"`
	Amount    decimal.Decimal `json:"amount"`
	Narration string          `json:"narration,omitempty"`
}

type entryResponse struct {
	ID        int64           `json:"id"`
	Code      string          `json:"code"`
	Type      string          `json:"type"`
	Date      string          `json:"date"`
	FundID    int64           `json:"fund_id"`
	Narration string          `json:"narration,omitempty"`
	DrTotal   decimal.Decimal `json:"dr_total"`
	CrTotal   decimal.Decimal `json:"cr_total"`
	Items     []itemResponse  `json:"items,omitempty"`
}

func toEntryResponse(e Entry) entryResponse {
	resp := entryResponse{
		ID:        e.ID,
		Code:      e.Code,
		Type:      string(e.Type),
		Date:      e.Date.Format("2006-01-02"),
		FundID:    e.FundID,
		Narration: e.Narration,
		DrTotal:   e.DrTotal,
		CrTotal:   e.CrTotal,
	}
	for _, item := range e.Items {
		resp.Items = append(resp.Items, itemResponse{
			LedgerID:  item.LedgerID,
			Side:      string(item.Side),
			Amount:    item.Amount,
			Narration: item.Narration,
		})
	}
	return resp
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	var imbalance *shared.ImbalanceError
	switch {
	case errors.Is(err, shared.ErrEntryNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrSourceAlreadyLinked):
		httpx.Problem(w, http.StatusConflict, "Already Posted", err.Error())
	case errors.As(err, &imbalance), errors.Is(err, shared.ErrUnbalanced),
		errors.Is(err, shared.ErrTooFewLines), errors.Is(err, shared.ErrInvalidSide),
		errors.Is(err, shared.ErrFiscalYearNotFound), errors.Is(err, shared.ErrNoActiveFund):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Entry", err.Error())
	default:
		h.logger.Error("journal request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "date must be yyyy-mm-dd")
		return
	}
	input := PostingInput{
		Type:         EntryTypeJournal,
		Date:         date,
		FundID:       req.FundID,
		Narration:    req.Narration,
		SourceModule: "MANUAL.JOURNAL",
		SourceID:     uuid.NewSHA1(uuid.Nil, []byte("MANUAL.JOURNAL:"+req.Reference)),
	}
	for _, line := range req.Lines {
		side, err := shared.ParseSide(line.Side)
		if err != nil {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Side", err.Error())
			return
		}
		input.Lines = append(input.Lines, PostingLineInput{
			LedgerID:  line.LedgerID,
			Side:      side,
			Amount:    line.Amount,
			Narration: line.Narration,
		})
	}
	entry, err := h.service.PostEntry(r.Context(), input)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.service.List(r.Context(), limit)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	httpx.JSON(w, http.StatusOK, out)
}
