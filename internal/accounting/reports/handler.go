package reports

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/temple-erp/temple-erp/internal/accounting/shared"
	"github.com/temple-erp/temple-erp/internal/platform/httpx"
)

// Handler exposes balance, statement and trial balance reads over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
	now     func() time.Time
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, now: time.Now}
}

// MountLedgerRoutes registers the per-ledger reporting routes. The
// router mounts these inside the ledger subrouter.
func (h *Handler) MountLedgerRoutes(r chi.Router) {
	r.Get("/{id}/balance", h.Balance)
	r.Get("/{id}/statement", h.Statement)
}

// MountReportRoutes registers the standalone report routes.
func (h *Handler) MountReportRoutes(r chi.Router) {
	r.Get("/trial-balance", h.TrialBalance)
}

type balanceResponse struct {
	Amount decimal.Decimal `json:"amount"`
	Side   string          `json:"side"`
}

func toBalanceResponse(b Balance) balanceResponse {
	return balanceResponse{Amount: b.Amount, Side: b.Side.Label()}
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrLedgerNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("report request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	asOf, err := httpx.QueryDate(r, "as_of", h.now())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	balance, err := h.service.GetBalance(r.Context(), id, asOf)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toBalanceResponse(balance))
}

type statementRowResponse struct {
	Date        string          `json:"date"`
	EntryCode   string          `json:"entry_code"`
	Description string          `json:"description"`
	Side        string          `json:"side"`
	Amount      decimal.Decimal `json:"amount"`
	Running     balanceResponse `json:"running_balance"`
}

type statementResponse struct {
	Opening     balanceResponse        `json:"opening"`
	Rows        []statementRowResponse `json:"rows"`
	TotalDebit  decimal.Decimal        `json:"total_debit"`
	TotalCredit decimal.Decimal        `json:"total_credit"`
	Closing     balanceResponse        `json:"closing"`
}

func (h *Handler) Statement(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	from, err := httpx.QueryDate(r, "from", time.Time{})
	if err != nil || from.IsZero() {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "from is required as yyyy-mm-dd")
		return
	}
	to, err := httpx.QueryDate(r, "to", h.now())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	statement, err := h.service.GetStatement(r.Context(), id, from, to)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	resp := statementResponse{
		Opening:     toBalanceResponse(statement.Opening),
		Rows:        make([]statementRowResponse, 0, len(statement.Rows)),
		TotalDebit:  statement.TotalDebit,
		TotalCredit: statement.TotalCredit,
		Closing:     toBalanceResponse(statement.Closing),
	}
	for _, row := range statement.Rows {
		resp.Rows = append(resp.Rows, statementRowResponse{
			Date:        row.Date.Format("2006-01-02"),
			EntryCode:   row.EntryCode,
			Description: row.Description,
			Side:        row.Side.Label(),
			Amount:      row.Amount,
			Running:     toBalanceResponse(row.Running),
		})
	}
	httpx.JSON(w, http.StatusOK, resp)
}

type trialBalanceRowResponse struct {
	LedgerID int64           `json:"ledger_id"`
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Opening  balanceResponse `json:"opening"`
	Debit    decimal.Decimal `json:"debit"`
	Credit   decimal.Decimal `json:"credit"`
	Closing  balanceResponse `json:"closing"`
}

type trialBalanceResponse struct {
	Rows        []trialBalanceRowResponse `json:"rows"`
	TotalDebit  decimal.Decimal           `json:"total_debit"`
	TotalCredit decimal.Decimal           `json:"total_credit"`
}

func (h *Handler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	from, err := httpx.QueryDate(r, "from", time.Time{})
	if err != nil || from.IsZero() {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "from is required as yyyy-mm-dd")
		return
	}
	to, err := httpx.QueryDate(r, "to", h.now())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	tb, err := h.service.GetTrialBalance(r.Context(), from, to)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	resp := trialBalanceResponse{
		Rows:        make([]trialBalanceRowResponse, 0, len(tb.Rows)),
		TotalDebit:  tb.TotalDebit,
		TotalCredit: tb.TotalCredit,
	}
	for _, row := range tb.Rows {
		resp.Rows = append(resp.Rows, trialBalanceRowResponse{
			LedgerID: row.LedgerID,
			Code:     row.Code,
			Name:     row.Name,
			Opening:  toBalanceResponse(row.Opening),
			Debit:    row.Debit,
			Credit:   row.Credit,
			Closing:  toBalanceResponse(row.Closing),
		})
	}
	httpx.JSON(w, http.StatusOK, resp)
}
