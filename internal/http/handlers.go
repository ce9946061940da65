package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"lavagens/internal/core"
	"lavagens/internal/report"
)

type washRequest struct {
	Date      string `json:"date"`
	Plate     string `json:"plate"`
	Make      string `json:"make"`
	Model     string `json:"model"`
	Customer  string `json:"customer"`
	Service   string `json:"service"`
	Amount    string `json:"amount"`
	Recipient string `json:"recipient"`
}

type purchaseRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Payer       string `json:"payer"`
}

type withdrawalRequest struct {
	Amount string `json:"amount"`
}

type createdResponse struct {
	ID string `json:"id"`
}

type withdrawalResponse struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Amount string `json:"amount"`
	Note   string `json:"note"`
}

type serviceStatResponse struct {
	Service string `json:"service"`
	Count   int    `json:"count"`
	Total   string `json:"total"`
	Color   string `json:"color"`
}

type payerStatResponse struct {
	Payer string `json:"payer"`
	Total string `json:"total"`
}

type washResponse struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Plate     string `json:"plate"`
	Make      string `json:"make,omitempty"`
	Model     string `json:"model,omitempty"`
	Customer  string `json:"customer,omitempty"`
	Service   string `json:"service"`
	Amount    string `json:"amount"`
	Recipient string `json:"recipient"`
}

type purchaseResponse struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Payer       string `json:"payer"`
}

type summaryResponse struct {
	Period    string                `json:"period"`
	Year      int                   `json:"year"`
	Month     int                   `json:"month"`
	Revenue   string                `json:"revenue"`
	Expense   string                `json:"expense"`
	Profit    string                `json:"profit"`
	WashCount int                   `json:"wash_count"`
	ByService []serviceStatResponse `json:"by_service"`
	ByPayer   []payerStatResponse   `json:"by_payer"`
	Washes    []washResponse        `json:"washes"`
	Purchases []purchaseResponse    `json:"purchases"`
}

type balanceResponse struct {
	Partner     string `json:"partner"`
	Earned      string `json:"earned"`
	Withdrawn   string `json:"withdrawn"`
	Outstanding string `json:"outstanding"`
}

type periodResponse struct {
	Period string `json:"period"`
	Year   int    `json:"year"`
	Month  int    `json:"month"`
}

type shiftRequest struct {
	Months int `json:"months"`
}

const eventDateFormat = "2006-01-02"

func (s *Server) handleCreateWash(w http.ResponseWriter, r *http.Request) {
	var req washRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	occurredAt, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	wash := core.Wash{
		OccurredAt: occurredAt,
		Plate:      sanitizeInput(req.Plate),
		Make:       sanitizeInput(req.Make),
		Model:      sanitizeInput(req.Model),
		Customer:   sanitizeInput(req.Customer),
		Service:    sanitizeInput(req.Service),
		Amount:     amount,
		Recipient:  sanitizeInput(req.Recipient),
	}

	id, err := s.svc.RecordWash(r.Context(), wash)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleDeleteWash(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteWash(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	occurredAt, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	purchase := core.Purchase{
		OccurredAt:  occurredAt,
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		Category:    sanitizeInput(req.Category),
		Payer:       sanitizeInput(req.Payer),
	}

	id, err := s.svc.RecordPurchase(r.Context(), purchase)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleDeletePurchase(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeletePurchase(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListWithdrawals(w http.ResponseWriter, r *http.Request) {
	withdrawals, err := s.svc.ListWithdrawals(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]withdrawalResponse, 0, len(withdrawals))
	for _, wd := range withdrawals {
		resp = append(resp, withdrawalResponse{
			ID:     wd.ID,
			Date:   wd.OccurredAt.Format(eventDateFormat),
			Amount: core.FormatAmount(wd.Amount),
			Note:   wd.Note,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req withdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := s.svc.RecordWithdrawal(r.Context(), amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, withdrawalResponse{
		ID:     rec.ID,
		Date:   rec.OccurredAt.Format(eventDateFormat),
		Amount: core.FormatAmount(rec.Amount),
		Note:   rec.Note,
	})
}

func (s *Server) handleDeleteWithdrawal(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteWithdrawal(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// summaryFor resolves the requested period, consulting the cache first.
func (s *Server) summaryFor(r *http.Request) (core.MonthlySummary, error) {
	period, explicit, err := parsePeriod(r)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("%w: %v", errBadPeriod, err)
	}
	if !explicit {
		period = s.svc.Selector().Current()
	}

	key := period.String()
	if cached, ok := s.summaryCache.Get(key); ok {
		return cached, nil
	}

	summary, err := s.svc.SummaryAt(r.Context(), period)
	if err != nil {
		return core.MonthlySummary{}, err
	}
	s.summaryCache.Set(key, summary)
	return summary, nil
}

var errBadPeriod = errors.New("bad period")

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.summaryFor(r)
	if err != nil {
		if errors.Is(err, errBadPeriod) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

func toSummaryResponse(summary core.MonthlySummary) summaryResponse {
	resp := summaryResponse{
		Period:    summary.Period.String(),
		Year:      summary.Period.Year,
		Month:     int(summary.Period.Month),
		Revenue:   core.FormatAmount(summary.Revenue),
		Expense:   core.FormatAmount(summary.Expense),
		Profit:    core.FormatAmount(summary.Profit),
		WashCount: summary.WashCount,
		ByService: make([]serviceStatResponse, 0, len(summary.ByService)),
		ByPayer:   make([]payerStatResponse, 0, len(summary.ByPayer)),
		Washes:    make([]washResponse, 0, len(summary.Washes)),
		Purchases: make([]purchaseResponse, 0, len(summary.Purchases)),
	}
	for _, st := range summary.ByService {
		resp.ByService = append(resp.ByService, serviceStatResponse{
			Service: st.Service,
			Count:   st.Count,
			Total:   core.FormatAmount(st.Total),
			Color:   st.Color,
		})
	}
	for _, st := range summary.ByPayer {
		resp.ByPayer = append(resp.ByPayer, payerStatResponse{
			Payer: st.Payer,
			Total: core.FormatAmount(st.Total),
		})
	}
	for _, wash := range summary.Washes {
		resp.Washes = append(resp.Washes, washResponse{
			ID:        wash.ID,
			Date:      wash.OccurredAt.Format(eventDateFormat),
			Plate:     wash.Plate,
			Make:      wash.Make,
			Model:     wash.Model,
			Customer:  wash.Customer,
			Service:   wash.Service,
			Amount:    core.FormatAmount(wash.Amount),
			Recipient: wash.Recipient,
		})
	}
	for _, purchase := range summary.Purchases {
		resp.Purchases = append(resp.Purchases, purchaseResponse{
			ID:          purchase.ID,
			Date:        purchase.OccurredAt.Format(eventDateFormat),
			Description: purchase.Description,
			Amount:      core.FormatAmount(purchase.Amount),
			Category:    purchase.Category,
			Payer:       purchase.Payer,
		})
	}
	return resp
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.svc.Balance(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{
		Partner:     balance.Partner,
		Earned:      core.FormatAmount(balance.Earned),
		Withdrawn:   core.FormatAmount(balance.Withdrawn),
		Outstanding: core.FormatAmount(balance.Outstanding),
	})
}

func (s *Server) handleReportCSV(w http.ResponseWriter, r *http.Request) {
	summary, err := s.summaryFor(r)
	if err != nil {
		if errors.Is(err, errBadPeriod) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", report.Filename(summary.Period)))
	if err := report.WriteCSV(w, summary); err != nil {
		slog.ErrorContext(r.Context(), "Failed to write CSV report",
			"period", summary.Period.String(), "error", err)
	}
}

func (s *Server) handleGetPeriod(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toPeriodResponse(s.svc.Selector().Current()))
}

func (s *Server) handleShiftPeriod(w http.ResponseWriter, r *http.Request) {
	var req shiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Months == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "months must be non-zero"})
		return
	}
	writeJSON(w, http.StatusOK, toPeriodResponse(s.svc.Selector().Shift(req.Months)))
}

func (s *Server) handleResetPeriod(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toPeriodResponse(s.svc.Selector().Reset()))
}

func toPeriodResponse(p core.Period) periodResponse {
	return periodResponse{Period: p.String(), Year: p.Year, Month: int(p.Month)}
}
