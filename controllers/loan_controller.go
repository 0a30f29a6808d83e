package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"loanmanagement/amortization"
	"loanmanagement/database"
	"loanmanagement/services"
	"loanmanagement/utils"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// LoanController обрабатывает запросы, связанные с кредитами
type LoanController struct {
	loans   *services.LoanService
	reports *services.ReportService
	now     func() time.Time
}

// LoanListResponse страница кредитов
type LoanListResponse struct {
	Loans      []LoanResponse `json:"loans"`
	Pagination utils.Page     `json:"pagination"`
}

// CalculationResponse результат расчета без сохранения
type CalculationResponse struct {
	Amount         Money                 `json:"amount"`
	InterestRate   decimal.Decimal       `json:"interest_rate"`
	TermMonths     int                   `json:"term_months"`
	MonthlyPayment Money                 `json:"monthly_payment"`
	TotalRepayment Money                 `json:"total_repayment"`
	TotalInterest  Money                 `json:"total_interest"`
	Schedule       []ScheduleRowResponse `json:"schedule"`
}

// NewLoanController создает новый экземпляр LoanController
func NewLoanController(loans *services.LoanService, reports *services.ReportService) *LoanController {
	return &LoanController{
		loans:   loans,
		reports: reports,
		now:     time.Now,
	}
}

// Register подключает маршруты кредитов и платежей
func (c *LoanController) Register(r *mux.Router) {
	r.HandleFunc("/loans", c.GetLoans).Methods("GET")
	r.HandleFunc("/loans", c.CreateLoan).Methods("POST")
	r.HandleFunc("/loans/calculate", c.Calculate).Methods("GET")
	r.HandleFunc("/loans/{id:[0-9]+}", c.GetLoan).Methods("GET")
	r.HandleFunc("/loans/{id:[0-9]+}", c.UpdateLoan).Methods("PUT")
	r.HandleFunc("/loans/{id:[0-9]+}", c.DeleteLoan).Methods("DELETE")
	r.HandleFunc("/loans/{id:[0-9]+}/schedule", c.GetSchedule).Methods("GET")
	r.HandleFunc("/loans/{id:[0-9]+}/schedule.pdf", c.GetSchedulePDF).Methods("GET")
	r.HandleFunc("/loans/{id:[0-9]+}/schedule.xml", c.GetScheduleXML).Methods("GET")
}

// queryDecimal читает необязательную сумму из строки запроса
func queryDecimal(r *http.Request, name string) (*decimal.Decimal, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &d, nil
}

// queryInt читает необязательное целое из строки запроса
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}

// GetLoans обрабатывает поиск кредитов с фильтрами и страницами
func (c *LoanController) GetLoans(w http.ResponseWriter, r *http.Request) {
	var (
		filter database.LoanFilter
		err    error
	)

	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			http.Error(w, "invalid user_id", http.StatusBadRequest)
			return
		}
		filter.UserID = uint(id)
	}
	if filter.MinAmount, err = queryDecimal(r, "min_amount"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if filter.MaxAmount, err = queryDecimal(r, "max_amount"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	page, err := queryInt(r, "page")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	perPage, err := queryInt(r, "per_page")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	loans, p, err := c.loans.Search(r.Context(), filter, page, perPage)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := LoanListResponse{Loans: make([]LoanResponse, 0, len(loans)), Pagination: p}
	for i := range loans {
		resp.Loans = append(resp.Loans, toLoanResponse(&loans[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateLoan обрабатывает запрос на создание кредита
func (c *LoanController) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req services.LoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	loan, err := c.loans.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLoanResponse(loan))
}

// GetLoan возвращает карточку кредита с платежами и графиком
func (c *LoanController) GetLoan(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	details, err := c.loans.GetLoanDetails(r.Context(), id, c.now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailsResponse(details))
}

// UpdateLoan изменяет условия кредита
func (c *LoanController) UpdateLoan(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req services.LoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	loan, err := c.loans.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanResponse(loan))
}

// DeleteLoan удаляет кредит вместе с платежами
func (c *LoanController) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := c.loans.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSchedule возвращает график платежей в JSON
func (c *LoanController) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	_, entries, err := c.loans.Schedule(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	rows := make([]ScheduleRowResponse, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, toScheduleRow(e, ""))
	}
	writeJSON(w, http.StatusOK, rows)
}

// GetSchedulePDF выгружает график платежей в PDF
func (c *LoanController) GetSchedulePDF(w http.ResponseWriter, r *http.Request) {
	c.writeReport(w, r, "application/pdf", "pdf", c.reports.SchedulePDF)
}

// GetScheduleXML выгружает график платежей в XML
func (c *LoanController) GetScheduleXML(w http.ResponseWriter, r *http.Request) {
	c.writeReport(w, r, "application/xml", "xml", c.reports.ScheduleXML)
}

func (c *LoanController) writeReport(w http.ResponseWriter, r *http.Request, contentType, ext string, render func(*services.LoanDetails) ([]byte, error)) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	details, err := c.loans.GetLoanDetails(r.Context(), id, c.now())
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := render(details)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"loan-%d-schedule.%s\"", id, ext))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		utils.LogError("Ошибка при отправке отчета: %v", err)
	}
}

// Calculate рассчитывает платежи по параметрам amount, rate, term и start (YYYY-MM-DD)
func (c *LoanController) Calculate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}
	rate, err := decimal.NewFromString(q.Get("rate"))
	if err != nil {
		http.Error(w, "invalid rate", http.StatusBadRequest)
		return
	}
	term, err := strconv.Atoi(q.Get("term"))
	if err != nil {
		http.Error(w, "invalid term", http.StatusBadRequest)
		return
	}

	start := c.now()
	if raw := q.Get("start"); raw != "" {
		if start, err = time.Parse("2006-01-02", raw); err != nil {
			http.Error(w, "invalid start", http.StatusBadRequest)
			return
		}
	}

	terms := amortization.LoanTerms{Principal: amount, AnnualRatePercent: rate, TermMonths: term}
	summary, entries, err := c.loans.Calculate(terms, start)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := CalculationResponse{
		Amount:         money(amount),
		InterestRate:   rate,
		TermMonths:     term,
		MonthlyPayment: money(summary.MonthlyPayment),
		TotalRepayment: money(summary.TotalRepayment),
		TotalInterest:  money(summary.TotalInterest),
		Schedule:       make([]ScheduleRowResponse, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Schedule = append(resp.Schedule, toScheduleRow(e, ""))
	}
	writeJSON(w, http.StatusOK, resp)
}
