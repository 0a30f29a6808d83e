package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"loanmanagement/amortization"
	"loanmanagement/models"
	"loanmanagement/services"
	"loanmanagement/utils"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// Money сумма вместе с отображаемой строкой
type Money struct {
	Value   decimal.Decimal `json:"value"`
	Display string          `json:"display"`
}

func money(d decimal.Decimal) Money {
	return Money{Value: d.Round(2), Display: utils.FormatCurrency(d)}
}

// LoanResponse кредит с производными суммами
type LoanResponse struct {
	ID             uint            `json:"id"`
	UserID         uint            `json:"user_id"`
	UserName       string          `json:"user_name,omitempty"`
	Amount         Money           `json:"amount"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	TermMonths     int             `json:"term_months"`
	MonthlyPayment Money           `json:"monthly_payment"`
	TotalRepayment Money           `json:"total_repayment"`
	TotalInterest  Money           `json:"total_interest"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ScheduleRowResponse строка графика платежей
type ScheduleRowResponse struct {
	Period    int    `json:"period"`
	DueDate   string `json:"due_date"`
	Payment   Money  `json:"payment"`
	Principal Money  `json:"principal"`
	Interest  Money  `json:"interest"`
	Balance   Money  `json:"balance"`
	Status    string `json:"status,omitempty"`
}

// PaymentResponse платеж по кредиту
type PaymentResponse struct {
	ID          uint      `json:"id"`
	LoanID      uint      `json:"loan_id"`
	Amount      Money     `json:"amount"`
	PaymentDate time.Time `json:"payment_date"`
}

// LoanDetailsResponse карточка кредита
type LoanDetailsResponse struct {
	LoanResponse
	Borrower         *models.User          `json:"borrower,omitempty"`
	Payments         []PaymentResponse     `json:"payments"`
	TotalPaid        Money                 `json:"total_paid"`
	RemainingBalance Money                 `json:"remaining_balance"`
	ProgressPercent  decimal.Decimal       `json:"progress_percent"`
	Schedule         []ScheduleRowResponse `json:"schedule"`
}

func toLoanResponse(loan *models.Loan) LoanResponse {
	resp := LoanResponse{
		ID:           loan.ID,
		UserID:       loan.UserID,
		Amount:       money(loan.Amount),
		InterestRate: loan.InterestRate,
		TermMonths:   loan.TermMonths,
		CreatedAt:    loan.CreatedAt,
		UpdatedAt:    loan.UpdatedAt,
	}
	if loan.User != nil {
		resp.UserName = loan.User.Name
	}

	// Итоги не хранятся и рассчитываются при каждом ответе
	if summary, err := amortization.Summarize(loan.Terms()); err == nil {
		resp.MonthlyPayment = money(summary.MonthlyPayment)
		resp.TotalRepayment = money(summary.TotalRepayment)
		resp.TotalInterest = money(summary.TotalInterest)
	}
	return resp
}

func toPaymentResponse(p models.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          p.ID,
		LoanID:      p.LoanID,
		Amount:      money(p.Amount),
		PaymentDate: p.PaymentDate,
	}
}

func toScheduleRow(e amortization.ScheduleEntry, status string) ScheduleRowResponse {
	return ScheduleRowResponse{
		Period:    e.Period,
		DueDate:   e.DueDate.Format("2006-01-02"),
		Payment:   money(e.Payment),
		Principal: money(e.Principal),
		Interest:  money(e.Interest),
		Balance:   money(e.Balance),
		Status:    status,
	}
}

func toDetailsResponse(d *services.LoanDetails) LoanDetailsResponse {
	resp := LoanDetailsResponse{
		LoanResponse:     toLoanResponse(&d.Loan),
		Borrower:         d.Borrower,
		Payments:         make([]PaymentResponse, 0, len(d.Payments)),
		TotalPaid:        money(d.TotalPaid),
		RemainingBalance: money(d.RemainingBalance),
		ProgressPercent:  d.ProgressPercent,
		Schedule:         make([]ScheduleRowResponse, 0, len(d.Schedule)),
	}
	for _, p := range d.Payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(p))
	}
	for _, r := range d.Schedule {
		resp.Schedule = append(resp.Schedule, toScheduleRow(r.ScheduleEntry, string(r.Status)))
	}
	return resp
}

// writeJSON отправляет ответ в формате JSON
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.LogError("Ошибка при отправке ответа: %v", err)
	}
}

// statusFor возвращает HTTP код для ошибки сервиса
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation), errors.Is(err, amortization.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError переводит ошибку сервиса в HTTP ответ. Внутренние ошибки логируются и не раскрываются.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		utils.LogError("Внутренняя ошибка: %v", err)
		http.Error(w, "Internal server error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

// parseID читает числовой идентификатор из пути
func parseID(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return uint(id), nil
}
