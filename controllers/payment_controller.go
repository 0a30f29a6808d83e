package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"loanmanagement/services"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// PaymentController обрабатывает платежи по кредитам
type PaymentController struct {
	payments *services.PaymentService
}

// paymentInput принимает дату платежа как YYYY-MM-DD или RFC 3339
type paymentInput struct {
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date"`
}

func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

func (c *PaymentController) Register(r *mux.Router) {
	r.HandleFunc("/loans/{id:[0-9]+}/payments", c.AddPayment).Methods("POST")
	r.HandleFunc("/loans/{id:[0-9]+}/payments/{paymentID:[0-9]+}", c.DeletePayment).Methods("DELETE")
}

func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	return t, err == nil
}

// AddPayment добавляет платеж к кредиту
func (c *PaymentController) AddPayment(w http.ResponseWriter, r *http.Request) {
	loanID, err := parseID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var in paymentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	date, ok := parseDate(in.PaymentDate)
	if !ok {
		http.Error(w, "invalid payment_date", http.StatusBadRequest)
		return
	}

	payment, err := c.payments.Add(r.Context(), loanID, services.PaymentRequest{
		Amount:      in.Amount,
		PaymentDate: date,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResponse(*payment))
}

// DeletePayment удаляет платеж кредита
func (c *PaymentController) DeletePayment(w http.ResponseWriter, r *http.Request) {
	loanID, err := parseID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	paymentID, err := parseID(r, "paymentID")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := c.payments.Delete(r.Context(), loanID, paymentID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
