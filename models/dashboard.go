package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardStats содержит сводную статистику по кредитам
type DashboardStats struct {
	TotalLoans       int64           `json:"total_loans"`
	TotalUsers       int64           `json:"total_users"`
	TotalLoanAmount  decimal.Decimal `json:"total_loan_amount"`
	TotalPayments    decimal.Decimal `json:"total_payments"`
	RecentLoans      []RecentLoan    `json:"recent_loans"`
	RecentPayments   []RecentPayment `json:"recent_payments"`
	RateDistribution []Bucket        `json:"rate_distribution"`
	TermDistribution []Bucket        `json:"term_distribution"`
}

// RecentLoan строка списка последних кредитов
type RecentLoan struct {
	ID           uint            `json:"id"`
	UserID       uint            `json:"user_id"`
	UserName     string          `json:"user_name"`
	Amount       decimal.Decimal `json:"amount"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	TermMonths   int             `json:"term_months"`
	CreatedAt    time.Time       `json:"created_at"`
}

// RecentPayment строка списка последних платежей
type RecentPayment struct {
	ID          uint            `json:"id"`
	LoanID      uint            `json:"loan_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate time.Time       `json:"payment_date"`
	LoanAmount  decimal.Decimal `json:"loan_amount"`
	UserName    string          `json:"user_name"`
}

// Bucket количество кредитов в диапазоне
type Bucket struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// Диапазоны ставок и сроков в порядке вывода
var (
	RateBuckets = []string{"Below 3%", "3-5%", "5-7%", "Above 7%"}
	TermBuckets = []string{"0-6 months", "7-12 months", "13-24 months", "Over 24 months"}
)
