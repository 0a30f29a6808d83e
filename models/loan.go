package models

import (
	"time"

	"loanmanagement/amortization"

	"github.com/shopspring/decimal"
)

// Loan представляет кредит заемщика
type Loan struct {
	ID           uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint            `gorm:"column:user_id;not null;index" json:"user_id"`
	User         *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Amount       decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	InterestRate decimal.Decimal `gorm:"column:interest_rate;type:numeric(5,2);not null" json:"interest_rate"`
	TermMonths   int             `gorm:"column:term_months;not null" json:"term_months"`
	Payments     []Payment       `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

// TableName возвращает имя таблицы для модели Loan
func (Loan) TableName() string {
	return "loans"
}

// Terms возвращает условия кредита для расчета графика
func (l Loan) Terms() amortization.LoanTerms {
	return amortization.LoanTerms{
		Principal:         l.Amount,
		AnnualRatePercent: l.InterestRate,
		TermMonths:        l.TermMonths,
	}
}
