package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment представляет фактический платеж по кредиту
type Payment struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	LoanID      uint            `gorm:"column:loan_id;not null;index" json:"loan_id"`
	Loan        *Loan           `gorm:"foreignKey:LoanID" json:"loan,omitempty"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	PaymentDate time.Time       `gorm:"column:payment_date;not null" json:"payment_date"` // Дата реального платежа
	CreatedAt   time.Time       `gorm:"column:created_at" json:"created_at"`
}

// TableName возвращает имя таблицы для модели Payment
func (Payment) TableName() string {
	return "payments"
}
