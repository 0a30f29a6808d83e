package database

import (
	"loanmanagement/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Методы для работы с платежами
func (d *Database) CreatePayment(payment *models.Payment) error {
	return d.DB.Omit(clause.Associations).Create(payment).Error
}

func (d *Database) ListPaymentsByLoan(loanID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := d.DB.Where("loan_id = ?", loanID).Order("payment_date DESC, id DESC").Find(&payments).Error
	return payments, err
}

// DeletePayment удаляет платеж только в рамках указанного кредита
func (d *Database) DeletePayment(id, loanID uint) error {
	result := d.DB.Where("loan_id = ?", loanID).Delete(&models.Payment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (d *Database) SumPaymentsByLoan(loanID uint) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := d.DB.Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("loan_id = ?", loanID).
		Row().Scan(&sum)
	return sum, err
}
