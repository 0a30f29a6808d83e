package database

import (
	"loanmanagement/models"
	"loanmanagement/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// LoanFilter условия поиска кредитов. Нулевые значения не ограничивают выборку.
type LoanFilter struct {
	UserID    uint
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
}

// Методы для работы с кредитами
func (d *Database) CreateLoan(loan *models.Loan) error {
	return d.DB.Omit(clause.Associations).Create(loan).Error
}

func (d *Database) GetLoanByID(id uint) (*models.Loan, error) {
	var loan models.Loan
	err := d.DB.Preload("User").First(&loan, id).Error
	return &loan, err
}

// UpdateLoan обновляет только условия кредита
func (d *Database) UpdateLoan(loan *models.Loan) error {
	return d.DB.Model(loan).
		Omit(clause.Associations).
		Select("amount", "interest_rate", "term_months", "updated_at").
		Updates(loan).Error
}

func (d *Database) DeleteLoan(id uint) error {
	return d.DB.Delete(&models.Loan{}, id).Error
}

func (d *Database) ListLoans() ([]models.Loan, error) {
	var loans []models.Loan
	err := d.DB.Preload("User").Order("id").Find(&loans).Error
	return loans, err
}

func (d *Database) ListLoansByUser(userID uint) ([]models.Loan, error) {
	var loans []models.Loan
	err := d.DB.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&loans).Error
	return loans, err
}

// SearchLoans возвращает страницу кредитов, новые первыми
func (d *Database) SearchLoans(filter LoanFilter, page, perPage int) ([]models.Loan, utils.Page, error) {
	query := d.DB.Model(&models.Loan{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.MinAmount != nil {
		query = query.Where("amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("amount <= ?", *filter.MaxAmount)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, utils.Page{}, err
	}

	p := utils.NewPage(page, perPage, total)

	var loans []models.Loan
	err := query.Preload("User").
		Order("created_at DESC, id DESC").
		Offset(p.Offset()).
		Limit(p.PerPage).
		Find(&loans).Error
	return loans, p, err
}
