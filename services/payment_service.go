package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loanmanagement/amortization"
	"loanmanagement/models"
	"loanmanagement/utils"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentRequest данные платежа по кредиту
type PaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required,gt=0,lte=9999999999.99"`
	PaymentDate time.Time       `json:"payment_date" validate:"required"`
}

// PaymentService предоставляет методы для учета платежей
type PaymentService struct {
	repo      PaymentRepository
	validator *validator.Validate
	notifier  Notifier
	stats     Invalidator
}

// NewPaymentService создает новый экземпляр PaymentService. notifier и stats могут быть nil.
func NewPaymentService(repo PaymentRepository, notifier Notifier, stats Invalidator) *PaymentService {
	if stats == nil {
		stats = noopInvalidator{}
	}
	return &PaymentService{
		repo:      repo,
		validator: newValidator(),
		notifier:  notifier,
		stats:     stats,
	}
}

// Add добавляет платеж к кредиту
func (s *PaymentService) Add(ctx context.Context, loanID uint, req PaymentRequest) (*models.Payment, error) {
	req.Amount = req.Amount.Round(2)
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	loan, err := s.repo.GetLoanByID(loanID)
	if err != nil {
		return nil, lookupError("кредит", err)
	}

	// Сумма до платежа нужна, чтобы уведомить о погашении один раз
	paidBefore, err := s.repo.SumPaymentsByLoan(loanID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при расчете суммы платежей: %w", err)
	}

	payment := &models.Payment{
		LoanID:      loanID,
		Amount:      req.Amount,
		PaymentDate: req.PaymentDate,
	}
	if err := s.repo.CreatePayment(payment); err != nil {
		return nil, fmt.Errorf("ошибка при создании платежа: %w", err)
	}
	s.stats.Invalidate(ctx)

	s.notifyIfPaidOff(loan, paidBefore, paidBefore.Add(payment.Amount))
	return payment, nil
}

// notifyIfPaidOff отправляет письмо, если платеж закрыл кредит. Ошибки только логируются.
func (s *PaymentService) notifyIfPaidOff(loan *models.Loan, paidBefore, paidAfter decimal.Decimal) {
	if s.notifier == nil || loan.User == nil {
		return
	}

	total, err := amortization.TotalRepayment(loan.Terms())
	if err != nil {
		utils.LogError("Ошибка при расчете суммы кредита %d: %v", loan.ID, err)
		return
	}
	if paidBefore.GreaterThanOrEqual(total) || paidAfter.LessThan(total) {
		return
	}

	if err := s.notifier.SendLoanPaidNotification(loan.User.Email, loan.ID); err != nil {
		utils.LogError("Ошибка при отправке уведомления о погашении кредита %d: %v", loan.ID, err)
		return
	}
	utils.LogInfo("Кредит %d погашен, уведомление отправлено", loan.ID)
}

// Delete удаляет платеж кредита
func (s *PaymentService) Delete(ctx context.Context, loanID, paymentID uint) error {
	if err := s.repo.DeletePayment(paymentID, loanID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return lookupError("платеж", err)
		}
		return fmt.Errorf("ошибка при удалении платежа: %w", err)
	}

	s.stats.Invalidate(ctx)
	return nil
}
