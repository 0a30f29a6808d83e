package services

import (
	"context"
	"fmt"
	"time"

	"loanmanagement/amortization"
	"loanmanagement/database"
	"loanmanagement/models"
	"loanmanagement/utils"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LoanRequest данные для создания и изменения кредита.
// Границы совпадают с колонками NUMERIC(12,2) и NUMERIC(5,2).
type LoanRequest struct {
	UserID       uint            `json:"user_id" validate:"required,gt=0"`
	Amount       decimal.Decimal `json:"amount" validate:"required,gt=0,lte=9999999999.99"`
	InterestRate decimal.Decimal `json:"interest_rate" validate:"gte=0,lte=100"`
	TermMonths   int             `json:"term_months" validate:"required,gte=1,lte=600"`
}

// CalculationRequest условия расчета без сохранения, с теми же границами
type CalculationRequest struct {
	Amount       decimal.Decimal `validate:"required,gt=0,lte=9999999999.99"`
	InterestRate decimal.Decimal `validate:"gte=0,lte=100"`
	TermMonths   int             `validate:"required,gte=1,lte=600"`
}

// normalize округляет суммы до хранимой точности до проверки
func (r *LoanRequest) normalize() {
	r.Amount = r.Amount.Round(2)
	r.InterestRate = r.InterestRate.Round(2)
}

func (r LoanRequest) terms() amortization.LoanTerms {
	return amortization.LoanTerms{Principal: r.Amount, AnnualRatePercent: r.InterestRate, TermMonths: r.TermMonths}
}

// checkTerms проверяет, что по условиям можно построить график
func checkTerms(terms amortization.LoanTerms) error {
	if _, err := amortization.MonthlyPayment(terms); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// LoanDetails кредит с производными суммами и графиком
type LoanDetails struct {
	Loan             models.Loan          `json:"loan"`
	Borrower         *models.User         `json:"borrower"`
	Summary          amortization.Summary `json:"summary"`
	Payments         []models.Payment     `json:"payments"`
	TotalPaid        decimal.Decimal      `json:"total_paid"`
	RemainingBalance decimal.Decimal      `json:"remaining_balance"`
	ProgressPercent  decimal.Decimal      `json:"progress_percent"`
	Schedule         []ScheduleRow        `json:"schedule"`
}

// Invalidator сбрасывает закэшированную статистику
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context) {}

// LoanService предоставляет методы для работы с кредитами
type LoanService struct {
	repo      LoanRepository
	validator *validator.Validate
	stats     Invalidator
}

// NewLoanService создает новый экземпляр LoanService. stats может быть nil.
func NewLoanService(repo LoanRepository, stats Invalidator) *LoanService {
	if stats == nil {
		stats = noopInvalidator{}
	}
	return &LoanService{
		repo:      repo,
		validator: newValidator(),
		stats:     stats,
	}
}

// Create создает новый кредит
func (s *LoanService) Create(ctx context.Context, req LoanRequest) (*models.Loan, error) {
	req.normalize()
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if err := checkTerms(req.terms()); err != nil {
		return nil, err
	}

	// Проверяем существование заемщика
	user, err := s.repo.GetUserByID(req.UserID)
	if err != nil {
		return nil, lookupError("заемщик", err)
	}

	loan := &models.Loan{
		UserID:       req.UserID,
		Amount:       req.Amount,
		InterestRate: req.InterestRate,
		TermMonths:   req.TermMonths,
	}
	if err := s.repo.CreateLoan(loan); err != nil {
		return nil, fmt.Errorf("ошибка при создании кредита: %w", err)
	}
	loan.User = user

	s.stats.Invalidate(ctx)
	utils.LogInfo("Создан кредит %d для заемщика %d", loan.ID, loan.UserID)
	return loan, nil
}

// Update изменяет условия кредита. Заемщик не меняется.
func (s *LoanService) Update(ctx context.Context, id uint, req LoanRequest) (*models.Loan, error) {
	loan, err := s.repo.GetLoanByID(id)
	if err != nil {
		return nil, lookupError("кредит", err)
	}

	if req.UserID == 0 {
		req.UserID = loan.UserID
	}
	req.normalize()
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if req.UserID != loan.UserID {
		return nil, fmt.Errorf("%w: заемщика кредита изменить нельзя", ErrValidation)
	}
	if err := checkTerms(req.terms()); err != nil {
		return nil, err
	}

	loan.Amount = req.Amount
	loan.InterestRate = req.InterestRate
	loan.TermMonths = req.TermMonths
	if err := s.repo.UpdateLoan(loan); err != nil {
		return nil, fmt.Errorf("ошибка при обновлении кредита: %w", err)
	}

	s.stats.Invalidate(ctx)
	return loan, nil
}

// Delete удаляет кредит вместе с платежами
func (s *LoanService) Delete(ctx context.Context, id uint) error {
	if _, err := s.repo.GetLoanByID(id); err != nil {
		return lookupError("кредит", err)
	}
	if err := s.repo.DeleteLoan(id); err != nil {
		return fmt.Errorf("ошибка при удалении кредита: %w", err)
	}

	s.stats.Invalidate(ctx)
	return nil
}

// Get возвращает кредит по идентификатору
func (s *LoanService) Get(ctx context.Context, id uint) (*models.Loan, error) {
	loan, err := s.repo.GetLoanByID(id)
	if err != nil {
		return nil, lookupError("кредит", err)
	}
	return loan, nil
}

// Search возвращает страницу кредитов по фильтру
func (s *LoanService) Search(ctx context.Context, filter database.LoanFilter, page, perPage int) ([]models.Loan, utils.Page, error) {
	if filter.MinAmount != nil && filter.MaxAmount != nil && filter.MinAmount.GreaterThan(*filter.MaxAmount) {
		return nil, utils.Page{}, fmt.Errorf("%w: min_amount больше max_amount", ErrValidation)
	}

	loans, p, err := s.repo.SearchLoans(filter, page, perPage)
	if err != nil {
		return nil, utils.Page{}, fmt.Errorf("ошибка при поиске кредитов: %w", err)
	}
	return loans, p, nil
}

// ListByUser возвращает кредиты заемщика, новые первыми
func (s *LoanService) ListByUser(ctx context.Context, userID uint) ([]models.Loan, error) {
	loans, err := s.repo.ListLoansByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении кредитов: %w", err)
	}
	return loans, nil
}

// Schedule строит график платежей по кредиту от даты его создания
func (s *LoanService) Schedule(ctx context.Context, id uint) (*models.Loan, []amortization.ScheduleEntry, error) {
	loan, err := s.repo.GetLoanByID(id)
	if err != nil {
		return nil, nil, lookupError("кредит", err)
	}

	entries, err := amortization.GenerateSchedule(loan.Terms(), loan.CreatedAt)
	if err != nil {
		return nil, nil, err
	}
	utils.GetMetrics().RecordSchedule()
	return loan, entries, nil
}

// GetLoanDetails собирает карточку кредита: итоги, платежи, остаток и график со статусами
func (s *LoanService) GetLoanDetails(ctx context.Context, id uint, now time.Time) (*LoanDetails, error) {
	start := time.Now()

	loan, err := s.repo.GetLoanByID(id)
	if err != nil {
		return nil, lookupError("кредит", err)
	}

	details, err := s.buildDetails(loan, now)
	utils.LogOperation("loan_details", start, err)
	return details, err
}

func (s *LoanService) buildDetails(loan *models.Loan, now time.Time) (*LoanDetails, error) {
	summary, err := amortization.Summarize(loan.Terms())
	if err != nil {
		return nil, err
	}

	payments, err := s.repo.ListPaymentsByLoan(loan.ID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении платежей: %w", err)
	}

	entries, err := amortization.GenerateSchedule(loan.Terms(), loan.CreatedAt)
	if err != nil {
		return nil, err
	}
	utils.GetMetrics().RecordSchedule()

	totalPaid := decimal.Zero
	for _, p := range payments {
		totalPaid = totalPaid.Add(p.Amount)
	}

	remaining := summary.TotalRepayment.Sub(totalPaid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	progress := totalPaid.Div(summary.TotalRepayment).Mul(hundred).Round(2)
	if progress.GreaterThan(hundred) {
		progress = hundred
	}

	return &LoanDetails{
		Loan:             *loan,
		Borrower:         loan.User,
		Summary:          summary,
		Payments:         payments,
		TotalPaid:        totalPaid,
		RemainingBalance: remaining,
		ProgressPercent:  progress,
		Schedule:         MarkSchedule(entries, payments, now),
	}, nil
}

// AllDetails возвращает карточки всех кредитов
func (s *LoanService) AllDetails(ctx context.Context, now time.Time) ([]LoanDetails, error) {
	loans, err := s.repo.ListLoans()
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении кредитов: %w", err)
	}

	result := make([]LoanDetails, 0, len(loans))
	for i := range loans {
		details, err := s.buildDetails(&loans[i], now)
		if err != nil {
			return nil, fmt.Errorf("кредит %d: %w", loans[i].ID, err)
		}
		result = append(result, *details)
	}
	return result, nil
}

// Calculate рассчитывает итоги и график без сохранения
func (s *LoanService) Calculate(terms amortization.LoanTerms, startDate time.Time) (amortization.Summary, []amortization.ScheduleEntry, error) {
	req := CalculationRequest{Amount: terms.Principal, InterestRate: terms.AnnualRatePercent, TermMonths: terms.TermMonths}
	if err := validate(s.validator, req); err != nil {
		return amortization.Summary{}, nil, err
	}

	summary, err := amortization.Summarize(terms)
	if err != nil {
		return amortization.Summary{}, nil, err
	}
	entries, err := amortization.GenerateSchedule(terms, startDate)
	if err != nil {
		return amortization.Summary{}, nil, err
	}
	utils.GetMetrics().RecordSchedule()
	return summary, entries, nil
}
