// Package amortization рассчитывает аннуитетный платеж, итоговые суммы и
// график погашения кредита. Пакет не обращается к базе данных и не хранит
// состояния: каждый вызов зависит только от своих аргументов.
package amortization

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidArgument возвращается при недопустимых условиях кредита
var ErrInvalidArgument = errors.New("invalid argument")

const (
	monthsPerYear = 12
	currencyScale = 2
	// Точность переноса остатка между периодами
	carryScale = 12
)

var (
	one            = decimal.NewFromInt(1)
	ratePercentDiv = decimal.NewFromInt(monthsPerYear * 100)
)

// LoanTerms представляет условия кредита
type LoanTerms struct {
	Principal         decimal.Decimal // Сумма кредита
	AnnualRatePercent decimal.Decimal // Номинальная годовая ставка, %
	TermMonths        int             // Срок в месяцах
}

// ScheduleEntry представляет одну строку графика платежей
type ScheduleEntry struct {
	Period    int             `json:"period"`
	DueDate   time.Time       `json:"due_date"`
	Payment   decimal.Decimal `json:"payment"`
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Balance   decimal.Decimal `json:"balance"`
}

// Summary содержит производные итоги по кредиту
type Summary struct {
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	TotalRepayment decimal.Decimal `json:"total_repayment"`
	TotalInterest  decimal.Decimal `json:"total_interest"`
}

// Validate проверяет условия кредита
func (t LoanTerms) Validate() error {
	if !t.Principal.IsPositive() {
		return fmt.Errorf("%w: principal must be positive, got %s", ErrInvalidArgument, t.Principal)
	}
	if t.TermMonths < 1 {
		return fmt.Errorf("%w: term must be at least 1 month, got %d", ErrInvalidArgument, t.TermMonths)
	}
	if t.AnnualRatePercent.IsNegative() {
		return fmt.Errorf("%w: rate must not be negative, got %s", ErrInvalidArgument, t.AnnualRatePercent)
	}
	return nil
}

// monthlyRate переводит годовую ставку в процентах в месячную долю
func (t LoanTerms) monthlyRate() decimal.Decimal {
	return t.AnnualRatePercent.Div(ratePercentDiv)
}

// MonthlyPayment рассчитывает размер аннуитетного платежа.
//
//	r       = annualRatePercent / 12 / 100
//	payment = r * P / (1 - (1+r)^-n)
//
// При нулевой ставке платеж равен P / n. Результат округляется до копеек
// один раз, все производные суммы считаются от округленного значения.
func MonthlyPayment(terms LoanTerms) (decimal.Decimal, error) {
	if err := terms.Validate(); err != nil {
		return decimal.Zero, err
	}
	return checkedPayment(terms)
}

// checkedPayment отклоняет условия, при которых округленный платеж не
// покрывает проценты первого периода и долг не уменьшается.
func checkedPayment(terms LoanTerms) (decimal.Decimal, error) {
	payment := monthlyPayment(terms)
	firstInterest := terms.Principal.Mul(terms.monthlyRate())
	if payment.LessThanOrEqual(firstInterest) {
		return decimal.Zero, fmt.Errorf("%w: payment %s does not cover interest %s, shorten the term",
			ErrInvalidArgument, payment, firstInterest.Round(currencyScale))
	}
	return payment, nil
}

func monthlyPayment(terms LoanTerms) decimal.Decimal {
	n := decimal.NewFromInt(int64(terms.TermMonths))
	r := terms.monthlyRate()
	if r.IsZero() {
		return terms.Principal.Div(n).Round(currencyScale)
	}

	// 1 - (1+r)^-n == (f-1)/f, где f = (1+r)^n
	factor := one.Add(r).Pow(n)
	payment := r.Mul(terms.Principal).Mul(factor).Div(factor.Sub(one))

	return payment.Round(currencyScale)
}

// TotalRepayment возвращает общую сумму выплат: округленный платеж * срок
func TotalRepayment(terms LoanTerms) (decimal.Decimal, error) {
	payment, err := MonthlyPayment(terms)
	if err != nil {
		return decimal.Zero, err
	}
	return totalRepayment(payment, terms.TermMonths), nil
}

func totalRepayment(payment decimal.Decimal, months int) decimal.Decimal {
	return payment.Mul(decimal.NewFromInt(int64(months))).Round(currencyScale)
}

// TotalInterest возвращает переплату по кредиту
func TotalInterest(terms LoanTerms) (decimal.Decimal, error) {
	total, err := TotalRepayment(terms)
	if err != nil {
		return decimal.Zero, err
	}
	return total.Sub(terms.Principal).Round(currencyScale), nil
}

// Summarize рассчитывает платеж и итоговые суммы за один вызов
func Summarize(terms LoanTerms) (Summary, error) {
	if err := terms.Validate(); err != nil {
		return Summary{}, err
	}

	payment, err := checkedPayment(terms)
	if err != nil {
		return Summary{}, err
	}
	total := totalRepayment(payment, terms.TermMonths)

	return Summary{
		MonthlyPayment: payment,
		TotalRepayment: total,
		TotalInterest:  total.Sub(terms.Principal).Round(currencyScale),
	}, nil
}

// GenerateSchedule строит график платежей на весь срок кредита.
//
// Проценты каждого периода начисляются на остаток после предыдущего периода.
// Остаток переносится между итерациями с точностью 12 знаков, до копеек
// округляются только строки графика. Основной долг периода не превышает
// остатка, а в последнем периоде погашается весь остаток, поэтому график
// всегда заканчивается нулем.
// Дата платежа i равна startDate + i календарных месяцев.
func GenerateSchedule(terms LoanTerms, startDate time.Time) ([]ScheduleEntry, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}

	payment, err := checkedPayment(terms)
	if err != nil {
		return nil, err
	}
	rate := terms.monthlyRate()
	balance := terms.Principal

	schedule := make([]ScheduleEntry, 0, terms.TermMonths)
	for period := 1; period <= terms.TermMonths; period++ {
		interest := balance.Mul(rate).Round(carryScale)
		principal := decimal.Min(payment.Sub(interest), balance)

		// Последний платеж закрывает остаток целиком
		if period == terms.TermMonths {
			principal = balance
		}
		periodPayment := principal.Add(interest)

		balance = balance.Sub(principal)

		schedule = append(schedule, ScheduleEntry{
			Period:    period,
			DueDate:   AddMonths(startDate, period),
			Payment:   periodPayment.Round(currencyScale),
			Principal: principal.Round(currencyScale),
			Interest:  interest.Round(currencyScale),
			Balance:   balance.Round(currencyScale),
		})
	}

	return schedule, nil
}

// AddMonths прибавляет к дате календарные месяцы. Если в целевом месяце
// меньше дней, день ограничивается его последним числом (31 января + 1 месяц
// = 28 или 29 февраля).
func AddMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysInMonth(first); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
