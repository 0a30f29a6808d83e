package services

import (
	"context"
	"time"

	"loanmanagement/utils"
)

// ReminderScheduler периодически напоминает заемщикам о просроченных платежах
type ReminderScheduler struct {
	loans    *LoanService
	notifier Notifier
	interval time.Duration
	now      func() time.Time
}

// NewReminderScheduler создает новый экземпляр ReminderScheduler
func NewReminderScheduler(loans *LoanService, notifier Notifier, interval time.Duration) *ReminderScheduler {
	return &ReminderScheduler{
		loans:    loans,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
	}
}

// Start запускает планировщик. Останавливается при отмене ctx.
func (s *ReminderScheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				utils.LogInfo("Планировщик напоминаний остановлен")
				return
			case <-ticker.C:
				if _, err := s.RunOnce(ctx); err != nil {
					utils.LogError("Ошибка при обработке просроченных платежей: %v", err)
				}
			}
		}
	}()
}

// RunOnce отправляет по одному напоминанию на каждый кредит с просрочкой.
// Возвращает количество отправленных писем.
func (s *ReminderScheduler) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()

	all, err := s.loans.AllDetails(ctx, s.now())
	if err != nil {
		utils.LogOperation("overdue_reminders", start, err)
		return 0, err
	}

	sent := 0
	for _, details := range all {
		if ctx.Err() != nil {
			break
		}

		overdue := OverdueRows(details.Schedule)
		if len(overdue) == 0 || details.Borrower == nil || details.RemainingBalance.IsZero() {
			continue
		}

		err := s.notifier.SendOverdueReminder(details.Borrower.Email, details.Borrower.Name, details.Loan.ID, overdue)
		if err != nil {
			utils.LogError("Ошибка при отправке напоминания по кредиту %d: %v", details.Loan.ID, err)
			continue
		}
		sent++
	}

	utils.LogOperation("overdue_reminders", start, nil)
	utils.LogInfo("Отправлено напоминаний: %d", sent)
	return sent, ctx.Err()
}
