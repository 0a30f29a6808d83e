package services

import (
	"fmt"
	"html"
	"strings"
	"time"

	"loanmanagement/config"
	"loanmanagement/utils"

	"gopkg.in/gomail.v2"
)

// Notifier отправляет уведомления заемщикам
type Notifier interface {
	SendLoanPaidNotification(to string, loanID uint) error
	SendOverdueReminder(to, name string, loanID uint, overdue []ScheduleRow) error
}

// EmailService предоставляет методы для отправки email
type EmailService struct {
	dialer  *gomail.Dialer
	from    string
	enabled bool
}

// NewEmailService создает новый экземпляр EmailService
func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)

	return &EmailService{
		dialer:  dialer,
		from:    cfg.SMTP.From,
		enabled: cfg.SMTP.Enabled,
	}
}

// newMessage собирает письмо в формате HTML
func (s *EmailService) newMessage(to, subject, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return m
}

// SendEmail отправляет email
func (s *EmailService) SendEmail(to, subject, body string) error {
	if !s.enabled {
		utils.LogDebug("Отправка почты отключена, письмо %q для %s пропущено", subject, to)
		return nil
	}

	if err := s.dialer.DialAndSend(s.newMessage(to, subject, body)); err != nil {
		return fmt.Errorf("ошибка отправки email: %w", err)
	}
	return nil
}

// SendLoanPaidNotification отправляет уведомление о погашении кредита
func (s *EmailService) SendLoanPaidNotification(to string, loanID uint) error {
	subject := "Congratulations! Your loan is paid off"
	body := fmt.Sprintf(`
		<h2>Congratulations!</h2>
		<p>Your loan #%d has been paid in full.</p>
		<p>Date: %s</p>
	`, loanID, time.Now().Format("02.01.2006 15:04:05"))

	err := s.SendEmail(to, subject, body)
	utils.GetMetrics().RecordEmail("loan_paid", err)
	return err
}

// SendOverdueReminder напоминает о просроченных платежах
func (s *EmailService) SendOverdueReminder(to, name string, loanID uint, overdue []ScheduleRow) error {
	subject := fmt.Sprintf("Payment reminder for loan #%d", loanID)

	err := s.SendEmail(to, subject, overdueReminderBody(name, loanID, overdue))
	utils.GetMetrics().RecordEmail("overdue_reminder", err)
	return err
}

// overdueReminderBody собирает HTML письма. Имя заемщика экранируется.
func overdueReminderBody(name string, loanID uint, overdue []ScheduleRow) string {
	var rows strings.Builder
	for _, r := range overdue {
		fmt.Fprintf(&rows, "<tr><td>%d</td><td>%s</td><td>%s</td></tr>",
			r.Period, r.DueDate.Format("2006-01-02"), html.EscapeString(utils.FormatCurrency(r.Payment)))
	}

	return fmt.Sprintf(`
		<h2>Dear %s,</h2>
		<p>The following installments of loan #%d are overdue:</p>
		<table>
			<tr><th>#</th><th>Due date</th><th>Payment</th></tr>
			%s
		</table>
	`, html.EscapeString(name), loanID, rows.String())
}
