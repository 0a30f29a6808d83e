package services

import (
	"time"

	"loanmanagement/amortization"
	"loanmanagement/models"
)

// ScheduleStatus статус строки графика относительно фактических платежей
type ScheduleStatus string

const (
	StatusPaid     ScheduleStatus = "paid"     // В месяце платежа есть оплата
	StatusDue      ScheduleStatus = "due"      // Срок в текущем месяце
	StatusOverdue  ScheduleStatus = "overdue"  // Срок прошел, оплаты нет
	StatusUpcoming ScheduleStatus = "upcoming" // Будущий платеж
)

// ScheduleRow строка графика со статусом
type ScheduleRow struct {
	amortization.ScheduleEntry
	Status ScheduleStatus `json:"status"`
}

// monthKey возвращает номер месяца для сравнения по календарным месяцам
func monthKey(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

// MarkSchedule отмечает строки графика. Строка считается оплаченной, если
// хотя бы один платеж пришелся на тот же календарный месяц, что и срок.
func MarkSchedule(entries []amortization.ScheduleEntry, payments []models.Payment, now time.Time) []ScheduleRow {
	paidMonths := make(map[int]struct{}, len(payments))
	for _, p := range payments {
		paidMonths[monthKey(p.PaymentDate)] = struct{}{}
	}

	current := monthKey(now)
	rows := make([]ScheduleRow, len(entries))
	for i, e := range entries {
		due := monthKey(e.DueDate)

		status := StatusUpcoming
		if _, ok := paidMonths[due]; ok {
			status = StatusPaid
		} else if due == current {
			status = StatusDue
		} else if due < current {
			status = StatusOverdue
		}

		rows[i] = ScheduleRow{ScheduleEntry: e, Status: status}
	}
	return rows
}

// OverdueRows возвращает просроченные строки
func OverdueRows(rows []ScheduleRow) []ScheduleRow {
	var overdue []ScheduleRow
	for _, r := range rows {
		if r.Status == StatusOverdue {
			overdue = append(overdue, r)
		}
	}
	return overdue
}
