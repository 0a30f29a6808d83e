package services

import (
	"context"
	"sync"

	"loanmanagement/storetest"
)

type fakeStore = storetest.Store

func newFakeStore() *fakeStore {
	return storetest.New()
}

// fakeNotifier записывает отправленные уведомления
type fakeNotifier struct {
	mu        sync.Mutex
	paid      []uint
	reminders map[uint][]ScheduleRow
	err       error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{reminders: map[uint][]ScheduleRow{}}
}

func (n *fakeNotifier) SendLoanPaidNotification(to string, loanID uint) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paid = append(n.paid, loanID)
	return n.err
}

func (n *fakeNotifier) SendOverdueReminder(to, name string, loanID uint, overdue []ScheduleRow) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.reminders[loanID] = overdue
	return nil
}

// countingInvalidator считает сбросы кэша
type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(context.Context) {
	c.calls++
}
