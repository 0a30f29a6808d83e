package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"loanmanagement/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderScheduler_RunOnce(t *testing.T) {
	store := newFakeStore()
	late := seedLoan(t, store, "late@example.com", "12000", "6", 24, date(2024, 1, 15))
	seedLoan(t, store, "new@example.com", "5000", "4.5", 6, date(2024, 5, 1))
	paid := seedLoan(t, store, "paid@example.com", "1000", "12", 1, date(2024, 1, 15))
	require.NoError(t, store.CreatePayment(&models.Payment{LoanID: paid.ID, Amount: dec("1010"), PaymentDate: date(2024, 1, 20)}))

	notifier := newFakeNotifier()
	scheduler := NewReminderScheduler(NewLoanService(store, nil), notifier, time.Hour)
	scheduler.now = func() time.Time { return date(2024, 5, 20) }

	sent, err := scheduler.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	overdue := notifier.reminders[late.ID]
	require.Len(t, overdue, 3)
	assert.Equal(t, date(2024, 2, 15), overdue[0].DueDate)
	assert.Equal(t, date(2024, 4, 15), overdue[2].DueDate)
}

func TestReminderScheduler_NotifierError(t *testing.T) {
	store := newFakeStore()
	seedLoan(t, store, "late@example.com", "12000", "6", 24, date(2024, 1, 15))

	notifier := newFakeNotifier()
	notifier.err = errors.New("smtp down")
	scheduler := NewReminderScheduler(NewLoanService(store, nil), notifier, time.Hour)
	scheduler.now = func() time.Time { return date(2024, 5, 20) }

	sent, err := scheduler.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestReminderScheduler_StopsOnCancel(t *testing.T) {
	store := newFakeStore()
	scheduler := NewReminderScheduler(NewLoanService(store, nil), newFakeNotifier(), time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	scheduler.Start(ctx)
	time.Sleep(5 * time.Millisecond)
	cancel()

	_, err := scheduler.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
