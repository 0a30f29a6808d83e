package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentService_AddNotifiesOnceWhenPaidOff(t *testing.T) {
	store := newFakeStore()
	loan := seedLoan(t, store, "john@example.com", "1000", "12", 1, date(2024, 1, 15))
	notifier := newFakeNotifier()
	stats := &countingInvalidator{}
	svc := NewPaymentService(store, notifier, stats)
	ctx := context.Background()

	_, err := svc.Add(ctx, loan.ID, PaymentRequest{Amount: dec("600"), PaymentDate: date(2024, 2, 1)})
	require.NoError(t, err)
	assert.Empty(t, notifier.paid)

	payment, err := svc.Add(ctx, loan.ID, PaymentRequest{Amount: dec("410"), PaymentDate: date(2024, 2, 10)})
	require.NoError(t, err)
	assert.Equal(t, loan.ID, payment.LoanID)
	assert.Equal(t, []uint{loan.ID}, notifier.paid)

	_, err = svc.Add(ctx, loan.ID, PaymentRequest{Amount: dec("5"), PaymentDate: date(2024, 2, 11)})
	require.NoError(t, err)
	assert.Len(t, notifier.paid, 1)
	assert.Equal(t, 3, stats.calls)
}

func TestPaymentService_NotifierErrorIsNotPropagated(t *testing.T) {
	store := newFakeStore()
	loan := seedLoan(t, store, "john@example.com", "1000", "12", 1, date(2024, 1, 15))
	notifier := newFakeNotifier()
	notifier.err = errors.New("smtp down")
	svc := NewPaymentService(store, notifier, nil)

	_, err := svc.Add(context.Background(), loan.ID, PaymentRequest{Amount: dec("1010"), PaymentDate: time.Now()})
	require.NoError(t, err)
	assert.Len(t, notifier.paid, 1)
}

func TestPaymentService_Validation(t *testing.T) {
	store := newFakeStore()
	loan := seedLoan(t, store, "john@example.com", "1000", "12", 1, date(2024, 1, 15))
	svc := NewPaymentService(store, nil, nil)
	ctx := context.Background()

	_, err := svc.Add(ctx, loan.ID, PaymentRequest{Amount: dec("0"), PaymentDate: time.Now()})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Add(ctx, loan.ID, PaymentRequest{Amount: dec("10")})
	assert.ErrorIs(t, err, ErrValidation)

	// Сумма округляется до копеек до проверки
	_, err = svc.Add(ctx, loan.ID, PaymentRequest{Amount: dec("0.004"), PaymentDate: time.Now()})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Add(ctx, loan.ID, PaymentRequest{Amount: dec("10000000000"), PaymentDate: time.Now()})
	assert.ErrorIs(t, err, ErrValidation)

	payments, err := store.ListPaymentsByLoan(loan.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)

	_, err = svc.Add(ctx, 404, PaymentRequest{Amount: dec("10"), PaymentDate: time.Now()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPaymentService_DeleteScopedToLoan(t *testing.T) {
	store := newFakeStore()
	loan := seedLoan(t, store, "john@example.com", "1000", "12", 1, date(2024, 1, 15))
	other := seedLoan(t, store, "jane@example.com", "500", "0", 5, date(2024, 1, 15))
	svc := NewPaymentService(store, nil, nil)
	ctx := context.Background()

	payment, err := svc.Add(ctx, loan.ID, PaymentRequest{Amount: dec("100"), PaymentDate: time.Now()})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, other.ID, payment.ID), ErrNotFound)
	require.NoError(t, svc.Delete(ctx, loan.ID, payment.ID))
	assert.ErrorIs(t, svc.Delete(ctx, loan.ID, payment.ID), ErrNotFound)
}
