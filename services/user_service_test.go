package services

import (
	"context"
	"testing"

	"loanmanagement/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Create(t *testing.T) {
	store := newFakeStore()
	stats := &countingInvalidator{}
	svc := NewUserService(store, stats)
	ctx := context.Background()

	user, err := svc.Create(ctx, UserRequest{Name: "  John Doe ", Email: " John@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "John Doe", user.Name)
	assert.Equal(t, "john@example.com", user.Email)
	assert.Equal(t, 1, stats.calls)

	_, err = svc.Create(ctx, UserRequest{Name: "Other", Email: "JOHN@example.com"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Create(ctx, UserRequest{Name: "", Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, UserRequest{Name: "Bad", Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "корректный email")
}

func TestUserService_Update(t *testing.T) {
	store := newFakeStore()
	svc := NewUserService(store, nil)
	ctx := context.Background()

	john, err := svc.Create(ctx, UserRequest{Name: "John Doe", Email: "john@example.com"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, UserRequest{Name: "Jane Smith", Email: "jane@example.com"})
	require.NoError(t, err)

	// собственный email не считается занятым
	updated, err := svc.Update(ctx, john.ID, UserRequest{Name: "Johnny", Email: "john@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Johnny", updated.Name)

	_, err = svc.Update(ctx, john.ID, UserRequest{Name: "Johnny", Email: "jane@example.com"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Update(ctx, 404, UserRequest{Name: "Ghost", Email: "ghost@example.com"})
	assert.ErrorIs(t, err, ErrNotFound)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Jane Smith", users[0].Name)
}

func TestUserService_DeleteWithLoans(t *testing.T) {
	store := newFakeStore()
	svc := NewUserService(store, nil)
	ctx := context.Background()

	user, err := svc.Create(ctx, UserRequest{Name: "John Doe", Email: "john@example.com"})
	require.NoError(t, err)
	require.NoError(t, store.CreateLoan(&models.Loan{UserID: user.ID, Amount: dec("1000"), TermMonths: 12}))

	err = svc.Delete(ctx, user.ID)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "cannot delete user with active loans")

	free, err := svc.Create(ctx, UserRequest{Name: "Jane Smith", Email: "jane@example.com"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, free.ID))

	_, err = svc.Get(ctx, free.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, free.ID), ErrNotFound)
}
