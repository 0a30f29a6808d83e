package seed

import (
	"context"
	"testing"
	"time"

	"loanmanagement/database"
	"loanmanagement/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestLoad(t *testing.T) {
	f, err := Load()
	require.NoError(t, err)

	require.Len(t, f.Users, 3)
	assert.Equal(t, "John Doe", f.Users[0].Name)
	require.Len(t, f.Loans, 4)
	assert.Equal(t, "jane@example.com", f.Loans[2].User)
	assert.Equal(t, "15000.00", f.Loans[2].Amount)
	assert.Equal(t, 24, f.Loans[2].TermMonths)
	assert.Len(t, f.Classes, 3)
	assert.Len(t, f.Students, 4)

	// каждый кредит ссылается на существующего заемщика
	emails := map[string]bool{}
	for _, u := range f.Users {
		emails[u.Email] = true
	}
	for _, l := range f.Loans {
		assert.True(t, emails[l.User], l.User)
	}
}

func TestRun(t *testing.T) {
	if testing.Short() {
		t.Skip("интеграционный тест пропущен в режиме -short")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("seeddb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations("../migrations", dsn))

	gdb, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: logger.Discard, TranslateError: true})
	require.NoError(t, err)
	db := database.New(gdb)

	require.NoError(t, Run(db))

	users, err := db.CountUsers()
	require.NoError(t, err)
	assert.Equal(t, int64(3), users)

	loans, err := db.ListLoans()
	require.NoError(t, err)
	assert.Len(t, loans, 4)

	counts, err := db.ClassesWithCounts("students")
	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.Equal(t, "Mathematics", counts[0].Name)
	assert.Equal(t, int64(2), counts[0].StudentCount)

	// повторный запуск ничего не добавляет
	require.NoError(t, Run(db))
	var total int64
	require.NoError(t, db.DB.Model(&models.Loan{}).Count(&total).Error)
	assert.Equal(t, int64(4), total)
}
