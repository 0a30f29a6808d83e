package database

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"loanmanagement/config"
	"loanmanagement/utils"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database представляет подключение к базе данных
type Database struct {
	DB *gorm.DB
}

// New оборачивает готовое подключение GORM
func New(db *gorm.DB) *Database {
	return &Database{DB: db}
}

// gormWriter перенаправляет логи GORM в общий логгер
type gormWriter struct{}

func (gormWriter) Printf(format string, v ...interface{}) {
	utils.LogInfo(strings.TrimSpace(format), v...)
}

// newGormLogger настраивает логгер GORM под уровень приложения
func newGormLogger(level string) logger.Interface {
	logLevel := logger.Warn
	if strings.EqualFold(level, "debug") {
		logLevel = logger.Info
	}

	return logger.New(gormWriter{}, logger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  logLevel,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// Connect устанавливает соединение с базой данных и выполняет миграции
func Connect(cfg *config.Config) (*Database, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         newGormLogger(cfg.Log.Level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	// Настраиваем пул соединений
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пула соединений: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := RunMigrations(cfg.DB.MigrationsPath, cfg.MigrationURL()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ошибка выполнения SQL миграций: %w", err)
	}

	return New(db), nil
}

// RunMigrations применяет SQL миграции из каталога migrationsPath
func RunMigrations(migrationsPath, databaseURL string) error {
	dir, err := filepath.Abs(migrationsPath)
	if err != nil {
		return fmt.Errorf("неверный путь к миграциям: %w", err)
	}

	m, err := migrate.New("file://"+filepath.ToSlash(dir), databaseURL)
	if err != nil {
		return fmt.Errorf("ошибка создания миграции: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка выполнения миграций: %w", err)
	}

	return nil
}

// Ping проверяет доступность базы данных
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close закрывает подключение к базе данных
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
