package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server struct {
		Port           int
		StudentPort    int      `mapstructure:"student_port"`
		TrustedProxies []string `mapstructure:"trusted_proxies"` // адреса и подсети обратных прокси
	}
	DB struct {
		Host           string
		Port           int
		User           string
		Password       string
		Name           string
		SSLMode        string `mapstructure:"ssl_mode"`
		MigrationsPath string `mapstructure:"migrations_path"`
		Seed           bool
	}
	Redis struct {
		Addr     string // пустой адрес отключает Redis
		Password string
		DB       int
		TTL      time.Duration
	}
	JWT struct {
		SecretKey string `mapstructure:"secret_key"`
		ExpiresIn int    `mapstructure:"expires_in"` // в часах
	}
	Auth struct {
		AdminEmail        string `mapstructure:"admin_email"`
		AdminPasswordHash string `mapstructure:"admin_password_hash"` // bcrypt
	}
	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
		Enabled  bool
	}
	Scheduler struct {
		Interval time.Duration
		Enabled  bool
	}
	RateLimit struct {
		Requests int
		Window   time.Duration
	} `mapstructure:"rate_limit"`
	Log struct {
		Level  string
		Format string
	}
}

// setDefaults задает значения по умолчанию
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.student_port", 8081)
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "loan_management")
	v.SetDefault("db.ssl_mode", "disable")
	v.SetDefault("db.migrations_path", "migrations")
	v.SetDefault("db.seed", true)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", time.Minute)

	v.SetDefault("jwt.secret_key", "your-secret-key-here")
	v.SetDefault("jwt.expires_in", 24)

	v.SetDefault("auth.admin_email", "admin@example.com")
	v.SetDefault("auth.admin_password_hash", "")

	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "your-email@gmail.com")
	v.SetDefault("smtp.password", "your-app-password")
	v.SetDefault("smtp.from", "your-email@gmail.com")
	v.SetDefault("smtp.enabled", false)

	v.SetDefault("scheduler.interval", 24*time.Hour)
	v.SetDefault("scheduler.enabled", true)

	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// NewConfig создает новый экземпляр конфигурации.
// Порядок: значения по умолчанию, config.yaml, переменные окружения (DB_HOST, SERVER_PORT, ...).
func NewConfig() (*Config, error) {
	// .env не обязателен
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		}
	}

	return load(v)
}

// load читает конфигурацию из подготовленного экземпляра viper
func load(v *viper.Viper) (*Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("неверный формат конфигурации: %w", err)
	}

	if cfg.Server.Port <= 0 {
		return nil, fmt.Errorf("неверный порт сервера: %d", cfg.Server.Port)
	}
	if cfg.Server.StudentPort <= 0 {
		return nil, fmt.Errorf("неверный порт сервиса студентов: %d", cfg.Server.StudentPort)
	}
	if cfg.DB.Port <= 0 {
		return nil, fmt.Errorf("неверный порт базы данных: %d", cfg.DB.Port)
	}
	if cfg.RateLimit.Requests <= 0 || cfg.RateLimit.Window <= 0 {
		return nil, errors.New("неверные параметры ограничения частоты запросов")
	}
	if cfg.Scheduler.Enabled && cfg.Scheduler.Interval <= 0 {
		return nil, fmt.Errorf("неверный интервал планировщика: %s", cfg.Scheduler.Interval)
	}

	return cfg, nil
}

// DSN возвращает строку подключения для GORM
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

// MigrationURL возвращает URL базы данных для golang-migrate
func (c *Config) MigrationURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DB.User, c.DB.Password),
		Host:     net.JoinHostPort(c.DB.Host, strconv.Itoa(c.DB.Port)),
		Path:     "/" + c.DB.Name,
		RawQuery: url.Values{"sslmode": {c.DB.SSLMode}}.Encode(),
	}
	return u.String()
}
