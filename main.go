package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"loanmanagement/cache"
	"loanmanagement/config"
	"loanmanagement/controllers"
	"loanmanagement/database"
	"loanmanagement/middleware"
	"loanmanagement/seed"
	"loanmanagement/services"
	"loanmanagement/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/mux"
)

// routes содержит зависимости HTTP API кредитов
type routes struct {
	health    func() error
	limiter   *utils.RateLimiter
	proxies   *middleware.TrustedProxies
	auth      *controllers.AuthController
	users     *controllers.UserController
	loans     *controllers.LoanController
	payments  *controllers.PaymentController
	dashboard *controllers.DashboardController
}

// healthHandler сообщает о доступности базы данных
func healthHandler(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := check(); err != nil {
			utils.LogError("Проверка состояния не пройдена: %v", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"status":"unavailable"}`)
			return
		}
		fmt.Fprint(w, `{"status":"ok"}`)
	}
}

func newRouter(rt routes) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)

	// Публичные маршруты
	router.HandleFunc("/health", healthHandler(rt.health)).Methods("GET")
	router.Handle("/metrics", utils.GetMetrics().Handler()).Methods("GET")

	rateLimit := middleware.RateLimitMiddleware(rt.limiter, rt.proxies)

	// Вход без токена, но с ограничением частоты
	auth := router.PathPrefix("/api/auth").Subrouter()
	auth.Use(rateLimit)
	auth.HandleFunc("/signIn", rt.auth.SignIn).Methods("POST")

	// Защищенные маршруты
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(rateLimit)
	protected.Use(middleware.AuthMiddleware(rt.auth.GetJWTKey()))

	rt.users.Register(protected)
	rt.loans.Register(protected)
	rt.payments.Register(protected)
	rt.dashboard.Register(protected)

	return router
}

// newStudentEngine собирает HTTP API студентов на gin
func newStudentEngine(students *controllers.StudentController, limiter *utils.RateLimiter, proxies *middleware.TrustedProxies, health func() error) (*gin.Engine, error) {
	engine := gin.New()
	if err := engine.SetTrustedProxies(proxies.CIDRs()); err != nil {
		return nil, fmt.Errorf("ошибка настройки доверенных прокси: %w", err)
	}
	engine.Use(middleware.Recovery(), middleware.Logger(), middleware.CORS(), middleware.RateLimit(limiter))

	engine.GET("/health", func(c *gin.Context) {
		if err := health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	students.Register(engine)
	return engine, nil
}

// newCache возвращает Redis, если он настроен и доступен, иначе кэш в памяти
func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, func()) {
	if cfg.Redis.Addr == "" {
		return cache.NewMemoryCache(), func() {}
	}

	rc := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		utils.LogWarn("Redis недоступен (%v), используется кэш в памяти", err)
		_ = rc.Close()
		return cache.NewMemoryCache(), func() {}
	}

	utils.LogInfo("Кэш статистики: Redis %s", cfg.Redis.Addr)
	return rc, func() { _ = rc.Close() }
}

func run() error {
	// Инициализируем конфигурацию
	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	if _, err := utils.InitLogger(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("ошибка инициализации логгера: %w", err)
	}
	defer utils.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Инициализируем подключение к базе данных
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}
	defer db.Close()

	if cfg.DB.Seed {
		if err := seed.Run(db); err != nil {
			return err
		}
	}

	statsCache, closeCache := newCache(ctx, cfg)
	defer closeCache()

	// Сервисы
	emailService := services.NewEmailService(cfg)
	dashboardService := services.NewDashboardService(db, statsCache, cfg.Redis.TTL)
	loanService := services.NewLoanService(db, dashboardService)
	paymentService := services.NewPaymentService(db, emailService, dashboardService)
	userService := services.NewUserService(db, dashboardService)

	// Запускаем планировщик напоминаний
	if cfg.Scheduler.Enabled {
		services.NewReminderScheduler(loanService, emailService, cfg.Scheduler.Interval).Start(ctx)
		utils.LogInfo("Планировщик напоминаний запущен, интервал %s", cfg.Scheduler.Interval)
	}

	proxies, err := middleware.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}

	router := newRouter(routes{
		health:    db.Ping,
		limiter:   utils.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window),
		proxies:   proxies,
		auth:      controllers.NewAuthController(cfg),
		users:     controllers.NewUserController(userService, loanService),
		loans:     controllers.NewLoanController(loanService, services.NewReportService()),
		payments:  controllers.NewPaymentController(paymentService),
		dashboard: controllers.NewDashboardController(dashboardService),
	})

	gin.SetMode(gin.ReleaseMode)
	studentEngine, err := newStudentEngine(
		controllers.NewStudentController(services.NewStudentService(db), services.NewClassService(db)),
		utils.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window),
		proxies,
		db.Ping,
	)
	if err != nil {
		return err
	}

	servers := []*http.Server{
		{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: router, ReadHeaderTimeout: 10 * time.Second},
		{Addr: fmt.Sprintf(":%d", cfg.Server.StudentPort), Handler: studentEngine, ReadHeaderTimeout: 10 * time.Second},
	}

	serverErr := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			utils.LogInfo("Сервер запущен на %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- fmt.Errorf("ошибка запуска сервера %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	var runErr error
	select {
	case runErr = <-serverErr:
	case <-ctx.Done():
		utils.LogInfo("Остановка серверов...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			utils.LogError("Ошибка при остановке сервера %s: %v", srv.Addr, err)
		}
	}

	utils.LogInfo("Серверы остановлены")
	return runErr
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("%v", err)
	}
}
