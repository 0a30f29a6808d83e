package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"loanmanagement/cache"
	"loanmanagement/config"
	"loanmanagement/controllers"
	"loanmanagement/services"
	"loanmanagement/storetest"
	"loanmanagement/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

func TestHealthHandler(t *testing.T) {
	// Создаем тестовый HTTP-запрос
	req, err := http.NewRequest("GET", "/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	healthHandler(func() error { return nil }).ServeHTTP(rr, req)

	// Проверяем статус код
	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	// Проверяем тело ответа
	expected := `{"status":"ok"}`
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestHealthHandlerUnavailable(t *testing.T) {
	req, err := http.NewRequest("GET", "/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	healthHandler(func() error { return errors.New("connection refused") }).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusServiceUnavailable {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusServiceUnavailable)
	}
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	return newRouter(testRoutes(t))
}

func testRoutes(t *testing.T) routes {
	t.Helper()
	store := storetest.New()
	cfg := &config.Config{}
	cfg.JWT.SecretKey = testSecret
	cfg.JWT.ExpiresIn = 1

	dashboard := services.NewDashboardService(store, cache.NewMemoryCache(), time.Minute)
	loans := services.NewLoanService(store, dashboard)
	return routes{
		health:    func() error { return nil },
		limiter:   utils.NewRateLimiter(100, time.Minute),
		auth:      controllers.NewAuthController(cfg),
		users:     controllers.NewUserController(services.NewUserService(store, dashboard), loans),
		loans:     controllers.NewLoanController(loans, services.NewReportService()),
		payments:  controllers.NewPaymentController(services.NewPaymentService(store, nil, dashboard)),
		dashboard: controllers.NewDashboardController(dashboard),
	}
}

func bearer(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "admin@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + s
}

func TestRouter(t *testing.T) {
	router := testRouter(t)
	token := bearer(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		auth   string
		want   int
	}{
		{"health is public", http.MethodGet, "/health", "", "", http.StatusOK},
		{"metrics are public", http.MethodGet, "/metrics", "", "", http.StatusOK},
		{"sign in is public", http.MethodPost, "/api/auth/signIn", `{"email":`, "", http.StatusBadRequest},
		{"loans require token", http.MethodGet, "/api/loans", "", "", http.StatusUnauthorized},
		{"loans with token", http.MethodGet, "/api/loans", "", token, http.StatusOK},
		{"dashboard with token", http.MethodGet, "/api/dashboard", "", token, http.StatusOK},
		{"calculator with token", http.MethodGet, "/api/loans/calculate?amount=10000&rate=5&term=12", "", token, http.StatusOK},
		{"unknown loan", http.MethodGet, "/api/loans/42", "", token, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var req *http.Request
			if tc.body != "" {
				req = httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			} else {
				req = httptest.NewRequest(tc.method, tc.path, nil)
			}
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestStudentEngine(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := storetest.New()
	engine, err := newStudentEngine(
		controllers.NewStudentController(services.NewStudentService(store), services.NewClassService(store)),
		utils.NewRateLimiter(100, time.Minute),
		nil,
		func() error { return nil },
	)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/students", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_SignInIsRateLimited(t *testing.T) {
	rt := testRoutes(t)
	rt.limiter = utils.NewRateLimiter(2, time.Minute)
	router := newRouter(rt)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/signIn", strings.NewReader(`{"email":"admin@example.com","password":"x"}`))
		req.RemoteAddr = "203.0.113.7:4000"
		// Подмена заголовка без доверенного прокси не дает нового лимита
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}

func TestStudentEngine_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := storetest.New()
	engine, err := newStudentEngine(
		controllers.NewStudentController(services.NewStudentService(store), services.NewClassService(store)),
		utils.NewRateLimiter(1, time.Minute),
		nil,
		func() error { return nil },
	)
	require.NoError(t, err)

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/students", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}
