package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"loanmanagement/cache"
	"loanmanagement/config"
	"loanmanagement/models"
	"loanmanagement/services"
	"loanmanagement/storetest"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testAPI struct {
	store  *storetest.Store
	router *mux.Router
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := storetest.New()
	dashboard := services.NewDashboardService(store, cache.NewMemoryCache(), time.Minute)
	loans := services.NewLoanService(store, dashboard)

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	NewLoanController(loans, services.NewReportService()).Register(api)
	NewPaymentController(services.NewPaymentService(store, nil, dashboard)).Register(api)
	NewUserController(services.NewUserService(store, dashboard), loans).Register(api)
	NewDashboardController(dashboard).Register(api)

	return &testAPI{store: store, router: router}
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func display(m map[string]interface{}, key string) interface{} {
	money, _ := m[key].(map[string]interface{})
	return money["display"]
}

// createUserAndLoan создает заемщика и кредит 10000 под 5% на 12 месяцев
func (a *testAPI) createUserAndLoan(t *testing.T) (userID, loanID string) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/users", `{"name":"John Doe","email":"John@Example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decodeMap(t, rec)
	userID = strconv.Itoa(int(user["id"].(float64)))

	rec = a.do(t, http.MethodPost, "/api/loans",
		`{"user_id":`+userID+`,"amount":"10000","interest_rate":5,"term_months":12}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	loan := decodeMap(t, rec)
	loanID = strconv.Itoa(int(loan["id"].(float64)))
	return userID, loanID
}

func TestLoanController_CreateAndGet(t *testing.T) {
	api := newTestAPI(t)
	userID, loanID := api.createUserAndLoan(t)

	rec := api.do(t, http.MethodGet, "/api/loans/"+loanID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeMap(t, rec)

	assert.Equal(t, "$10,000.00", display(body, "amount"))
	assert.Equal(t, "$856.07", display(body, "monthly_payment"))
	assert.Equal(t, "$10,272.84", display(body, "total_repayment"))
	assert.Equal(t, "$272.84", display(body, "total_interest"))
	assert.Equal(t, "$0.00", display(body, "total_paid"))
	assert.Equal(t, "$10,272.84", display(body, "remaining_balance"))
	assert.Equal(t, "John Doe", body["user_name"])
	assert.Len(t, body["schedule"], 12)
	assert.Empty(t, body["payments"])

	borrower := body["borrower"].(map[string]interface{})
	assert.Equal(t, "john@example.com", borrower["email"])

	rec = api.do(t, http.MethodGet, "/api/users/"+userID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeMap(t, rec)["loans"], 1)
}

func TestLoanController_Errors(t *testing.T) {
	api := newTestAPI(t)
	userID, loanID := api.createUserAndLoan(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"zero amount", http.MethodPost, "/api/loans", `{"user_id":` + userID + `,"amount":0,"interest_rate":5,"term_months":12}`, http.StatusBadRequest},
		{"sub-cent amount", http.MethodPost, "/api/loans", `{"user_id":` + userID + `,"amount":0.004,"interest_rate":5,"term_months":12}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/api/loans", `{"amount":`, http.StatusBadRequest},
		{"unknown user", http.MethodPost, "/api/loans", `{"user_id":999,"amount":1000,"interest_rate":5,"term_months":12}`, http.StatusNotFound},
		{"unknown loan", http.MethodGet, "/api/loans/999", "", http.StatusNotFound},
		{"zero id", http.MethodGet, "/api/loans/0", "", http.StatusBadRequest},
		{"non numeric id", http.MethodGet, "/api/loans/abc", "", http.StatusNotFound},
		{"change borrower", http.MethodPut, "/api/loans/" + loanID, `{"user_id":999,"amount":1000,"interest_rate":5,"term_months":12}`, http.StatusBadRequest},
		{"min above max", http.MethodGet, "/api/loans?min_amount=5000&max_amount=1000", "", http.StatusBadRequest},
		{"bad min", http.MethodGet, "/api/loans?min_amount=abc", "", http.StatusBadRequest},
		{"bad page", http.MethodGet, "/api/loans?page=x", "", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := api.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestLoanController_UpdateDelete(t *testing.T) {
	api := newTestAPI(t)
	_, loanID := api.createUserAndLoan(t)

	rec := api.do(t, http.MethodPut, "/api/loans/"+loanID, `{"amount":"12000","interest_rate":"6","term_months":24}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeMap(t, rec)
	assert.Equal(t, "$531.85", display(body, "monthly_payment"))
	assert.Equal(t, float64(24), body["term_months"])

	rec = api.do(t, http.MethodDelete, "/api/loans/"+loanID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/loans/"+loanID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoanController_Search(t *testing.T) {
	api := newTestAPI(t)
	userID, _ := api.createUserAndLoan(t)
	rec := api.do(t, http.MethodPost, "/api/loans",
		`{"user_id":`+userID+`,"amount":"5000","interest_rate":4.5,"term_months":6}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/loans?min_amount=6000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeMap(t, rec)
	assert.Len(t, body["loans"], 1)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["total"])

	rec = api.do(t, http.MethodGet, "/api/loans?user_id="+userID+"&per_page=1&page=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeMap(t, rec)
	assert.Len(t, body["loans"], 1)
	pagination = body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["total_pages"])
}

func TestLoanController_Calculate(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/loans/calculate?amount=1000&rate=12&term=1&start=2024-01-31", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeMap(t, rec)
	assert.Equal(t, "$1,010.00", display(body, "monthly_payment"))
	assert.Equal(t, "$10.00", display(body, "total_interest"))

	schedule := body["schedule"].([]interface{})
	require.Len(t, schedule, 1)
	row := schedule[0].(map[string]interface{})
	assert.Equal(t, "2024-02-29", row["due_date"])
	assert.Equal(t, "$0.00", display(row, "balance"))

	for _, q := range []string{
		"amount=abc&rate=5&term=12",
		"amount=1000&rate=5&term=0",
		"amount=-1&rate=5&term=12",
		"amount=1000&rate=5&term=12&start=31.01.2024",
		"amount=1000&rate=5&term=2000000000",
		"amount=1000&rate=101&term=12",
		"amount=1&rate=3.33&term=600",
	} {
		rec := api.do(t, http.MethodGet, "/api/loans/calculate?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestLoanController_ScheduleFormats(t *testing.T) {
	api := newTestAPI(t)
	_, loanID := api.createUserAndLoan(t)

	rec := api.do(t, http.MethodGet, "/api/loans/"+loanID+"/schedule", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 12)
	assert.Equal(t, float64(1), rows[0]["period"])
	assert.Equal(t, "$0.00", display(rows[11], "balance"))

	rec = api.do(t, http.MethodGet, "/api/loans/"+loanID+"/schedule.pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	rec = api.do(t, http.MethodGet, "/api/loans/"+loanID+"/schedule.xml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "schedule.xml")
	assert.Contains(t, rec.Body.String(), `loan-id="`+loanID+`"`)
	assert.Contains(t, rec.Body.String(), "<monthly-payment>856.07</monthly-payment>")

	rec = api.do(t, http.MethodGet, "/api/loans/999/schedule.pdf", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaymentController(t *testing.T) {
	api := newTestAPI(t)
	_, loanID := api.createUserAndLoan(t)

	rec := api.do(t, http.MethodPost, "/api/loans/"+loanID+"/payments", `{"amount":"856.07","payment_date":"2024-02-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	payment := decodeMap(t, rec)
	assert.Equal(t, "$856.07", display(payment, "amount"))
	paymentID := strconv.Itoa(int(payment["id"].(float64)))

	rec = api.do(t, http.MethodGet, "/api/loans/"+loanID, "")
	body := decodeMap(t, rec)
	assert.Equal(t, "$856.07", display(body, "total_paid"))
	assert.Equal(t, "$9,416.77", display(body, "remaining_balance"))

	for _, tc := range []struct {
		body string
		want int
	}{
		{`{"amount":"0","payment_date":"2024-02-01"}`, http.StatusBadRequest},
		{`{"amount":"10","payment_date":"01/02/2024"}`, http.StatusBadRequest},
		{`{"amount":"10"}`, http.StatusBadRequest},
	} {
		rec := api.do(t, http.MethodPost, "/api/loans/"+loanID+"/payments", tc.body)
		assert.Equal(t, tc.want, rec.Code, tc.body)
	}

	rec = api.do(t, http.MethodPost, "/api/loans/999/payments", `{"amount":"10","payment_date":"2024-02-01T10:00:00Z"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodDelete, "/api/loans/"+loanID+"/payments/"+paymentID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(t, http.MethodDelete, "/api/loans/"+loanID+"/payments/"+paymentID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserController(t *testing.T) {
	api := newTestAPI(t)
	userID, loanID := api.createUserAndLoan(t)

	rec := api.do(t, http.MethodPost, "/api/users", `{"name":"Other","email":"john@example.com"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/users", `{"name":"","email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPut, "/api/users/"+userID, `{"name":"John Q. Doe","email":"john@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "John Q. Doe", decodeMap(t, rec)["name"])

	rec = api.do(t, http.MethodDelete, "/api/users/"+userID, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodDelete, "/api/loans/"+loanID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(t, http.MethodDelete, "/api/users/"+userID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = api.do(t, http.MethodGet, "/api/users/"+userID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardController(t *testing.T) {
	api := newTestAPI(t)
	api.store.SetStats(models.DashboardStats{
		TotalLoans: 4,
		TotalUsers: 3,
		RateDistribution: []models.Bucket{
			{Label: "Below 3%", Count: 0},
			{Label: "3-5%", Count: 1},
		},
	})

	rec := api.do(t, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeMap(t, rec)
	assert.Equal(t, float64(4), body["total_loans"])
	assert.Equal(t, float64(3), body["total_users"])
	assert.Len(t, body["rate_distribution"], 2)

	// второй запрос берется из кэша
	api.do(t, http.MethodGet, "/api/dashboard", "")
	assert.Equal(t, 1, api.store.StatsCalls())
}

func newAuthController(t *testing.T, password string) *AuthController {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.SecretKey = "test-secret"
	cfg.JWT.ExpiresIn = 2
	cfg.Auth.AdminEmail = "admin@example.com"
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		require.NoError(t, err)
		cfg.Auth.AdminPasswordHash = string(hash)
	}
	return NewAuthController(cfg)
}

func TestAuthController_SignIn(t *testing.T) {
	c := newAuthController(t, "correct-horse")

	cases := []struct {
		name string
		body string
		want int
	}{
		{"ok", `{"email":"Admin@Example.com","password":"correct-horse"}`, http.StatusOK},
		{"wrong password", `{"email":"admin@example.com","password":"wrong-horse"}`, http.StatusUnauthorized},
		{"unknown email", `{"email":"other@example.com","password":"correct-horse"}`, http.StatusUnauthorized},
		{"short password", `{"email":"admin@example.com","password":"short"}`, http.StatusBadRequest},
		{"bad json", `{"email":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c.SignIn(rec, httptest.NewRequest(http.MethodPost, "/api/auth/signIn", strings.NewReader(tc.body)))
			require.Equal(t, tc.want, rec.Code, rec.Body.String())
			if tc.want != http.StatusOK {
				return
			}

			var resp SignInResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			token, err := jwt.Parse(resp.Token, func(*jwt.Token) (interface{}, error) {
				return []byte("test-secret"), nil
			}, jwt.WithExpirationRequired())
			require.NoError(t, err)
			claims := token.Claims.(jwt.MapClaims)
			assert.Equal(t, "admin@example.com", claims["email"])
			assert.WithinDuration(t, time.Now().Add(2*time.Hour), resp.ExpiresAt, time.Minute)
		})
	}
}

func TestAuthController_NoPasswordConfigured(t *testing.T) {
	c := newAuthController(t, "")
	rec := httptest.NewRecorder()
	c.SignIn(rec, httptest.NewRequest(http.MethodPost, "/api/auth/signIn",
		strings.NewReader(`{"email":"admin@example.com","password":"anything-at-all"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
