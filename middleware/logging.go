package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"loanmanagement/utils"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RequestIDHeader заголовок с идентификатором запроса
const RequestIDHeader = "X-Request-ID"

type LoggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (lrw *LoggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *LoggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// routeTemplate возвращает шаблон маршрута, чтобы не плодить метки метрик
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// LoggingMiddleware логирует запрос, присваивает ему идентификатор и пишет метрики
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID))

		lrw := &LoggingResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(lrw, r)

		duration := time.Since(start)
		route := routeTemplate(r)
		utils.GetMetrics().RecordRequest(r.Method, route, lrw.statusCode, duration)
		utils.Logger().Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", route),
			zap.Int("status", lrw.statusCode),
			zap.Int("size", lrw.size),
			zap.Duration("duration", duration),
		)
	})
}

// RateLimitMiddleware ограничивает частоту запросов с одного адреса.
// proxies может быть nil, тогда X-Forwarded-For игнорируется.
func RateLimitMiddleware(limiter *utils.RateLimiter, proxies *TrustedProxies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := limiter.Take(proxies.ClientIP(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(state.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(state.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(state.Reset.Unix(), 10))

			if !state.Allowed {
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
