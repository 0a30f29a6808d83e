package middleware

import (
	"net/http"
	"strconv"
	"time"

	"loanmanagement/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RateLimit middleware для ограничения частоты запросов. Адрес клиента
// берется из c.ClientIP(), поэтому доверенные прокси задаются через
// gin.Engine.SetTrustedProxies.
func RateLimit(limiter *utils.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := limiter.Take(c.ClientIP())

		// Добавляем заголовки с информацией о лимитах
		c.Header("X-RateLimit-Limit", strconv.Itoa(state.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(state.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(state.Reset.Unix(), 10))

		if !state.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests",
				"reset": state.Reset,
			})
			return
		}

		c.Next()
	}
}

// Logger middleware для логирования запросов
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		duration := time.Since(startTime)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		utils.GetMetrics().RecordRequest(c.Request.Method, route, c.Writer.Status(), duration)

		utils.LogInfo("Request: %s %s - Status: %d - Duration: %v",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			duration,
		)

		// Логируем ошибки
		for _, e := range c.Errors {
			utils.LogError("Error: %v", e)
		}
	}
}

// Recovery middleware для обработки паник
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				utils.LogError("Panic recovered: %v", err)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()

		c.Next()
	}
}

// CORS middleware для CORS
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}
