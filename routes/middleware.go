package routes

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"parkingreserve/handlers"
	"parkingreserve/metrics"
	"parkingreserve/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// AuthMiddleware 驗證 JWT token，並將 user_id 放入 context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			handlers.ErrorResponse(c, http.StatusUnauthorized, "缺少 Authorization 標頭", "Authorization header is required", "ERR_NO_AUTH_HEADER")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			handlers.ErrorResponse(c, http.StatusUnauthorized, "無效的 Authorization 格式", "Authorization header must be in the format 'Bearer <token>'", "ERR_INVALID_AUTH_FORMAT")
			return
		}

		userID, err := utils.ParseToken(parts[1])
		if err != nil {
			log.Printf("[%s] Token parsing error: %v", c.GetString(handlers.RequestIDKey), err)
			if errors.Is(err, jwt.ErrTokenExpired) {
				handlers.ErrorResponse(c, http.StatusUnauthorized, "token 已過期", "Token has expired", "ERR_TOKEN_EXPIRED")
			} else {
				handlers.ErrorResponse(c, http.StatusUnauthorized, "無效的 token", err.Error(), "ERR_INVALID_TOKEN")
			}
			return
		}

		c.Set(handlers.UserIDKey, userID)
		c.Next()
	}
}

// RequestIDMiddleware 沿用或產生 X-Request-ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(handlers.RequestIDKey, requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

// MetricsMiddleware 記錄每個路由的請求數與延遲
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
