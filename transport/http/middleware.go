package http

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// AuthorizationHeader carries the playground token
	AuthorizationHeader = "Authorization"
	// RequestIDHeader carries the request id
	RequestIDHeader = "X-Request-Id"

	tokenKey     = "token"
	requestIDKey = "requestID"
)

// AuthMiddleware extracts the playground token. The token is validated by the
// service, which knows the challenge it must be scoped to.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(AuthorizationHeader))
		token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
		c.Set(tokenKey, token)
		c.Next()
	}
}

// RequestID tags every request with an id, reusing the caller's when present
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Timeout bounds the time a request may spend on ledger calls
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Logger logs every request
func Logger(logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
			"id", c.GetString(requestIDKey),
		}
		if len(c.Errors) > 0 {
			args = append(args, "err", c.Errors.Last().Err)
		}
		if c.Writer.Status() >= 500 {
			logger.Warn("Request failed", args...)
			return
		}
		logger.Debug("Request served", args...)
	}
}
