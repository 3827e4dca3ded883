package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chatharvard/chatharvard-go/internal/ctxutil"
	domerrors "github.com/chatharvard/chatharvard-go/internal/errors"
	"github.com/chatharvard/chatharvard-go/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// securityHeadersMiddleware adds standard security headers.
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	}
}

// requestIDMiddleware assigns each request an ID for log correlation,
// honoring one supplied by an upstream proxy.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(requestIDHeader, requestID)
		c.Request = c.Request.WithContext(ctxutil.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// loggingMiddleware logs each request with its correlation IDs.
func loggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		entry := log.WithField("method", method).
			WithField("path", path).
			WithField("status", status).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("ip", c.ClientIP())
		if requestID, ok := ctxutil.GetRequestID(c.Request.Context()); ok {
			entry = entry.WithRequestID(requestID)
		}

		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Error("Request completed with errors")
			return
		}
		switch {
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Debug("Request completed")
		}
	}
}

// sessionRateLimit throttles chat requests per session. Sessions are
// self-reported; requests without one fall back to the client IP so
// anonymous traffic is still bounded.
func (s *server) sessionRateLimit() gin.HandlerFunc {
	type sessionBody struct {
		SessionID string `json:"sessionId"`
	}

	return func(c *gin.Context) {
		var body sessionBody
		_ = c.ShouldBindBodyWithJSON(&body)

		key := body.SessionID
		if key == "" {
			key = c.ClientIP()
		}
		if !s.limiter.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": domerrors.ErrRateLimitExceeded.Error()})
			return
		}
		c.Next()
	}
}

// requireAdminToken guards mutating admin endpoints with a bearer
// token. No configured token means the endpoint is disabled.
func (s *server) requireAdminToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.AdminToken == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin endpoints are disabled"})
			return
		}
		if c.GetHeader("Authorization") != "Bearer "+s.cfg.AdminToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
