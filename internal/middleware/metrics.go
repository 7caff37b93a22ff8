package middleware

import (
	"strings"
	"time"

	"github.com/cleberrangel/clickup-risk-api/internal/logger"
	"github.com/cleberrangel/clickup-risk-api/internal/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsMiddleware tracks request metrics
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start).Milliseconds()

		statusCode := c.Writer.Status()
		success := statusCode < 400

		metrics.Get().IncrementRequests(success, latency)

		// Track endpoint-specific metrics
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metrics.Get().TrackEndpoint(path, c.Request.Method, statusCode, latency)
	}
}

// AuditMiddleware logs audit events for state-changing operations
func AuditMiddleware() gin.HandlerFunc {
	auditPrefixes := []string{
		"/api/v1/items",
		"/api/v1/portfolio",
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		shouldAudit := false
		for _, prefix := range auditPrefixes {
			if strings.HasPrefix(path, prefix) {
				shouldAudit = true
				break
			}
		}

		c.Next()

		// Only audit state-changing operations
		if shouldAudit && (c.Request.Method == "POST" || c.Request.Method == "PUT" || c.Request.Method == "DELETE") {
			duration := time.Since(start).Milliseconds()

			logger.AuditRequest(
				c.Request.Context(),
				c.Request.Method,
				path,
				c.Writer.Status(),
				duration,
				c.ClientIP(),
			)
		}
	}
}
