package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/cleberrangel/clickup-risk-api/internal/metrics"
	"github.com/cleberrangel/clickup-risk-api/internal/websocket"
	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check and metrics endpoints
type HealthHandler struct {
	db        *sql.DB
	wsHub     *websocket.Hub
	version   string
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *sql.DB, wsHub *websocket.Hub, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		wsHub:     wsHub,
		version:   version,
		startTime: time.Now(),
	}
}

// LivenessCheck returns basic liveness status
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health/live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ReadinessCheck returns readiness status including dependencies
// @Summary Readiness check
// @Tags health
// @Produce json
// @Success 200 {object} metrics.HealthCheck
// @Failure 503 {object} metrics.HealthCheck
// @Router /health/ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	components := make(map[string]metrics.HealthStatus)

	components["database"] = metrics.CheckDatabaseHealth(h.db)
	components["memory"] = metrics.CheckMemoryHealth(512)

	if h.wsHub != nil {
		components["websocket"] = metrics.HealthStatus{Status: "healthy"}
	}

	overallStatus := metrics.DetermineOverallStatus(components)

	healthCheck := metrics.HealthCheck{
		Status:     overallStatus,
		Version:    h.version,
		Uptime:     time.Since(h.startTime).String(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, healthCheck)
}

// GetMetrics returns application metrics
// @Summary Get application metrics
// @Tags metrics
// @Produce json
// @Success 200 {object} metrics.MetricsSnapshot
// @Router /metrics [get]
func (h *HealthHandler) GetMetrics(c *gin.Context) {
	snapshot := metrics.Get().Snapshot()
	c.JSON(http.StatusOK, snapshot)
}

// GetMetricsSummary returns a summary of key metrics
// @Summary Get metrics summary
// @Tags metrics
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /metrics/summary [get]
func (h *HealthHandler) GetMetricsSummary(c *gin.Context) {
	snapshot := metrics.Get().Snapshot()

	requestSuccessRate := float64(0)
	if snapshot.Requests.Total > 0 {
		requestSuccessRate = float64(snapshot.Requests.Successful) / float64(snapshot.Requests.Total) * 100
	}

	saveSuccessRate := float64(0)
	totalSaves := snapshot.Estimates.Saves + snapshot.Estimates.SaveErrors
	if totalSaves > 0 {
		saveSuccessRate = float64(snapshot.Estimates.Saves) / float64(totalSaves) * 100
	}

	cacheHitRate := float64(0)
	totalLookups := snapshot.Cache.Hits + snapshot.Cache.Misses
	if totalLookups > 0 {
		cacheHitRate = float64(snapshot.Cache.Hits) / float64(totalLookups) * 100
	}

	summary := gin.H{
		"uptime_seconds": snapshot.UptimeSeconds,
		"version":        h.version,
		"requests": gin.H{
			"total":        snapshot.Requests.Total,
			"success_rate": requestSuccessRate,
			"avg_latency":  snapshot.Requests.AvgLatencyMs,
		},
		"risk": gin.H{
			"item_evaluations":      snapshot.Risk.ItemEvaluations,
			"portfolio_evaluations": snapshot.Risk.PortfolioEvaluations,
			"reports_exported":      snapshot.Risk.ReportsExported,
		},
		"estimates": gin.H{
			"saves":        snapshot.Estimates.Saves,
			"deletes":      snapshot.Estimates.Deletes,
			"success_rate": saveSuccessRate,
		},
		"cache": gin.H{
			"hit_rate": cacheHitRate,
		},
		"websocket": gin.H{
			"connections": snapshot.WebSocket.Connections,
		},
		"system": gin.H{
			"goroutines":  snapshot.System.Goroutines,
			"heap_mb":     snapshot.System.HeapAllocMB,
			"heap_use_mb": snapshot.System.HeapInUseMB,
		},
	}

	c.JSON(http.StatusOK, summary)
}
