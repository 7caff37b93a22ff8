package metrics

import (
	"database/sql"
	"runtime"
)

// HealthStatus describes the health of one component
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthCheck is the aggregated health report
type HealthCheck struct {
	Status     string                  `json:"status"`
	Version    string                  `json:"version"`
	Uptime     string                  `json:"uptime"`
	Timestamp  string                  `json:"timestamp"`
	Components map[string]HealthStatus `json:"components"`
}

// CheckDatabaseHealth pings the database
func CheckDatabaseHealth(db *sql.DB) HealthStatus {
	if db == nil {
		return HealthStatus{Status: "unhealthy", Message: "database not initialized"}
	}
	if err := db.Ping(); err != nil {
		return HealthStatus{Status: "unhealthy", Message: err.Error()}
	}
	return HealthStatus{Status: "healthy"}
}

// CheckMemoryHealth flags heap usage above the given limit in MB
func CheckMemoryHealth(limitMB uint64) HealthStatus {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	heapMB := mem.HeapAlloc / 1024 / 1024
	if heapMB > limitMB {
		return HealthStatus{Status: "degraded", Message: "heap usage above limit"}
	}
	return HealthStatus{Status: "healthy"}
}

// DetermineOverallStatus reduces component statuses to one overall status
func DetermineOverallStatus(components map[string]HealthStatus) string {
	overall := "healthy"
	for _, status := range components {
		switch status.Status {
		case "unhealthy":
			return "unhealthy"
		case "degraded":
			overall = "degraded"
		}
	}
	return overall
}
