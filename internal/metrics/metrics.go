package metrics

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// EndpointMetrics tracks metrics for a specific endpoint
type EndpointMetrics struct {
	Requests     int64
	Errors       int64
	TotalLatency int64
}

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Request metrics
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64

	// Request latency (in milliseconds)
	TotalLatency int64

	// Risk engine metrics
	ItemEvaluations      int64
	PortfolioEvaluations int64

	// Estimate metrics
	EstimateSaves      int64
	EstimateSaveErrors int64
	EstimateDeletes    int64

	// Upstream (ClickUp) metrics
	UpstreamErrors int64

	// Portfolio cache metrics
	CacheHits   int64
	CacheMisses int64

	// Report export metrics
	ReportsExported int64

	// WebSocket metrics
	WSConnections int64
	WSMessagesOut int64

	// Endpoint-specific metrics
	EndpointMetrics map[string]*EndpointMetrics

	// Start time for uptime calculation
	StartTime time.Time
}

// global metrics instance
var globalMetrics *Metrics
var once sync.Once

// Init initializes the global metrics instance
func Init() {
	once.Do(func() {
		globalMetrics = &Metrics{
			StartTime:       time.Now(),
			EndpointMetrics: make(map[string]*EndpointMetrics),
		}
	})
}

// Get returns the global metrics instance
func Get() *Metrics {
	if globalMetrics == nil {
		Init()
	}
	return globalMetrics
}

// IncrementRequests increments request counters
func (m *Metrics) IncrementRequests(success bool, latencyMs int64) {
	atomic.AddInt64(&m.TotalRequests, 1)
	atomic.AddInt64(&m.TotalLatency, latencyMs)

	if success {
		atomic.AddInt64(&m.SuccessfulRequests, 1)
	} else {
		atomic.AddInt64(&m.FailedRequests, 1)
	}
}

// IncrementItemEvaluation increments the per-item evaluation counter
func (m *Metrics) IncrementItemEvaluation() {
	atomic.AddInt64(&m.ItemEvaluations, 1)
}

// IncrementPortfolioEvaluation increments the portfolio evaluation counter
func (m *Metrics) IncrementPortfolioEvaluation() {
	atomic.AddInt64(&m.PortfolioEvaluations, 1)
}

// IncrementEstimateSave increments estimate save counters
func (m *Metrics) IncrementEstimateSave(success bool) {
	if success {
		atomic.AddInt64(&m.EstimateSaves, 1)
	} else {
		atomic.AddInt64(&m.EstimateSaveErrors, 1)
	}
}

// IncrementEstimateDelete increments the estimate delete counter
func (m *Metrics) IncrementEstimateDelete() {
	atomic.AddInt64(&m.EstimateDeletes, 1)
}

// IncrementUpstreamError increments the upstream error counter
func (m *Metrics) IncrementUpstreamError() {
	atomic.AddInt64(&m.UpstreamErrors, 1)
}

// IncrementCacheHit increments the portfolio cache hit counter
func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
}

// IncrementCacheMiss increments the portfolio cache miss counter
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

// IncrementReportExport increments the report export counter
func (m *Metrics) IncrementReportExport() {
	atomic.AddInt64(&m.ReportsExported, 1)
}

// IncrementWSConnection increments the WebSocket connection counter
func (m *Metrics) IncrementWSConnection() {
	atomic.AddInt64(&m.WSConnections, 1)
}

// DecrementWSConnection decrements the WebSocket connection counter
func (m *Metrics) DecrementWSConnection() {
	atomic.AddInt64(&m.WSConnections, -1)
}

// IncrementWSMessageOut increments the outgoing WebSocket message counter
func (m *Metrics) IncrementWSMessageOut() {
	atomic.AddInt64(&m.WSMessagesOut, 1)
}

// TrackEndpoint records a request against an endpoint
func (m *Metrics) TrackEndpoint(path, method string, statusCode int, latencyMs int64) {
	key := method + " " + path

	m.mu.Lock()
	defer m.mu.Unlock()

	em, exists := m.EndpointMetrics[key]
	if !exists {
		em = &EndpointMetrics{}
		m.EndpointMetrics[key] = em
	}

	em.Requests++
	em.TotalLatency += latencyMs
	if statusCode >= 400 {
		em.Errors++
	}
}

// RequestsSnapshot summarizes request counters
type RequestsSnapshot struct {
	Total        int64   `json:"total"`
	Successful   int64   `json:"successful"`
	Failed       int64   `json:"failed"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// RiskSnapshot summarizes risk engine counters
type RiskSnapshot struct {
	ItemEvaluations      int64 `json:"item_evaluations"`
	PortfolioEvaluations int64 `json:"portfolio_evaluations"`
	ReportsExported      int64 `json:"reports_exported"`
}

// EstimateSnapshot summarizes estimate counters
type EstimateSnapshot struct {
	Saves      int64 `json:"saves"`
	SaveErrors int64 `json:"save_errors"`
	Deletes    int64 `json:"deletes"`
}

// CacheSnapshot summarizes portfolio cache counters
type CacheSnapshot struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// WebSocketSnapshot summarizes WebSocket counters
type WebSocketSnapshot struct {
	Connections int64 `json:"connections"`
	MessagesOut int64 `json:"messages_out"`
}

// SystemSnapshot summarizes runtime information
type SystemSnapshot struct {
	Goroutines  int    `json:"goroutines"`
	HeapAllocMB uint64 `json:"heap_alloc_mb"`
	HeapInUseMB uint64 `json:"heap_in_use_mb"`
}

// EndpointSnapshot summarizes one endpoint
type EndpointSnapshot struct {
	Requests     int64   `json:"requests"`
	Errors       int64   `json:"errors"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// MetricsSnapshot is a point-in-time view of all metrics
type MetricsSnapshot struct {
	UptimeSeconds  float64                     `json:"uptime_seconds"`
	Requests       RequestsSnapshot            `json:"requests"`
	Risk           RiskSnapshot                `json:"risk"`
	Estimates      EstimateSnapshot            `json:"estimates"`
	UpstreamErrors int64                       `json:"upstream_errors"`
	Cache          CacheSnapshot               `json:"cache"`
	WebSocket      WebSocketSnapshot           `json:"websocket"`
	System         SystemSnapshot              `json:"system"`
	Endpoints      map[string]EndpointSnapshot `json:"endpoints"`
}

// Snapshot returns a consistent copy of all metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	total := atomic.LoadInt64(&m.TotalRequests)
	avgLatency := float64(0)
	if total > 0 {
		avgLatency = float64(atomic.LoadInt64(&m.TotalLatency)) / float64(total)
	}

	snapshot := MetricsSnapshot{
		UptimeSeconds: time.Since(m.StartTime).Seconds(),
		Requests: RequestsSnapshot{
			Total:        total,
			Successful:   atomic.LoadInt64(&m.SuccessfulRequests),
			Failed:       atomic.LoadInt64(&m.FailedRequests),
			AvgLatencyMs: avgLatency,
		},
		Risk: RiskSnapshot{
			ItemEvaluations:      atomic.LoadInt64(&m.ItemEvaluations),
			PortfolioEvaluations: atomic.LoadInt64(&m.PortfolioEvaluations),
			ReportsExported:      atomic.LoadInt64(&m.ReportsExported),
		},
		Estimates: EstimateSnapshot{
			Saves:      atomic.LoadInt64(&m.EstimateSaves),
			SaveErrors: atomic.LoadInt64(&m.EstimateSaveErrors),
			Deletes:    atomic.LoadInt64(&m.EstimateDeletes),
		},
		UpstreamErrors: atomic.LoadInt64(&m.UpstreamErrors),
		Cache: CacheSnapshot{
			Hits:   atomic.LoadInt64(&m.CacheHits),
			Misses: atomic.LoadInt64(&m.CacheMisses),
		},
		WebSocket: WebSocketSnapshot{
			Connections: atomic.LoadInt64(&m.WSConnections),
			MessagesOut: atomic.LoadInt64(&m.WSMessagesOut),
		},
		System: SystemSnapshot{
			Goroutines:  runtime.NumGoroutine(),
			HeapAllocMB: mem.HeapAlloc / 1024 / 1024,
			HeapInUseMB: mem.HeapInuse / 1024 / 1024,
		},
		Endpoints: make(map[string]EndpointSnapshot),
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for key, em := range m.EndpointMetrics {
		avg := float64(0)
		if em.Requests > 0 {
			avg = float64(em.TotalLatency) / float64(em.Requests)
		}
		snapshot.Endpoints[key] = EndpointSnapshot{
			Requests:     em.Requests,
			Errors:       em.Errors,
			AvgLatencyMs: avg,
		}
	}

	return snapshot
}
