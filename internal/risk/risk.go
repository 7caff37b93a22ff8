// Package risk holds the pure delivery-risk engine: the per-item verdict,
// the portfolio aggregation and the estimate-to-hours conversion shared by
// both. Nothing in this package performs I/O or reads the wall clock; the
// caller always supplies "now", so identical inputs produce identical
// verdicts.
package risk

import (
	"time"

	"github.com/cleberrangel/clickup-risk-api/internal/model"
)

// Level is a risk verdict level. The set is closed: consumers switch over
// these values and a new level requires updating every one of them.
type Level string

const (
	LevelNoDue      Level = "NO_DUE"
	LevelUnknown    Level = "UNKNOWN"
	LevelLate       Level = "LATE"
	LevelAtRisk     Level = "AT_RISK"
	LevelOK         Level = "OK"
	LevelOverbooked Level = "OVERBOOKED"
	LevelTight      Level = "TIGHT"
)

const (
	// ItemBufferThreshold is the minimum margin between ETA and due date
	// below which a single item is flagged AT_RISK.
	ItemBufferThreshold = 24 * time.Hour

	// PortfolioBufferHours is one nominal workday. A portfolio whose slack
	// falls under it is flagged TIGHT.
	PortfolioBufferHours = 8.0
)

// ItemVerdict is the risk verdict for a single item. Ephemeral: recomputed
// on every read, never stored.
type ItemVerdict struct {
	Level  Level  `json:"level"`
	Reason string `json:"reason"`
}

// PortfolioItem is one open item as seen by the aggregator.
type PortfolioItem struct {
	DueTime  *time.Time
	Estimate *model.Estimate
}

// PortfolioVerdict is the aggregated verdict over a worker's open items.
// BudgetHours, BufferHours and FurthestDueTime are nil when no item has a
// due date.
type PortfolioVerdict struct {
	Level               Level      `json:"level"`
	Reason              string     `json:"reason"`
	TotalEstimatedHours float64    `json:"total_estimated_hours"`
	BudgetHours         *float64   `json:"budget_hours"`
	BufferHours         *float64   `json:"buffer_hours"`
	FurthestDueTime     *time.Time `json:"furthest_due_time"`
	OpenCount           int        `json:"open_count"`
	EstimatedCount      int        `json:"estimated_count"`
	UnknownCount        int        `json:"unknown_count"`
}
