package risk

import (
	"time"

	"github.com/cleberrangel/clickup-risk-api/internal/model"
)

// EvaluateItem computes the risk verdict for a single item. The rules form
// a strict decision tree evaluated in order, first match wins:
//
//  1. no due date        -> NO_DUE (informational, never an error)
//  2. no usable ETA      -> UNKNOWN
//  3. ETA after due      -> LATE
//  4. buffer under 24h   -> AT_RISK
//  5. otherwise          -> OK
//
// The ETA prefers a declared TargetTime; without one it is projected
// forward as now + RemainingHours. Note the asymmetry with ToHours, which
// prefers RemainingHours: here we project a completion instant, there we
// measure remaining budget.
func EvaluateItem(now time.Time, due *time.Time, est *model.Estimate) ItemVerdict {
	if due == nil {
		return ItemVerdict{Level: LevelNoDue, Reason: "No due date set"}
	}

	var eta time.Time
	switch {
	case est != nil && est.TargetTime != nil:
		eta = *est.TargetTime
	case est != nil && est.RemainingHours != nil && *est.RemainingHours > 0:
		eta = now.Add(time.Duration(*est.RemainingHours * float64(time.Hour)))
	default:
		return ItemVerdict{Level: LevelUnknown, Reason: "No ETA / remaining hours provided"}
	}

	if eta.After(*due) {
		return ItemVerdict{Level: LevelLate, Reason: "ETA exceeds due date"}
	}
	if due.Sub(eta) < ItemBufferThreshold {
		return ItemVerdict{Level: LevelAtRisk, Reason: "Less than one day of buffer"}
	}
	return ItemVerdict{Level: LevelOK, Reason: "ETA comfortably before due date"}
}
