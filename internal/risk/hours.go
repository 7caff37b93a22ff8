package risk

import (
	"time"

	"github.com/cleberrangel/clickup-risk-api/internal/model"
)

// ToHours normalizes the two estimate representations into a single hour
// figure. Returns (hours, true) when the estimate is usable, (0, false)
// otherwise.
//
// RemainingHours takes precedence over TargetTime when both are present.
// An hour figure derived from a target in the past is clamped to zero: a
// worker already late on their own target contributes no additional work
// to the budget sum, not a negative amount that would inflate slack.
func ToHours(est *model.Estimate, now time.Time) (float64, bool) {
	if est == nil {
		return 0, false
	}
	if est.RemainingHours != nil && *est.RemainingHours >= 0 {
		return *est.RemainingHours, true
	}
	if est.TargetTime != nil {
		hours := est.TargetTime.Sub(now).Hours()
		if hours < 0 {
			hours = 0
		}
		return hours, true
	}
	return 0, false
}
