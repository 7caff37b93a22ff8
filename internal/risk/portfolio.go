package risk

import "time"

// EvaluatePortfolio aggregates a worker's open items into one verdict:
// does the total remaining effort fit inside the time available until the
// furthest due date. Order-independent: the furthest due date is a strict
// numeric maximum and the hour sum is commutative.
//
// Items without a usable estimate are counted as unknown and excluded from
// the sum; they never fail the aggregation. Unlike the per-item hour
// conversion, the budget is NOT clamped: a negative budget is meaningful
// signal that the furthest deadline has already passed.
func EvaluatePortfolio(now time.Time, items []PortfolioItem) PortfolioVerdict {
	verdict := PortfolioVerdict{OpenCount: len(items)}

	var furthest *time.Time
	for _, item := range items {
		if item.DueTime != nil {
			if furthest == nil || item.DueTime.After(*furthest) {
				due := *item.DueTime
				furthest = &due
			}
		}

		hours, ok := ToHours(item.Estimate, now)
		if !ok {
			verdict.UnknownCount++
			continue
		}
		verdict.TotalEstimatedHours += hours
		verdict.EstimatedCount++
	}

	if furthest == nil {
		verdict.Level = LevelNoDue
		verdict.Reason = "No open issues have a due date."
		return verdict
	}

	budget := furthest.Sub(now).Hours()
	buffer := budget - verdict.TotalEstimatedHours
	verdict.BudgetHours = &budget
	verdict.BufferHours = &buffer
	verdict.FurthestDueTime = furthest

	switch {
	case verdict.TotalEstimatedHours > budget:
		verdict.Level = LevelOverbooked
		verdict.Reason = "Total estimated hours exceed the time budget until the furthest due date."
	case buffer < PortfolioBufferHours:
		verdict.Level = LevelTight
		verdict.Reason = "Less than one workday of buffer across all open issues."
	default:
		verdict.Level = LevelOK
		verdict.Reason = "Total estimate fits within the time budget."
	}
	return verdict
}
