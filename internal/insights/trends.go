package insights

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/tejuiceB/finSight/internal/domain"
)

// Weekend spend above this fraction of weekday spend flags a trend.
const weekendOverspendRatio = 0.4

// DetectTrends derives behavioral spending patterns from the transaction
// list. Currently one rule: weekend overspending, escalated to high severity
// when weekend spend exceeds weekday spend outright.
func DetectTrends(transactions []domain.Transaction) []domain.BehavioralTrend {
	trends := []domain.BehavioralTrend{}
	if len(transactions) == 0 {
		return trends
	}

	var weekendTotal, weekdayTotal float64
	weekendCount := 0

	for _, t := range transactions {
		weekend := isWeekend(t.Date)
		if weekend {
			weekendCount++
		}
		if t.Type != domain.TypeExpense {
			continue
		}
		if weekend {
			weekendTotal += math.Abs(t.Amount)
		} else {
			weekdayTotal += math.Abs(t.Amount)
		}
	}

	if weekendCount > 0 && weekendTotal > weekdayTotal*weekendOverspendRatio {
		severity := "medium"
		if weekendTotal > weekdayTotal {
			severity = "high"
		}
		// Average over the implied number of weekends covered.
		weeks := math.Max(float64(weekendCount)/7.0, 1)
		trends = append(trends, domain.BehavioralTrend{
			ID:            uuid.NewString(),
			Type:          "weekend-overspending",
			Title:         "Weekend Overspending Pattern",
			Description:   "You tend to spend significantly more on weekends compared to weekdays.",
			Frequency:     "Weekly",
			AverageAmount: weekendTotal / weeks,
			Occurrences:   (weekendCount + 1) / 2,
			Suggestion:    "Plan weekend activities with a budget. Consider free or low-cost entertainment options.",
			Severity:      severity,
		})
	}

	return trends
}

// isWeekend reports whether a YYYY-MM-DD date falls on Saturday or Sunday.
// Unparsable dates count as weekdays.
func isWeekend(date string) bool {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false
	}
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
