package insights

import (
	"fmt"
	"math"

	"github.com/tejuiceB/finSight/internal/domain"
)

// Transaction insight bounds: groups need at least two transactions, amounts
// within 10% of the group mean count as recurring, anything over twice the
// mean is a large purchase, and the output is capped at the 50 most relevant
// entries (insertion order; merchants in first-appearance order).
const (
	minGroupSize       = 2
	recurringTolerance = 0.1
	largePurchaseRatio = 2.0
	maxInsights        = 50
)

// TagTransactions groups transactions by merchant and annotates each member
// of a group with recurrence and large-purchase flags.
func TagTransactions(transactions []domain.Transaction) []domain.TransactionInsight {
	insights := []domain.TransactionInsight{}
	if len(transactions) == 0 {
		return insights
	}

	groups := make(map[string][]domain.Transaction)
	var order []string
	for _, t := range transactions {
		if _, seen := groups[t.Merchant]; !seen {
			order = append(order, t.Merchant)
		}
		groups[t.Merchant] = append(groups[t.Merchant], t)
	}

	for _, merchant := range order {
		txns := groups[merchant]
		if len(txns) < minGroupSize {
			continue
		}

		var sum float64
		for _, t := range txns {
			sum += math.Abs(t.Amount)
		}
		mean := sum / float64(len(txns))

		recurring := true
		for _, t := range txns {
			if math.Abs(math.Abs(t.Amount)-mean) >= mean*recurringTolerance {
				recurring = false
				break
			}
		}

		for _, t := range txns {
			tags := []string{"One-time", "Income"}
			if recurring {
				tags[0] = "Recurring"
			}
			if t.Type == domain.TypeExpense {
				tags[1] = "Expense"
			}

			in := domain.TransactionInsight{
				TransactionID: fmt.Sprintf("%s-%s-%g", t.Date, t.Merchant, t.Amount),
				Transaction:   t,
				Insights: domain.InsightTags{
					IsRecurring:      recurring,
					IsLargePurchase:  math.Abs(t.Amount) > mean*largePurchaseRatio,
					IsUnusual:        false,
					MerchantCategory: t.Category,
					Tags:             tags,
				},
			}
			if recurring {
				in.Insights.RecurringFrequency = "monthly"
			}
			insights = append(insights, in)
			if len(insights) == maxInsights {
				return insights
			}
		}
	}

	return insights
}
