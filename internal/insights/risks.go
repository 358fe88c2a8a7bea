// Package insights computes the derived entities of a processing run: risk
// alerts, behavioral trends, transaction insight tags, category details and
// goal projections. Everything here is pure in-memory aggregation over the
// transaction list and analysis snapshot; no network, no storage.
package insights

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tejuiceB/finSight/internal/domain"
)

// Savings-rate floor (percent) and subscription share of income above which
// risks fire.
const (
	lowSavingsRateThreshold = 10.0
	subscriptionIncomeShare = 0.1
)

// subscriptionCategories matches category names that count as subscription
// spend (substring match, as categorized by the classifier).
var subscriptionCategories = []string{"Subscriptions", "Entertainment", "Software"}

// DetectRisks applies the independent, additive risk rules to the analysis
// snapshot. No triggering condition means an empty list, never an error.
func DetectRisks(analysis *domain.AnalysisResult) []domain.RiskAlert {
	risks := []domain.RiskAlert{}
	if analysis == nil {
		return risks
	}
	now := time.Now()
	m := analysis.Metrics

	if m.SavingsRate < lowSavingsRateThreshold {
		risks = append(risks, domain.RiskAlert{
			ID:    uuid.NewString(),
			Type:  "overspending",
			Title: "Low Savings Rate",
			Description: fmt.Sprintf(
				"Your savings rate is only %.1f%%. This is below the recommended 20%% minimum.",
				m.SavingsRate),
			Severity:       "high",
			AffectedAmount: m.TotalExpense - m.TotalIncome*0.8,
			DetectedAt:     now,
			ActionItems: []string{
				"Review non-essential expenses and identify areas to cut back",
				"Set up automatic savings transfers",
				"Track daily spending to stay within budget",
			},
		})
	}

	subscriptionSpend := 0.0
	for cat, amt := range analysis.CategorizedExpenses {
		for _, s := range subscriptionCategories {
			if strings.Contains(cat, s) {
				subscriptionSpend += amt
				break
			}
		}
	}

	if subscriptionSpend > m.TotalIncome*subscriptionIncomeShare {
		risks = append(risks, domain.RiskAlert{
			ID:               uuid.NewString(),
			Type:             "subscription",
			Title:            "High Subscription Spending",
			Description:      "Your subscription costs are consuming over 10% of your income.",
			Severity:         "medium",
			AffectedAmount:   subscriptionSpend,
			AffectedCategory: "Subscriptions",
			DetectedAt:       now,
			ActionItems: []string{
				"Review all active subscriptions and cancel unused ones",
				"Look for family plans or annual discounts",
				"Consider free alternatives for non-essential services",
			},
		})
	}

	return risks
}
