package insights

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tejuiceB/finSight/internal/domain"
)

// Goal projection constants. Totals are assumed to cover a six-month window;
// targets and deadlines follow from that estimate.
const (
	assumedDataWindowMonths = 6
	weeksPerYear            = 52
	weeksPerHalfYear        = 26
)

// emiCategories matches categories that count as loan repayments (substring
// match against classifier output).
var emiCategories = []string{"Loans & EMI", "Credit Card", "EMI"}

// SuggestGoals derives up to five heuristic financial goals from the current
// analysis snapshot. Callers enforce the create-once policy; this function
// just projects.
func SuggestGoals(analysis *domain.AnalysisResult, transactions []domain.Transaction, now time.Time) []domain.FinancialGoal {
	oneYear := now.AddDate(1, 0, 0)
	halfYear := now.AddDate(0, assumedDataWindowMonths, 0)

	if analysis == nil || len(transactions) == 0 {
		// No data to project from: a single default emergency-fund goal.
		return []domain.FinancialGoal{{
			ID:           uuid.NewString(),
			Title:        "Emergency Fund",
			TargetAmount: 100000,
			Deadline:     oneYear,
			Category:     "emergency-fund",
			CreatedAt:    now,
			Status:       "on-track",
			WeeklyTarget: 100000.0 / weeksPerYear,
		}}
	}

	monthlyIncome := analysis.Metrics.TotalIncome / assumedDataWindowMonths
	monthlyExpense := analysis.Metrics.TotalExpense / assumedDataWindowMonths
	monthlySavings := monthlyIncome - monthlyExpense

	goals := []domain.FinancialGoal{}

	// 1. Emergency fund: six months of expenses.
	emergencyTarget := math.Round(monthlyExpense * 6)
	goals = append(goals, domain.FinancialGoal{
		ID:            uuid.NewString(),
		Title:         "Emergency Fund (6 Months)",
		TargetAmount:  emergencyTarget,
		CurrentAmount: math.Round(monthlySavings * 0.2),
		Deadline:      oneYear,
		Category:      "emergency-fund",
		CreatedAt:     now,
		Status:        "on-track",
		WeeklyTarget:  emergencyTarget / weeksPerYear,
	})

	// 2. Debt clearance: a year of EMI payments, only when EMI spend exists.
	var emiTotal float64
	for cat, amt := range analysis.CategorizedExpenses {
		for _, e := range emiCategories {
			if strings.Contains(cat, e) {
				emiTotal += amt
				break
			}
		}
	}
	monthlyEMI := emiTotal / assumedDataWindowMonths
	if monthlyEMI > 0 {
		debtTarget := math.Round(monthlyEMI * 12)
		goals = append(goals, domain.FinancialGoal{
			ID:           uuid.NewString(),
			Title:        "Clear Outstanding Debt",
			TargetAmount: debtTarget,
			Deadline:     oneYear,
			Category:     "debt-clearance",
			CreatedAt:    now,
			Status:       "on-track",
			WeeklyTarget: debtTarget / weeksPerYear,
		})
	}

	// 3. Annual savings target, when there is savings capacity at all.
	if monthlySavings > 0 {
		savingsTarget := math.Round(monthlySavings * 12)
		goals = append(goals, domain.FinancialGoal{
			ID:            uuid.NewString(),
			Title:         "Annual Savings Target",
			TargetAmount:  savingsTarget,
			CurrentAmount: math.Round(monthlySavings * 2),
			Deadline:      oneYear,
			Category:      "savings",
			CreatedAt:     now,
			Status:        "on-track",
			WeeklyTarget:  savingsTarget / weeksPerYear,
		})
	}

	// 4. Investment goal, gated on savings exceeding 10% of expenses.
	if monthlySavings > monthlyExpense*0.1 {
		investTarget := math.Round(monthlySavings * 6)
		goals = append(goals, domain.FinancialGoal{
			ID:           uuid.NewString(),
			Title:        "Start Investment Portfolio",
			TargetAmount: investTarget,
			Deadline:     halfYear,
			Category:     "investment",
			CreatedAt:    now,
			Status:       "on-track",
			WeeklyTarget: investTarget / weeksPerHalfYear,
		})
	}

	// 5. Vacation fund: two months of income, always suggested.
	vacationTarget := math.Round(monthlyIncome * 2)
	goals = append(goals, domain.FinancialGoal{
		ID:           uuid.NewString(),
		Title:        "Dream Vacation Fund",
		TargetAmount: vacationTarget,
		Deadline:     oneYear,
		Category:     "custom",
		CreatedAt:    now,
		Status:       "on-track",
		WeeklyTarget: vacationTarget / weeksPerYear,
	})

	return goals
}
