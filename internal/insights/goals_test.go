package insights

import (
	"testing"
	"time"

	"github.com/tejuiceB/finSight/internal/domain"
)

func TestSuggestGoalsDefault(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for _, tc := range []struct {
		name     string
		analysis *domain.AnalysisResult
		txs      []domain.Transaction
	}{
		{"nil analysis", nil, []domain.Transaction{{}}},
		{"no transactions", &domain.AnalysisResult{}, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			goals := SuggestGoals(tc.analysis, tc.txs, now)
			if len(goals) != 1 {
				t.Fatalf("expected single default goal, got %d", len(goals))
			}
			g := goals[0]
			if g.Category != "emergency-fund" || g.TargetAmount != 100000 {
				t.Errorf("unexpected default goal %+v", g)
			}
			if !g.Deadline.Equal(now.AddDate(1, 0, 0)) {
				t.Errorf("deadline = %v, want one year out", g.Deadline)
			}
		})
	}
}

func TestSuggestGoalsFromAnalysis(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	analysis := &domain.AnalysisResult{
		Metrics: domain.Metrics{
			TotalIncome:  600000, // 100000/month over the assumed window
			TotalExpense: 420000, // 70000/month
		},
		CategorizedExpenses: map[string]float64{
			"EMI & Loans": 60000, // 10000/month
		},
	}
	txs := []domain.Transaction{{Date: "2025-01-01", Amount: 1, Type: domain.TypeExpense}}

	goals := SuggestGoals(analysis, txs, now)

	byCategory := map[string]domain.FinancialGoal{}
	for _, g := range goals {
		byCategory[g.Category] = g
	}

	if len(goals) != 5 {
		t.Fatalf("expected 5 goals, got %d: %+v", len(goals), goals)
	}

	emergency, ok := byCategory["emergency-fund"]
	if !ok {
		t.Fatal("missing emergency fund goal")
	}
	if emergency.TargetAmount != 420000 { // 70000 * 6
		t.Errorf("emergency target = %v, want 420000", emergency.TargetAmount)
	}
	if emergency.CurrentAmount != 6000 { // (100000-70000)*0.2
		t.Errorf("emergency current = %v, want 6000", emergency.CurrentAmount)
	}

	debt, ok := byCategory["debt-clearance"]
	if !ok {
		t.Fatal("missing debt goal despite EMI spend")
	}
	if debt.TargetAmount != 120000 { // 10000 * 12
		t.Errorf("debt target = %v, want 120000", debt.TargetAmount)
	}

	savings, ok := byCategory["savings"]
	if !ok {
		t.Fatal("missing savings goal")
	}
	if savings.TargetAmount != 360000 { // 30000 * 12
		t.Errorf("savings target = %v, want 360000", savings.TargetAmount)
	}

	invest, ok := byCategory["investment"]
	if !ok {
		t.Fatal("missing investment goal: 30000 savings > 7000 threshold")
	}
	if !invest.Deadline.Equal(now.AddDate(0, 6, 0)) {
		t.Errorf("investment deadline = %v, want six months out", invest.Deadline)
	}
	if invest.WeeklyTarget != invest.TargetAmount/26 {
		t.Errorf("investment weekly target = %v, want target/26", invest.WeeklyTarget)
	}

	vacation, ok := byCategory["custom"]
	if !ok {
		t.Fatal("missing vacation goal")
	}
	if vacation.TargetAmount != 200000 { // 100000 * 2
		t.Errorf("vacation target = %v, want 200000", vacation.TargetAmount)
	}
}

func TestSuggestGoalsGating(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Expenses exceed income: no savings goal, no investment goal, no EMI.
	analysis := &domain.AnalysisResult{
		Metrics: domain.Metrics{TotalIncome: 300000, TotalExpense: 360000},
	}
	txs := []domain.Transaction{{Date: "2025-01-01", Amount: 1, Type: domain.TypeExpense}}

	goals := SuggestGoals(analysis, txs, now)
	if len(goals) != 2 {
		t.Fatalf("expected emergency + vacation only, got %d: %+v", len(goals), goals)
	}
	for _, g := range goals {
		if g.Category == "savings" || g.Category == "investment" || g.Category == "debt-clearance" {
			t.Errorf("gated goal %q should not be present", g.Category)
		}
	}
}
