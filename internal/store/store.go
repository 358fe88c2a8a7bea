// Package store persists the application state as one whole JSON document.
// Every mutation is a load-modify-save of the entire AppState; there are no
// partial updates and no locking across writers, so concurrent runs are
// last-write-wins (accepted: the expected deployment is single-user).
package store

import (
	"context"
	"time"

	"github.com/tejuiceB/finSight/internal/domain"
)

// Repository is the whole-document persistence contract.
type Repository interface {
	// Load returns the current state, or a fresh default state when nothing
	// has been persisted yet.
	Load(ctx context.Context) (*domain.AppState, error)

	// Save replaces the persisted state and stamps LastUpdated.
	Save(ctx context.Context, state *domain.AppState) error
}

// DefaultState builds the initial application state.
func DefaultState() *domain.AppState {
	now := time.Now()
	return &domain.AppState{
		UserProfile: domain.UserProfile{
			Timezone:  now.Location().String(),
			Currency:  "INR",
			CreatedAt: now,
			UpdatedAt: now,
		},
		ParsedFiles:         []domain.ParsedFile{},
		Transactions:        []domain.Transaction{},
		Recommendations:     []domain.Recommendation{},
		Reminders:           []domain.Reminder{},
		Goals:               []domain.FinancialGoal{},
		Risks:               []domain.RiskAlert{},
		BehavioralTrends:    []domain.BehavioralTrend{},
		TransactionInsights: []domain.TransactionInsight{},
		CategoryDetails:     []domain.CategoryDetail{},
		ChatHistory:         []domain.ChatMessage{},
		Settings: domain.Settings{
			AutoProcess:     true,
			EnableReminders: true,
			PrivacyMode:     "server-allowed",
		},
		LastUpdated: now,
	}
}

// mergeDefaults fills collections that an older or hand-edited document may
// lack, so callers never see nil slices.
func mergeDefaults(s *domain.AppState) {
	if s.ParsedFiles == nil {
		s.ParsedFiles = []domain.ParsedFile{}
	}
	if s.Transactions == nil {
		s.Transactions = []domain.Transaction{}
	}
	if s.Recommendations == nil {
		s.Recommendations = []domain.Recommendation{}
	}
	if s.Reminders == nil {
		s.Reminders = []domain.Reminder{}
	}
	if s.Goals == nil {
		s.Goals = []domain.FinancialGoal{}
	}
	if s.Risks == nil {
		s.Risks = []domain.RiskAlert{}
	}
	if s.BehavioralTrends == nil {
		s.BehavioralTrends = []domain.BehavioralTrend{}
	}
	if s.TransactionInsights == nil {
		s.TransactionInsights = []domain.TransactionInsight{}
	}
	if s.CategoryDetails == nil {
		s.CategoryDetails = []domain.CategoryDetail{}
	}
	if s.ChatHistory == nil {
		s.ChatHistory = []domain.ChatMessage{}
	}
	if s.Settings.PrivacyMode == "" {
		s.Settings.PrivacyMode = "server-allowed"
	}
}
