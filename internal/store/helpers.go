package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tejuiceB/finSight/internal/domain"
)

// The helpers below implement the app's mutation vocabulary as whole-document
// read-modify-write sequences. Each one is individually atomic at the file
// level but a pair of overlapping helpers can lose an update (see package
// comment).

// AddTransactions appends a batch to the transaction list. Transactions have
// no natural key, so re-uploading the same statement duplicates entries;
// deduplication is deliberately not attempted here.
func AddTransactions(ctx context.Context, repo Repository, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	state, err := repo.Load(ctx)
	if err != nil {
		return err
	}
	state.Transactions = append(state.Transactions, txs...)
	return repo.Save(ctx, state)
}

// AddParsedFile records an uploaded file's extracted text.
func AddParsedFile(ctx context.Context, repo Repository, file domain.ParsedFile) error {
	state, err := repo.Load(ctx)
	if err != nil {
		return err
	}
	state.ParsedFiles = append(state.ParsedFiles, file)
	return repo.Save(ctx, state)
}

// SaveAnalysis overwrites the analysis result wholesale.
func SaveAnalysis(ctx context.Context, repo Repository, analysis *domain.AnalysisResult) error {
	state, err := repo.Load(ctx)
	if err != nil {
		return err
	}
	state.AnalysisResult = analysis
	return repo.Save(ctx, state)
}

// SaveRecommendations replaces the recommendation list entirely.
func SaveRecommendations(ctx context.Context, repo Repository, recs []domain.Recommendation) error {
	state, err := repo.Load(ctx)
	if err != nil {
		return err
	}
	state.Recommendations = recs
	return repo.Save(ctx, state)
}

// AddReminders appends reminders; unlike recommendations they accumulate
// across runs.
func AddReminders(ctx context.Context, repo Repository, reminders []domain.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}
	state, err := repo.Load(ctx)
	if err != nil {
		return err
	}
	state.Reminders = append(state.Reminders, reminders...)
	return repo.Save(ctx, state)
}

// SetReminderCompleted toggles a reminder's completion flag.
func SetReminderCompleted(ctx context.Context, repo Repository, id string, completed bool) error {
	state, err := repo.Load(ctx)
	if err != nil {
		return err
	}
	for i := range state.Reminders {
		if state.Reminders[i].ID == id {
			state.Reminders[i].Completed = completed
			return repo.Save(ctx, state)
		}
	}
	return fmt.Errorf("store: reminder not found: %s", id)
}

// DeleteReminder removes a reminder by id.
func DeleteReminder(ctx context.Context, repo Repository, id string) error {
	state, err := repo.Load(ctx)
	if err != nil {
		return err
	}
	kept := state.Reminders[:0]
	found := false
	for _, r := range state.Reminders {
		if r.ID == id {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return fmt.Errorf("store: reminder not found: %s", id)
	}
	state.Reminders = kept
	return repo.Save(ctx, state)
}

// UpdateProfile merges non-zero profile fields into the stored profile.
func UpdateProfile(ctx context.Context, repo Repository, profile domain.UserProfile) error {
	state, err := repo.Load(ctx)
	if err != nil {
		return err
	}
	if profile.Name != "" {
		state.UserProfile.Name = profile.Name
	}
	if profile.Timezone != "" {
		state.UserProfile.Timezone = profile.Timezone
	}
	if profile.Currency != "" {
		state.UserProfile.Currency = profile.Currency
	}
	if profile.MonthlyGoal > 0 {
		state.UserProfile.MonthlyGoal = profile.MonthlyGoal
	}
	state.UserProfile.UpdatedAt = time.Now()
	return repo.Save(ctx, state)
}

// UpdateSettings replaces the settings block.
func UpdateSettings(ctx context.Context, repo Repository, settings domain.Settings) error {
	state, err := repo.Load(ctx)
	if err != nil {
		return err
	}
	state.Settings = settings
	return repo.Save(ctx, state)
}

// AddChatMessages appends conversation turns to the chat history.
func AddChatMessages(ctx context.Context, repo Repository, msgs ...domain.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	state, err := repo.Load(ctx)
	if err != nil {
		return err
	}
	state.ChatHistory = append(state.ChatHistory, msgs...)
	return repo.Save(ctx, state)
}

// Export serializes the whole state document as indented JSON.
func Export(ctx context.Context, repo Repository) ([]byte, error) {
	state, err := repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("store: export: %w", err)
	}
	return raw, nil
}

// Import replaces the stored state with a previously exported document.
// Unknown fields are dropped and missing collections re-defaulted; there is
// no version negotiation.
func Import(ctx context.Context, repo Repository, data []byte) error {
	var state domain.AppState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("store: import: invalid data format: %w", err)
	}
	mergeDefaults(&state)
	return repo.Save(ctx, &state)
}
