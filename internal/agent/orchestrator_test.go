package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tejuiceB/finSight/internal/domain"
	"github.com/tejuiceB/finSight/internal/gemini"
	"github.com/tejuiceB/finSight/internal/store"
)

// scriptedCaller routes calls by matching a substring of the system prompt
// to a canned response or error, and records every call it sees.
type scriptedCaller struct {
	responses map[string]string
	errors    map[string]error
	calls     []string
}

func (s *scriptedCaller) Call(ctx context.Context, system, user string, opts *gemini.CallOptions) (string, error) {
	for key, err := range s.errors {
		if strings.Contains(system, key) {
			s.calls = append(s.calls, key)
			return "", err
		}
	}
	for key, resp := range s.responses {
		if strings.Contains(system, key) {
			s.calls = append(s.calls, key)
			return resp, nil
		}
	}
	return "", errors.New("no scripted response for prompt")
}

func (s *scriptedCaller) count(key string) int {
	n := 0
	for _, c := range s.calls {
		if c == key {
			n++
		}
	}
	return n
}

const (
	parserKey      = "Parser Agent"
	classifierKey  = "Classifier Agent"
	analyzerKey    = "Analyzer Agent"
	recommenderKey = "Recommendation Agent"
	reminderKey    = "Reminder Agent"
	chatKey        = "Chat Assistant"
)

func happyPathCaller() *scriptedCaller {
	return &scriptedCaller{
		responses: map[string]string{
			parserKey: `{"transactions":[
				{"date":"2025-01-04","amount":1200,"currency":"INR","merchant":"BigBazaar","type":"expense","category":"uncategorized"},
				{"date":"2025-01-06","amount":50000,"currency":"INR","merchant":"Employer","type":"income","category":"uncategorized"}
			]}`,
			classifierKey: "```json\n" + `{"categorizedTransactions":[
				{"date":"2025-01-04","amount":1200,"currency":"INR","merchant":"BigBazaar","type":"expense","category":"Food & Groceries"},
				{"date":"2025-01-06","amount":50000,"currency":"INR","merchant":"Employer","type":"income","category":"Salary & Income"}
			]}` + "\n```",
			analyzerKey: `{
				"monthlySummary":[{"month":"2025-01","income":50000,"expense":1200,"net":48800,"savingsRate":97.6}],
				"issues":[],
				"metrics":{"totalIncome":50000,"totalExpense":1200,"savingsRate":97.6,"topCategories":[],"topMerchants":[]},
				"categorizedExpenses":{"Food & Groceries":1200}
			}`,
			recommenderKey: `{"recommendations":[{"id":"rec1","title":"Automate savings","category":"saving","impact":"high","steps":["Open RD"],"estimatedMonthlySavings":5000}]}`,
			reminderKey:    `{"reminders":[{"id":"rem1","time":"2025-02-01T09:00:00+05:30","text":"Review budget","type":"review","completed":true}]}`,
			chatKey:        "You spent 1200 on groceries.",
		},
	}
}

func sampleFiles() []domain.ParsedFile {
	return []domain.ParsedFile{
		{Filename: "jan.txt", Text: "raw statement text", FileType: "txt", UploadedAt: time.Now()},
	}
}

func TestProcessFilesHappyPath(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemStore()
	llm := happyPathCaller()

	var statuses []domain.ProcessingStatus
	orch := New(domain.UserProfile{Currency: "INR"}, repo, llm,
		WithStatusFunc(func(s domain.ProcessingStatus) { statuses = append(statuses, s) }),
	)

	result, err := orch.ProcessFiles(ctx, sampleFiles())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(result.Transactions))
	}
	if result.Transactions[0].Category != "Food & Groceries" {
		t.Errorf("classifier output not applied: %q", result.Transactions[0].Category)
	}
	if result.Analysis == nil || result.Analysis.Metrics.SavingsRate != 97.6 {
		t.Errorf("analysis missing or wrong: %+v", result.Analysis)
	}
	if result.Analysis.AnalyzedAt.IsZero() {
		t.Error("analysis timestamp not stamped")
	}
	if len(result.Recommendations) != 1 || result.Recommendations[0].ID != "rec1" {
		t.Errorf("unexpected recommendations %+v", result.Recommendations)
	}
	if len(result.Reminders) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(result.Reminders))
	}
	if result.Reminders[0].Completed {
		t.Error("new reminders must start incomplete even if the model says otherwise")
	}
	if len(result.Goals) == 0 {
		t.Error("expected suggested goals on first run")
	}
	if len(result.CategoryDetails) == 0 {
		t.Error("expected category details")
	}

	// One call per remote stage.
	for _, key := range []string{parserKey, classifierKey, analyzerKey, recommenderKey, reminderKey} {
		if llm.count(key) != 1 {
			t.Errorf("stage %q called %d times, want 1", key, llm.count(key))
		}
	}

	// Status stream ends in completion at 100.
	last := statuses[len(statuses)-1]
	if last.Stage != domain.StageCompleted || last.Progress != 100 {
		t.Errorf("final status = %+v", last)
	}
	first := statuses[0]
	if first.Stage != domain.StageParsing || first.Progress != 10 {
		t.Errorf("first status = %+v", first)
	}

	// Everything persisted.
	state, _ := repo.Load(ctx)
	if len(state.Transactions) != 2 {
		t.Errorf("transactions not persisted: %d", len(state.Transactions))
	}
	if state.AnalysisResult == nil {
		t.Error("analysis not persisted")
	}
	if len(state.Reminders) != 1 {
		t.Errorf("reminders not persisted: %d", len(state.Reminders))
	}
	if len(state.Goals) == 0 {
		t.Error("goals not persisted")
	}
}

func TestProcessFilesSkipsFailedFiles(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemStore()

	// Parser succeeds for the first file, returns garbage for the second.
	calls := 0
	llm := happyPathCaller()
	base := llm.responses[parserKey]
	inner := &scriptedCaller{responses: llm.responses}
	wrapper := callerFunc(func(ctx context.Context, system, user string, opts *gemini.CallOptions) (string, error) {
		if strings.Contains(system, parserKey) {
			calls++
			if calls == 2 {
				return "definitely not json", nil
			}
			return base, nil
		}
		return inner.Call(ctx, system, user, opts)
	})

	orch := New(domain.UserProfile{Currency: "INR"}, repo, wrapper)
	files := []domain.ParsedFile{
		{Filename: "good.txt", Text: "ok", FileType: "txt"},
		{Filename: "bad.txt", Text: "broken", FileType: "txt"},
	}

	result, err := orch.ProcessFiles(ctx, files)
	if err != nil {
		t.Fatalf("per-file failure must not abort the run: %v", err)
	}
	if len(result.Transactions) != 2 {
		t.Errorf("expected transactions from the good file only, got %d", len(result.Transactions))
	}
	for _, tx := range result.Transactions {
		if tx.SourceFile != "good.txt" {
			t.Errorf("transaction tagged with wrong source %q", tx.SourceFile)
		}
	}
}

type callerFunc func(ctx context.Context, system, user string, opts *gemini.CallOptions) (string, error)

func (f callerFunc) Call(ctx context.Context, system, user string, opts *gemini.CallOptions) (string, error) {
	return f(ctx, system, user, opts)
}

func TestClassifierFallsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemStore()

	llm := happyPathCaller()
	llm.errors = map[string]error{classifierKey: errors.New("model unavailable")}

	orch := New(domain.UserProfile{Currency: "INR"}, repo, llm)
	result, err := orch.ProcessFiles(ctx, sampleFiles())
	if err != nil {
		t.Fatalf("classifier failure must degrade, not abort: %v", err)
	}
	if len(result.Transactions) != 2 {
		t.Fatalf("expected fallback to parsed transactions, got %d", len(result.Transactions))
	}
	if result.Transactions[0].Category != domain.CategoryUncategorized {
		t.Errorf("fallback transactions should stay uncategorized, got %q", result.Transactions[0].Category)
	}
}

func TestClassifierCannotMutateParsedFields(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemStore()

	// The classifier response echoes neither sourceFile nor rawLine and
	// rewrites an amount; only the category fields may land on the batch.
	llm := happyPathCaller()
	llm.responses[parserKey] = `{"transactions":[
		{"date":"2025-01-04","amount":1200,"currency":"INR","merchant":"BigBazaar","type":"expense","category":"uncategorized","rawLine":"04/01 BIGBAZAAR 1200.00"}
	]}`
	llm.responses[classifierKey] = `{"categorizedTransactions":[
		{"date":"2025-01-04","amount":9999,"currency":"INR","merchant":"BigBazaar","type":"expense","category":"Food & Groceries","confidence":0.9}
	]}`

	orch := New(domain.UserProfile{Currency: "INR"}, repo, llm)
	result, err := orch.ProcessFiles(ctx, sampleFiles())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(result.Transactions))
	}

	tx := result.Transactions[0]
	if tx.Category != "Food & Groceries" {
		t.Errorf("category not applied: %q", tx.Category)
	}
	if tx.Confidence == nil || *tx.Confidence != 0.9 {
		t.Errorf("confidence not applied: %v", tx.Confidence)
	}
	if tx.SourceFile != "jan.txt" {
		t.Errorf("source file lost across classification: %q", tx.SourceFile)
	}
	if tx.RawLine != "04/01 BIGBAZAAR 1200.00" {
		t.Errorf("raw line lost across classification: %q", tx.RawLine)
	}
	if tx.Amount != 1200 {
		t.Errorf("amount changed by the classifier: %v", tx.Amount)
	}
}

func TestClassifierBatchSizeMismatchFallsBack(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemStore()

	// Two transactions in, one comes back. The pairing is unknowable, so the
	// parsed batch stays as is.
	llm := happyPathCaller()
	llm.responses[classifierKey] = `{"categorizedTransactions":[
		{"date":"2025-01-04","amount":1200,"currency":"INR","merchant":"BigBazaar","type":"expense","category":"Food & Groceries"}
	]}`

	orch := New(domain.UserProfile{Currency: "INR"}, repo, llm)
	result, err := orch.ProcessFiles(ctx, sampleFiles())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Transactions) != 2 {
		t.Fatalf("expected the full parsed batch, got %d", len(result.Transactions))
	}
	for _, tx := range result.Transactions {
		if tx.Category != domain.CategoryUncategorized {
			t.Errorf("mismatched batch must stay uncategorized, got %q", tx.Category)
		}
		if tx.SourceFile != "jan.txt" {
			t.Errorf("source file lost: %q", tx.SourceFile)
		}
	}
}

func TestClassifierSkippedWhenNoTransactions(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemStore()

	llm := happyPathCaller()
	llm.responses[parserKey] = `{"transactions":[]}`

	orch := New(domain.UserProfile{Currency: "INR"}, repo, llm)
	if _, err := orch.ProcessFiles(ctx, sampleFiles()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if llm.count(classifierKey) != 0 {
		t.Errorf("classifier called %d times on empty batch, want 0", llm.count(classifierKey))
	}
}

func TestAnalyzerFailureAbortsWithErrorStatus(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemStore()

	llm := happyPathCaller()
	llm.errors = map[string]error{analyzerKey: errors.New("quota exhausted")}

	var statuses []domain.ProcessingStatus
	orch := New(domain.UserProfile{Currency: "INR"}, repo, llm,
		WithStatusFunc(func(s domain.ProcessingStatus) { statuses = append(statuses, s) }),
	)

	_, err := orch.ProcessFiles(ctx, sampleFiles())
	if err == nil {
		t.Fatal("expected analyzer failure to propagate")
	}

	last := statuses[len(statuses)-1]
	if last.Stage != domain.StageError {
		t.Errorf("final status stage = %s, want error", last.Stage)
	}
	if !strings.HasPrefix(last.Message, "Error: ") {
		t.Errorf("error status message = %q", last.Message)
	}

	// Parser output was persisted before the failure.
	state, _ := repo.Load(ctx)
	if len(state.Transactions) != 2 {
		t.Errorf("expected parsed transactions persisted before abort, got %d", len(state.Transactions))
	}
	if state.AnalysisResult != nil {
		t.Error("no analysis should be persisted after analyzer failure")
	}
}

func TestGoalsCreateOnce(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemStore()

	orch := New(domain.UserProfile{Currency: "INR"}, repo, happyPathCaller())
	first, err := orch.ProcessFiles(ctx, sampleFiles())
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Goals) == 0 {
		t.Fatal("first run should create goals")
	}
	firstIDs := make([]string, len(first.Goals))
	for i, g := range first.Goals {
		firstIDs[i] = g.ID
	}

	second, err := orch.ProcessFiles(ctx, sampleFiles())
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Goals) != len(first.Goals) {
		t.Fatalf("second run changed goal count: %d vs %d", len(second.Goals), len(first.Goals))
	}
	for i, g := range second.Goals {
		if g.ID != firstIDs[i] {
			t.Errorf("goal %d regenerated: %s vs %s", i, g.ID, firstIDs[i])
		}
	}
}

func TestAsk(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemStore()
	llm := happyPathCaller()

	orch := New(domain.UserProfile{Currency: "INR"}, repo, llm)
	answer, err := orch.Ask(ctx, "How much did I spend on groceries?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "You spent 1200 on groceries." {
		t.Errorf("answer = %q", answer)
	}

	state, _ := repo.Load(ctx)
	if len(state.ChatHistory) != 2 {
		t.Fatalf("expected 2 chat turns persisted, got %d", len(state.ChatHistory))
	}
	if state.ChatHistory[0].Role != "user" || state.ChatHistory[1].Role != "assistant" {
		t.Errorf("unexpected roles %s/%s", state.ChatHistory[0].Role, state.ChatHistory[1].Role)
	}
}

func TestAskFailurePersistsNothing(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemStore()

	llm := happyPathCaller()
	llm.errors = map[string]error{chatKey: errors.New("model offline")}

	orch := New(domain.UserProfile{Currency: "INR"}, repo, llm)
	if _, err := orch.Ask(ctx, "anything"); err == nil {
		t.Fatal("expected error")
	}

	state, _ := repo.Load(ctx)
	if len(state.ChatHistory) != 0 {
		t.Errorf("failed chat must not be persisted, got %d turns", len(state.ChatHistory))
	}
}
