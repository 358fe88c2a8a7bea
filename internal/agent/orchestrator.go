// Package agent sequences the multi-stage analysis pipeline: parse →
// classify → analyze → recommend → remind, followed by the local insight
// generators and the create-once goal projection. Each remote stage is one
// prompt-templated Gemini call; stages run strictly in order with exactly one
// call in flight at a time.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tejuiceB/finSight/internal/domain"
	"github.com/tejuiceB/finSight/internal/gemini"
	"github.com/tejuiceB/finSight/internal/insights"
	"github.com/tejuiceB/finSight/internal/prompts"
	"github.com/tejuiceB/finSight/internal/store"
)

// StatusFunc receives a ProcessingStatus after every stage transition. It is
// invoked synchronously from the pipeline goroutine.
type StatusFunc func(domain.ProcessingStatus)

// Orchestrator drives one processing run over a set of parsed files.
// Concurrent runs against the same repository are not synchronized; the
// persisted document is last-write-wins.
type Orchestrator struct {
	profile  domain.UserProfile
	repo     store.Repository
	llm      gemini.Caller
	log      zerolog.Logger
	statusFn StatusFunc
	events   chan domain.ProcessingStatus
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStatusFunc installs a synchronous status callback.
func WithStatusFunc(fn StatusFunc) Option {
	return func(o *Orchestrator) { o.statusFn = fn }
}

// WithLogger replaces the default logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator for the given profile, repository and gateway.
func New(profile domain.UserProfile, repo store.Repository, llm gemini.Caller, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		profile: profile,
		repo:    repo,
		llm:     llm,
		log:     zerolog.Nop(),
		events:  make(chan domain.ProcessingStatus, 32),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Events is a one-way stream of status updates. Sends never block: when the
// buffer is full the oldest consumers simply miss intermediate updates.
func (o *Orchestrator) Events() <-chan domain.ProcessingStatus {
	return o.events
}

func (o *Orchestrator) emit(status domain.ProcessingStatus) {
	if o.statusFn != nil {
		o.statusFn(status)
	}
	select {
	case o.events <- status:
	default:
	}
}

// Result bundles everything a processing run produced.
type Result struct {
	Transactions        []domain.Transaction
	Analysis            *domain.AnalysisResult
	Recommendations     []domain.Recommendation
	Reminders           []domain.Reminder
	Risks               []domain.RiskAlert
	BehavioralTrends    []domain.BehavioralTrend
	TransactionInsights []domain.TransactionInsight
	CategoryDetails     []domain.CategoryDetail
	Goals               []domain.FinancialGoal
}

// ProcessFiles runs the whole pipeline over the given files. Per-file parse
// failures and classification failures degrade gracefully; analyzer,
// recommender and reminder failures abort the run, leaving whatever was
// persisted up to that point intact.
func (o *Orchestrator) ProcessFiles(ctx context.Context, files []domain.ParsedFile) (*Result, error) {
	result, err := o.processFiles(ctx, files)
	if err != nil {
		o.emit(domain.ProcessingStatus{
			Stage:    domain.StageError,
			Progress: 0,
			Message:  "Error: " + err.Error(),
		})
		return nil, err
	}

	o.emit(domain.ProcessingStatus{
		Stage:    domain.StageCompleted,
		Progress: 100,
		Message:  "Analysis complete!",
	})
	return result, nil
}

func (o *Orchestrator) processFiles(ctx context.Context, files []domain.ParsedFile) (*Result, error) {
	o.emit(domain.ProcessingStatus{
		Stage:       domain.StageParsing,
		Progress:    10,
		Message:     "Extracting transactions from files...",
		CurrentTask: "Parser Agent",
	})
	transactions := o.runParserAgent(ctx, files)

	o.emit(domain.ProcessingStatus{
		Stage:       domain.StageClassifying,
		Progress:    30,
		Message:     "Categorizing transactions...",
		CurrentTask: "Classifier Agent",
	})
	transactions = o.runClassifierAgent(ctx, transactions)

	o.emit(domain.ProcessingStatus{
		Stage:       domain.StageAnalyzing,
		Progress:    60,
		Message:     "Analyzing spending patterns and risks...",
		CurrentTask: "Analyzer Agent",
	})
	analysis, err := o.runAnalyzerAgent(ctx, transactions)
	if err != nil {
		return nil, err
	}

	o.emit(domain.ProcessingStatus{
		Stage:       domain.StageRecommending,
		Progress:    80,
		Message:     "Creating personalized recommendations...",
		CurrentTask: "Recommender Agent",
	})
	recommendations, err := o.runRecommenderAgent(ctx, analysis)
	if err != nil {
		return nil, err
	}

	o.emit(domain.ProcessingStatus{
		Stage:       domain.StageRecommending,
		Progress:    90,
		Message:     "Setting up smart reminders...",
		CurrentTask: "Reminder Agent",
	})
	reminders, err := o.runReminderAgent(ctx, recommendations, transactions)
	if err != nil {
		return nil, err
	}

	o.emit(domain.ProcessingStatus{
		Stage:       domain.StageAnalyzing,
		Progress:    95,
		Message:     "Generating insights and trends...",
		CurrentTask: "Insight Generation",
	})
	risks := insights.DetectRisks(analysis)
	trends := insights.DetectTrends(transactions)
	txInsights := insights.TagTransactions(transactions)
	categoryDetails := insights.CategoryDetails(transactions)
	goals, err := o.loadOrCreateGoals(ctx, analysis, transactions)
	if err != nil {
		return nil, err
	}

	if err := store.SaveAnalysis(ctx, o.repo, analysis); err != nil {
		return nil, fmt.Errorf("persist analysis: %w", err)
	}
	if err := store.SaveRecommendations(ctx, o.repo, recommendations); err != nil {
		return nil, fmt.Errorf("persist recommendations: %w", err)
	}
	if err := store.AddReminders(ctx, o.repo, reminders); err != nil {
		return nil, fmt.Errorf("persist reminders: %w", err)
	}

	state, err := o.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	state.Risks = risks
	state.BehavioralTrends = trends
	state.TransactionInsights = txInsights
	state.CategoryDetails = categoryDetails
	state.Goals = goals
	if err := o.repo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("persist insights: %w", err)
	}

	return &Result{
		Transactions:        transactions,
		Analysis:            analysis,
		Recommendations:     recommendations,
		Reminders:           reminders,
		Risks:               risks,
		BehavioralTrends:    trends,
		TransactionInsights: txInsights,
		CategoryDetails:     categoryDetails,
		Goals:               goals,
	}, nil
}

// parseResponse is the parser agent's JSON contract.
type parseResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
}

// runParserAgent extracts transactions from each file independently. One bad
// file is logged and skipped; the stage never aborts the run. Each successful
// batch is persisted immediately.
func (o *Orchestrator) runParserAgent(ctx context.Context, files []domain.ParsedFile) []domain.Transaction {
	var all []domain.Transaction

	for _, file := range files {
		prompt := prompts.Parser(file.Text, file.Filename, file.FileType)
		resp, err := o.llm.Call(ctx, prompt.System, prompt.User, &gemini.CallOptions{
			MaxTokens:   4096,
			Temperature: 0.1,
		})
		if err != nil {
			o.log.Error().Err(err).Str("file", file.Filename).Msg("Parser agent call failed, skipping file")
			continue
		}

		var parsed parseResponse
		if err := gemini.ParseJSON(resp, &parsed); err != nil {
			o.log.Error().Err(err).Str("file", file.Filename).Str("raw", resp).
				Msg("Parser agent returned unparsable JSON, skipping file")
			continue
		}

		batch := parsed.Transactions
		for i := range batch {
			batch[i].SourceFile = file.Filename
		}
		all = append(all, batch...)

		if err := store.AddTransactions(ctx, o.repo, batch); err != nil {
			o.log.Error().Err(err).Str("file", file.Filename).Msg("Failed to persist transaction batch")
		}
	}

	return all
}

// classifyResponse is the classifier agent's JSON contract.
type classifyResponse struct {
	CategorizedTransactions []domain.Transaction `json:"categorizedTransactions"`
}

// runClassifierAgent categorizes the batch. An empty batch skips the gateway
// entirely; any failure falls back to the uncategorized input. The model's
// output only ever reassigns category fields: everything else on a parsed
// transaction is immutable, so the response is merged onto the input rather
// than trusted wholesale.
func (o *Orchestrator) runClassifierAgent(ctx context.Context, transactions []domain.Transaction) []domain.Transaction {
	if len(transactions) == 0 {
		return []domain.Transaction{}
	}

	prompt := prompts.Classifier(transactions)
	resp, err := o.llm.Call(ctx, prompt.System, prompt.User, &gemini.CallOptions{
		MaxTokens:   4096,
		Temperature: 0.2,
	})
	if err != nil {
		o.log.Error().Err(err).Msg("Classifier agent call failed, keeping uncategorized transactions")
		return transactions
	}

	var classified classifyResponse
	if err := gemini.ParseJSON(resp, &classified); err != nil {
		o.log.Error().Err(err).Str("raw", resp).
			Msg("Classifier agent returned unparsable JSON, keeping uncategorized transactions")
		return transactions
	}

	if len(classified.CategorizedTransactions) != len(transactions) {
		o.log.Error().
			Int("sent", len(transactions)).
			Int("received", len(classified.CategorizedTransactions)).
			Msg("Classifier agent changed the batch size, keeping uncategorized transactions")
		return transactions
	}
	return mergeCategories(transactions, classified.CategorizedTransactions)
}

// mergeCategories copies the classifier's category assignment onto the parsed
// batch by position. Source file, raw line and amounts always come from the
// parsed side; the model frequently drops fields it was not asked to echo.
func mergeCategories(parsed, classified []domain.Transaction) []domain.Transaction {
	for i := range parsed {
		parsed[i].Category = classified[i].Category
		parsed[i].IsRecurring = classified[i].IsRecurring
		parsed[i].Confidence = classified[i].Confidence
	}
	return parsed
}

// runAnalyzerAgent performs the single whole-batch analysis call. There is no
// fallback: downstream stages cannot proceed without an analysis result.
func (o *Orchestrator) runAnalyzerAgent(ctx context.Context, transactions []domain.Transaction) (*domain.AnalysisResult, error) {
	prompt := prompts.Analyzer(transactions, o.profile)
	resp, err := o.llm.Call(ctx, prompt.System, prompt.User, &gemini.CallOptions{
		MaxTokens:   4096,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("analyzer agent: %w", err)
	}

	var analysis domain.AnalysisResult
	if err := gemini.ParseJSON(resp, &analysis); err != nil {
		o.log.Error().Str("raw", resp).Msg("Analyzer agent returned unparsable JSON")
		return nil, fmt.Errorf("analyzer agent: %w", err)
	}

	analysis.AnalyzedAt = o.now()
	return &analysis, nil
}

// recommendResponse is the recommender agent's JSON contract.
type recommendResponse struct {
	Recommendations []domain.Recommendation `json:"recommendations"`
}

func (o *Orchestrator) runRecommenderAgent(ctx context.Context, analysis *domain.AnalysisResult) ([]domain.Recommendation, error) {
	prompt := prompts.Recommender(analysis, o.profile)
	resp, err := o.llm.Call(ctx, prompt.System, prompt.User, &gemini.CallOptions{
		MaxTokens:   3072,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("recommender agent: %w", err)
	}

	var result recommendResponse
	if err := gemini.ParseJSON(resp, &result); err != nil {
		o.log.Error().Str("raw", resp).Msg("Recommender agent returned unparsable JSON")
		return nil, fmt.Errorf("recommender agent: %w", err)
	}
	return result.Recommendations, nil
}

// reminderResponse is the reminder agent's JSON contract.
type reminderResponse struct {
	Reminders []domain.Reminder `json:"reminders"`
}

// runReminderAgent creates reminders from the recommendations and recent
// transactions. Every returned reminder is normalized to incomplete.
func (o *Orchestrator) runReminderAgent(ctx context.Context, recommendations []domain.Recommendation, transactions []domain.Transaction) ([]domain.Reminder, error) {
	prompt := prompts.Reminders(recommendations, transactions)
	resp, err := o.llm.Call(ctx, prompt.System, prompt.User, &gemini.CallOptions{
		MaxTokens:   2048,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("reminder agent: %w", err)
	}

	var result reminderResponse
	if err := gemini.ParseJSON(resp, &result); err != nil {
		o.log.Error().Str("raw", resp).Msg("Reminder agent returned unparsable JSON")
		return nil, fmt.Errorf("reminder agent: %w", err)
	}

	for i := range result.Reminders {
		result.Reminders[i].Completed = false
	}
	return result.Reminders, nil
}

// loadOrCreateGoals returns the stored goals, generating suggestions only
// when none exist yet. Projection is keyed on list emptiness, so a user who
// deletes every goal gets a fresh set on the next run.
func (o *Orchestrator) loadOrCreateGoals(ctx context.Context, analysis *domain.AnalysisResult, transactions []domain.Transaction) ([]domain.FinancialGoal, error) {
	state, err := o.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}
	if len(state.Goals) > 0 {
		return state.Goals, nil
	}
	return insights.SuggestGoals(analysis, transactions, o.now()), nil
}
