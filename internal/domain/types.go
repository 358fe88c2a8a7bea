package domain

import "time"

// Transaction is one normalized transaction extracted from a statement.
// Dates stay in YYYY-MM-DD string form because they are produced and consumed
// by LLM JSON contracts; Amount is a non-negative magnitude with Type carrying
// the direction.
type Transaction struct {
	Date     string          `json:"date"`
	Amount   float64         `json:"amount"`
	Currency string          `json:"currency"`
	Merchant string          `json:"merchant"`
	Type     TransactionType `json:"type"`
	Category string          `json:"category"`

	RawLine    string `json:"rawLine,omitempty"`
	SourceFile string `json:"sourceFile,omitempty"`

	// Set by the classifier stage, absent until then.
	IsRecurring *bool    `json:"isRecurring,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
}

// TransactionType discriminates money direction.
type TransactionType string

const (
	TypeExpense  TransactionType = "expense"
	TypeIncome   TransactionType = "income"
	TypeTransfer TransactionType = "transfer"
)

// CategoryUncategorized is the category assigned before classification.
const CategoryUncategorized = "uncategorized"

// ParsedFile is the raw-text form of an uploaded statement.
type ParsedFile struct {
	Filename   string    `json:"filename"`
	Text       string    `json:"text"`
	FileType   string    `json:"fileType"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// UserProfile holds per-user preferences fed into prompts.
type UserProfile struct {
	Name        string    `json:"name,omitempty"`
	Timezone    string    `json:"timezone"`
	Currency    string    `json:"currency"`
	MonthlyGoal float64   `json:"monthlyGoal,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MonthlySummary is one month of the analyzer's cashflow breakdown.
type MonthlySummary struct {
	Month       string  `json:"month"` // YYYY-MM
	Income      float64 `json:"income"`
	Expense     float64 `json:"expense"`
	Net         float64 `json:"net"`
	SavingsRate float64 `json:"savingsRate"` // percent, 0-100
}

// Issue is one problem surfaced by the analyzer.
type Issue struct {
	ID             string `json:"id"`
	Severity       string `json:"severity"` // low|medium|high
	Category       string `json:"category"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation,omitempty"`
}

// CategoryAmount and MerchantAmount are the analyzer's top-N entries.
type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

type MerchantAmount struct {
	Merchant string  `json:"merchant"`
	Amount   float64 `json:"amount"`
}

// Metrics are the analyzer's whole-period aggregates.
type Metrics struct {
	TotalIncome   float64          `json:"totalIncome"`
	TotalExpense  float64          `json:"totalExpense"`
	SavingsRate   float64          `json:"savingsRate"` // percent, 0-100
	TopCategories []CategoryAmount `json:"topCategories"`
	TopMerchants  []MerchantAmount `json:"topMerchants"`
}

// AnalysisResult is the analyzer stage's output, overwritten wholesale on
// each successful run.
type AnalysisResult struct {
	MonthlySummary      []MonthlySummary   `json:"monthlySummary"`
	Issues              []Issue            `json:"issues"`
	Metrics             Metrics            `json:"metrics"`
	CategorizedExpenses map[string]float64 `json:"categorizedExpenses"`
	AnalyzedAt          time.Time          `json:"analyzedAt"`
}

// Recommendation is one actionable suggestion from the recommender stage.
// The list is replaced entirely each run.
type Recommendation struct {
	ID                      string   `json:"id"`
	Title                   string   `json:"title"`
	Category                string   `json:"category"`
	Steps                   []string `json:"steps"`
	Impact                  string   `json:"impact"` // low|medium|high
	EstimatedMonthlySavings float64  `json:"estimatedMonthlySavings,omitempty"`
}

// Reminder is a scheduled nudge. Reminders accumulate across runs and are the
// only entity the user mutates afterwards (toggle, delete).
type Reminder struct {
	ID        string `json:"id"`
	Time      string `json:"time"` // ISO 8601, as emitted by the model
	Text      string `json:"text"`
	Type      string `json:"type"` // bill|saving|subscription|review|custom
	Completed bool   `json:"completed"`
}

// RiskAlert is a locally derived warning, recomputed every run.
type RiskAlert struct {
	ID               string    `json:"id"`
	Type             string    `json:"type"` // overspending|subscription|irregular-income|high-emi|low-balance
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Severity         string    `json:"severity"` // low|medium|high|critical
	AffectedAmount   float64   `json:"affectedAmount,omitempty"`
	AffectedCategory string    `json:"affectedCategory,omitempty"`
	DetectedAt       time.Time `json:"detectedAt"`
	ActionItems      []string  `json:"actionItems"`
}

// BehavioralTrend is a locally derived spending pattern.
type BehavioralTrend struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"` // weekend-overspending|impulse-shopping|subscription-creep|seasonal-spike|recurring-pattern
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Frequency     string  `json:"frequency"`
	AverageAmount float64 `json:"averageAmount"`
	Occurrences   int     `json:"occurrences"`
	Suggestion    string  `json:"suggestion"`
	Severity      string  `json:"severity"` // low|medium|high
}

// InsightTags is the per-transaction annotation block.
type InsightTags struct {
	IsRecurring        bool     `json:"isRecurring"`
	RecurringFrequency string   `json:"recurringFrequency,omitempty"`
	IsLargePurchase    bool     `json:"isLargePurchase"`
	IsUnusual          bool     `json:"isUnusual"`
	MerchantCategory   string   `json:"merchantCategory,omitempty"`
	Tags               []string `json:"tags"`
}

// TransactionInsight couples a transaction with its derived tags.
type TransactionInsight struct {
	TransactionID string      `json:"transactionId"`
	Transaction   Transaction `json:"transaction"`
	Insights      InsightTags `json:"insights"`
}

// MerchantStat is one merchant's share of a category.
type MerchantStat struct {
	Merchant string  `json:"merchant"`
	Amount   float64 `json:"amount"`
	Count    int     `json:"count"`
}

// DatedAmount is a (date, amount) point for spend-over-time views.
type DatedAmount struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// EssentialSplit divides a category total into essential and non-essential
// spend; exactly one side is non-zero for any given category.
type EssentialSplit struct {
	Essential    float64 `json:"essential"`
	NonEssential float64 `json:"nonEssential"`
}

// CategoryDetail is a per-category expense deep dive, recomputed every run.
type CategoryDetail struct {
	Category          string         `json:"category"`
	TotalAmount       float64        `json:"totalAmount"`
	TransactionCount  int            `json:"transactionCount"`
	MerchantBreakdown []MerchantStat `json:"merchantBreakdown"`
	DatePattern       []DatedAmount  `json:"datePattern"`
	EssentialSplit    EssentialSplit `json:"essentialVsNonEssential"`
}

// FinancialGoal is a create-once savings target: generated only when no goals
// are stored, then persisted indefinitely.
type FinancialGoal struct {
	ID                      string    `json:"id"`
	Title                   string    `json:"title"`
	TargetAmount            float64   `json:"targetAmount"`
	CurrentAmount           float64   `json:"currentAmount"`
	Deadline                time.Time `json:"deadline"`
	Category                string    `json:"category"` // savings|emergency-fund|debt-clearance|investment|custom
	CreatedAt               time.Time `json:"createdAt"`
	Status                  string    `json:"status"` // on-track|at-risk|completed|overdue
	WeeklyTarget            float64   `json:"weeklyTarget,omitempty"`
	PredictedCompletionDate string    `json:"predictedCompletionDate,omitempty"`
}

// ChatMessage is one turn of the conversational assistant.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // user|assistant
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Settings are user-adjustable toggles.
type Settings struct {
	AutoProcess     bool   `json:"autoProcess"`
	EnableReminders bool   `json:"enableReminders"`
	PrivacyMode     string `json:"privacyMode"` // browser-only|server-allowed
}

// AppState is the aggregate root: the whole application state as one
// persisted JSON document. Reads and writes are whole-object, last-write-wins.
type AppState struct {
	UserProfile         UserProfile          `json:"userProfile"`
	ParsedFiles         []ParsedFile         `json:"parsedFiles"`
	Transactions        []Transaction        `json:"transactions"`
	AnalysisResult      *AnalysisResult      `json:"analysisResult,omitempty"`
	Recommendations     []Recommendation     `json:"recommendations"`
	Reminders           []Reminder           `json:"reminders"`
	Goals               []FinancialGoal      `json:"goals"`
	Risks               []RiskAlert          `json:"risks"`
	BehavioralTrends    []BehavioralTrend    `json:"behavioralTrends"`
	TransactionInsights []TransactionInsight `json:"transactionInsights"`
	CategoryDetails     []CategoryDetail     `json:"categoryDetails"`
	ChatHistory         []ChatMessage        `json:"chatHistory"`
	Settings            Settings             `json:"settings"`
	LastUpdated         time.Time            `json:"lastUpdated"`
}

// Stage is one step of the processing state machine.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageParsing      Stage = "parsing"
	StageClassifying  Stage = "classifying"
	StageAnalyzing    Stage = "analyzing"
	StageRecommending Stage = "recommending"
	StageCompleted    Stage = "completed"
	StageError        Stage = "error"
)

// ProcessingStatus is the externally observable progress signal, emitted
// after every stage transition.
type ProcessingStatus struct {
	Stage       Stage  `json:"stage"`
	Progress    int    `json:"progress"` // 0-100
	Message     string `json:"message"`
	CurrentTask string `json:"currentTask,omitempty"`
}
