// Package prompts builds the system/user prompt pairs for every agent stage.
// Each builder is a pure function of its inputs; the system prompt states the
// expected JSON schema in natural language and every JSON-returning template
// demands "ONLY valid JSON" because the gateway parser tolerates nothing but
// one optional code fence around the payload.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tejuiceB/finSight/internal/domain"
)

// Prompt is one system/user pair ready for the gateway.
type Prompt struct {
	System string
	User   string
}

// Input truncation bounds. Inputs are clipped to stay inside model context
// limits; the numbers match what the analysis quality was tuned against.
const (
	maxFileTextChars        = 2000
	maxTransactionsEmbedded = 100
	maxReminderTransactions = 50
	maxChatTransactions     = 10
)

// Parser builds the parse-stage prompt: raw statement text in, transaction
// batch out.
func Parser(fileText, filename, fileType string) Prompt {
	var b strings.Builder
	b.WriteString("You are the Parser Agent. Extract financial transaction data from text.\n\n")
	b.WriteString("Your task:\n")
	b.WriteString("- Extract transaction-like entries (date, amount, merchant, description)\n")
	b.WriteString("- Standardize dates to YYYY-MM-DD format\n")
	b.WriteString("- Standardize amounts as positive numbers\n")
	b.WriteString("- Identify transaction type hints (income/expense keywords)\n")
	b.WriteString("- Handle multiple formats and layouts\n\n")
	b.WriteString("Return ONLY valid JSON:\n")
	b.WriteString(`{
  "transactions": [
    {
      "date": "YYYY-MM-DD",
      "amount": 123.45,
      "currency": "INR",
      "merchant": "merchant name",
      "type": "expense|income|transfer",
      "category": "initial guess or 'uncategorized'",
      "rawLine": "original text"
    }
  ],
  "summary": {
    "totalTransactions": 0,
    "dateRange": { "start": "YYYY-MM-DD", "end": "YYYY-MM-DD" },
    "fileProcessed": "filename"
  }
}`)
	b.WriteString("\n\nNO explanations. ONLY JSON.")

	user := fmt.Sprintf("File: %s\nType: %s\n\nContent (first %d chars):\n%s\n\nExtract all transactions from this financial document.",
		filename, fileType, maxFileTextChars, truncate(fileText, maxFileTextChars))

	return Prompt{System: b.String(), User: user}
}

// Classifier builds the classify-stage prompt over a transaction batch.
func Classifier(transactions []domain.Transaction) Prompt {
	var b strings.Builder
	b.WriteString("You are the Classifier Agent. Categorize financial transactions accurately.\n\n")
	b.WriteString("Categories to use:\n")
	for _, c := range Categories {
		b.WriteString("- " + c + "\n")
	}
	b.WriteString("\nReturn ONLY valid JSON:\n")
	b.WriteString(`{
  "categorizedTransactions": [
    {
      "date": "YYYY-MM-DD",
      "amount": 123.45,
      "currency": "INR",
      "merchant": "name",
      "type": "expense|income|transfer",
      "category": "category from list above",
      "isRecurring": true,
      "confidence": 0.95
    }
  ],
  "categoryTotals": {
    "Food & Groceries": 12345.67
  },
  "recurringPatterns": [
    {
      "merchant": "Netflix",
      "amount": 199,
      "frequency": "monthly",
      "category": "Entertainment & Subscriptions"
    }
  ]
}`)
	b.WriteString("\n\nNO explanatory text. ONLY JSON.")

	user := fmt.Sprintf("Transactions to categorize:\n%s\n\nCategorize these transactions and identify recurring patterns.",
		marshalTransactions(transactions, maxTransactionsEmbedded))

	return Prompt{System: b.String(), User: user}
}

// Categories is the classifier's closed taxonomy.
var Categories = []string{
	"Food & Groceries",
	"Dining & Restaurants",
	"Transportation & Travel",
	"Shopping & Retail",
	"Entertainment & Subscriptions",
	"Bills & Utilities",
	"Healthcare & Medical",
	"Education",
	"EMI & Loans",
	"Salary & Income",
	"Freelance & Side Income",
	"Investments & Savings",
	"Transfers",
	"Others",
}

// Analyzer builds the analyze-stage prompt over the full transaction batch
// and the user profile.
func Analyzer(transactions []domain.Transaction, profile domain.UserProfile) Prompt {
	var b strings.Builder
	b.WriteString("You are the Analyzer Agent. Perform comprehensive financial analysis.\n\n")
	b.WriteString("Analyze:\n")
	b.WriteString("1. Monthly income vs expenses (calculate net cashflow and savings rate)\n")
	b.WriteString("2. Spending trends across categories\n")
	b.WriteString("3. Top merchants by spending\n")
	b.WriteString("4. Cash flow risks (months with negative balance, low reserves)\n")
	b.WriteString("5. Debt/EMI burden (if EMI > 40% of income = high risk)\n")
	b.WriteString("6. Unusual spending patterns or anomalies\n")
	b.WriteString("7. Subscription waste (unused services)\n")
	b.WriteString("8. Opportunity areas for savings\n\n")
	b.WriteString("All savings rates are percentages on a 0-100 scale.\n\n")
	b.WriteString("Return ONLY valid JSON:\n")
	b.WriteString(`{
  "monthlySummary": [
    {
      "month": "YYYY-MM",
      "income": 50000,
      "expense": 35000,
      "net": 15000,
      "savingsRate": 30.0
    }
  ],
  "issues": [
    {
      "id": "unique_id",
      "severity": "low|medium|high",
      "category": "overspending|subscription|debt|cashflow|irregular_income",
      "description": "detailed issue description",
      "recommendation": "brief fix suggestion"
    }
  ],
  "metrics": {
    "totalIncome": 150000,
    "totalExpense": 105000,
    "savingsRate": 30.0,
    "topCategories": [{"category": "Food", "amount": 15000}],
    "topMerchants": [{"merchant": "Swiggy", "amount": 8500}]
  },
  "categorizedExpenses": {
    "Food & Groceries": 15000
  }
}`)
	b.WriteString("\n\nNO extra text. ONLY JSON.")

	var u strings.Builder
	fmt.Fprintf(&u, "User Currency: %s\n", profile.Currency)
	if profile.MonthlyGoal > 0 {
		fmt.Fprintf(&u, "Monthly Goal: %.2f\n", profile.MonthlyGoal)
	}
	fmt.Fprintf(&u, "\nTransactions (%d total):\n%s\n\n", len(transactions),
		marshalTransactions(transactions, maxTransactionsEmbedded))
	u.WriteString("Perform comprehensive financial analysis and identify all risks and opportunities.")

	return Prompt{System: b.String(), User: u.String()}
}

// Recommender builds the recommend-stage prompt over the analysis result.
func Recommender(analysis *domain.AnalysisResult, profile domain.UserProfile) Prompt {
	var b strings.Builder
	b.WriteString("You are the Recommendation Agent. Create SMART, actionable financial recommendations.\n\n")
	b.WriteString("Each recommendation must be:\n")
	b.WriteString("- Specific (exact actions)\n")
	b.WriteString("- Measurable (quantified impact)\n")
	b.WriteString("- Achievable (realistic for user)\n")
	b.WriteString("- Relevant (high ROI)\n")
	b.WriteString("- Time-bound (clear timeline)\n\n")
	b.WriteString("Return ONLY valid JSON:\n")
	b.WriteString(`{
  "recommendations": [
    {
      "id": "unique_id",
      "title": "short actionable title",
      "category": "saving|budgeting|debt|income|subscription",
      "impact": "low|medium|high",
      "steps": [
        "Step 1: specific action",
        "Step 2: specific action"
      ],
      "estimatedMonthlySavings": 1200
    }
  ]
}`)
	b.WriteString("\n\nNO extra text. ONLY JSON.")

	user := fmt.Sprintf("User Profile: %s\n\nAnalysis Results:\n%s\n\nGenerate top 5-7 personalized, high-impact recommendations with clear action steps.",
		marshalJSON(profile), marshalJSON(analysis))

	return Prompt{System: b.String(), User: user}
}

// Reminders builds the reminder-stage prompt over the recommendations and
// recent transactions.
func Reminders(recommendations []domain.Recommendation, transactions []domain.Transaction) Prompt {
	var b strings.Builder
	b.WriteString("You are the Reminder Agent. Create timely, actionable financial reminders.\n\n")
	b.WriteString("Reminder types:\n")
	b.WriteString("- Bill payments (detect due dates from transaction history)\n")
	b.WriteString("- Savings transfers (weekly/monthly)\n")
	b.WriteString("- Subscription renewals\n")
	b.WriteString("- Budget reviews\n")
	b.WriteString("- Spending alerts\n\n")
	b.WriteString("Return ONLY valid JSON:\n")
	b.WriteString(`{
  "reminders": [
    {
      "id": "unique_id",
      "time": "ISO 8601 datetime (e.g. 2025-12-01T09:00:00+05:30)",
      "text": "short reminder text",
      "type": "bill|saving|subscription|review|custom"
    }
  ]
}`)
	b.WriteString("\n\nCreate reminders for the next 30 days based on patterns and recommendations. NO extra text. ONLY JSON.")

	user := fmt.Sprintf("Recommendations: %s\n\nRecent Transactions (for pattern detection):\n%s\n\nCreate smart reminders for the next 30 days.",
		marshalJSON(recommendations), marshalTransactions(transactions, maxReminderTransactions))

	return Prompt{System: b.String(), User: user}
}

// ChatContext is the state summary given to the conversational agent.
type ChatContext struct {
	Profile         domain.UserProfile
	Transactions    []domain.Transaction
	Analysis        *domain.AnalysisResult
	Recommendations []domain.Recommendation
}

// Chat builds the conversational prompt. This is the one template whose
// response is prose, not JSON.
func Chat(question string, ctx ChatContext) Prompt {
	var b strings.Builder
	b.WriteString("You are finSight Chat Assistant. Answer user questions about their finances based on their data.\n\n")
	b.WriteString("Guidelines:\n")
	b.WriteString("- Be concise and actionable\n")
	b.WriteString("- Use specific numbers from their data\n")
	b.WriteString("- Reference actual transactions when relevant\n")
	b.WriteString("- Suggest concrete next steps\n")
	b.WriteString("- Be encouraging and supportive\n")
	b.WriteString("- Maintain privacy (never expose raw transaction details unless asked)\n\n")
	b.WriteString("Return a natural conversational response (NOT JSON for this agent).")

	var u strings.Builder
	fmt.Fprintf(&u, "User Question: %q\n\n", question)
	u.WriteString("Context:\n")
	fmt.Fprintf(&u, "- Currency: %s\n", ctx.Profile.Currency)
	fmt.Fprintf(&u, "- Total Transactions: %d\n", len(ctx.Transactions))
	if ctx.Analysis != nil {
		fmt.Fprintf(&u, "- Savings Rate: %.1f%%\n", ctx.Analysis.Metrics.SavingsRate)
	}
	if len(ctx.Recommendations) > 0 {
		fmt.Fprintf(&u, "- Active Recommendations: %d\n", len(ctx.Recommendations))
	}
	fmt.Fprintf(&u, "\nRecent Transactions (last %d):\n%s\n\n", maxChatTransactions,
		marshalJSON(lastN(ctx.Transactions, maxChatTransactions)))
	u.WriteString("Answer the user's question based on their actual financial data.")

	return Prompt{System: b.String(), User: u.String()}
}

// truncate cuts s to at most max bytes without splitting a multi-byte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func marshalTransactions(txs []domain.Transaction, max int) string {
	if len(txs) > max {
		txs = txs[:max]
	}
	return marshalJSON(txs)
}

func lastN(txs []domain.Transaction, n int) []domain.Transaction {
	if len(txs) > n {
		return txs[len(txs)-n:]
	}
	return txs
}

func marshalJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}
