package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tejuiceB/finSight/internal/domain"
	"github.com/tejuiceB/finSight/internal/gemini"
	"github.com/tejuiceB/finSight/internal/prompts"
	"github.com/tejuiceB/finSight/internal/store"
)

// Ask answers a free-text question from the stored financial data. The
// response is prose, not JSON. Both turns are appended to the chat history.
func (o *Orchestrator) Ask(ctx context.Context, question string) (string, error) {
	state, err := o.repo.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("chat agent: load state: %w", err)
	}

	prompt := prompts.Chat(question, prompts.ChatContext{
		Profile:         state.UserProfile,
		Transactions:    state.Transactions,
		Analysis:        state.AnalysisResult,
		Recommendations: state.Recommendations,
	})

	answer, err := o.llm.Call(ctx, prompt.System, prompt.User, &gemini.CallOptions{
		MaxTokens:   1024,
		Temperature: 0.4,
	})
	if err != nil {
		return "", fmt.Errorf("chat agent: %w", err)
	}

	now := o.now()
	err = store.AddChatMessages(ctx, o.repo,
		domain.ChatMessage{ID: uuid.NewString(), Role: "user", Content: question, Timestamp: now},
		domain.ChatMessage{ID: uuid.NewString(), Role: "assistant", Content: answer, Timestamp: now},
	)
	if err != nil {
		o.log.Error().Err(err).Msg("Failed to persist chat history")
	}

	return answer, nil
}
