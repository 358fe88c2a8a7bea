package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Generator calls the Gemini API directly through the official SDK. It runs
// server-side only, so the API key never reaches clients; remote callers go
// through Client and the proxy handler instead.
type Generator struct {
	model string
}

// NewGenerator creates a native gateway using the given default model. The
// SDK reads GEMINI_API_KEY from the environment.
func NewGenerator(model string) *Generator {
	if model == "" {
		model = DefaultModel
	}
	return &Generator{model: model}
}

// Call implements Caller against the Gemini API.
func (g *Generator) Call(ctx context.Context, systemPrompt, userPrompt string, opts *CallOptions) (string, error) {
	text, _, err := g.CallWithUsage(ctx, systemPrompt, userPrompt, opts)
	return text, err
}

// CallWithUsage is Call plus token accounting for the proxy envelope. The
// system prompt is prepended to the user prompt as a single user turn.
func (g *Generator) CallWithUsage(ctx context.Context, systemPrompt, userPrompt string, opts *CallOptions) (string, *Usage, error) {
	model := g.model
	maxTokens := 2048
	temperature := 0.1
	if opts != nil {
		if opts.Model != "" {
			model = opts.Model
		}
		if opts.MaxTokens > 0 {
			maxTokens = opts.MaxTokens
		}
		if opts.Temperature > 0 {
			temperature = opts.Temperature
		}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", nil, fmt.Errorf("gemini: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: systemPrompt + "\n\n" + userPrompt},
			},
		},
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(temperature)),
		MaxOutputTokens: int32(maxTokens),
		TopP:            genai.Ptr(float32(0.95)),
		TopK:            genai.Ptr(float32(40)),
	}

	resp, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", nil, fmt.Errorf("gemini: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", nil, &APIError{Body: "empty response from model"}
	}

	usage := &Usage{}
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return text, usage, nil
}
