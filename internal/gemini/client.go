package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultModel is the Gemini model used when the caller does not override it.
const DefaultModel = "gemini-2.0-flash-exp"

// CallOptions tune a single model call. Zero values fall back to defaults.
type CallOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Caller is the contract every gateway implementation satisfies: one prompt
// pair in, one completion out. Exactly one upstream request per call; no
// retry, no backoff.
type Caller interface {
	Call(ctx context.Context, systemPrompt, userPrompt string, opts *CallOptions) (string, error)
}

// Request is the proxy wire format for a model call.
type Request struct {
	Prompt struct {
		System string `json:"system"`
		User   string `json:"user"`
	} `json:"prompt"`
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
	Temperature float64 `json:"temperature"`
}

// Response is the proxy's OpenAI-style completion envelope.
type Response struct {
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice is one completion candidate.
type Choice struct {
	Message Message `json:"message"`
}

// Message is a role-tagged piece of conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports token counts when the upstream provides them.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// APIError is a transport-level failure: a non-2xx response or a response
// body missing the completion. It is a distinct condition from ErrInvalidJSON
// so callers can tell "model unreachable" from "model replied with garbage".
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gemini: upstream returned %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("gemini: %s", e.Body)
}

// ErrInvalidJSON marks a completion that could not be parsed as JSON after
// fence stripping. Transport failures never wrap this sentinel.
var ErrInvalidJSON = errors.New("gemini: invalid JSON response")

// Client calls a Gemini proxy endpoint speaking the Request/Response wire
// format. The proxy keeps the API key server-side.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the proxy at baseURL (e.g.
// "http://localhost:8080"). The /api/gemini path is appended per call.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Call sends one prompt pair and returns the completion text.
func (c *Client) Call(ctx context.Context, systemPrompt, userPrompt string, opts *CallOptions) (string, error) {
	var req Request
	req.Prompt.System = systemPrompt
	req.Prompt.User = userPrompt
	req.Model = DefaultModel
	req.MaxTokens = 2048
	req.Temperature = 0.1
	if opts != nil {
		if opts.Model != "" {
			req.Model = opts.Model
		}
		if opts.MaxTokens > 0 {
			req.MaxTokens = opts.MaxTokens
		}
		if opts.Temperature > 0 {
			req.Temperature = opts.Temperature
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/gemini", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini: send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var parsed Response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &APIError{StatusCode: resp.StatusCode, Body: "unreadable response body"}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", &APIError{Body: "empty completion in response"}
	}

	return parsed.Choices[0].Message.Content, nil
}

// ParseJSON strips one optional leading/trailing ``` fence (optionally tagged
// "json") and unmarshals the remainder into v. Failures wrap ErrInvalidJSON.
func ParseJSON(text string, v interface{}) error {
	cleaned := StripFence(text)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}

// StripFence removes a single Markdown code fence wrapping the text, if
// present. Content without a fence passes through trimmed.
func StripFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	// Drop the opening line (``` or ```json).
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[idx+1:]
	} else {
		return s
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// ChunkText splits text into line-aligned chunks. Each chunk accumulates
// whole lines until appending the next line would exceed maxChunkSize; lines
// are never split and the concatenation of all chunks reproduces the input.
func ChunkText(text string, maxChunkSize int) []string {
	if text == "" {
		return nil
	}

	var chunks []string
	var current strings.Builder

	for _, line := range splitAfterLines(text) {
		bare := strings.TrimSuffix(line, "\n")
		if current.Len() > 0 && current.Len()+len(bare) > maxChunkSize {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// splitAfterLines splits text into lines that keep their trailing newline.
func splitAfterLines(text string) []string {
	parts := strings.SplitAfter(text, "\n")
	if n := len(parts); n > 0 && parts[n-1] == "" {
		parts = parts[:n-1]
	}
	return parts
}

// ProcessInChunks runs the same system prompt over each chunk of a large text
// sequentially and returns the per-chunk completions.
func ProcessInChunks(ctx context.Context, caller Caller, text, systemPrompt string, chunkSize int) ([]string, error) {
	chunks := ChunkText(text, chunkSize)
	results := make([]string, 0, len(chunks))

	for i, chunk := range chunks {
		out, err := caller.Call(ctx, systemPrompt, chunk, nil)
		if err != nil {
			return nil, fmt.Errorf("gemini: chunk %d/%d: %w", i+1, len(chunks), err)
		}
		results = append(results, out)
	}
	return results, nil
}
