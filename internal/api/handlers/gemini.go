package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/tejuiceB/finSight/internal/api/middleware"
	"github.com/tejuiceB/finSight/internal/gemini"
)

// UsageCaller is the server-side gateway the proxy forwards to.
type UsageCaller interface {
	CallWithUsage(ctx context.Context, systemPrompt, userPrompt string, opts *gemini.CallOptions) (string, *gemini.Usage, error)
}

// GeminiHandler proxies model calls so the API key stays server-side.
// Clients speak the {prompt:{system,user},...} wire format and get back an
// OpenAI-style choices envelope.
type GeminiHandler struct {
	gen UsageCaller
	log zerolog.Logger
}

// NewGeminiHandler creates a new proxy handler.
func NewGeminiHandler(gen UsageCaller, log zerolog.Logger) *GeminiHandler {
	return &GeminiHandler{gen: gen, log: log}
}

// Generate handles POST /api/gemini.
func (h *GeminiHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req gemini.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Prompt.System == "" || req.Prompt.User == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request: prompt.system and prompt.user are required")
		return
	}

	opts := &gemini.CallOptions{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	content, usage, err := h.gen.CallWithUsage(r.Context(), req.Prompt.System, req.Prompt.User, opts)
	if err != nil {
		h.log.Error().Err(err).Msg("Gemini call failed")
		middleware.WriteJSON(w, http.StatusBadGateway, map[string]string{
			"error":   "Gemini API call failed",
			"details": err.Error(),
		})
		return
	}

	middleware.WriteJSON(w, http.StatusOK, gemini.Response{
		Choices: []gemini.Choice{{
			Message: gemini.Message{Role: "assistant", Content: content},
		}},
		Usage: usage,
	})
}

// Health handles GET /api/gemini.
func (h *GeminiHandler) Health(w http.ResponseWriter, r *http.Request) {
	hasKey := os.Getenv("GEMINI_API_KEY") != ""
	message := "Gemini API is ready"
	if !hasKey {
		message = "GEMINI_API_KEY not configured - set it in the environment"
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "ok",
		"apiKeyConfigured": hasKey,
		"message":          message,
	})
}
