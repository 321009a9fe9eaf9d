package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"

	"LeadScout/internal/ports"
)

// GeminiClient implements ports.TextGenerator on the Gemini API. One SDK client is kept per key.
type GeminiClient struct {
	model string

	mu      sync.Mutex
	clients map[string]*genai.Client
}

var _ ports.TextGenerator = (*GeminiClient)(nil)

// NewGeminiClient targets the given model name, e.g. "models/gemini-2.5-flash".
func NewGeminiClient(model string) *GeminiClient {
	return &GeminiClient{
		model:   model,
		clients: map[string]*genai.Client{},
	}
}

// Generate sends the prompt as a single user turn and returns the concatenated text.
func (g *GeminiClient) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	if g == nil || g.model == "" {
		return "", fmt.Errorf("gemini client misconfigured")
	}

	client, err := g.client(ctx, apiKey)
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (g *GeminiClient) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if client, ok := g.clients[apiKey]; ok {
		return client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	g.clients[apiKey] = client
	return client, nil
}

// classifyGeminiError maps provider quota rejections onto ErrQuotaExceeded.
// Errors that are not a genai.APIError fall back to a message match.
func classifyGeminiError(err error) error {
	if isGeminiQuota(err) {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return fmt.Errorf("gemini generate: %w", err)
}

func isGeminiQuota(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED"
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code == http.StatusTooManyRequests || apiErrPtr.Status == "RESOURCE_EXHAUSTED"
	}

	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(strings.ToLower(msg), "quota")
}
