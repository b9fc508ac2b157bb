// Package ai adapts the engine to OpenAI-compatible chat completion
// providers: one call surface, structured errors and retry with backoff.
// Higher-level generation (topics, notes, summaries) builds on LLMService.
package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Message is one chat turn handed to the provider.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Usage is the provider's token accounting for one call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatOptions override the configured defaults for a single call. Zero
// values fall back to the configuration.
type ChatOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
	// JSONResponse asks the provider for a JSON object payload.
	JSONResponse bool
}

// ChatResult is one completed chat call.
type ChatResult struct {
	Content string
	Model   string
	Usage   Usage
}

// LLMService is the chat surface the rest of the engine consumes.
type LLMService interface {
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResult, error)
}

type llmService struct {
	client *openai.Client
	config *Config
}

var _ LLMService = (*llmService)(nil)

// NewLLMService creates a provider client from the configuration. It fails
// before any network traffic when the configuration cannot work at all.
func NewLLMService(cfg *Config) (LLMService, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &llmService{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

// Chat performs a chat completion with retry on transient failures.
func (s *llmService) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResult, error) {
	model := s.config.Model
	temperature := s.config.Temperature
	maxTokens := s.config.MaxTokens
	if opts != nil {
		if opts.Model != "" {
			model = opts.Model
		}
		if opts.Temperature != 0 {
			temperature = opts.Temperature
		}
		if opts.MaxTokens > 0 {
			maxTokens = opts.MaxTokens
		}
	}

	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		}
	}
	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    chatMessages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	if opts != nil && opts.JSONResponse {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var resp openai.ChatCompletionResponse
	err := s.doWithRetry(ctx, func(attemptCtx context.Context) error {
		r, err := s.client.CreateChatCompletion(attemptCtx, req)
		if err != nil {
			return err
		}
		if len(r.Choices) == 0 {
			return fmt.Errorf("empty chat response")
		}
		resp = r
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, Canceled(ctx.Err())
		}
		return nil, ProviderFailed("chat completion failed", err).WithContext("model", model)
	}

	result := &ChatResult{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	slog.Debug("chat completion finished",
		"model", result.Model,
		"prompt_tokens", result.Usage.PromptTokens,
		"completion_tokens", result.Usage.CompletionTokens)
	return result, nil
}

// doWithRetry executes fn with exponential backoff. Each attempt gets its
// own timeout; non-transient provider errors abort immediately.
func (s *llmService) doWithRetry(ctx context.Context, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < s.config.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
		err := fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil || !isRetryable(err) {
			return lastErr
		}
		if attempt < s.config.MaxRetries-1 {
			wait := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			slog.Debug("model request failed, retrying",
				"attempt", attempt+1,
				"wait_time", wait,
				"error", err)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return lastErr
			}
		}
	}
	return lastErr
}

// isRetryable treats rate limits, server errors and transport failures as
// transient. Client-side mistakes (bad key, bad request) are final.
func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	return true
}
