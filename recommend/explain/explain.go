// Package explain generates natural-language recommendation explanations
// through an OpenAI-compatible chat completion endpoint. The engine treats
// it as best-effort: any failure here degrades to a templated explanation.
package explain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/hrygo/recall/recommend"
	"github.com/hrygo/recall/recommend/retry"
)

const (
	defaultMaxTokens   = 500
	defaultTemperature = 0.7
	defaultTimeout     = 30 * time.Second

	// promptProducts caps how many results the prompt enumerates.
	promptProducts = 3
)

// Config holds the chat provider connection settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// Service calls the configured chat endpoint with bounded retries and a
// per-request timeout.
type Service struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
}

// NewService creates an explanation service for an OpenAI-compatible endpoint.
func NewService(cfg *Config) (*Service, error) {
	if cfg.Model == "" {
		return nil, errors.New("explanation model required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Service{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
	}, nil
}

// Explain asks the chat model why the given products suit the profile.
func (s *Service) Explain(ctx context.Context, profile recommend.CustomerProfile, recommendations []recommend.Recommendation) (string, error) {
	if len(recommendations) == 0 {
		return "", errors.New("no recommendations to explain")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(profile, recommendations)},
		},
	}

	var resp openai.ChatCompletionResponse
	err := retry.Do(ctx, retry.DefaultAttempts, retry.DefaultBackoff, func(ctx context.Context) error {
		var callErr error
		resp, callErr = s.client.CreateChatCompletion(ctx, req)
		return callErr
	})
	if err != nil {
		return "", errors.Wrap(err, "chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty chat completion response")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// BuildPrompt renders the explanation request handed to the chat model. The
// prompt enumerates only the top few products to keep the answer focused.
func BuildPrompt(profile recommend.CustomerProfile, recommendations []recommend.Recommendation) string {
	var products strings.Builder
	for i, rec := range recommendations {
		if i >= promptProducts {
			break
		}
		fmt.Fprintf(&products, "- %s (Similarity: %.2f)\n", rec.ProductName, rec.Score)
	}

	var b strings.Builder
	b.WriteString("You are a helpful shopping assistant. Explain why these products were recommended for this customer.\n\n")
	b.WriteString(recommend.FormatCustomerProfile(profile))
	b.WriteString("\nRecommended Products:\n")
	b.WriteString(products.String())
	b.WriteString("\nPlease provide a brief, friendly explanation (2-3 sentences) of why these products match the customer's profile and preferences. Focus on the connection between their interests, demographics, and the recommended items.")
	return b.String()
}
