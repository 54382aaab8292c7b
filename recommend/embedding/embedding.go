// Package embedding provides the OpenAI-compatible embedding provider used
// to vectorize customer profiles and free-text queries. Any endpoint that
// speaks the OpenAI embeddings protocol works: openai, siliconflow, ollama
// and friends.
package embedding

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/hrygo/recall/recommend/retry"
	"github.com/hrygo/recall/recommend/vector"
)

// Config holds the provider connection settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int

	// RequestsPerSecond caps outbound embedding calls; zero disables the
	// limiter. Batch backfills can otherwise trip provider rate limits.
	RequestsPerSecond float64
}

// Service calls the configured embedding endpoint with bounded retries.
type Service struct {
	client     *openai.Client
	model      string
	dimensions int
	limiter    *rate.Limiter
}

// NewService creates an embedding service for an OpenAI-compatible endpoint.
func NewService(cfg *Config) (*Service, error) {
	if cfg.Model == "" {
		return nil, errors.New("embedding model required")
	}
	if cfg.Dimensions <= 0 {
		return nil, errors.New("embedding dimensions must be positive")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Service{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		limiter:    limiter,
	}, nil
}

// Embed generates the vector for a single text.
func (s *Service) Embed(ctx context.Context, text string) (vector.Vector, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, errors.New("empty embedding result")
	}
	return vectors[0], nil
}

// EmbedBatch generates vectors for multiple texts in one provider call,
// retrying transient failures with exponential backoff.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([]vector.Vector, error) {
	if len(texts) == 0 {
		return nil, errors.New("no texts provided for embedding")
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "embedding rate limiter")
		}
	}

	req := openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(s.model),
		Dimensions: s.dimensions,
	}

	var resp openai.EmbeddingResponse
	err := retry.Do(ctx, retry.DefaultAttempts, retry.DefaultBackoff, func(ctx context.Context) error {
		var callErr error
		resp, callErr = s.client.CreateEmbeddings(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, errors.Wrap(err, "create embeddings")
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("empty embedding response")
	}

	vectors := make([]vector.Vector, len(resp.Data))
	for i, data := range resp.Data {
		vectors[i] = data.Embedding
	}
	return vectors, nil
}

// Dimensions returns the configured vector dimension.
func (s *Service) Dimensions() int {
	return s.dimensions
}

// WarmupTimeout bounds the optional startup connectivity probe.
const WarmupTimeout = 10 * time.Second

// Warmup embeds a trivial text to establish the provider connection early.
// Failures are returned for logging; startup proceeds regardless.
func (s *Service) Warmup(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, WarmupTimeout)
	defer cancel()
	_, err := s.Embed(ctx, "ping")
	return err
}
