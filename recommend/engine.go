package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/recall/recommend/cache"
	"github.com/hrygo/recall/recommend/metrics"
	"github.com/hrygo/recall/recommend/vector"
)

// Cache keys for the three external data sets. Each is loaded once per
// cache epoch and held until explicit invalidation.
const (
	cacheKeyProducts  = "products"
	cacheKeyCustomers = "customers"
	cacheKeyDefaults  = "defaults"
)

// Request kinds reported to metrics.
const (
	kindExistingCustomer = "existing_customer"
	kindNewCustomer      = "new_customer"
	kindQueryVector      = "query_vector"
)

// Engine orchestrates candidate loading, similarity ranking, the fallback
// policy and explanation generation. It is safe for concurrent use: all
// shared state lives in the result cache as immutable snapshots.
type Engine struct {
	cfg       *Config
	source    DataSource
	cache     *cache.Cache
	embedder  EmbeddingService
	explainer ExplanationService
	metrics   *metrics.Exporter
	logger    *slog.Logger
}

// EngineOption configures optional engine collaborators.
type EngineOption func(*Engine)

// WithEmbeddingService wires the external embedding provider.
func WithEmbeddingService(s EmbeddingService) EngineOption {
	return func(e *Engine) { e.embedder = s }
}

// WithExplanationService wires the external explanation provider.
func WithExplanationService(s ExplanationService) EngineOption {
	return func(e *Engine) { e.explainer = s }
}

// WithMetrics wires the Prometheus exporter.
func WithMetrics(m *metrics.Exporter) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a recommendation engine over the given data source and
// result cache.
func NewEngine(cfg *Config, source DataSource, resultCache *cache.Cache, opts ...EngineOption) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	e := &Engine{
		cfg:    cfg,
		source: source,
		cache:  resultCache,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// snapshot returns the current immutable candidate snapshot, loading it on
// a cold cache.
func (e *Engine) snapshot(ctx context.Context) (*Snapshot, error) {
	return cache.GetOrLoad(ctx, e.cache, cacheKeyProducts, func(ctx context.Context) (*Snapshot, error) {
		candidates, err := e.source.LoadCandidates(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "load candidates")
		}
		e.logger.Info("loaded candidate snapshot", "count", len(candidates))
		return NewSnapshot(candidates), nil
	})
}

// customers returns the cached customer set keyed by id.
func (e *Engine) customers(ctx context.Context) (map[string]Customer, error) {
	return cache.GetOrLoad(ctx, e.cache, cacheKeyCustomers, func(ctx context.Context) (map[string]Customer, error) {
		customers, err := e.source.LoadCustomers(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "load customers")
		}
		byID := make(map[string]Customer, len(customers))
		for _, c := range customers {
			byID[c.ID] = c
		}
		e.logger.Info("loaded customer set", "count", len(byID))
		return byID, nil
	})
}

// defaults returns the cached precomputed default set.
func (e *Engine) defaults(ctx context.Context) (DefaultSet, error) {
	return cache.GetOrLoad(ctx, e.cache, cacheKeyDefaults, func(ctx context.Context) (DefaultSet, error) {
		defaults, err := e.source.LoadDefaults(ctx)
		if err != nil {
			return DefaultSet{}, errors.Wrap(err, "load defaults")
		}
		return defaults, nil
	})
}

// RecommendForCustomer serves recommendations for a known customer id.
// An unknown id, a missing stored embedding, or weak primary results all
// fold into the fallback set with a descriptive reason.
func (e *Engine) RecommendForCustomer(ctx context.Context, customerID string) (*Result, error) {
	start := time.Now()

	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, errors.Wrap(ErrInvalidInput, "customer id required")
	}

	customers, err := e.customers(ctx)
	if err != nil {
		e.logger.Warn("customer set unavailable, degrading to fallback", "error", err)
		return e.fallbackOrFail(ctx, kindExistingCustomer, customerID, "Customer data unavailable", start)
	}

	customer, ok := customers[customerID]
	if !ok {
		e.logger.Warn("customer not found", "customer_id", customerID)
		result, err := e.fallbackResult(ctx, customerID, fmt.Sprintf("Customer %s not found", customerID), start)
		if err != nil {
			return nil, err
		}
		if len(result.Recommendations) == 0 {
			return nil, errors.Wrapf(ErrNotFound, "customer %s unknown and no default set available", customerID)
		}
		return result, nil
	}

	if len(customer.Embedding) == 0 {
		e.logger.Warn("customer has no stored embedding", "customer_id", customerID)
		return e.fallbackOrFail(ctx, kindExistingCustomer, customerID, "No customer embedding", start)
	}

	return e.recommendFromVector(ctx, kindExistingCustomer, customerID, CustomerTypeExisting, customer.Embedding, customer.Profile, start)
}

// RecommendForProfile serves recommendations for a new customer profile.
// The profile is rendered to text and embedded; an embedding provider
// failure degrades straight to the fallback set instead of surfacing the
// error.
func (e *Engine) RecommendForProfile(ctx context.Context, profile CustomerProfile) (*Result, error) {
	start := time.Now()

	if e.embedder == nil {
		return e.fallbackOrFail(ctx, kindNewCustomer, "NEW_CUSTOMER", ReasonNoEmbedding, start)
	}

	query, err := e.embedder.Embed(ctx, FormatCustomerProfile(profile))
	if err != nil {
		e.logger.Warn("embedding provider failed, degrading to fallback", "error", err)
		return e.fallbackOrFail(ctx, kindNewCustomer, "NEW_CUSTOMER", ReasonNoEmbedding, start)
	}

	return e.recommendFromVector(ctx, kindNewCustomer, "NEW_CUSTOMER", CustomerTypeNew, query, profile, start)
}

// RecommendForQuery serves recommendations for free query text, delegating
// to the embedding provider for the query vector.
func (e *Engine) RecommendForQuery(ctx context.Context, queryText string) (*Result, error) {
	start := time.Now()

	queryText = strings.TrimSpace(queryText)
	if queryText == "" {
		return nil, errors.Wrap(ErrInvalidInput, "query text required")
	}
	if e.embedder == nil {
		return e.fallbackOrFail(ctx, kindNewCustomer, "QUERY", ReasonNoEmbedding, start)
	}

	query, err := e.embedder.Embed(ctx, queryText)
	if err != nil {
		e.logger.Warn("embedding provider failed, degrading to fallback", "error", err)
		return e.fallbackOrFail(ctx, kindNewCustomer, "QUERY", ReasonNoEmbedding, start)
	}

	return e.recommendFromVector(ctx, kindNewCustomer, "QUERY", CustomerTypeNew, query, CustomerProfile{}, start)
}

// RecommendForVector serves recommendations for an externally computed
// query vector.
func (e *Engine) RecommendForVector(ctx context.Context, query vector.Vector) (*Result, error) {
	start := time.Now()

	if len(query) == 0 {
		return nil, errors.Wrap(ErrInvalidInput, "query vector required")
	}
	if e.cfg.EmbeddingDimensions > 0 && len(query) != e.cfg.EmbeddingDimensions {
		return nil, errors.Wrapf(ErrInvalidInput, "query vector has %d dimensions, expected %d",
			len(query), e.cfg.EmbeddingDimensions)
	}

	return e.recommendFromVector(ctx, kindQueryVector, "QUERY", CustomerTypeNew, query, CustomerProfile{}, start)
}

// recommendFromVector is the shared ranking pipeline:
// RANK -> (ACCEPT | FALLBACK) -> EXPLAIN.
func (e *Engine) recommendFromVector(ctx context.Context, kind, customerID, customerType string, query vector.Vector, profile CustomerProfile, start time.Time) (*Result, error) {
	snapshot, err := e.snapshot(ctx)
	if err != nil {
		// No candidate snapshot at all is the one catastrophic case.
		return nil, errors.Wrapf(ErrSourceUnavailable, "no candidate snapshot: %v", err)
	}

	ranked := Rank(query, snapshot.All(), e.cfg.SimilarityThreshold, e.cfg.MaxRecommendations)
	recommendations := e.enrich(ranked, snapshot)

	if ShouldFallback(recommendations, e.cfg.SimilarityThreshold) {
		reason := ReasonLowSimilarity
		if len(recommendations) == 0 {
			reason = ReasonNoSimilarProducts
		}
		result, err := e.fallbackResult(ctx, customerID, reason, start)
		if err == nil {
			e.metrics.RecordRequest(kind, string(TierFallback), time.Since(start), len(result.Recommendations))
		}
		return result, err
	}

	result := &Result{
		CustomerID:       customerID,
		CustomerType:     customerType,
		Tier:             TierPrimary,
		Recommendations:  recommendations,
		Explanation:      e.explain(ctx, profile, recommendations),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
	e.metrics.RecordRequest(kind, string(TierPrimary), time.Since(start), len(recommendations))
	return result, nil
}

// enrich joins raw ranked results with candidate attributes.
func (e *Engine) enrich(ranked []RankedResult, snapshot *Snapshot) []Recommendation {
	recommendations := make([]Recommendation, 0, len(ranked))
	for _, r := range ranked {
		candidate, ok := snapshot.Get(r.CandidateID)
		if !ok {
			continue
		}
		recommendations = append(recommendations, Recommendation{
			ProductID:   candidate.ID,
			ProductName: candidate.Name,
			Score:       r.Score,
			Tier:        r.Tier,
			Category:    candidate.Category,
			Subcategory: candidate.Subcategory,
			Brand:       candidate.Brand,
			Price:       candidate.Price,
			Rating:      candidate.Rating,
			Description: candidate.Description,
			Features:    candidate.Features,
		})
	}
	return recommendations
}

// fallbackResult builds a FALLBACK-tier result from the default set.
func (e *Engine) fallbackResult(ctx context.Context, customerID, reason string, start time.Time) (*Result, error) {
	snapshot, err := e.snapshot(ctx)
	if err != nil {
		return nil, errors.Wrapf(ErrSourceUnavailable, "no candidate snapshot: %v", err)
	}
	defaults, err := e.defaults(ctx)
	if err != nil {
		return nil, errors.Wrapf(ErrSourceUnavailable, "no default set: %v", err)
	}

	if customerID == "" {
		customerID = "DEFAULT"
	}
	recommendations := ApplyDefaults(defaults, snapshot, e.cfg.MaxRecommendations)
	e.metrics.RecordFallback(reason)
	e.logger.Info("serving fallback recommendations", "customer_id", customerID, "reason", reason)

	return &Result{
		CustomerID:       customerID,
		CustomerType:     CustomerTypeFallback,
		Tier:             TierFallback,
		Recommendations:  recommendations,
		Explanation:      FallbackExplanation(reason),
		FallbackReason:   reason,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// fallbackOrFail is fallbackResult plus request metrics; used by entry
// points that degrade before ranking ever runs.
func (e *Engine) fallbackOrFail(ctx context.Context, kind, customerID, reason string, start time.Time) (*Result, error) {
	result, err := e.fallbackResult(ctx, customerID, reason, start)
	if err != nil {
		return nil, err
	}
	e.metrics.RecordRequest(kind, string(TierFallback), time.Since(start), len(result.Recommendations))
	return result, nil
}

// explain asks the explanation provider for a natural-language summary and
// falls back to the templated text on any failure. Never fatal.
func (e *Engine) explain(ctx context.Context, profile CustomerProfile, recommendations []Recommendation) string {
	if e.explainer != nil {
		text, err := e.explainer.Explain(ctx, profile, recommendations)
		if err == nil && text != "" {
			return text
		}
		if err != nil {
			e.logger.Warn("explanation provider failed, using templated explanation", "error", err)
		}
	}
	return TemplateExplanation(profile, recommendations)
}

// SimilarProducts ranks the catalog against a product's own embedding,
// excluding the product itself.
func (e *Engine) SimilarProducts(ctx context.Context, productID string, limit int) ([]Recommendation, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, errors.Wrap(ErrInvalidInput, "product id required")
	}
	if limit <= 0 {
		limit = e.cfg.MaxRecommendations
	}

	snapshot, err := e.snapshot(ctx)
	if err != nil {
		return nil, errors.Wrapf(ErrSourceUnavailable, "no candidate snapshot: %v", err)
	}

	target, ok := snapshot.Get(productID)
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "product %s", productID)
	}
	if len(target.Embedding) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "product %s has no embedding", productID)
	}

	others := snapshot.Filter(func(c Candidate) bool { return c.ID != productID })
	ranked := Rank(target.Embedding, others, e.cfg.SimilarityThreshold, limit)
	return e.enrich(ranked, snapshot), nil
}

// RecommendByCategory lists in-stock products of a category ordered by
// rating; the score is the rating normalized to [0, 1].
func (e *Engine) RecommendByCategory(ctx context.Context, category string, limit int) ([]Recommendation, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, errors.Wrap(ErrInvalidInput, "category required")
	}
	if limit <= 0 {
		limit = e.cfg.MaxRecommendations
	}

	snapshot, err := e.snapshot(ctx)
	if err != nil {
		return nil, errors.Wrapf(ErrSourceUnavailable, "no candidate snapshot: %v", err)
	}

	matches := snapshot.Filter(func(c Candidate) bool {
		return c.InStock && c.Category == category
	})
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Rating != matches[j].Rating {
			return matches[i].Rating > matches[j].Rating
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	recommendations := make([]Recommendation, 0, len(matches))
	for _, c := range matches {
		recommendations = append(recommendations, Recommendation{
			ProductID:   c.ID,
			ProductName: c.Name,
			Score:       float32(c.Rating / 5.0),
			Tier:        TierPrimary,
			Category:    c.Category,
			Subcategory: c.Subcategory,
			Brand:       c.Brand,
			Price:       c.Price,
			Rating:      c.Rating,
			Description: c.Description,
			Features:    c.Features,
		})
	}
	return recommendations, nil
}

// AddCustomer embeds a new customer profile, persists it and invalidates
// the customer cache so the next read reflects the write.
func (e *Engine) AddCustomer(ctx context.Context, profile CustomerProfile) (string, error) {
	if e.embedder == nil {
		return "", errors.Wrap(ErrEmbeddingUnavailable, "no embedding provider configured")
	}

	customers, err := e.customers(ctx)
	if err != nil {
		return "", errors.Wrap(err, "load customers")
	}
	customerID := fmt.Sprintf("CUST_%03d", len(customers)+1)

	embedding, err := e.embedder.Embed(ctx, FormatCustomerProfile(profile))
	if err != nil {
		return "", errors.Wrapf(ErrEmbeddingUnavailable, "embed customer profile: %v", err)
	}

	customer := &Customer{
		ID:        customerID,
		Profile:   profile,
		Embedding: embedding,
	}
	if err := e.source.SaveCustomer(ctx, customer); err != nil {
		return "", errors.Wrap(err, "save customer")
	}

	e.cache.Invalidate(cacheKeyCustomers)
	e.logger.Info("added customer", "customer_id", customerID)
	return customerID, nil
}

// ListCustomerIDs returns the known customer ids in ascending order.
func (e *Engine) ListCustomerIDs(ctx context.Context) ([]string, error) {
	customers, err := e.customers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load customers")
	}
	ids := make([]string, 0, len(customers))
	for id := range customers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Summary reports data-set counts for operators.
func (e *Engine) Summary(ctx context.Context) (Summary, error) {
	snapshot, err := e.snapshot(ctx)
	if err != nil {
		return Summary{}, err
	}
	customers, err := e.customers(ctx)
	if err != nil {
		return Summary{}, err
	}
	defaults, err := e.defaults(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Products:  snapshot.Len(),
		Customers: len(customers),
		Defaults:  len(defaults.Items),
	}, nil
}

// RefreshCache drops every cached data set; the next access reloads from
// the backing store.
func (e *Engine) RefreshCache() {
	e.cache.InvalidateAll()
	e.logger.Info("result cache invalidated")
}
