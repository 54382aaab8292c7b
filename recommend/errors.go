package recommend

import "github.com/pkg/errors"

// Error kinds of the recommendation core. Recoverable kinds are absorbed
// internally and surfaced only as the fallback reason; ErrInvalidInput and a
// total ErrSourceUnavailable are the only request-level failures.
var (
	// ErrNotFound reports an absent entity or candidate.
	ErrNotFound = errors.New("not found")

	// ErrSourceUnavailable reports an unreachable or malformed backing store.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrWriteFailed reports a failed persistence write.
	ErrWriteFailed = errors.New("write failed")

	// ErrEmbeddingUnavailable reports an embedding provider failure.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrExplanationUnavailable reports an explanation provider failure.
	ErrExplanationUnavailable = errors.New("explanation unavailable")

	// ErrInvalidInput reports a malformed request; fatal to that request only.
	ErrInvalidInput = errors.New("invalid input")
)
