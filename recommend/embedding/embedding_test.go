package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/recall/recommend/vector"
)

// fakeEmbeddingEndpoint serves the OpenAI embeddings wire format, answering
// every input with a fixed 3-dimensional vector.
func fakeEmbeddingEndpoint(t *testing.T, fail *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail != nil && *fail > 0 {
			*fail--
			http.Error(w, "upstream overloaded", http.StatusInternalServerError)
			return
		}

		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type item struct {
			Object    string    `json:"object"`
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		data := make([]item, len(req.Input))
		for i := range req.Input {
			data[i] = item{Object: "embedding", Index: i, Embedding: []float32{1, 0, 0}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  "test-model",
		})
	}))
}

func testService(t *testing.T, baseURL string) *Service {
	t.Helper()
	s, err := NewService(&Config{
		APIKey:     "test-key",
		BaseURL:    baseURL + "/v1",
		Model:      "test-model",
		Dimensions: 3,
	})
	require.NoError(t, err)
	return s
}

func TestNewService(t *testing.T) {
	t.Run("RequiresModel", func(t *testing.T) {
		_, err := NewService(&Config{Dimensions: 3})
		assert.Error(t, err)
	})

	t.Run("RequiresPositiveDimensions", func(t *testing.T) {
		_, err := NewService(&Config{Model: "m"})
		assert.Error(t, err)
	})

	t.Run("Valid", func(t *testing.T) {
		s, err := NewService(&Config{Model: "m", Dimensions: 8, APIKey: "k"})
		require.NoError(t, err)
		assert.Equal(t, 8, s.Dimensions())
	})
}

func TestEmbed(t *testing.T) {
	srv := fakeEmbeddingEndpoint(t, nil)
	defer srv.Close()
	s := testService(t, srv.URL)

	vec, err := s.Embed(context.Background(), "noise cancelling headphones")
	require.NoError(t, err)
	assert.Equal(t, vector.Vector{1, 0, 0}, vec)
}

func TestEmbedBatch(t *testing.T) {
	srv := fakeEmbeddingEndpoint(t, nil)
	defer srv.Close()
	s := testService(t, srv.URL)

	t.Run("MultipleTexts", func(t *testing.T) {
		vecs, err := s.EmbedBatch(context.Background(), []string{"a", "b", "c"})
		require.NoError(t, err)
		require.Len(t, vecs, 3)
		assert.Equal(t, vector.Vector{1, 0, 0}, vecs[1])
	})

	t.Run("EmptyInput", func(t *testing.T) {
		_, err := s.EmbedBatch(context.Background(), nil)
		assert.Error(t, err)
	})
}

func TestEmbedRetriesTransientFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("retry backoff sleeps")
	}

	fail := 1
	srv := fakeEmbeddingEndpoint(t, &fail)
	defer srv.Close()
	s := testService(t, srv.URL)

	vec, err := s.Embed(context.Background(), "flaky upstream")
	require.NoError(t, err)
	assert.Equal(t, vector.Vector{1, 0, 0}, vec)
	assert.Zero(t, fail)
}

func TestEmbedCancelledContext(t *testing.T) {
	srv := fakeEmbeddingEndpoint(t, nil)
	defer srv.Close()
	s := testService(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Embed(ctx, "never sent")
	assert.Error(t, err)
}
