package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the recommendation server.
type Profile struct {
	// Embedding provider configuration (OpenAI-compatible protocol).
	// Providers: openai, siliconflow, ollama, or any compatible endpoint.
	EmbeddingProvider   string
	EmbeddingModel      string
	EmbeddingAPIKey     string
	EmbeddingBaseURL    string
	EmbeddingDimensions int

	// Explanation LLM configuration (OpenAI-compatible protocol).
	LLMProvider string
	LLMModel    string
	LLMAPIKey   string
	LLMBaseURL  string
	LLMTimeout  int // request timeout in seconds

	// Recommendation tuning.
	SimilarityThreshold float64 // minimum cosine similarity for inclusion
	MaxRecommendations  int     // top-k served per request

	// Server and storage.
	Mode        string // prod, dev, demo
	Addr        string
	Port        int
	UNIXSock    string
	Data        string
	Driver      string // sqlite, postgres
	DSN         string
	InstanceURL string
	Version     string
}

// Provider default configurations for embedding and LLM endpoints, applied
// when a base URL or model is not explicitly set.
var providerDefaults = map[string]struct {
	BaseURL        string
	EmbeddingModel string
	LLMModel       string
}{
	"openai": {
		BaseURL:        "https://api.openai.com/v1",
		EmbeddingModel: "text-embedding-3-small",
		LLMModel:       "gpt-4o-mini",
	},
	"siliconflow": {
		BaseURL:        "https://api.siliconflow.cn/v1",
		EmbeddingModel: "BAAI/bge-m3",
		LLMModel:       "Qwen/Qwen2.5-7B-Instruct",
	},
	"ollama": {
		BaseURL:        "http://localhost:11434/v1",
		EmbeddingModel: "nomic-embed-text",
		LLMModel:       "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsEmbeddingEnabled returns true if an embedding provider is configured.
// Ollama needs no API key; other providers do.
func (p *Profile) IsEmbeddingEnabled() bool {
	return p.EmbeddingProvider == "ollama" || p.EmbeddingAPIKey != ""
}

// IsExplanationEnabled returns true if the explanation LLM is configured.
func (p *Profile) IsExplanationEnabled() bool {
	return p.LLMProvider == "ollama" || p.LLMAPIKey != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvOrDefaultFloat returns environment variable value as float or default value.
func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.EmbeddingProvider = getEnvOrDefault("RECALL_EMBEDDING_PROVIDER", "openai")
	p.EmbeddingModel = getEnvOrDefault("RECALL_EMBEDDING_MODEL", "")
	p.EmbeddingAPIKey = getEnvOrDefault("RECALL_EMBEDDING_API_KEY", "")
	p.EmbeddingBaseURL = getEnvOrDefault("RECALL_EMBEDDING_BASE_URL", "")
	p.EmbeddingDimensions = getEnvOrDefaultInt("RECALL_EMBEDDING_DIMENSIONS", 1536)

	p.LLMProvider = getEnvOrDefault("RECALL_LLM_PROVIDER", "openai")
	p.LLMModel = getEnvOrDefault("RECALL_LLM_MODEL", "")
	p.LLMAPIKey = getEnvOrDefault("RECALL_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("RECALL_LLM_BASE_URL", "")
	p.LLMTimeout = getEnvOrDefaultInt("RECALL_LLM_TIMEOUT_SECONDS", 30)

	p.SimilarityThreshold = getEnvOrDefaultFloat("RECALL_SIMILARITY_THRESHOLD", 0.3)
	p.MaxRecommendations = getEnvOrDefaultInt("RECALL_MAX_RECOMMENDATIONS", 5)

	p.applyProviderDefaults()
}

// applyProviderDefaults fills base URLs and model names from the provider
// table when they are not explicitly configured.
func (p *Profile) applyProviderDefaults() {
	if defaults, ok := providerDefaults[p.EmbeddingProvider]; ok {
		if p.EmbeddingBaseURL == "" {
			p.EmbeddingBaseURL = defaults.BaseURL
		}
		if p.EmbeddingModel == "" {
			p.EmbeddingModel = defaults.EmbeddingModel
		}
	}
	if defaults, ok := providerDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.LLMModel
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported database driver %q", p.Driver)
	}

	if p.SimilarityThreshold < -1 || p.SimilarityThreshold > 1 {
		return errors.Errorf("similarity threshold %v outside [-1, 1]", p.SimilarityThreshold)
	}
	if p.MaxRecommendations <= 0 {
		p.MaxRecommendations = 5
	}
	if p.EmbeddingDimensions <= 0 {
		return errors.Errorf("embedding dimensions must be positive, got %d", p.EmbeddingDimensions)
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "recall")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					return errors.Wrapf(err, "failed to create data directory %s", p.Data)
				}
			}
		} else {
			p.Data = "/var/opt/recall"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("recall_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires a DSN")
	}

	return nil
}
