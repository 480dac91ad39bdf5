package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	// Corpus snapshot file (the persisted source-of-truth state).
	DataPath string

	// Generation providers, tried in order. Empty key disables a tier.
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string

	// Embedding providers share the OpenAI/Gemini credentials above.
	OpenAIEmbedModel string
	GeminiEmbedModel string

	// LocalEmbedDim is the dimensionality of the offline hash embedder.
	// All locally produced vectors use this width so they stay comparable
	// across restarts.
	LocalEmbedDim int

	// Vector store backends.
	QdrantURL        string
	QdrantCollection string
	VectorDBPath     string

	EmbedCacheSize     int
	EmbedBatchSize     int
	CitationSnippetLen int
	RetrievalMinK      int
	RetrievalMaxK      int
	FlowContextK       int
	MinGenLen          int
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// If a .env file exists in the current directory or a parent, it is loaded
// automatically; variables already set take precedence over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load() // Try current directory

	// Walk up a few levels looking for a project-root .env
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		APIPort:   getEnv("API_PORT", "8787"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DataPath: getEnv("DATA_PATH", "./data/notebook.json"),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:  getEnv("GOOGLE_GENAI_API_KEY", ""),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),

		OpenAIEmbedModel: getEnv("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		GeminiEmbedModel: getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),

		QdrantURL:        getEnv("QDRANT_URL", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "notebook"),
		VectorDBPath:     getEnv("VECTOR_DB_PATH", "./data/vectors.db"),
	}

	var parseErr error
	cfg.LocalEmbedDim = getEnvInt("LOCAL_EMBED_DIM", 768, &parseErr)
	cfg.EmbedCacheSize = getEnvInt("EMBED_CACHE_SIZE", 200, &parseErr)
	cfg.EmbedBatchSize = getEnvInt("EMBED_BATCH_SIZE", 32, &parseErr)
	cfg.CitationSnippetLen = getEnvInt("CITATION_SNIPPET_LEN", 280, &parseErr)
	cfg.RetrievalMinK = getEnvInt("RETRIEVAL_MIN_K", 4, &parseErr)
	cfg.RetrievalMaxK = getEnvInt("RETRIEVAL_MAX_K", 20, &parseErr)
	cfg.FlowContextK = getEnvInt("FLOW_CONTEXT_K", 16, &parseErr)
	cfg.MinGenLen = getEnvInt("MIN_GEN_LEN", 30, &parseErr)
	if parseErr != nil {
		return nil, parseErr
	}

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if cfg.LocalEmbedDim <= 0 {
		return nil, fmt.Errorf("LOCAL_EMBED_DIM must be greater than 0")
	}
	if cfg.EmbedCacheSize <= 0 {
		return nil, fmt.Errorf("EMBED_CACHE_SIZE must be greater than 0")
	}
	if cfg.EmbedBatchSize <= 0 {
		return nil, fmt.Errorf("EMBED_BATCH_SIZE must be greater than 0")
	}
	if cfg.RetrievalMinK <= 0 || cfg.RetrievalMaxK < cfg.RetrievalMinK {
		return nil, fmt.Errorf("retrieval k bounds invalid: min=%d max=%d", cfg.RetrievalMinK, cfg.RetrievalMaxK)
	}

	// Create the data directory up front so snapshot saves don't fail later.
	dataDir := filepath.Dir(cfg.DataPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	vectorDir := filepath.Dir(cfg.VectorDBPath)
	if err := os.MkdirAll(vectorDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vector data directory: %w", err)
	}

	return cfg, nil
}

// parseLogLevel converts a level name to a slog.Level.
func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value.
// The first parse failure is recorded in errOut.
func getEnvInt(key string, defaultValue int, errOut *error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		if *errOut == nil {
			*errOut = fmt.Errorf("%s must be a valid integer: %w", key, err)
		}
		return defaultValue
	}
	return n
}
