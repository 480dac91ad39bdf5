package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// setEnv sets an environment variable, ignoring errors (for test setup)
func setEnv(key, value string) {
	_ = os.Setenv(key, value)
}

// unsetEnv unsets an environment variable, ignoring errors (for test cleanup)
func unsetEnv(key string) {
	_ = os.Unsetenv(key)
}

var configEnvVars = []string{
	"API_PORT", "LOG_LEVEL", "LOG_FORMAT", "DATA_PATH",
	"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL",
	"GOOGLE_GENAI_API_KEY", "GEMINI_BASE_URL", "GEMINI_MODEL",
	"OPENAI_EMBED_MODEL", "GEMINI_EMBED_MODEL",
	"QDRANT_URL", "QDRANT_COLLECTION", "VECTOR_DB_PATH",
	"LOCAL_EMBED_DIM", "EMBED_CACHE_SIZE", "EMBED_BATCH_SIZE",
	"CITATION_SNIPPET_LEN", "RETRIEVAL_MIN_K", "RETRIEVAL_MAX_K",
	"FLOW_CONTEXT_K", "MIN_GEN_LEN",
}

func stashEnv(t *testing.T) {
	t.Helper()
	original := make(map[string]string, len(configEnvVars))
	for _, key := range configEnvVars {
		original[key] = os.Getenv(key)
		unsetEnv(key)
	}
	t.Cleanup(func() {
		for key, value := range original {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	stashEnv(t)

	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*Config) bool
	}{
		{
			name: "defaults",
			setupEnv: func(t *testing.T) {
				setEnv("DATA_PATH", filepath.Join(t.TempDir(), "notebook.json"))
				setEnv("VECTOR_DB_PATH", filepath.Join(t.TempDir(), "vectors.db"))
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.APIPort == "8787" &&
					cfg.LogLevel == slog.LevelInfo &&
					cfg.LogFormat == "text" &&
					cfg.LocalEmbedDim == 768 &&
					cfg.EmbedCacheSize == 200 &&
					cfg.EmbedBatchSize == 32 &&
					cfg.CitationSnippetLen == 280 &&
					cfg.RetrievalMinK == 4 &&
					cfg.RetrievalMaxK == 20 &&
					cfg.FlowContextK == 16 &&
					cfg.MinGenLen == 30 &&
					cfg.QdrantURL == "" &&
					cfg.QdrantCollection == "notebook"
			},
		},
		{
			name: "custom values",
			setupEnv: func(t *testing.T) {
				setEnv("DATA_PATH", filepath.Join(t.TempDir(), "notebook.json"))
				setEnv("VECTOR_DB_PATH", filepath.Join(t.TempDir(), "vectors.db"))
				setEnv("API_PORT", "9999")
				setEnv("LOG_LEVEL", "debug")
				setEnv("LOCAL_EMBED_DIM", "128")
				setEnv("QDRANT_URL", "http://localhost:6333")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.APIPort == "9999" &&
					cfg.LogLevel == slog.LevelDebug &&
					cfg.LocalEmbedDim == 128 &&
					cfg.QdrantURL == "http://localhost:6333"
			},
		},
		{
			name: "invalid LOG_LEVEL",
			setupEnv: func(t *testing.T) {
				setEnv("LOG_LEVEL", "verbose")
			},
			wantErr: true,
		},
		{
			name: "invalid LOCAL_EMBED_DIM",
			setupEnv: func(t *testing.T) {
				setEnv("LOCAL_EMBED_DIM", "not-a-number")
			},
			wantErr: true,
		},
		{
			name: "zero LOCAL_EMBED_DIM",
			setupEnv: func(t *testing.T) {
				setEnv("DATA_PATH", filepath.Join(t.TempDir(), "notebook.json"))
				setEnv("LOCAL_EMBED_DIM", "0")
			},
			wantErr: true,
		},
		{
			name: "zero EMBED_CACHE_SIZE",
			setupEnv: func(t *testing.T) {
				setEnv("DATA_PATH", filepath.Join(t.TempDir(), "notebook.json"))
				setEnv("EMBED_CACHE_SIZE", "0")
			},
			wantErr: true,
		},
		{
			name: "max k below min k",
			setupEnv: func(t *testing.T) {
				setEnv("DATA_PATH", filepath.Join(t.TempDir(), "notebook.json"))
				setEnv("RETRIEVAL_MIN_K", "10")
				setEnv("RETRIEVAL_MAX_K", "5")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Change to a temp directory without .env file to avoid loading it
			tmpDir := t.TempDir()
			originalWd, _ := os.Getwd()
			_ = os.Chdir(tmpDir)
			defer func() {
				_ = os.Chdir(originalWd)
			}()

			for _, key := range configEnvVars {
				unsetEnv(key)
			}
			tt.setupEnv(t)

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("Load() unexpected error: %v", err)
				return
			}
			if cfg == nil {
				t.Fatal("Load() returned nil config")
			}
			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("Load() config validation failed: %+v", cfg)
			}
		})
	}
}

func TestLoad_CreatesDataDirectories(t *testing.T) {
	stashEnv(t)

	tmpDir := t.TempDir()
	dataPath := filepath.Join(tmpDir, "state", "notebook.json")
	vectorPath := filepath.Join(tmpDir, "vectors", "vectors.db")
	setEnv("DATA_PATH", dataPath)
	setEnv("VECTOR_DB_PATH", vectorPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for _, dir := range []string{filepath.Dir(dataPath), filepath.Dir(vectorPath)} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			t.Errorf("Load() should create directory %s", dir)
		}
	}
	if cfg.DataPath != dataPath {
		t.Errorf("Load() DataPath = %v, want %v", cfg.DataPath, dataPath)
	}
}

func TestGetEnv(t *testing.T) {
	originalValue := os.Getenv("TEST_ENV_VAR")
	defer func() {
		if originalValue != "" {
			setEnv("TEST_ENV_VAR", originalValue)
		} else {
			unsetEnv("TEST_ENV_VAR")
		}
	}()

	tests := []struct {
		name         string
		setupEnv     func()
		key          string
		defaultValue string
		want         string
	}{
		{
			name: "env var set",
			setupEnv: func() {
				setEnv("TEST_ENV_VAR", "set-value")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "set-value",
		},
		{
			name: "env var not set",
			setupEnv: func() {
				unsetEnv("TEST_ENV_VAR")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "default",
		},
		{
			name: "empty env var uses default",
			setupEnv: func() {
				setEnv("TEST_ENV_VAR", "")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv()
			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "info", want: slog.LevelInfo},
		{in: "WARN", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "trace", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLogLevel(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseLogLevel(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseLogLevel(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
