// Package config loads the memberscout YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the memberscout service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Session    SessionConfig    `yaml:"session"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// ProviderConfig holds one OpenAI-compatible provider endpoint.
type ProviderConfig struct {
	Name       string `yaml:"name"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// EmbeddingConfig holds the primary and fallback embedding providers.
// Both providers must produce vectors of the same dimensionality because
// they feed the same index.
type EmbeddingConfig struct {
	Primary    ProviderConfig `yaml:"primary"`
	Fallback   ProviderConfig `yaml:"fallback"`
	TimeoutSec int            `yaml:"timeout_sec"`
}

// ExtractionConfig holds LLM entity-extraction settings.
type ExtractionConfig struct {
	Provider            ProviderConfig `yaml:"provider"`
	ConfidenceThreshold float64        `yaml:"confidence_threshold"`
	TimeoutSec          int            `yaml:"timeout_sec"`
}

// RetrievalConfig holds merge/ranking tunables. The weights and the
// dampening factor are configuration, not business constants.
type RetrievalConfig struct {
	LexicalWeight      float64 `yaml:"lexical_weight"`
	VectorWeight       float64 `yaml:"vector_weight"`
	SingleSourceDamp   float64 `yaml:"single_source_dampening"`
	OverfetchFactor    int     `yaml:"overfetch_factor"`
	SubSearchTimeoutMs int     `yaml:"subsearch_timeout_ms"`
}

// SessionConfig holds conversation context store settings.
type SessionConfig struct {
	Backend    string `yaml:"backend"` // memory, redis (default: memory)
	Window     int    `yaml:"window"`
	IdleTTLMin int    `yaml:"idle_ttl_min"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	VectorDim int `yaml:"vector_dim"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 3
	}
	if c.Extraction.ConfidenceThreshold <= 0 {
		c.Extraction.ConfidenceThreshold = 0.6
	}
	if c.Extraction.TimeoutSec <= 0 {
		c.Extraction.TimeoutSec = 5
	}
	if c.Retrieval.LexicalWeight <= 0 {
		c.Retrieval.LexicalWeight = 0.4
	}
	if c.Retrieval.VectorWeight <= 0 {
		c.Retrieval.VectorWeight = 0.6
	}
	if c.Retrieval.SingleSourceDamp <= 0 {
		c.Retrieval.SingleSourceDamp = 0.85
	}
	if c.Retrieval.OverfetchFactor <= 0 {
		c.Retrieval.OverfetchFactor = 3
	}
	if c.Retrieval.SubSearchTimeoutMs <= 0 {
		c.Retrieval.SubSearchTimeoutMs = 2000
	}
	if c.Session.Backend == "" {
		c.Session.Backend = "memory"
	}
	if c.Session.Window <= 0 {
		c.Session.Window = 10
	}
	if c.Session.IdleTTLMin <= 0 {
		c.Session.IdleTTLMin = 30
	}
	if c.Storage.VectorDim <= 0 {
		c.Storage.VectorDim = 768
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Embedding.Primary.Model == "" {
		return fmt.Errorf("embedding.primary.model is required")
	}
	if c.Embedding.Fallback.Model != "" &&
		c.Embedding.Fallback.Dimensions != c.Embedding.Primary.Dimensions {
		return fmt.Errorf(
			"embedding.fallback.dimensions (%d) must equal embedding.primary.dimensions (%d)",
			c.Embedding.Fallback.Dimensions, c.Embedding.Primary.Dimensions,
		)
	}
	switch c.Session.Backend {
	case "memory", "redis":
		// ok
	default:
		return fmt.Errorf("session.backend must be \"memory\" or \"redis\", got %q", c.Session.Backend)
	}
	if w := c.Retrieval.LexicalWeight + c.Retrieval.VectorWeight; w <= 0 {
		return fmt.Errorf("retrieval weights must sum to a positive value, got %g", w)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
