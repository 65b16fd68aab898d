package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/maktaba-labs/maktaba/internal/domain"
	"github.com/maktaba-labs/maktaba/internal/domain/collection"
	"github.com/maktaba-labs/maktaba/internal/domain/search/filter"
	"github.com/maktaba-labs/maktaba/internal/domain/search/weight"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds the maktaba API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Engine    EngineConfig    `yaml:"engine"`
	Cache     CacheConfig     `yaml:"cache"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Auth      AuthConfig      `yaml:"auth"`
	Search    SearchConfig    `yaml:"search"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys means an open API.
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

// EngineConfig holds search engine connection settings.
type EngineConfig struct {
	URL       string `yaml:"url"`
	APIKey    string `yaml:"api_key"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// Timeout returns the engine request timeout.
func (e EngineConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutMs) * time.Millisecond
}

// CacheConfig holds the response and embedding cache settings.
type CacheConfig struct {
	Backend          string   `yaml:"backend"` // none, memory, redis (default: memory)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
	TTLSec           int      `yaml:"ttl_sec"`
	EmbeddingTTLSec  int      `yaml:"embedding_ttl_sec"`
	Size             int      `yaml:"size"` // memory backend entries
}

// TTL returns the search response TTL.
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLSec) * time.Second }

// EmbeddingTTL returns the query embedding TTL.
func (c CacheConfig) EmbeddingTTL() time.Duration {
	return time.Duration(c.EmbeddingTTLSec) * time.Second
}

// DatabaseConfig holds the facet catalog connection. An empty URL disables the catalog.
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_sec"`
}

// EmbeddingConfig holds query embedding settings. An empty APIKey disables hybrid search.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"`
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	TimeoutMs        int    `yaml:"timeout_ms"`
	VectorField      string `yaml:"vector_field"`
	K                int    `yaml:"k"`
}

// Enabled reports whether a provider is configured.
func (e EmbeddingConfig) Enabled() bool { return e.APIKey != "" }

// Vector returns the domain vector settings.
func (e EmbeddingConfig) Vector() domain.VectorConfig {
	return domain.VectorConfig{
		Model:            e.Model,
		Dimensions:       e.Dimensions,
		QueryInstruction: e.QueryInstruction,
		Field:            e.VectorField,
		K:                e.K,
	}
}

// SearchConfig holds per-kind search definitions.
type SearchConfig struct {
	Batched     bool                  `yaml:"batched"`
	SortAliases map[string]string     `yaml:"sort_aliases"`
	Kinds       map[string]KindConfig `yaml:"kinds"`
}

// KindConfig declares one searchable kind.
type KindConfig struct {
	Collection string          `yaml:"collection"`
	Weights    []weight.Bucket `yaml:"weights"`
	Filters    filter.Fields   `yaml:"filters"`
	Lookups    []LookupConfig  `yaml:"lookups"`
}

// LookupConfig declares an auxiliary facet lookup.
type LookupConfig struct {
	Purpose        string `yaml:"purpose"`
	Facet          string `yaml:"facet"`
	Collection     string `yaml:"collection"`
	IDField        string `yaml:"id_field"`
	CandidateField string `yaml:"candidate_field"`
	QueryBy        string `yaml:"query_by"`
	Limit          int    `yaml:"limit"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes, defaults and validates YAML configuration.
func Parse(data []byte) (Config, error) {
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
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Engine.TimeoutMs <= 0 {
		c.Engine.TimeoutMs = 5000
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheMemory
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "maktaba:"
	}
	if c.Cache.TTLSec == 0 {
		c.Cache.TTLSec = 60
	}
	if c.Cache.EmbeddingTTLSec == 0 {
		c.Cache.EmbeddingTTLSec = 7 * 24 * 3600
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 2
	}
	if c.Database.ConnMaxLifetime <= 0 {
		c.Database.ConnMaxLifetime = 300
	}

	vec := domain.DefaultVectorConfig()
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = vec.Model
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = vec.Dimensions
	}
	if c.Embedding.TimeoutMs <= 0 {
		c.Embedding.TimeoutMs = 1500
	}
	if c.Embedding.VectorField == "" {
		c.Embedding.VectorField = vec.Field
	}
	if c.Embedding.K <= 0 {
		c.Embedding.K = vec.K
	}

	if len(c.Search.Kinds) == 0 {
		c.Search.Kinds = DefaultKinds()
	}
	if c.Search.SortAliases == nil {
		c.Search.SortAliases = DefaultSortAliases()
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Engine.URL == "" {
		return fmt.Errorf("engine.url is required")
	}
	switch c.Cache.Backend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be %q, %q or %q, got %q",
			CacheNone, CacheMemory, CacheRedis, c.Cache.Backend)
	}
	if c.Cache.TTLSec < 0 {
		return fmt.Errorf("cache.ttl_sec must not be negative")
	}
	if _, err := c.Collections(); err != nil {
		return err
	}
	return nil
}

// Weights builds the immutable weight registry of all configured kinds.
func (c *Config) Weights() (*weight.Registry, error) {
	maps := make(map[string]weight.Map, len(c.Search.Kinds))
	for name, k := range c.Search.Kinds {
		m, err := weight.NewMap(k.Weights)
		if err != nil {
			return nil, fmt.Errorf("search.kinds.%s.weights: %w", name, err)
		}
		maps[name] = m
	}
	return weight.NewRegistry(maps), nil
}

// Collections builds the domain collection of every configured kind.
func (c *Config) Collections() ([]collection.Collection, error) {
	reg, err := c.Weights()
	if err != nil {
		return nil, err
	}

	out := make([]collection.Collection, 0, len(c.Search.Kinds))
	for _, name := range reg.Kinds() {
		k := c.Search.Kinds[name]
		kind := collection.Kind(name)
		if !kind.IsValid() {
			return nil, fmt.Errorf("search.kinds.%s: unknown kind", name)
		}
		weights, _ := reg.Lookup(name)

		lookups := make([]collection.LookupSpec, len(k.Lookups))
		for i, l := range k.Lookups {
			lookups[i] = collection.LookupSpec{
				Purpose:        l.Purpose,
				Facet:          collection.Facet(l.Facet),
				Collection:     l.Collection,
				IDField:        l.IDField,
				CandidateField: l.CandidateField,
				QueryBy:        l.QueryBy,
				Limit:          l.Limit,
			}
		}

		colName := k.Collection
		if colName == "" {
			colName = name
		}
		col, err := collection.New(kind, colName, weights, k.Filters, lookups)
		if err != nil {
			return nil, fmt.Errorf("search.kinds.%s: %w", name, err)
		}
		out = append(out, col)
	}
	return out, nil
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
