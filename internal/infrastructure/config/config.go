package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Redis     RedisConfig
	Search    SearchConfig
	Telemetry TelemetryConfig
	Admin     AdminConfig
	Providers map[string]ProviderSettings
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the host:port address of the Redis server
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
}

// SearchConfig holds fan-out search and ranking settings
type SearchConfig struct {
	DefaultLimit   int
	RankingPolicy  string        // priority_first, global
	GlobalDeadline time.Duration // 0 disables; per-provider timeouts still apply
	LimiterBackend string        // memory, redis
	CacheTTL       time.Duration // 0 disables the result cache
	CacheBackend   string        // memory, redis
	DedupEnabled   bool
	DedupTitleSim  float64 // token Jaccard threshold, 0-1
	DedupPriceTol  float64 // relative price tolerance
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
}

// AdminConfig guards the provider override endpoint
type AdminConfig struct {
	Token string // empty disables the override endpoint
}

// ProviderSettings holds per-provider overrides of the built-in provider table.
// Zero values mean "keep the built-in default".
type ProviderSettings struct {
	Enabled       *bool
	Priority      *int
	MinInterval   time.Duration
	Timeout       time.Duration
	BaseURL       string
	Host          string
	CredentialEnv string
	// APIKey is resolved from the CredentialEnv environment variable at load time
	APIKey string
}

// KnownProviders lists the provider keys always read from the environment,
// even when the config file has no section for them.
var KnownProviders = []string{"ebay", "etsy", "poshmark", "depop", "mercari", "grailed"}

// SharedCredentialEnv is consulted when a provider's own credential variable is unset
const SharedCredentialEnv = "RAPIDAPI_KEY"

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with SCOUT_ prefix (e.g., SCOUT_SEARCH_CACHE_TTL)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("SCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return build(v)
}

// build assembles the Config from a prepared viper instance
func build(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Search: SearchConfig{
			DefaultLimit:   v.GetInt("search.default_limit"),
			RankingPolicy:  v.GetString("search.ranking_policy"),
			GlobalDeadline: v.GetDuration("search.global_deadline"),
			LimiterBackend: v.GetString("search.limiter_backend"),
			CacheTTL:       v.GetDuration("search.cache_ttl"),
			CacheBackend:   v.GetString("search.cache_backend"),
			DedupEnabled:   !v.IsSet("search.dedup_enabled") || v.GetBool("search.dedup_enabled"),
			DedupTitleSim:  v.GetFloat64("search.dedup_title_similarity"),
			DedupPriceTol:  v.GetFloat64("search.dedup_price_tolerance"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
		Admin: AdminConfig{
			Token: v.GetString("admin.token"),
		},
		Providers: loadProviders(v),
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadProviders reads the providers.<id> sections and resolves credentials
func loadProviders(v *viper.Viper) map[string]ProviderSettings {
	keys := make(map[string]struct{}, len(KnownProviders))
	for _, id := range KnownProviders {
		keys[id] = struct{}{}
	}
	for id := range v.GetStringMap("providers") {
		keys[strings.ToLower(id)] = struct{}{}
	}

	ids := make([]string, 0, len(keys))
	for id := range keys {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	providers := make(map[string]ProviderSettings, len(ids))
	for _, id := range ids {
		prefix := "providers." + id + "."
		s := ProviderSettings{
			MinInterval:   v.GetDuration(prefix + "min_interval"),
			Timeout:       v.GetDuration(prefix + "timeout"),
			BaseURL:       v.GetString(prefix + "base_url"),
			Host:          v.GetString(prefix + "host"),
			CredentialEnv: v.GetString(prefix + "credential_env"),
		}
		if v.IsSet(prefix + "enabled") {
			enabled := v.GetBool(prefix + "enabled")
			s.Enabled = &enabled
		}
		if v.IsSet(prefix + "priority") {
			priority := v.GetInt(prefix + "priority")
			s.Priority = &priority
		}
		if s.CredentialEnv == "" {
			s.CredentialEnv = strings.ToUpper(id) + "_RAPIDAPI_KEY"
		}
		s.APIKey = resolveCredential(s.CredentialEnv)
		providers[id] = s
	}
	return providers
}

// resolveCredential reads a credential from the named env var, falling back
// to the shared marketplace key
func resolveCredential(envName string) string {
	if key := strings.TrimSpace(os.Getenv(envName)); key != "" {
		return key
	}
	return strings.TrimSpace(os.Getenv(SharedCredentialEnv))
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "marketscout"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// Must outlast the slowest provider timeout
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 60
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.RankingPolicy == "" {
		cfg.Search.RankingPolicy = "priority_first"
	}
	if cfg.Search.LimiterBackend == "" {
		cfg.Search.LimiterBackend = "memory"
	}
	if cfg.Search.CacheBackend == "" {
		cfg.Search.CacheBackend = "memory"
	}
	if cfg.Search.DedupTitleSim == 0 {
		cfg.Search.DedupTitleSim = 0.9
	}
	if cfg.Search.DedupPriceTol == 0 {
		cfg.Search.DedupPriceTol = 0.01
	}
	// Telemetry defaults
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317" // Default gRPC endpoint
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0 // 100% in development
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Search.RankingPolicy {
	case "priority_first", "global":
	default:
		return fmt.Errorf("search.ranking_policy must be priority_first or global, got %q", c.Search.RankingPolicy)
	}
	for key, backend := range map[string]string{
		"search.limiter_backend": c.Search.LimiterBackend,
		"search.cache_backend":   c.Search.CacheBackend,
	} {
		if backend != "memory" && backend != "redis" {
			return fmt.Errorf("%s must be memory or redis, got %q", key, backend)
		}
		if backend == "redis" && !c.Redis.Enabled {
			return fmt.Errorf("%s=redis requires redis.enabled=true", key)
		}
	}
	if c.Search.DefaultLimit < 1 || c.Search.DefaultLimit > 100 {
		return fmt.Errorf("search.default_limit must be between 1 and 100, got %d", c.Search.DefaultLimit)
	}
	if c.Search.GlobalDeadline < 0 {
		return fmt.Errorf("search.global_deadline cannot be negative")
	}
	if c.Search.CacheTTL < 0 {
		return fmt.Errorf("search.cache_ttl cannot be negative")
	}
	if c.Search.DedupTitleSim < 0 || c.Search.DedupTitleSim > 1 {
		return fmt.Errorf("search.dedup_title_similarity must be between 0.0 and 1.0, got %f", c.Search.DedupTitleSim)
	}
	if c.Search.DedupPriceTol < 0 {
		return fmt.Errorf("search.dedup_price_tolerance cannot be negative")
	}
	for id, p := range c.Providers {
		if p.MinInterval < 0 {
			return fmt.Errorf("providers.%s.min_interval cannot be negative", id)
		}
		if p.Timeout < 0 {
			return fmt.Errorf("providers.%s.timeout cannot be negative", id)
		}
	}

	// Production-specific validations
	if c.App.Env == "production" {
		// CORS must not use wildcard in production
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Admin.Token != "" && len(c.Admin.Token) < 32 {
			return fmt.Errorf("admin.token must be at least 32 characters in production")
		}
	}

	// Validate telemetry configuration (all environments)
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
