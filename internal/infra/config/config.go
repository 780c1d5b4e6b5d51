package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yanqian/astro-api/internal/domain/anglematch"
	"github.com/yanqian/astro-api/internal/domain/auth"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Search   SearchConfig   `yaml:"search"`
	Aspects  AspectsConfig  `yaml:"aspects"`
	Cache    CacheConfig    `yaml:"cache"`
	Events   EventsConfig   `yaml:"events"`
	Timeline TimelineConfig `yaml:"timeline"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// AuthConfig holds token signing settings and API clients. An empty secret disables auth.
type AuthConfig struct {
	Secret          string        `yaml:"secret"`
	Issuer          string        `yaml:"issuer"`
	TokenTTL        time.Duration `yaml:"tokenTtl"`
	RefreshTokenTTL time.Duration `yaml:"refreshTokenTtl"`
	Clients         []auth.Client `yaml:"clients"`
}

// SearchConfig holds one engine setup per search call site.
type SearchConfig struct {
	SolarReturn    EngineConfig `yaml:"solarReturn"`
	LongitudeMatch EngineConfig `yaml:"longitudeMatch"`
}

// EngineConfig tunes an angle-match search.
type EngineConfig struct {
	Engine        string        `yaml:"engine"`
	WindowDays    float64       `yaml:"windowDays"`
	SweepStep     time.Duration `yaml:"sweepStep"`
	BracketStep   time.Duration `yaml:"bracketStep"`
	ToleranceDeg  float64       `yaml:"toleranceDeg"`
	MaxIterations int           `yaml:"maxIterations"`
	TimeTolerance time.Duration `yaml:"timeTolerance"`
}

// AspectsConfig locates the orb profile file.
type AspectsConfig struct {
	DefaultProfile string `yaml:"defaultProfile"`
	ProfilesFile   string `yaml:"profilesFile"`
	Watch          bool   `yaml:"watch"`
}

// CacheConfig controls response caching.
type CacheConfig struct {
	TTL    time.Duration `yaml:"ttl"`
	Valkey ValkeyConfig  `yaml:"valkey"`
}

// ValkeyConfig contains connection information for cache storage.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// EventsConfig controls event persistence.
type EventsConfig struct {
	Persist  bool           `yaml:"persist"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// TimelineConfig bounds the yearly timeline fan-out.
type TimelineConfig struct {
	Parallelism int `yaml:"parallelism"`
}

// Load reads configuration from .env, a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	// .env only fills variables the process environment does not already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_ENABLED"); v != "" {
		cfg.HTTP.Retry.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RETRY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_BASE_BACKOFF"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.Retry.BaseBackoff = parsed
		}
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("AUTH_TOKEN_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = parsed
		}
	}
	if v := os.Getenv("SEARCH_ENGINE"); v != "" {
		cfg.Search.SolarReturn.Engine = v
		cfg.Search.LongitudeMatch.Engine = v
	}
	if v := os.Getenv("ASPECTS_DEFAULT_PROFILE"); v != "" {
		cfg.Aspects.DefaultProfile = v
	}
	if v := os.Getenv("ASPECTS_PROFILES_FILE"); v != "" {
		cfg.Aspects.ProfilesFile = v
	}
	if v := os.Getenv("ASPECTS_WATCH"); v != "" {
		cfg.Aspects.Watch = parseBool(v)
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = parsed
		}
	}
	if v := os.Getenv("CACHE_VALKEY_ENABLED"); v != "" {
		cfg.Cache.Valkey.Enabled = parseBool(v)
	}
	if v := os.Getenv("CACHE_VALKEY_ADDR"); v != "" {
		cfg.Cache.Valkey.Addr = v
	}
	if v := os.Getenv("EVENTS_PERSIST"); v != "" {
		cfg.Events.Persist = parseBool(v)
	}
	if v := os.Getenv("EVENTS_POSTGRES_DSN"); v != "" {
		cfg.Events.Postgres.DSN = v
	}
	if v := os.Getenv("EVENTS_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Events.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("TIMELINE_PARALLELISM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Timeline.Parallelism = parsed
		}
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultConfig() *Config {
	search := EngineConfig{
		Engine:        "v2",
		WindowDays:    3,
		SweepStep:     time.Hour,
		BracketStep:   6 * time.Hour,
		ToleranceDeg:  1e-5,
		MaxIterations: anglematch.DefaultMaxIterations,
		TimeTolerance: time.Second,
	}
	longitude := search
	longitude.WindowDays = 400
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/auth/token",
				},
			},
		},
		Auth: AuthConfig{
			Issuer:          "astro-api",
			TokenTTL:        time.Hour,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		Search: SearchConfig{
			SolarReturn:    search,
			LongitudeMatch: longitude,
		},
		Aspects: AspectsConfig{
			DefaultProfile: "modern",
		},
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
			Valkey: ValkeyConfig{
				Prefix: "astro",
			},
		},
		Events: EventsConfig{
			Persist: true,
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
		Timeline: TimelineConfig{
			Parallelism: 4,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	if c.Auth.Secret != "" {
		if len(c.Auth.Secret) < 16 {
			return errors.New("auth.secret must be at least 16 characters")
		}
		if c.Auth.TokenTTL <= 0 {
			return errors.New("auth.tokenTtl must be positive")
		}
		for _, client := range c.Auth.Clients {
			if strings.TrimSpace(client.ID) == "" || strings.TrimSpace(client.KeyHash) == "" {
				return errors.New("auth.clients entries need id and keyHash")
			}
		}
	}
	if err := c.Search.SolarReturn.validate("search.solarReturn"); err != nil {
		return err
	}
	if err := c.Search.LongitudeMatch.validate("search.longitudeMatch"); err != nil {
		return err
	}
	if strings.TrimSpace(c.Aspects.DefaultProfile) == "" {
		return errors.New("aspects.defaultProfile cannot be empty")
	}
	if c.Aspects.Watch && strings.TrimSpace(c.Aspects.ProfilesFile) == "" {
		return errors.New("aspects.profilesFile cannot be empty when watch is enabled")
	}
	if c.Cache.TTL < 0 {
		return errors.New("cache.ttl cannot be negative")
	}
	if c.Cache.Valkey.Enabled && strings.TrimSpace(c.Cache.Valkey.Addr) == "" {
		return errors.New("cache.valkey.addr cannot be empty when valkey cache is enabled")
	}
	if c.Timeline.Parallelism <= 0 {
		return errors.New("timeline.parallelism must be positive")
	}
	return nil
}

func (e EngineConfig) validate(section string) error {
	if _, err := anglematch.ForEngine(e.Engine); err != nil {
		return fmt.Errorf("%s.engine: %w", section, err)
	}
	if e.WindowDays <= 0 {
		return fmt.Errorf("%s.windowDays must be positive", section)
	}
	if e.ToleranceDeg <= 0 {
		return fmt.Errorf("%s.toleranceDeg must be positive", section)
	}
	if e.SweepStep < 0 || e.BracketStep < 0 || e.TimeTolerance < 0 {
		return fmt.Errorf("%s step sizes cannot be negative", section)
	}
	if e.MaxIterations < 0 {
		return fmt.Errorf("%s.maxIterations cannot be negative", section)
	}
	return nil
}
