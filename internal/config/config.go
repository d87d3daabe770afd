package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	Env     string `envconfig:"APP_ENV" default:"development"`
	Port    int    `envconfig:"APP_PORT" default:"8080"`
	DB      DBConfig
	Redis   RedisConfig
	Limiter RateLimiterConfig
	CORS    CORSConfig
	JWT     JWTConfig
	Crypto  CryptoConfig
	LLM     LLMConfig
	Google  GoogleConfig
	Bypass  BypassAuthConfig
	Fetcher FetcherConfig
}

// database configuration
type DBConfig struct {
	DSN             string        `envconfig:"DATABASE_URL" required:"true"`
	MaxConns        int32         `envconfig:"DB_MAX_CONNS" default:"20"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `envconfig:"DB_MAX_IDLE_TIME" default:"15m"`
	Migrate         bool          `envconfig:"DB_MIGRATE" default:"true"`
}

// redis configuration
type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL time.Duration `envconfig:"REDIS_CACHE_TTL" default:"24h"`
}

// rate limiting configuration
type RateLimiterConfig struct {
	RPS     float64 `envconfig:"RATE_LIMIT_RPS" default:"10"`
	Burst   int     `envconfig:"RATE_LIMIT_BURST" default:"20"`
	Enabled bool    `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CORS configuration
type CORSConfig struct {
	TrustedOrigins []string `envconfig:"CORS_TRUSTED_ORIGINS" default:"http://localhost:3000,http://localhost:5173,http://localhost:8081"`
}

// JWT configuration
type JWTConfig struct {
	Secret   string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL time.Duration `envconfig:"JWT_TOKEN_TTL" default:"19h"`
}

// encryption configuration for stored answers
type CryptoConfig struct {
	Secret string `envconfig:"AES_SECRET_KEY" required:"true"`
}

// LLM configuration. Any OpenAI compatible chat-completions endpoint works,
// Groq included.
type LLMConfig struct {
	APIKey  string        `envconfig:"OPENAI_API_KEY" required:"true"`
	BaseURL string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	Model   string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	Timeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"30s"`
}

// Google sign-in configuration
type GoogleConfig struct {
	ClientID string `envconfig:"GOOGLE_CLIENT_ID"`
}

// BypassAuthConfig substitutes a fixed user for local development.
type BypassAuthConfig struct {
	Enabled bool   `envconfig:"BYPASS_AUTH" default:"false"`
	UserID  string `envconfig:"MOCK_USER_ID" default:"00000000-0000-0000-0000-000000000001"`
	Email   string `envconfig:"MOCK_USER_EMAIL" default:"dev@example.com"`
	Name    string `envconfig:"MOCK_USER_NAME" default:"Dev User"`
}

// outbound scraping / lookup configuration
type FetcherConfig struct {
	UserAgent      string        `envconfig:"FETCHER_USER_AGENT" default:"Mozilla/5.0 (compatible; JobPrepBot/1.0)"`
	Timeout        time.Duration `envconfig:"FETCHER_TIMEOUT" default:"15s"`
	LeetcodeURL    string        `envconfig:"LEETCODE_GRAPHQL_URL" default:"https://leetcode.com/graphql/"`
	TechnicalCount int           `envconfig:"TECHNICAL_QUESTION_COUNT" default:"5"`
	// AllowPrivateHosts lets job imports reach loopback and private networks
	AllowPrivateHosts bool `envconfig:"FETCHER_ALLOW_PRIVATE_HOSTS" default:"false"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Env] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Env)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be between 1 and 65535)", c.Port)
	}
	if c.DB.MaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be at least 1")
	}
	if c.Limiter.RPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be non-negative")
	}
	if c.Limiter.Burst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.JWT.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TOKEN_TTL must be positive")
	}
	secretLen := len(c.Crypto.Secret)
	if secretLen != 16 && secretLen != 24 && secretLen != 32 {
		return fmt.Errorf("AES_SECRET_KEY must be 16, 24, or 32 bytes (got %d)", secretLen)
	}
	if len(c.GetCORSOrigins()) == 0 {
		return fmt.Errorf("at least one trusted origin must be specified")
	}
	if !c.Bypass.Enabled && c.Google.ClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID is required unless BYPASS_AUTH is enabled")
	}
	if c.Bypass.Enabled && c.IsProduction() {
		return fmt.Errorf("BYPASS_AUTH cannot be enabled in production")
	}
	if c.Fetcher.TechnicalCount < 0 {
		return fmt.Errorf("TECHNICAL_QUESTION_COUNT must be non-negative")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// GetCORSOrigins returns the list of trusted CORS origins
func (c *Config) GetCORSOrigins() []string {
	origins := make([]string, 0, len(c.CORS.TrustedOrigins))
	for _, origin := range c.CORS.TrustedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Env=%s, Port=%d, DB.MaxConns=%d, Redis.Addr=%s, "+
		"Limiter.RPS=%.2f, Limiter.Burst=%d, Limiter.Enabled=%t, CORS.Origins=%d, "+
		"JWT.TokenTTL=%s, LLM.Model=%s, BypassAuth=%t}",
		c.Env, c.Port, c.DB.MaxConns, c.Redis.Addr,
		c.Limiter.RPS, c.Limiter.Burst, c.Limiter.Enabled, len(c.CORS.TrustedOrigins),
		c.JWT.TokenTTL, c.LLM.Model, c.Bypass.Enabled)
}
