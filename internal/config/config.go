// AngelaMos | 2026
// config.go

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	LLMProviderOpenAI = "openai"
	LLMProviderMock   = "mock"
)

type Config struct {
	App           AppConfig       `koanf:"app"`
	Server        ServerConfig    `koanf:"server"`
	Database      DatabaseConfig  `koanf:"database"`
	Redis         RedisConfig     `koanf:"redis"`
	JWT           JWTConfig       `koanf:"jwt"`
	RateLimit     RateLimitConfig `koanf:"rate_limit"`
	GenerateLimit RateLimitConfig `koanf:"generate_limit"`
	CORS          CORSConfig      `koanf:"cors"`
	Log           LogConfig       `koanf:"log"`
	Otel          OtelConfig      `koanf:"otel"`
	LLM           LLMConfig       `koanf:"llm"`
	Fetch         FetchConfig     `koanf:"fetch"`
	Wix           WixConfig       `koanf:"wix"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type JWTConfig struct {
	PrivateKeyPath     string        `koanf:"private_key_path"`
	PublicKeyPath      string        `koanf:"public_key_path"`
	AccessTokenExpire  time.Duration `koanf:"access_token_expire"`
	RefreshTokenExpire time.Duration `koanf:"refresh_token_expire"`
	Issuer             string        `koanf:"issuer"`
	Audience           string        `koanf:"audience"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// LLMConfig points the generation client at any OpenAI-compatible chat
// completions endpoint. The default targets Gemini's compatibility layer.
type LLMConfig struct {
	Provider string        `koanf:"provider"`
	APIKey   string        `koanf:"api_key"`
	BaseURL  string        `koanf:"base_url"`
	Model    string        `koanf:"model"`
	Timeout  time.Duration `koanf:"timeout"`
}

type FetchConfig struct {
	Timeout   time.Duration `koanf:"timeout"`
	MaxBytes  int64         `koanf:"max_bytes"`
	MaxChars  int           `koanf:"max_chars"`
	UserAgent string        `koanf:"user_agent"`
}

type WixConfig struct {
	APIKey    string        `koanf:"api_key"`
	SiteID    string        `koanf:"site_id"`
	AccountID string        `koanf:"account_id"`
	BaseURL   string        `koanf:"base_url"`
	Timeout   time.Duration `koanf:"timeout"`
}

func (w WixConfig) Enabled() bool {
	return w.APIKey != ""
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath, ".env")
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func load(configPath, dotenvPath string) (*Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load dotenv: %w", err)
		}
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "SocialAI",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "90s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"jwt.access_token_expire":  "15m",
		"jwt.refresh_token_expire": "168h",
		"jwt.issuer":               "socialai",
		"jwt.audience":             "socialai-api",
		"jwt.private_key_path":     "keys/private.pem",
		"jwt.public_key_path":      "keys/public.pem",

		"rate_limit.requests": 100,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    20,

		"generate_limit.requests": 10,
		"generate_limit.window":   "1m",
		"generate_limit.burst":    3,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "socialai",

		"llm.provider": LLMProviderOpenAI,
		"llm.base_url": "https://generativelanguage.googleapis.com/v1beta/openai/",
		"llm.model":    "gemini-1.5-pro",
		"llm.timeout":  "60s",

		"fetch.timeout":    "15s",
		"fetch.max_bytes":  2 << 20,
		"fetch.max_chars":  3000,
		"fetch.user_agent": "SocialAI/1.0 (+content-fetcher)",

		"wix.base_url": "https://www.wixapis.com",
		"wix.timeout":  "20s",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"JWT_PRIVATE_KEY_PATH":        "jwt.private_key_path",
	"JWT_PUBLIC_KEY_PATH":         "jwt.public_key_path",
	"JWT_ACCESS_TOKEN_EXPIRE":     "jwt.access_token_expire",
	"JWT_REFRESH_TOKEN_EXPIRE":    "jwt.refresh_token_expire",
	"JWT_ISSUER":                  "jwt.issuer",
	"JWT_AUDIENCE":                "jwt.audience",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"GENERATE_LIMIT_REQUESTS":     "generate_limit.requests",
	"GENERATE_LIMIT_BURST":        "generate_limit.burst",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"LLM_PROVIDER":                "llm.provider",
	"LLM_API_KEY":                 "llm.api_key",
	"GEMINI_API_KEY":              "llm.api_key",
	"LLM_BASE_URL":                "llm.base_url",
	"LLM_MODEL":                   "llm.model",
	"LLM_TIMEOUT":                 "llm.timeout",
	"FETCH_TIMEOUT":               "fetch.timeout",
	"WIX_API_KEY":                 "wix.api_key",
	"WIX_SITE_ID":                 "wix.site_id",
	"WIX_ACCOUNT_ID":              "wix.account_id",
	"WIX_BASE_URL":                "wix.base_url",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.JWT.PrivateKeyPath == "" {
		return fmt.Errorf("JWT_PRIVATE_KEY_PATH is required")
	}

	if c.JWT.PublicKeyPath == "" {
		return fmt.Errorf("JWT_PUBLIC_KEY_PATH is required")
	}

	switch c.LLM.Provider {
	case LLMProviderOpenAI:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("LLM_API_KEY is required for provider %q", c.LLM.Provider)
		}
		if c.LLM.Model == "" {
			return fmt.Errorf("llm.model is required")
		}
	case LLMProviderMock:
		if c.App.Environment == "production" {
			return fmt.Errorf("llm provider %q is not allowed in production", c.LLM.Provider)
		}
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}

	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive")
	}

	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}

	if c.Fetch.MaxChars <= 0 {
		return fmt.Errorf("fetch.max_chars must be positive")
	}

	for name, rl := range map[string]RateLimitConfig{
		"rate_limit":     c.RateLimit,
		"generate_limit": c.GenerateLimit,
	} {
		if rl.Requests <= 0 {
			return fmt.Errorf("%s.requests must be positive", name)
		}
		if rl.Burst <= 0 {
			return fmt.Errorf("%s.burst must be positive", name)
		}
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= c.LLM.Timeout {
		return fmt.Errorf("server.write_timeout must exceed llm.timeout")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
