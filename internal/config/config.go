// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App          AppConfig          `koanf:"app"`
	Server       ServerConfig       `koanf:"server"`
	Database     DatabaseConfig     `koanf:"database"`
	Redis        RedisConfig        `koanf:"redis"`
	JWT          JWTConfig          `koanf:"jwt"`
	RateLimit    RateLimitConfig    `koanf:"rate_limit"`
	CORS         CORSConfig         `koanf:"cors"`
	Log          LogConfig          `koanf:"log"`
	Otel         OtelConfig         `koanf:"otel"`
	Metrics      MetricsConfig      `koanf:"metrics"`
	AMQP         AMQPConfig         `koanf:"amqp"`
	Subscription SubscriptionConfig `koanf:"subscription"`
	Access       AccessConfig       `koanf:"access"`
	Pricing      PricingConfig      `koanf:"pricing"`
	Reset        ResetConfig        `koanf:"reset"`
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
	MigrationsPath  string        `koanf:"migrations_path"`
	ConnectRetries  int           `koanf:"connect_retries"`
	RetryBackoff    time.Duration `koanf:"retry_backoff"`
}

type RedisConfig struct {
	URL            string `koanf:"url"`
	PoolSize       int    `koanf:"pool_size"`
	MinIdleConns   int    `koanf:"min_idle_conns"`
	ConnectRetries int    `koanf:"connect_retries"`
}

type JWTConfig struct {
	PrivateKeyPath     string        `koanf:"private_key_path"`
	PublicKeyPath      string        `koanf:"public_key_path"`
	AccessTokenExpire  time.Duration `koanf:"access_token_expire"`
	RefreshTokenExpire time.Duration `koanf:"refresh_token_expire"`
	Issuer             string        `koanf:"issuer"`
	Audience           string        `koanf:"audience"`
	// GenerateKeys writes a key pair on startup when none exists.
	GenerateKeys bool `koanf:"generate_keys"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
	// SubmitPerMinute caps subscription submissions per account.
	SubmitPerMinute int `koanf:"submit_per_minute"`
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

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

type AMQPConfig struct {
	Enabled      bool          `koanf:"enabled"`
	URL          string        `koanf:"url"`
	Exchange     string        `koanf:"exchange"`
	DialRetries  int           `koanf:"dial_retries"`
	RetryBackoff time.Duration `koanf:"retry_backoff"`
}

// SubscriptionConfig holds the fixed access window granted on approval.
type SubscriptionConfig struct {
	AccessDuration time.Duration `koanf:"access_duration"`
}

type AccessConfig struct {
	RevealDuration time.Duration `koanf:"reveal_duration"`
	StreamTick     time.Duration `koanf:"stream_tick"`
}

// PricingConfig is served while the shared pricing row is missing.
type PricingConfig struct {
	DefaultPrice24 int64 `koanf:"default_price_24"`
	DefaultPrice5  int64 `koanf:"default_price_5"`
}

type ResetConfig struct {
	TicketTTL       time.Duration `koanf:"ticket_ttl"`
	RequestsPerMin  int           `koanf:"requests_per_minute"`
	BurstPerAddress int           `koanf:"burst"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func load(configPath string) (*Config, error) {
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
		"app.name":        "WiFi Portal",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "0s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.migrations_path":    "migrations",
		"database.connect_retries":    5,
		"database.retry_backoff":      "2s",

		"redis.pool_size":       10,
		"redis.min_idle_conns":  5,
		"redis.connect_retries": 5,

		"jwt.access_token_expire":  "15m",
		"jwt.refresh_token_expire": "168h",
		"jwt.issuer":               "wifi-portal",
		"jwt.audience":             "wifi-portal-api",
		"jwt.private_key_path":     "keys/private.pem",
		"jwt.public_key_path":      "keys/public.pem",
		"jwt.generate_keys":        false,

		"rate_limit.requests": 100,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    20,

		"rate_limit.submit_per_minute": 5,

		"cors.allowed_origins": []string{"http://localhost:5173"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
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
		"otel.service_name": "wifi-portal",

		"metrics.enabled": true,
		"metrics.path":    "/metrics",

		"amqp.enabled":       false,
		"amqp.exchange":      "subscriptions",
		"amqp.dial_retries":  5,
		"amqp.retry_backoff": "2s",

		"subscription.access_duration": "144h",

		"access.reveal_duration": "30s",
		"access.stream_tick":     "1m",

		"pricing.default_price_24": 2000,
		"pricing.default_price_5":  5000,

		"reset.ticket_ttl":          "10m",
		"reset.requests_per_minute": 5,
		"reset.burst":               5,
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
	"MIGRATIONS_PATH":             "database.migrations_path",
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
	"JWT_GENERATE_KEYS":           "jwt.generate_keys",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"SUBMIT_RATE_LIMIT":           "rate_limit.submit_per_minute",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"METRICS_ENABLED":             "metrics.enabled",
	"AMQP_ENABLED":                "amqp.enabled",
	"AMQP_URL":                    "amqp.url",
	"AMQP_EXCHANGE":               "amqp.exchange",
	"SUBSCRIPTION_DURATION":       "subscription.access_duration",
	"REVEAL_DURATION":             "access.reveal_duration",
	"STREAM_TICK":                 "access.stream_tick",
	"RESET_TICKET_TTL":            "reset.ticket_ttl",
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
		if c.JWT.GenerateKeys {
			return fmt.Errorf("JWT_GENERATE_KEYS must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	// write_timeout stays zero by default: the dashboard streams are long lived.
	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server.write_timeout must not be negative")
	}

	if c.Subscription.AccessDuration <= 0 {
		return fmt.Errorf("subscription.access_duration must be positive")
	}

	if c.Access.RevealDuration <= 0 {
		return fmt.Errorf("access.reveal_duration must be positive")
	}

	if c.Access.StreamTick <= 0 || c.Access.StreamTick > time.Minute {
		return fmt.Errorf("access.stream_tick must be within (0, 1m]")
	}

	if c.RateLimit.Requests <= 0 || c.RateLimit.SubmitPerMinute <= 0 || c.Reset.RequestsPerMin <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}

	if c.AMQP.Enabled && c.AMQP.URL == "" {
		return fmt.Errorf("AMQP_URL is required when amqp is enabled")
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
