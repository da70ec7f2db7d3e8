package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Twitch struct {
		TokenURL        string        `yaml:"token_url"`
		AuthorizeURL    string        `yaml:"authorize_url"`
		HelixURL        string        `yaml:"helix_url"`
		CallbackBaseURL string        `yaml:"callback_base_url"`
		RequestTimeout  time.Duration `yaml:"request_timeout"`
		SignatureWindow time.Duration `yaml:"signature_window"`
	} `yaml:"twitch"`

	Forwarding struct {
		Timeout          time.Duration `yaml:"timeout"`
		BreakerEnabled   bool          `yaml:"breaker_enabled"`
		BreakerThreshold int           `yaml:"breaker_threshold"`
		BreakerCooldown  time.Duration `yaml:"breaker_cooldown"`
	} `yaml:"forwarding"`

	Feed struct {
		BufferCapacity  int           `yaml:"buffer_capacity"`
		ListenerBacklog int           `yaml:"listener_backlog"`
		PingInterval    time.Duration `yaml:"ping_interval"`
		PongTimeout     time.Duration `yaml:"pong_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
	} `yaml:"feed"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled    bool    `yaml:"enabled"`
		JaegerURL  string  `yaml:"jaeger_url"`
		SampleRate float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	Auth struct {
		JWTSecret       string        `yaml:"jwt_secret"`
		AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
		RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
	} `yaml:"auth"`

	RateLimiting struct {
		Enabled bool `yaml:"enabled"`

		HTTP struct {
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
			MaxConcurrent     int     `yaml:"max_concurrent"` // global concurrent HTTP requests
		} `yaml:"http"`
	} `yaml:"rate_limiting"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Server
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	// Twitch
	if c.Twitch.TokenURL == "" {
		return fmt.Errorf("twitch.token_url must not be empty")
	}
	if c.Twitch.HelixURL == "" {
		return fmt.Errorf("twitch.helix_url must not be empty")
	}
	if c.Twitch.SignatureWindow <= 0 {
		return fmt.Errorf("twitch.signature_window must be > 0")
	}
	if c.Twitch.RequestTimeout <= 0 {
		return fmt.Errorf("twitch.request_timeout must be > 0")
	}

	// Forwarding
	if c.Forwarding.Timeout <= 0 {
		return fmt.Errorf("forwarding.timeout must be > 0")
	}
	if c.Forwarding.BreakerEnabled {
		if c.Forwarding.BreakerThreshold <= 0 {
			return fmt.Errorf("forwarding.breaker_threshold must be > 0 when breaker_enabled=true")
		}
		if c.Forwarding.BreakerCooldown <= 0 {
			return fmt.Errorf("forwarding.breaker_cooldown must be > 0 when breaker_enabled=true")
		}
	}

	// Feed
	if c.Feed.BufferCapacity <= 0 {
		return fmt.Errorf("feed.buffer_capacity must be > 0")
	}
	if c.Feed.ListenerBacklog <= 0 {
		return fmt.Errorf("feed.listener_backlog must be > 0")
	}
	if c.Feed.PingInterval <= 0 {
		return fmt.Errorf("feed.ping_interval must be > 0")
	}
	if c.Feed.PongTimeout <= 0 {
		return fmt.Errorf("feed.pong_timeout must be > 0")
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when redis.enabled=true")
		}
	}

	// Auth
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty")
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("auth.access_token_ttl must be > 0")
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("auth.refresh_token_ttl must be > 0")
	}

	// Rate limiting
	if c.RateLimiting.Enabled {
		if c.RateLimiting.HTTP.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.http.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.Burst <= 0 {
			return fmt.Errorf("rate_limiting.http.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.MaxConcurrent < 0 {
			return fmt.Errorf("rate_limiting.http.max_concurrent must be >= 0 when rate limiting is enabled")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Twitch.TokenURL = "https://id.twitch.tv/oauth2/token"
	cfg.Twitch.AuthorizeURL = "https://id.twitch.tv/oauth2/authorize"
	cfg.Twitch.HelixURL = "https://api.twitch.tv/helix"
	cfg.Twitch.CallbackBaseURL = "http://localhost:8080"
	cfg.Twitch.RequestTimeout = 10 * time.Second
	cfg.Twitch.SignatureWindow = 10 * time.Minute

	cfg.Forwarding.Timeout = 5 * time.Second
	cfg.Forwarding.BreakerEnabled = false
	cfg.Forwarding.BreakerThreshold = 5
	cfg.Forwarding.BreakerCooldown = 30 * time.Second

	cfg.Feed.BufferCapacity = 50
	cfg.Feed.ListenerBacklog = 16
	cfg.Feed.PingInterval = 30 * time.Second
	cfg.Feed.PongTimeout = 60 * time.Second
	cfg.Feed.WriteTimeout = 10 * time.Second

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10

	cfg.Auth.JWTSecret = "change-me-in-production"
	cfg.Auth.AccessTokenTTL = 15 * time.Minute
	cfg.Auth.RefreshTokenTTL = 7 * 24 * time.Hour // 7 days

	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 50
	cfg.RateLimiting.HTTP.Burst = 100
	cfg.RateLimiting.HTTP.MaxConcurrent = 0

	return cfg
}

func (c *Config) applyEnvOverrides() {
	// Apply environment variable overrides
	if addr := os.Getenv("TWITCHBRIDGE_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if level := os.Getenv("TWITCHBRIDGE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if secret := os.Getenv("TWITCHBRIDGE_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if callback := os.Getenv("TWITCHBRIDGE_CALLBACK_BASE_URL"); callback != "" {
		c.Twitch.CallbackBaseURL = callback
	}
	if addr := os.Getenv("TWITCHBRIDGE_REDIS_ADDRESS"); addr != "" {
		c.Redis.Address = addr
	}
}
