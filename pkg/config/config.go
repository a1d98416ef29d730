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

	Auth struct {
		JWTSecret       string        `yaml:"jwt_secret"`
		AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
		RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
	} `yaml:"auth"`

	Realtime struct {
		PingInterval       time.Duration `yaml:"ping_interval"`
		PongTimeout        time.Duration `yaml:"pong_timeout"`
		WriteTimeout       time.Duration `yaml:"write_timeout"`
		SendBufferSize     int           `yaml:"send_buffer_size"`
		EchoPersonalEvents bool          `yaml:"echo_personal_events"`
	} `yaml:"realtime"`

	Analytics struct {
		Timezone      string        `yaml:"timezone"`
		CacheTTL      time.Duration `yaml:"cache_ttl"`
		BatchSize     int           `yaml:"batch_size"`
		BatchInterval time.Duration `yaml:"batch_interval"`
	} `yaml:"analytics"`

	Scheduler struct {
		Enabled  bool          `yaml:"enabled"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"scheduler"`

	Backup struct {
		Enabled       bool          `yaml:"enabled"`
		Directory     string        `yaml:"directory"`
		Interval      time.Duration `yaml:"interval"`
		RetentionDays int           `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		JaegerURL   string  `yaml:"jaeger_url"`
		Environment string  `yaml:"environment"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	RateLimiting struct {
		Enabled           bool    `yaml:"enabled"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
		MaxConcurrent     int     `yaml:"max_concurrent"`
	} `yaml:"rate_limiting"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
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

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty")
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("auth.access_token_ttl must be > 0")
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("auth.refresh_token_ttl must be > 0")
	}

	if c.Realtime.PingInterval <= 0 {
		return fmt.Errorf("realtime.ping_interval must be > 0")
	}
	if c.Realtime.PongTimeout <= 0 {
		return fmt.Errorf("realtime.pong_timeout must be > 0")
	}
	if c.Realtime.WriteTimeout <= 0 {
		return fmt.Errorf("realtime.write_timeout must be > 0")
	}
	if c.Realtime.SendBufferSize <= 0 {
		return fmt.Errorf("realtime.send_buffer_size must be > 0")
	}

	if c.Analytics.Timezone != "" {
		if _, err := time.LoadLocation(c.Analytics.Timezone); err != nil {
			return fmt.Errorf("analytics.timezone is not a valid location: %w", err)
		}
	}

	if c.Analytics.CacheTTL < 0 {
		return fmt.Errorf("analytics.cache_ttl must be >= 0")
	}
	if c.Analytics.BatchSize < 0 {
		return fmt.Errorf("analytics.batch_size must be >= 0")
	}

	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be > 0 when scheduler.enabled=true")
	}

	if c.Backup.Enabled {
		if c.Backup.Directory == "" {
			return fmt.Errorf("backup.directory must not be empty when backup.enabled=true")
		}
		if c.Backup.Interval <= 0 {
			return fmt.Errorf("backup.interval must be > 0 when backup.enabled=true")
		}
		if c.Backup.RetentionDays <= 0 {
			return fmt.Errorf("backup.retention_days must be > 0 when backup.enabled=true")
		}
	}

	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when redis.enabled=true")
		}
	}

	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort <= 0 {
		return fmt.Errorf("monitoring.prometheus_port must be > 0 when prometheus_enabled=true")
	}

	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing.enabled=true")
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be within [0, 1]")
		}
	}

	if c.RateLimiting.Enabled {
		if c.RateLimiting.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.Burst <= 0 {
			return fmt.Errorf("rate_limiting.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.MaxConcurrent < 0 {
			return fmt.Errorf("rate_limiting.max_concurrent must be >= 0 when rate limiting is enabled")
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

	cfg.Auth.JWTSecret = "change-me-in-production"
	cfg.Auth.AccessTokenTTL = 15 * time.Minute
	cfg.Auth.RefreshTokenTTL = 7 * 24 * time.Hour // 7 days

	cfg.Realtime.PingInterval = 30 * time.Second
	cfg.Realtime.PongTimeout = 60 * time.Second
	cfg.Realtime.WriteTimeout = 10 * time.Second
	cfg.Realtime.SendBufferSize = 64
	cfg.Realtime.EchoPersonalEvents = false

	cfg.Analytics.Timezone = "UTC"
	cfg.Analytics.CacheTTL = 30 * time.Second
	cfg.Analytics.BatchSize = 0 // batching disabled unless configured
	cfg.Analytics.BatchInterval = time.Second

	cfg.Scheduler.Enabled = true
	cfg.Scheduler.Interval = time.Minute

	cfg.Backup.Enabled = false
	cfg.Backup.Directory = "backups"
	cfg.Backup.Interval = 6 * time.Hour
	cfg.Backup.RetentionDays = 7

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Monitoring.PrometheusEnabled = true
	cfg.Monitoring.PrometheusPort = 9090

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.Environment = "development"
	cfg.Tracing.SampleRate = 1.0

	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.RequestsPerSecond = 50
	cfg.RateLimiting.Burst = 100
	cfg.RateLimiting.MaxConcurrent = 0

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("SOCIALDECK_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if level := os.Getenv("SOCIALDECK_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if secret := os.Getenv("SOCIALDECK_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if addr := os.Getenv("SOCIALDECK_REDIS_ADDRESS"); addr != "" {
		c.Redis.Address = addr
		c.Redis.Enabled = true
	}
}
