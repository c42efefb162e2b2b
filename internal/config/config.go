package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port         int           `mapstructure:"port" envconfig:"PORT"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	Mode         string        `mapstructure:"mode" envconfig:"MODE"`
	// DemoPassword, when set, seeds the three demo accounts (villager, doctor,
	// admin) with this password on startup.
	DemoPassword string `mapstructure:"demo_password" envconfig:"DEMO_PASSWORD"`
}

// StoreConfig selects the record store backend. Valid backends are "memory",
// "redis" and "postgres".
type StoreConfig struct {
	Backend string `mapstructure:"backend" envconfig:"STORE_BACKEND"`
	Prefix  string `mapstructure:"prefix" envconfig:"STORE_PREFIX"`
}

type RedisConfig struct {
	URL string `mapstructure:"url" envconfig:"REDIS_URL"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host" envconfig:"POSTGRES_HOST"`
	Port     int    `mapstructure:"port" envconfig:"POSTGRES_PORT"`
	User     string `mapstructure:"user" envconfig:"POSTGRES_USER"`
	Password string `mapstructure:"password" envconfig:"POSTGRES_PASSWORD"`
	Name     string `mapstructure:"name" envconfig:"POSTGRES_NAME"`
	SSLMode  string `mapstructure:"sslmode" envconfig:"POSTGRES_SSLMODE"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type JWTConfig struct {
	Secret             string `mapstructure:"secret" envconfig:"JWT_SECRET"`
	RefreshSecret      string `mapstructure:"refresh_secret" envconfig:"JWT_REFRESH_SECRET"`
	ExpiryHours        int    `mapstructure:"expiry_hours" envconfig:"JWT_EXPIRY_HOURS"`
	RefreshExpiryHours int    `mapstructure:"refresh_expiry_hours" envconfig:"JWT_REFRESH_EXPIRY_HOURS"`
}

type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled" envconfig:"SMTP_ENABLED"`
	Host     string `mapstructure:"host" envconfig:"SMTP_HOST"`
	Port     int    `mapstructure:"port" envconfig:"SMTP_PORT"`
	Username string `mapstructure:"username" envconfig:"SMTP_USERNAME"`
	Password string `mapstructure:"password" envconfig:"SMTP_PASSWORD"`
	From     string `mapstructure:"from" envconfig:"SMTP_FROM"`
}

type GeoConfig struct {
	BaseURL   string        `mapstructure:"base_url" envconfig:"GEO_BASE_URL"`
	UserAgent string        `mapstructure:"user_agent" envconfig:"GEO_USER_AGENT"`
	Timeout   time.Duration `mapstructure:"timeout" envconfig:"GEO_TIMEOUT"`
}

type MonitorConfig struct {
	Interval time.Duration `mapstructure:"interval" envconfig:"MONITOR_INTERVAL"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled" envconfig:"RATELIMIT_ENABLED"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" envconfig:"RATELIMIT_RPS"`
	Burst             int     `mapstructure:"burst" envconfig:"RATELIMIT_BURST"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Geo       GeoConfig       `mapstructure:"geo"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// Load reads config.yaml, then lets HEALTH_* environment variables override
// individual values. A .env file is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	config := defaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("HEALTH", config); err != nil {
		return nil, fmt.Errorf("failed to process environment overrides: %w", err)
	}

	if config.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	return config, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			Mode:         "release",
		},
		Store: StoreConfig{
			Backend: "memory",
		},
		Postgres: PostgresConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		JWT: JWTConfig{
			ExpiryHours:        24,
			RefreshExpiryHours: 168,
		},
		Geo: GeoConfig{
			BaseURL:   "https://nominatim.openstreetmap.org",
			UserAgent: "health-api/1.0",
			Timeout:   10 * time.Second,
		},
		Monitor: MonitorConfig{
			Interval: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 100,
			Burst:             200,
		},
	}
}
