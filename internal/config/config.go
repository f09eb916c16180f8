package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
	Trading  TradingConfig  `yaml:"trading"`
	Ticker   TickerConfig   `yaml:"ticker"`
	Admin    AdminConfig    `yaml:"admin"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	Mode           string   `yaml:"mode"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours"`
}

// StorageConfig selects the backing store: "postgres" or "memory".
type StorageConfig struct {
	Driver string `yaml:"driver"`
}

type LogConfig struct {
	Dir        string `yaml:"dir"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// TradingConfig holds the simulated-market business rules.
type TradingConfig struct {
	DefaultDurationSec int     `yaml:"default_duration_sec"`
	WinPctMin          float64 `yaml:"win_pct_min"`
	WinPctMax          float64 `yaml:"win_pct_max"`
	LossPctMin         float64 `yaml:"loss_pct_min"`
	LossPctMax         float64 `yaml:"loss_pct_max"`
	ReferralRate       float64 `yaml:"referral_rate"`
	StarterTotal       string  `yaml:"starter_total"`
	StarterTrading     string  `yaml:"starter_trading"`
	StarterProfit      string  `yaml:"starter_profit"`
}

// StarterBalances are the parsed starter_* amounts.
type StarterBalances struct {
	Total   decimal.Decimal
	Trading decimal.Decimal
	Profit  decimal.Decimal
}

type TickerConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// AdminConfig seeds the first admin account at startup. Empty email
// disables seeding.
type AdminConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	FullName string `yaml:"full_name"`
}

// Default returns a configuration that boots an in-memory instance.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			Mode:           "debug",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			DBName:  "edgemarket",
			SSLMode: "disable",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		JWT: JWTConfig{
			Secret:      "change-me",
			ExpireHours: 24,
		},
		Storage: StorageConfig{Driver: "memory"},
		Log: LogConfig{
			Dir:        "logs",
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 30,
			MaxAgeDays: 30,
		},
		Trading: TradingConfig{
			DefaultDurationSec: 60,
			WinPctMin:          70,
			WinPctMax:          85,
			LossPctMin:         85,
			LossPctMax:         100,
			ReferralRate:       0.10,
			StarterTotal:       "0",
			StarterTrading:     "0",
			StarterProfit:      "0",
		},
		Ticker: TickerConfig{Interval: 2 * time.Second},
		Admin:  AdminConfig{FullName: "Administrator"},
	}
}

// Load loads configuration from file and environment variables.
// A missing file is not an error; defaults and env still apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	// .env is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate rejects business rules that would let balances go negative or
// produce nonsensical trade outcomes.
func (c *Config) Validate() error {
	t := c.Trading
	if t.DefaultDurationSec <= 0 {
		return errors.New("trading.default_duration_sec must be positive")
	}
	if t.WinPctMin < 0 || t.WinPctMin >= t.WinPctMax {
		return fmt.Errorf("trading.win_pct_min (%v) must be non-negative and below win_pct_max (%v)", t.WinPctMin, t.WinPctMax)
	}
	if t.LossPctMin < 0 || t.LossPctMin >= t.LossPctMax || t.LossPctMax > 100 {
		return fmt.Errorf("trading.loss_pct_min (%v) must be non-negative and below loss_pct_max (%v), which is at most 100", t.LossPctMin, t.LossPctMax)
	}
	if t.ReferralRate < 0 || t.ReferralRate > 1 {
		return fmt.Errorf("trading.referral_rate (%v) must be within [0, 1]", t.ReferralRate)
	}
	if _, err := t.StarterBalances(); err != nil {
		return err
	}
	if c.Ticker.Interval <= 0 {
		return errors.New("ticker.interval must be positive")
	}
	return nil
}

// StarterBalances parses the balances credited to new accounts.
func (t TradingConfig) StarterBalances() (StarterBalances, error) {
	var sb StarterBalances
	for _, f := range []struct {
		key string
		raw string
		dst *decimal.Decimal
	}{
		{"starter_total", t.StarterTotal, &sb.Total},
		{"starter_trading", t.StarterTrading, &sb.Trading},
		{"starter_profit", t.StarterProfit, &sb.Profit},
	} {
		d, err := decimal.NewFromString(strings.TrimSpace(f.raw))
		if err != nil {
			return StarterBalances{}, fmt.Errorf("trading.%s %q is not a decimal: %w", f.key, f.raw, err)
		}
		if d.IsNegative() {
			return StarterBalances{}, fmt.Errorf("trading.%s must be non-negative, got %s", f.key, d)
		}
		*f.dst = d
	}
	return sb, nil
}

func (c *Config) loadFromEnv() {
	// Server
	if v := os.Getenv("SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("SERVER_MODE"); v != "" {
		c.Server.Mode = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}

	// Database
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Database.DBName = v
	}

	// Redis
	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		c.Redis.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Redis.Port = port
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}

	// JWT
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("JWT_EXPIRE_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil {
			c.JWT.ExpireHours = hours
		}
	}

	// Storage
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}

	// Log
	if v := os.Getenv("LOG_DIR"); v != "" {
		c.Log.Dir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	// Admin
	if v := os.Getenv("ADMIN_EMAIL"); v != "" {
		c.Admin.Email = v
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		c.Admin.Password = v
	}
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}

// Addr returns the redis host:port pair
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
