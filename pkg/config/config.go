package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DBConfig selects the ledger backend. An empty DSN falls back to the first
// writable SQLite file among SQLitePaths.
type DBConfig struct {
	DSN         string   `mapstructure:"dsn"`
	SQLitePaths []string `mapstructure:"sqlite_paths"`
}

type UploadConfig struct {
	Dir          string `mapstructure:"dir"`
	MaxImages    int    `mapstructure:"max_images"`
	MaxDimension int    `mapstructure:"max_dimension"`
	MaxFileBytes int64  `mapstructure:"max_file_bytes"`
	// MaxPixels caps width*height as declared by the image header.
	MaxPixels    int64  `mapstructure:"max_pixels"`
}

type PaymentConfig struct {
	PricePerItem     string `mapstructure:"price_per_item"`
	RecipientAddress string `mapstructure:"recipient_address"`
	Verifier         string `mapstructure:"verifier"`
}

// Price returns the per-item price. New rejects configs whose price does not parse.
func (p PaymentConfig) Price() decimal.Decimal {
	d, err := decimal.NewFromString(p.PricePerItem)
	if err != nil {
		return decimal.Zero
	}
	return d
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type AdminConfig struct {
	// Accounts maps basic-auth user names to passwords. Admin routes are not
	// mounted when empty.
	Accounts map[string]string `mapstructure:"accounts"`
}

type Env string

const (
	EnvDev  Env = "dev"
	EnvProd Env = "prod"
)

const (
	VerifierAcceptAll = "accept_all"
)

type Config struct {
	Env         Env             `mapstructure:"env"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DBConfig        `mapstructure:"database"`
	Upload      UploadConfig    `mapstructure:"upload"`
	Payment     PaymentConfig   `mapstructure:"payment"`
	Log         LogConfig       `mapstructure:"log"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	CORS        CORSConfig      `mapstructure:"cors"`
	Admin       AdminConfig     `mapstructure:"admin"`
	MetricsAddr string          `mapstructure:"metrics_addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 10000)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.sqlite_paths", []string{
		"/tmp/database/payment_tracker.db",
		"./payment_tracker.db",
		"/tmp/payment_tracker.db",
	})
	v.SetDefault("upload.dir", "/tmp/uploads")
	v.SetDefault("upload.max_images", 1000000)
	v.SetDefault("upload.max_dimension", 800)
	v.SetDefault("upload.max_file_bytes", 16<<20)
	v.SetDefault("upload.max_pixels", 40_000_000)
	v.SetDefault("payment.price_per_item", "5.00")
	v.SetDefault("payment.recipient_address", "")
	v.SetDefault("payment.verifier", VerifierAcceptAll)
	v.SetDefault("log.level", "info")
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.rps", 5)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("cors.allow_origins", []string{"*"})
	v.SetDefault("metrics_addr", ":9090")
}

// Validate checks the values the services rely on without re-checking.
func (c *Config) Validate() error {
	if c.Upload.Dir == "" {
		return fmt.Errorf("upload.dir is empty")
	}
	if c.Upload.MaxImages < 0 {
		return fmt.Errorf("upload.max_images must be >= 0, got %d", c.Upload.MaxImages)
	}
	if c.Upload.MaxDimension <= 0 {
		return fmt.Errorf("upload.max_dimension must be > 0, got %d", c.Upload.MaxDimension)
	}
	if c.Upload.MaxFileBytes <= 0 {
		return fmt.Errorf("upload.max_file_bytes must be > 0, got %d", c.Upload.MaxFileBytes)
	}
	if c.Upload.MaxPixels <= 0 {
		return fmt.Errorf("upload.max_pixels must be > 0, got %d", c.Upload.MaxPixels)
	}
	price, err := decimal.NewFromString(c.Payment.PricePerItem)
	if err != nil {
		return fmt.Errorf("invalid payment.price_per_item %q: %w", c.Payment.PricePerItem, err)
	}
	if price.IsNegative() {
		return fmt.Errorf("payment.price_per_item must not be negative")
	}
	if c.Database.DSN == "" && len(c.Database.SQLitePaths) == 0 {
		return fmt.Errorf("database.dsn and database.sqlite_paths are both empty")
	}
	return nil
}

func New() (*Config, error) {
	v := viper.New()
	// Allow overriding config file via env:
	// - APP_CONFIG_FILE: absolute or relative file path (e.g., /etc/app/prod.yaml)
	// - APP_CONFIG_NAME: config base name without extension (default: "config")
	if file := os.Getenv("APP_CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		cfgName := os.Getenv("APP_CONFIG_NAME")
		if cfgName == "" {
			cfgName = "config"
		}
		v.SetConfigName(cfgName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &c, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
