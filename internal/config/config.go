package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string `mapstructure:"PORT"`
	DBUrl          string `mapstructure:"DB_URL"`
	DBMaxOpenConns int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	MigrationsPath string `mapstructure:"MIGRATIONS_PATH"`

	// WBOX provider
	WboxAPIBase        string `mapstructure:"WBOX_API_BASE"`
	WboxAPIKey         string `mapstructure:"WBOX_API_KEY"`
	WboxChannelNumber  string `mapstructure:"WBOX_CHANNEL_NUMBER"`
	WboxLanguageCode   string `mapstructure:"WBOX_LANGUAGE_CODE"`
	WboxHTTPTimeoutSec int    `mapstructure:"WBOX_HTTP_TIMEOUT_SEC"`

	// Audience
	DispatchCountryCode string `mapstructure:"DISPATCH_COUNTRY_CODE"`
	CSVBatchSize        int    `mapstructure:"CSV_BATCH_SIZE"`
	RunCountMode        string `mapstructure:"RUN_COUNT_MODE"`

	// Redis
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	OptionsCacheTTLSec int    `mapstructure:"OPTIONS_CACHE_TTL_SEC"`

	// RabbitMQ
	AMQPUrl       string `mapstructure:"AMQP_URL"`
	DispatchQueue string `mapstructure:"DISPATCH_QUEUE"`

	// MinIO
	MinIOEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinIOAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinIOBucket    string `mapstructure:"MINIO_BUCKET"`

	// comma separated, "*" allows any origin
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]any{
	"PORT":                  "8080",
	"DB_URL":                "",
	"DB_MAX_OPEN_CONNS":     25,
	"MIGRATIONS_PATH":       "file://migrations",
	"WBOX_API_BASE":         "https://cloudapi.wbbox.in/api/v1.0",
	"WBOX_API_KEY":          "",
	"WBOX_CHANNEL_NUMBER":   "",
	"WBOX_LANGUAGE_CODE":    "en",
	"WBOX_HTTP_TIMEOUT_SEC": 30,
	"DISPATCH_COUNTRY_CODE": "91",
	"CSV_BATCH_SIZE":        1000,
	"RUN_COUNT_MODE":        "full",
	"REDIS_ADDR":            "",
	"OPTIONS_CACHE_TTL_SEC": 300,
	"AMQP_URL":              "",
	"DISPATCH_QUEUE":        "campaign_dispatches",
	"MINIO_ENDPOINT":        "",
	"MINIO_ACCESS_KEY":      "",
	"MINIO_SECRET_KEY":      "",
	"MINIO_BUCKET":          "campaign-dispatches",
	"CORS_ALLOWED_ORIGINS":  "*",
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "text",
}

// LoadConfig reads .env when present and lets the process environment override it.
func LoadConfig() (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.DBUrl == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	c.RunCountMode = strings.ToLower(strings.TrimSpace(c.RunCountMode))
	switch c.RunCountMode {
	case "full", "brand_window":
	default:
		return fmt.Errorf("RUN_COUNT_MODE must be full or brand_window, got %q", c.RunCountMode)
	}
	if c.CSVBatchSize <= 0 {
		c.CSVBatchSize = 1000
	}
	if c.WboxHTTPTimeoutSec <= 0 {
		c.WboxHTTPTimeoutSec = 30
	}
	if c.OptionsCacheTTLSec <= 0 {
		c.OptionsCacheTTLSec = 300
	}
	if c.DBMaxOpenConns <= 0 {
		c.DBMaxOpenConns = 25
	}
	return nil
}

func (c *Config) WboxTimeout() time.Duration {
	return time.Duration(c.WboxHTTPTimeoutSec) * time.Second
}

func (c *Config) OptionsCacheTTL() time.Duration {
	return time.Duration(c.OptionsCacheTTLSec) * time.Second
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// MinIOEnabled reports whether dispatch events should be archived to object storage.
func (c *Config) MinIOEnabled() bool {
	return c.MinIOEndpoint != "" && c.MinIOAccessKey != "" && c.MinIOSecretKey != ""
}
