// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like BACKENDS_LOW_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, ignored when absent
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the likely working directories (service root,
// cmd/ subdirs, package-level tests).
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	for _, p := range possiblePaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// expandEnvVars rewrites ${VAR} placeholders in string values with the
// corresponding environment variable, leaving unset placeholders empty.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(val, "${") {
			v.Set(key, os.Expand(val, func(name string) string {
				return os.Getenv(name)
			}))
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "replydesk"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60000
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 45000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.ReplyIndex == "" {
		cfg.Database.Elasticsearch.ReplyIndex = "reply-records"
	}
	if cfg.Backends.Low.Timeout == 0 {
		cfg.Backends.Low.Timeout = 20000
	}
	if cfg.Backends.High.Timeout == 0 {
		cfg.Backends.High.Timeout = 40000
	}
	if cfg.Backends.Low.MaxTokens == 0 {
		cfg.Backends.Low.MaxTokens = 500
	}
	if cfg.Backends.High.MaxTokens == 0 {
		cfg.Backends.High.MaxTokens = 800
	}
	if cfg.Marketplace.Timeout == 0 {
		cfg.Marketplace.Timeout = 8000
	}
	if cfg.Marketplace.FactsCacheTTL == 0 {
		cfg.Marketplace.FactsCacheTTL = 120
	}
	if cfg.Accounting.FlushTimeout == 0 {
		cfg.Accounting.FlushTimeout = 5000
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Backends.Low.BaseURL == "" {
		return fmt.Errorf("backends.low.base_url is required")
	}
	if cfg.Backends.High.BaseURL == "" {
		return fmt.Errorf("backends.high.base_url is required")
	}
	if cfg.Backends.Low.ModelID == "" || cfg.Backends.High.ModelID == "" {
		return fmt.Errorf("backend model_id is required for both tiers")
	}
	if cfg.Notifications.Enabled && cfg.Notifications.SNSTopicARN == "" {
		return fmt.Errorf("notifications.sns_topic_arn is required when notifications are enabled")
	}
	return nil
}
