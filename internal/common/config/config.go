// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Backends      BackendsConfig     `mapstructure:"backends"`
	Marketplace   MarketplaceConfig  `mapstructure:"marketplace"`
	Rules         RulesConfig        `mapstructure:"rules"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Accounting    AccountingConfig   `mapstructure:"accounting"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ReadTimeout     int `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int `mapstructure:"write_timeout"`    // milliseconds
	RequestTimeout  int `mapstructure:"request_timeout"`  // milliseconds
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	ReplyIndex string   `mapstructure:"reply_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Generation Backends ---

// BackendConfig holds the settings for one text-generation backend.
type BackendConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	ModelID     string  `mapstructure:"model_id"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type BackendsConfig struct {
	Low  BackendConfig `mapstructure:"low"`
	High BackendConfig `mapstructure:"high"`
}

// --- Marketplace Order API ---
type MarketplaceConfig struct {
	OrderAPIBaseURL string `mapstructure:"order_api_base_url"`
	APIKey          string `mapstructure:"api_key"`
	Timeout         int    `mapstructure:"timeout"`       // milliseconds
	FactsCacheTTL   int    `mapstructure:"facts_cache_ttl"` // seconds
}

// --- Rules Document ---
type RulesConfig struct {
	Path string `mapstructure:"path"` // empty means embedded default
}

// --- Notifications (high-risk alerts) ---
type NotificationConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	AWSRegion   string `mapstructure:"aws_region"`
	SNSTopicARN string `mapstructure:"sns_topic_arn"`
}

// --- Accounting ---
type AccountingConfig struct {
	FlushTimeout int `mapstructure:"flush_timeout"` // milliseconds
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
