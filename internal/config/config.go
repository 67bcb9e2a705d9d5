// Package config loads and validates watcher configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Watcher  WatcherConfig  `mapstructure:"watcher"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Retailer RetailerConfig `mapstructure:"retailer"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	DB       DBConfig       `mapstructure:"db"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls the status HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// WatcherConfig governs the poll loop and the control stream.
type WatcherConfig struct {
	IntervalSeconds       int         `mapstructure:"interval_seconds"`
	Topic                 string      `mapstructure:"topic"`
	ControlTopic          string      `mapstructure:"control_topic"`
	EventTopic            string      `mapstructure:"event_topic"`
	WatchlistPath         string      `mapstructure:"watchlist_path"`
	CarryOn               bool        `mapstructure:"carry_on"`
	ReconnectDelaySeconds int         `mapstructure:"reconnect_delay_seconds"`
	Seed                  []SeedEntry `mapstructure:"seed"`
}

// SeedEntry pre-populates the watch-list at startup. Entries already on the
// watch-list are left untouched.
type SeedEntry struct {
	URL      string `mapstructure:"url"`
	Nickname string `mapstructure:"nickname"`
}

// RelayConfig points at the notification relay.
type RelayConfig struct {
	Server         string `mapstructure:"server"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// RetailerConfig identifies the retailer site and its commerce API.
type RetailerConfig struct {
	Host      string `mapstructure:"host"`
	APIBase   string `mapstructure:"api_base"`
	Region    string `mapstructure:"region"`
	Language  string `mapstructure:"language"`
	UserAgent string `mapstructure:"user_agent"`
}

// HTTPConfig configures product fetch retry behavior.
type HTTPConfig struct {
	TimeoutSeconds    int `mapstructure:"timeout_seconds"`
	MaxRetries        int `mapstructure:"max_retries"`
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds"`
}

// DBConfig controls the optional price history store.
type DBConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// PubSubConfig holds metadata for the optional event mirror.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features and the file sink.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("watcher.interval_seconds", 60)
	v.SetDefault("watcher.topic", "stock-watch")
	v.SetDefault("watcher.control_topic", "stock-watch-control")
	v.SetDefault("watcher.event_topic", "stock-watch-events")
	v.SetDefault("watcher.watchlist_path", "products.json")
	v.SetDefault("watcher.carry_on", false)
	v.SetDefault("watcher.reconnect_delay_seconds", 5)
	v.SetDefault("relay.server", "https://ntfy.sh")
	v.SetDefault("relay.timeout_seconds", 10)
	v.SetDefault("retailer.host", "www.uniqlo.com")
	v.SetDefault("retailer.api_base", "https://www.uniqlo.com/ca/api/commerce/v3/en/")
	v.SetDefault("retailer.region", "ca")
	v.SetDefault("retailer.language", "en")
	v.SetDefault("retailer.user_agent", "Mozilla/5.0")
	v.SetDefault("http.timeout_seconds", 10)
	v.SetDefault("http.max_retries", 2)
	v.SetDefault("http.retry_delay_seconds", 5)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Watcher.IntervalSeconds <= 0 {
		return fmt.Errorf("watcher.interval_seconds must be > 0")
	}
	if c.Watcher.Topic == "" {
		return fmt.Errorf("watcher.topic must be set")
	}
	if c.Watcher.ControlTopic == "" {
		return fmt.Errorf("watcher.control_topic must be set")
	}
	if c.Watcher.ControlTopic == c.Watcher.Topic {
		return fmt.Errorf("watcher.control_topic must differ from watcher.topic")
	}
	if c.Watcher.WatchlistPath == "" {
		return fmt.Errorf("watcher.watchlist_path must be set")
	}
	if c.Relay.Server == "" {
		return fmt.Errorf("relay.server must be set")
	}
	if c.Retailer.Host == "" {
		return fmt.Errorf("retailer.host must be set")
	}
	if c.Retailer.APIBase == "" {
		return fmt.Errorf("retailer.api_base must be set")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.DB.Enabled && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn must be set when db is enabled")
	}
	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set when pubsub is enabled")
	}
	return nil
}

// Interval returns the poll interval as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.Watcher.IntervalSeconds) * time.Second
}

// ReconnectDelay returns the control stream reconnect backoff.
func (c Config) ReconnectDelay() time.Duration {
	return time.Duration(c.Watcher.ReconnectDelaySeconds) * time.Second
}

// HTTPTimeout returns the per-request fetch timeout.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// RetryDelay returns the pause between fetch retries.
func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.HTTP.RetryDelaySeconds) * time.Second
}

// RelayTimeout returns the notification post timeout.
func (c Config) RelayTimeout() time.Duration {
	return time.Duration(c.Relay.TimeoutSeconds) * time.Second
}
