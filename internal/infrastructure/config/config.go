package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the hiome-ifttt bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site       SiteConfig       `yaml:"site"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	IFTTT      IFTTTConfig      `yaml:"ifttt"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	DeadLetter DeadLetterConfig `yaml:"deadletter"`
	API        APIConfig        `yaml:"api"`
	Health     HealthConfig     `yaml:"health"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SiteConfig contains site identification settings.
type SiteConfig struct {
	// UIDFile is the file holding the machine identifier (a MAC address on
	// Hiome hubs). The name keeps the historical UID_FILE variable.
	UIDFile string `yaml:"uid_file" env:"UID_FILE"`
	Name    string `yaml:"name"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host" env:"MQTT_HOST"`
	Port     int    `yaml:"port" env:"MQTT_PORT"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`

	// CleanSession discards the broker-side session on connect. The bridge
	// defaults to a persistent session so QoS 1 messages queued while it was
	// offline are still delivered.
	CleanSession bool `yaml:"clean_session"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username" env:"MQTT_USERNAME"`
	Password string `yaml:"password" env:"MQTT_PASSWORD"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// IFTTTConfig contains settings for the IFTTT Maker webhook gateway.
type IFTTTConfig struct {
	BaseURL string `yaml:"base_url" env:"HIOME_IFTTT_BASE_URL"`

	// Timeout is the per-request timeout in seconds.
	Timeout int `yaml:"timeout"`

	// MaxInFlight bounds concurrent webhook calls. Triggers beyond the
	// limit are dropped rather than queued.
	MaxInFlight int `yaml:"max_in_flight"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token" env:"HIOME_IFTTT_INFLUXDB_TOKEN"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// DeadLetterConfig contains settings for the Kafka dead-letter sink that
// receives malformed telemetry.
type DeadLetterConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers" env:"HIOME_IFTTT_KAFKA_BROKERS" envSeparator:","`
	Topic   string   `yaml:"topic"`
}

// APIConfig contains the status HTTP server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// HealthConfig contains bridge health reporting settings.
type HealthConfig struct {
	// Interval is the health publish interval in seconds.
	Interval int `yaml:"interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"HIOME_IFTTT_LOG_LEVEL"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// An empty path skips step 2, so the bridge can run from environment
// variables alone (MQTT_HOST, MQTT_PORT, UID_FILE).
//
// Parameters:
//   - path: Path to the YAML configuration file, or "" for none
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// ResolvePath picks the configuration file to load.
//
// An explicit path always wins. Otherwise the fallback is used only if it
// exists; a missing fallback yields "" (defaults and environment only).
func ResolvePath(explicit, fallback string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(fallback); err != nil {
		return ""
	}
	return fallback
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			UIDFile: "/sys/class/net/eth0/address",
			Name:    "hiome",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "hiome-ifttt",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		IFTTT: IFTTTConfig{
			BaseURL:     "https://maker.ifttt.com",
			Timeout:     10,
			MaxInFlight: 16,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		DeadLetter: DeadLetterConfig{
			Topic: "hiome-ifttt-dlq",
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8089,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
		Health: HealthConfig{
			Interval: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Only variables that are set replace file or default values.
func applyEnvOverrides(cfg *Config) error {
	return env.Parse(cfg)
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.UIDFile == "" {
		errs = append(errs, "site.uid_file is required")
	}

	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.Broker.ClientID == "" {
		errs = append(errs, "mqtt.broker.client_id is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if !strings.HasPrefix(c.IFTTT.BaseURL, "http://") && !strings.HasPrefix(c.IFTTT.BaseURL, "https://") {
		errs = append(errs, "ifttt.base_url must be an http or https URL")
	}
	if c.IFTTT.MaxInFlight < 1 {
		errs = append(errs, "ifttt.max_in_flight must be at least 1")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.DeadLetter.Enabled {
		if len(c.DeadLetter.Brokers) == 0 {
			errs = append(errs, "deadletter.brokers is required when deadletter is enabled")
		}
		if c.DeadLetter.Topic == "" {
			errs = append(errs, "deadletter.topic is required when deadletter is enabled")
		}
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// BrokerAddress returns the host:port of the MQTT broker.
func (c *Config) BrokerAddress() string {
	return fmt.Sprintf("%s:%d", c.MQTT.Broker.Host, c.MQTT.Broker.Port)
}

// GetIFTTTTimeout returns the webhook request timeout as a Duration.
func (c *Config) GetIFTTTTimeout() time.Duration {
	return time.Duration(c.IFTTT.Timeout) * time.Second
}

// GetHealthInterval returns the health publish interval as a Duration.
func (c *Config) GetHealthInterval() time.Duration {
	return time.Duration(c.Health.Interval) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
