package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Frame art bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	TV       TVConfig       `yaml:"tv"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	API      APIConfig      `yaml:"api"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// TVConfig identifies the Frame TV and its connection parameters.
type TVConfig struct {
	// ID names the TV in MQTT topics and API responses.
	ID string `yaml:"id"`

	Host string `yaml:"host"`

	// Name is shown on the TV's pairing prompt.
	Name string `yaml:"name"`

	// Port defaults to 8002 when secure, 8001 otherwise.
	Port   int  `yaml:"port"`
	Secure bool `yaml:"secure"`

	// Timeout bounds dial plus handshake (seconds).
	Timeout int `yaml:"timeout"`

	// CommandDelay follows every transmitted command (milliseconds).
	CommandDelay int `yaml:"command_delay"`

	// RequestTimeout bounds each art request (milliseconds).
	RequestTimeout int `yaml:"request_timeout"`

	Token TokenConfig `yaml:"token"`
}

// TokenConfig selects where the pairing token is kept.
type TokenConfig struct {
	// Backend is "file", "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// Dir holds the token file for the file backend.
	Dir string `yaml:"dir"`
}

// BridgeConfig contains MQTT bridge timing.
type BridgeConfig struct {
	// PollInterval between state reads (seconds).
	PollInterval int `yaml:"poll_interval"`

	// HealthInterval between health publishes (seconds).
	HealthInterval int `yaml:"health_interval"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
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
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled   bool             `yaml:"enabled"`
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	Timeouts  APITimeoutConfig `yaml:"timeouts"`
	CORS      CORSConfig       `yaml:"cors"`
	Auth      APIAuthConfig    `yaml:"auth"`
	WebSocket WebSocketConfig  `yaml:"websocket"`
}

// WebSocketConfig contains settings for the live state stream.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"` // seconds
	PongTimeout    int `yaml:"pong_timeout"`  // seconds
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// APIAuthConfig enables bearer token checks on mutating routes.
type APIAuthConfig struct {
	// JWTSecret signs HS256 bearer tokens. Empty disables auth.
	JWTSecret string `yaml:"jwt_secret"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains file-based logging settings.
type FileLoggingConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Token backends.
const (
	TokenBackendFile   = "file"
	TokenBackendMemory = "memory"
	TokenBackendSQLite = "sqlite"
)

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: FRAMEART_SECTION_KEY
// For example: FRAMEART_TV_HOST, FRAMEART_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		TV: TVConfig{
			ID:             "frame",
			Name:           "FrameArt",
			Secure:         true,
			Timeout:        10,
			CommandDelay:   1000,
			RequestTimeout: 5000,
			Token: TokenConfig{
				Backend: TokenBackendFile,
				Dir:     "./data",
			},
		},
		Bridge: BridgeConfig{
			PollInterval:   30,
			HealthInterval: 30,
		},
		Database: DatabaseConfig{
			Path:        "./data/frameart.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "frameart-bridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			WebSocket: WebSocketConfig{
				MaxMessageSize: 8192,
				PingInterval:   30,
				PongTimeout:    10,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
			File: FileLoggingConfig{
				MaxSize:    50,
				MaxBackups: 3,
				MaxAge:     28,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: FRAMEART_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// TV
	if v := os.Getenv("FRAMEART_TV_HOST"); v != "" {
		cfg.TV.Host = v
	}
	if v := os.Getenv("FRAMEART_TV_NAME"); v != "" {
		cfg.TV.Name = v
	}
	if v := os.Getenv("FRAMEART_TV_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.TV.Port = port
		}
	}
	if v := os.Getenv("FRAMEART_TV_TOKEN_BACKEND"); v != "" {
		cfg.TV.Token.Backend = v
	}
	if v := os.Getenv("FRAMEART_TV_TOKEN_DIR"); v != "" {
		cfg.TV.Token.Dir = v
	}

	// Database
	if v := os.Getenv("FRAMEART_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("FRAMEART_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("FRAMEART_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("FRAMEART_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("FRAMEART_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("FRAMEART_API_JWT_SECRET"); v != "" {
		cfg.API.Auth.JWTSecret = v
	}

	// InfluxDB
	if v := os.Getenv("FRAMEART_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("FRAMEART_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// TV validation
	if c.TV.ID == "" {
		errs = append(errs, "tv.id is required")
	}
	if c.TV.Host == "" {
		errs = append(errs, "tv.host is required (set FRAMEART_TV_HOST environment variable)")
	}
	if c.TV.Port < 0 || c.TV.Port > 65535 {
		errs = append(errs, "tv.port must be between 0 and 65535")
	}
	if c.TV.Timeout <= 0 {
		errs = append(errs, "tv.timeout must be positive")
	}
	if c.TV.CommandDelay < 0 {
		errs = append(errs, "tv.command_delay must not be negative")
	}
	if c.TV.RequestTimeout <= 0 {
		errs = append(errs, "tv.request_timeout must be positive")
	}

	switch c.TV.Token.Backend {
	case TokenBackendFile:
		if c.TV.Token.Dir == "" {
			errs = append(errs, "tv.token.dir is required for the file backend")
		}
	case TokenBackendSQLite:
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for the sqlite token backend")
		}
	case TokenBackendMemory:
	default:
		errs = append(errs, "tv.token.backend must be file, memory, or sqlite")
	}

	// Bridge validation
	if c.Bridge.PollInterval <= 0 {
		errs = append(errs, "bridge.poll_interval must be positive")
	}
	if c.Bridge.HealthInterval <= 0 {
		errs = append(errs, "bridge.health_interval must be positive")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.API.Enabled && (c.API.WebSocket.PingInterval <= 0 || c.API.WebSocket.PongTimeout <= 0) {
		errs = append(errs, "api.websocket ping_interval and pong_timeout must be positive")
	}

	// A configured JWT secret must be long enough to resist brute force.
	const minJWTSecretLength = 32
	if c.API.Auth.JWTSecret != "" && len(c.API.Auth.JWTSecret) < minJWTSecretLength {
		errs = append(errs, "api.auth.jwt_secret must be at least 32 characters")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
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

// GetTVTimeout returns the TV handshake timeout as a Duration.
func (c *Config) GetTVTimeout() time.Duration {
	return time.Duration(c.TV.Timeout) * time.Second
}

// GetCommandDelay returns the inter-command delay as a Duration.
func (c *Config) GetCommandDelay() time.Duration {
	return time.Duration(c.TV.CommandDelay) * time.Millisecond
}

// GetRequestTimeout returns the art request timeout as a Duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.TV.RequestTimeout) * time.Millisecond
}

// GetPollInterval returns the bridge poll interval as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Bridge.PollInterval) * time.Second
}

// GetHealthInterval returns the bridge health interval as a Duration.
func (c *Config) GetHealthInterval() time.Duration {
	return time.Duration(c.Bridge.HealthInterval) * time.Second
}
