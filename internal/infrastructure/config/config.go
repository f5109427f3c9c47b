package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for doorcore.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Door      DoorConfig      `yaml:"door"`
	GPIO      GPIOConfig      `yaml:"gpio"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	LineProto LineProtoConfig `yaml:"lineproto"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
}

// ServiceConfig identifies this controller instance.
type ServiceConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DoorConfig contains door engine settings.
type DoorConfig struct {
	// Protocol selects the command surface: "legacy" or "directional".
	Protocol string `yaml:"protocol"`

	// PulseWidthMS is how long the relay is held high per pulse.
	PulseWidthMS int `yaml:"pulse_width_ms"`

	// MoveTimeoutS is the motion window before a forced re-resolve.
	MoveTimeoutS int `yaml:"move_timeout_s"`

	// EventQueueSize is the bounded status-event queue capacity.
	EventQueueSize int `yaml:"event_queue_size"`
}

// GPIOConfig contains hardware wiring settings.
type GPIOConfig struct {
	// Driver selects the implementation: "periph" or "memory".
	Driver string `yaml:"driver"`

	// Pins use BCM numbering.
	OpenSwitchPin   int `yaml:"open_switch_pin"`
	ClosedSwitchPin int `yaml:"closed_switch_pin"`
	RelayPin        int `yaml:"relay_pin"`

	// ActiveLow inverts switch readings for normally-closed wiring.
	ActiveLow bool `yaml:"active_low"`

	// DebounceMS suppresses edges closer together than this.
	DebounceMS int `yaml:"debounce_ms"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
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
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
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

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// LineProtoConfig contains the raw line-protocol listener settings.
type LineProtoConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	ReadTimeout int    `yaml:"read_timeout"`
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
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT  JWTConfig  `yaml:"jwt"`
	Auth AuthConfig `yaml:"auth"`
}

// JWTConfig contains JWT token settings.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"`
}

// AuthConfig contains the API credential pair.
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: DOORCORE_SECTION_KEY
// For example: DOORCORE_DATABASE_PATH, DOORCORE_MQTT_HOST
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
		Service: ServiceConfig{
			ID:   "doorcore-001",
			Name: "doorcore",
		},
		Door: DoorConfig{
			Protocol:       "directional",
			PulseWidthMS:   1000,
			MoveTimeoutS:   20,
			EventQueueSize: 64,
		},
		GPIO: GPIOConfig{
			Driver:          "periph",
			OpenSwitchPin:   23,
			ClosedSwitchPin: 24,
			RelayPin:        18,
			DebounceMS:      50,
		},
		Database: DatabaseConfig{
			Path:        "./data/doorcore.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Enabled: true,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "doorcore",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 4096,
			PingInterval:   30,
			PongTimeout:    10,
		},
		LineProto: LineProtoConfig{
			Enabled:     true,
			Host:        "0.0.0.0",
			Port:        4242,
			ReadTimeout: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 15,
			},
			Auth: AuthConfig{
				Username: "admin",
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: DOORCORE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Door
	if v := os.Getenv("DOORCORE_DOOR_PROTOCOL"); v != "" {
		cfg.Door.Protocol = v
	}

	// GPIO
	if v := os.Getenv("DOORCORE_GPIO_DRIVER"); v != "" {
		cfg.GPIO.Driver = v
	}

	// Database
	if v := os.Getenv("DOORCORE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("DOORCORE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("DOORCORE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("DOORCORE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("DOORCORE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("DOORCORE_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// InfluxDB
	if v := os.Getenv("DOORCORE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Security - always override in production
	if v := os.Getenv("DOORCORE_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
	if v := os.Getenv("DOORCORE_AUTH_PASSWORD"); v != "" {
		cfg.Security.Auth.Password = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Service.ID == "" {
		errs = append(errs, "service.id is required")
	}

	// Door validation
	switch c.Door.Protocol {
	case "legacy", "directional":
	default:
		errs = append(errs, "door.protocol must be \"legacy\" or \"directional\"")
	}
	if c.Door.PulseWidthMS <= 0 {
		errs = append(errs, "door.pulse_width_ms must be positive")
	}
	if c.Door.MoveTimeoutS <= 0 {
		errs = append(errs, "door.move_timeout_s must be positive")
	}

	// GPIO validation
	switch c.GPIO.Driver {
	case "periph", "memory":
	default:
		errs = append(errs, "gpio.driver must be \"periph\" or \"memory\"")
	}
	if c.GPIO.Driver == "periph" {
		if c.GPIO.OpenSwitchPin < 0 || c.GPIO.ClosedSwitchPin < 0 || c.GPIO.RelayPin < 0 {
			errs = append(errs, "gpio pins must not be negative")
		}
		if c.GPIO.OpenSwitchPin == c.GPIO.ClosedSwitchPin ||
			c.GPIO.OpenSwitchPin == c.GPIO.RelayPin ||
			c.GPIO.ClosedSwitchPin == c.GPIO.RelayPin {
			errs = append(errs, "gpio pins must be distinct")
		}
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.LineProto.Enabled && (c.LineProto.Port < 1 || c.LineProto.Port > 65535) {
		errs = append(errs, "lineproto.port must be between 1 and 65535")
	}

	// Security validation - JWT secret is REQUIRED.
	// The API commands a physical door; a forged token means a stranger
	// can open it.
	const minJWTSecretLength = 32
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set DOORCORE_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
	}
	if c.Security.Auth.Password == "" {
		errs = append(errs, "security.auth.password is required (set DOORCORE_AUTH_PASSWORD environment variable)")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetPulseWidth returns the relay pulse width as a Duration.
func (c *Config) GetPulseWidth() time.Duration {
	return time.Duration(c.Door.PulseWidthMS) * time.Millisecond
}

// GetMoveTimeout returns the motion window as a Duration.
func (c *Config) GetMoveTimeout() time.Duration {
	return time.Duration(c.Door.MoveTimeoutS) * time.Second
}

// GetDebounce returns the edge debounce as a Duration.
func (c *Config) GetDebounce() time.Duration {
	return time.Duration(c.GPIO.DebounceMS) * time.Millisecond
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
