package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/gray-logic-zwave/internal/mode"
)

// Supported zwave.driver values.
const (
	DriverSimulator = "simulator"
	DriverGateway   = "gateway"
)

// Config is the root configuration structure for zwaved.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site        SiteConfig     `yaml:"site"`
	Socket      SocketConfig   `yaml:"socket"`
	ZWave       ZWaveConfig    `yaml:"zwave"`
	Paths       PathsConfig    `yaml:"paths"`
	Modes       []mode.Mode    `yaml:"modes"`
	DefaultMode string         `yaml:"default_mode"`
	Liveness    LivenessConfig `yaml:"liveness"`
	Reactor     ReactorConfig  `yaml:"reactor"`
	Scripts     ScriptsConfig  `yaml:"scripts"`
	Database    DatabaseConfig `yaml:"database"`
	MQTT        MQTTConfig     `yaml:"mqtt"`
	InfluxDB    InfluxDBConfig `yaml:"influxdb"`
	API         APIConfig      `yaml:"api"`
	Logging     LoggingConfig  `yaml:"logging"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// SocketConfig contains the command socket settings.
type SocketConfig struct {
	Address    string `yaml:"address"`
	BufferSize int    `yaml:"buffer_size"`

	// ReadTimeout and WriteTimeout are in seconds.
	ReadTimeout  int `yaml:"read_timeout"`
	WriteTimeout int `yaml:"write_timeout"`
}

// ZWaveConfig selects and configures the controller backend.
type ZWaveConfig struct {
	// Driver is "simulator" or "gateway".
	Driver string `yaml:"driver"`

	// Device is the serial device path handed to AddDriver.
	Device string `yaml:"device"`

	// HomeID is used by the simulator only.
	HomeID uint32 `yaml:"home_id"`

	Gateway GatewayConfig `yaml:"gateway"`
}

// GatewayConfig configures the MQTT-bridged controller.
type GatewayConfig struct {
	// TopicPrefix roots the request, response and event topics.
	TopicPrefix string `yaml:"topic_prefix"`

	// RequestTimeout is in seconds.
	RequestTimeout int `yaml:"request_timeout"`
}

// PathsConfig locates the files zwaved writes.
type PathsConfig struct {
	NodeLogs string `yaml:"node_logs"`
	AuditDir string `yaml:"audit_dir"`
	ModeFile string `yaml:"mode_file"`
}

// LivenessConfig controls the liveness monitor.
type LivenessConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ReactorConfig controls notification handling.
type ReactorConfig struct {
	// ResyncNeighborsOnChange requests a neighbor update after every value
	// change on a non-controller node.
	ResyncNeighborsOnChange bool `yaml:"resync_neighbors_on_change"`
}

// ScriptsConfig holds the host scripts run after a stop command.
type ScriptsConfig struct {
	Reinstall string `yaml:"reinstall"`
	Reboot    string `yaml:"reboot"`
	Shutdown  string `yaml:"shutdown"`

	// Timeout is in seconds.
	Timeout int `yaml:"timeout"`
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

	// TopicPrefix roots the node status topics.
	TopicPrefix string `yaml:"topic_prefix"`
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

// APIConfig contains the read-only status API settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
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
// Environment variables follow the pattern: ZWAVED_SECTION_KEY
// For example: ZWAVED_SOCKET_ADDRESS, ZWAVED_ZWAVE_DEVICE
//
// An empty path skips step 2.
//
// Parameters:
//   - path: Path to the YAML configuration file
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

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "Z-Wave",
		},
		Socket: SocketConfig{
			Address:      ":5000",
			BufferSize:   1024,
			ReadTimeout:  5,
			WriteTimeout: 5,
		},
		ZWave: ZWaveConfig{
			Driver: DriverSimulator,
			Device: "/dev/ttyACM0",
			HomeID: 0xC0FFEE01,
			Gateway: GatewayConfig{
				TopicPrefix:    "zwave/gateway",
				RequestTimeout: 10,
			},
		},
		Paths: PathsConfig{
			NodeLogs: "./data/nodes",
			AuditDir: "./data/audit",
			ModeFile: "./data/config.json",
		},
		Modes:       mode.DefaultModes(),
		DefaultMode: mode.DefaultModeName,
		Liveness: LivenessConfig{
			Enabled: true,
		},
		Scripts: ScriptsConfig{
			Timeout: 120,
		},
		Database: DatabaseConfig{
			Path:        "./data/zwaved.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "zwaved",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
			TopicPrefix: "zwave",
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ZWAVED_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Socket
	if v := os.Getenv("ZWAVED_SOCKET_ADDRESS"); v != "" {
		cfg.Socket.Address = v
	}

	// Z-Wave
	if v := os.Getenv("ZWAVED_ZWAVE_DRIVER"); v != "" {
		cfg.ZWave.Driver = v
	}
	if v := os.Getenv("ZWAVED_ZWAVE_DEVICE"); v != "" {
		cfg.ZWave.Device = v
	}

	// Paths
	if v := os.Getenv("ZWAVED_PATHS_MODE_FILE"); v != "" {
		cfg.Paths.ModeFile = v
	}

	// Database
	if v := os.Getenv("ZWAVED_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("ZWAVED_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("ZWAVED_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("ZWAVED_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("ZWAVED_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("ZWAVED_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("ZWAVED_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors. All problems are reported
// together.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.Socket.Address == "" {
		errs = append(errs, "socket.address is required")
	}
	if c.Socket.BufferSize < 16 || c.Socket.BufferSize > 65536 {
		errs = append(errs, "socket.buffer_size must be between 16 and 65536")
	}

	switch c.ZWave.Driver {
	case DriverSimulator:
	case DriverGateway:
		if !c.MQTT.Enabled {
			errs = append(errs, "zwave.driver gateway requires mqtt.enabled")
		}
		if c.ZWave.Gateway.TopicPrefix == "" {
			errs = append(errs, "zwave.gateway.topic_prefix is required")
		}
		if c.ZWave.Gateway.RequestTimeout <= 0 {
			errs = append(errs, "zwave.gateway.request_timeout must be positive")
		}
	default:
		errs = append(errs, fmt.Sprintf("zwave.driver must be %q or %q", DriverSimulator, DriverGateway))
	}
	if c.ZWave.Device == "" {
		errs = append(errs, "zwave.device is required")
	}

	if c.Paths.NodeLogs == "" {
		errs = append(errs, "paths.node_logs is required")
	}
	if c.Paths.AuditDir == "" {
		errs = append(errs, "paths.audit_dir is required")
	}
	if c.Paths.ModeFile == "" {
		errs = append(errs, "paths.mode_file is required")
	}

	if _, err := mode.NewCatalog(c.Modes, c.DefaultMode); err != nil {
		errs = append(errs, fmt.Sprintf("modes: %v", err))
	}

	if c.Scripts.Timeout <= 0 {
		errs = append(errs, "scripts.timeout must be positive")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ModeCatalog builds the mode catalog from the modes section.
func (c *Config) ModeCatalog() (*mode.Catalog, error) {
	return mode.NewCatalog(c.Modes, c.DefaultMode)
}

// ScriptTimeout returns the stop script timeout as a Duration.
func (c *Config) ScriptTimeout() time.Duration {
	return time.Duration(c.Scripts.Timeout) * time.Second
}

// GatewayTimeout returns the gateway request timeout as a Duration.
func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.ZWave.Gateway.RequestTimeout) * time.Second
}

// GetSocketReadTimeout returns the socket read timeout as a Duration.
func (c *Config) GetSocketReadTimeout() time.Duration {
	return time.Duration(c.Socket.ReadTimeout) * time.Second
}

// GetSocketWriteTimeout returns the socket write timeout as a Duration.
func (c *Config) GetSocketWriteTimeout() time.Duration {
	return time.Duration(c.Socket.WriteTimeout) * time.Second
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
