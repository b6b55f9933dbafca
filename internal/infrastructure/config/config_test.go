package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-zwave/internal/mode"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
site:
  id: "test-site"
socket:
  address: "127.0.0.1:5001"
  buffer_size: 2048
zwave:
  driver: simulator
  device: /dev/ttyUSB0
paths:
  node_logs: /tmp/nodes
  audit_dir: /tmp/audit
  mode_file: /tmp/config.json
modes:
  - name: normal
    log: INFO
    poll_interval: 60
  - name: verbose
    log: debug
    poll_interval: 5
default_mode: verbose
database:
  path: "/tmp/test.db"
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}
	if cfg.Socket.Address != "127.0.0.1:5001" || cfg.Socket.BufferSize != 2048 {
		t.Errorf("Socket = %+v", cfg.Socket)
	}
	if cfg.ZWave.Device != "/dev/ttyUSB0" {
		t.Errorf("ZWave.Device = %q", cfg.ZWave.Device)
	}
	if len(cfg.Modes) != 2 {
		t.Fatalf("len(Modes) = %d, want 2", len(cfg.Modes))
	}
	if cfg.Modes[1].Log != mode.LevelDebug || cfg.Modes[1].PollInterval != 5 {
		t.Errorf("Modes[1] = %+v", cfg.Modes[1])
	}

	catalog, err := cfg.ModeCatalog()
	if err != nil {
		t.Fatalf("ModeCatalog() error = %v", err)
	}
	if catalog.Default().Name != "verbose" {
		t.Errorf("Default() = %q, want verbose", catalog.Default().Name)
	}

	// Unset sections keep their defaults.
	if cfg.Socket.ReadTimeout != 5 || cfg.Scripts.Timeout != 120 {
		t.Errorf("defaults lost: socket.read_timeout=%d scripts.timeout=%d", cfg.Socket.ReadTimeout, cfg.Scripts.Timeout)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Socket.Address != ":5000" {
		t.Errorf("Socket.Address = %q, want :5000", cfg.Socket.Address)
	}
	if cfg.ZWave.Driver != DriverSimulator {
		t.Errorf("ZWave.Driver = %q, want simulator", cfg.ZWave.Driver)
	}
	if cfg.DefaultMode != mode.DefaultModeName {
		t.Errorf("DefaultMode = %q", cfg.DefaultMode)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidModeLevel(t *testing.T) {
	content := `
modes:
  - name: normal
    log: LOUD
    poll_interval: 60
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected error for unknown log level, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ZWAVED_SOCKET_ADDRESS", "127.0.0.1:6000")
	t.Setenv("ZWAVED_ZWAVE_DEVICE", "/dev/ttyS1")
	t.Setenv("ZWAVED_MQTT_HOST", "broker.local")
	t.Setenv("ZWAVED_MQTT_PORT", "8883")
	t.Setenv("ZWAVED_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("ZWAVED_LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, "site:\n  id: env-site\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Socket.Address != "127.0.0.1:6000" {
		t.Errorf("Socket.Address = %q", cfg.Socket.Address)
	}
	if cfg.ZWave.Device != "/dev/ttyS1" {
		t.Errorf("ZWave.Device = %q", cfg.ZWave.Device)
	}
	if cfg.MQTT.Broker.Host != "broker.local" || cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker = %+v", cfg.MQTT.Broker)
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q", cfg.InfluxDB.Token)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			modify: func(*Config) {},
		},
		{
			name:    "missing site id",
			modify:  func(c *Config) { c.Site.ID = "" },
			wantErr: "site.id is required",
		},
		{
			name:    "buffer too small",
			modify:  func(c *Config) { c.Socket.BufferSize = 4 },
			wantErr: "socket.buffer_size",
		},
		{
			name:    "unknown driver",
			modify:  func(c *Config) { c.ZWave.Driver = "serial" },
			wantErr: "zwave.driver must be",
		},
		{
			name:    "gateway without mqtt",
			modify:  func(c *Config) { c.ZWave.Driver = DriverGateway },
			wantErr: "requires mqtt.enabled",
		},
		{
			name: "gateway with mqtt",
			modify: func(c *Config) {
				c.ZWave.Driver = DriverGateway
				c.MQTT.Enabled = true
			},
		},
		{
			name:    "missing mode file",
			modify:  func(c *Config) { c.Paths.ModeFile = "" },
			wantErr: "paths.mode_file is required",
		},
		{
			name:    "unknown default mode",
			modify:  func(c *Config) { c.DefaultMode = "turbo" },
			wantErr: "modes:",
		},
		{
			name:    "empty mode catalog",
			modify:  func(c *Config) { c.Modes = nil },
			wantErr: "modes:",
		},
		{
			name:    "invalid qos",
			modify:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "influx without url",
			modify:  func(c *Config) { c.InfluxDB.Enabled = true },
			wantErr: "influxdb.url",
		},
		{
			name: "api port out of range",
			modify: func(c *Config) {
				c.API.Enabled = true
				c.API.Port = 70000
			},
			wantErr: "api.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.Site.ID = ""
	cfg.Database.Path = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil")
	}
	for _, want := range []string{"site.id", "database.path"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error = %v, missing %q", err, want)
		}
	}
}

func TestDurations(t *testing.T) {
	cfg := defaultConfig()

	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{name: "script timeout", got: cfg.ScriptTimeout(), want: 2 * time.Minute},
		{name: "gateway timeout", got: cfg.GatewayTimeout(), want: 10 * time.Second},
		{name: "socket read", got: cfg.GetSocketReadTimeout(), want: 5 * time.Second},
		{name: "socket write", got: cfg.GetSocketWriteTimeout(), want: 5 * time.Second},
		{name: "api read", got: cfg.GetReadTimeout(), want: 30 * time.Second},
		{name: "api write", got: cfg.GetWriteTimeout(), want: 30 * time.Second},
		{name: "api idle", got: cfg.GetIdleTimeout(), want: 60 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}
