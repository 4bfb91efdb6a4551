package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/skobkin/dripmon/internal/domain"
)

// ConnectorType identifies which transport backend should be used.
type ConnectorType string

const (
	ConnectorWebSocket ConnectorType = "websocket"
	ConnectorSerial    ConnectorType = "serial"

	DefaultSerialBaud       = 115200
	DefaultConnectTimeoutMS = 5000
	DefaultHistoryKeep      = 5000

	// EnvPrefix prefixes environment overrides, e.g. DRIPMON_LOGGING_LEVEL.
	EnvPrefix = "DRIPMON"
)

// LoggingConfig defines runtime logging behavior.
type LoggingConfig struct {
	Level     string `mapstructure:"level" yaml:"level"`
	LogToFile bool   `mapstructure:"log_to_file" yaml:"log_to_file"`
}

// ConnectionConfig contains connector-specific connection parameters.
type ConnectionConfig struct {
	Connector  ConnectorType `mapstructure:"connector" yaml:"connector"`
	Device     string        `mapstructure:"device" yaml:"device,omitempty"`
	TimeoutMS  int           `mapstructure:"timeout_ms" yaml:"timeout_ms"`
	SerialPort string        `mapstructure:"serial_port" yaml:"serial_port,omitempty"`
	SerialBaud int           `mapstructure:"serial_baud" yaml:"serial_baud"`
}

func (c ConnectionConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// ToneConfig is one step of the alarm pattern.
type ToneConfig struct {
	FrequencyHz float64 `mapstructure:"frequency_hz" yaml:"frequency_hz"`
	DurationMS  int     `mapstructure:"duration_ms" yaml:"duration_ms"`
	GapMS       int     `mapstructure:"gap_ms" yaml:"gap_ms"`
}

// AlertConfig controls the alarm cue and desktop notifications.
type AlertConfig struct {
	Sound  bool         `mapstructure:"sound" yaml:"sound"`
	Notify bool         `mapstructure:"notify" yaml:"notify"`
	Tones  []ToneConfig `mapstructure:"tones" yaml:"tones"`
}

// HistoryConfig controls the optional event journal.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Keep    int  `mapstructure:"keep" yaml:"keep"`
}

// DeviceConfig is one entry of the static device catalog.
type DeviceConfig struct {
	ID   int    `mapstructure:"id" yaml:"id"`
	Name string `mapstructure:"name" yaml:"name"`
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// AppConfig is the root persisted application configuration.
type AppConfig struct {
	Connection ConnectionConfig `mapstructure:"connection" yaml:"connection"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Alert      AlertConfig      `mapstructure:"alert" yaml:"alert"`
	History    HistoryConfig    `mapstructure:"history" yaml:"history"`
	Devices    []DeviceConfig   `mapstructure:"devices" yaml:"devices"`
}

func Default() AppConfig {
	cfg := AppConfig{
		Connection: ConnectionConfig{
			Connector:  ConnectorWebSocket,
			TimeoutMS:  DefaultConnectTimeoutMS,
			SerialBaud: DefaultSerialBaud,
		},
		Logging: LoggingConfig{
			Level:     "info",
			LogToFile: false,
		},
		Alert: AlertConfig{
			Sound:  true,
			Notify: false,
			Tones:  DefaultTones(),
		},
		History: HistoryConfig{
			Enabled: false,
			Keep:    DefaultHistoryKeep,
		},
		Devices: DefaultDevices(),
	}

	return cfg
}

func DefaultTones() []ToneConfig {
	return []ToneConfig{
		{FrequencyHz: 880, DurationMS: 250, GapMS: 100},
		{FrequencyHz: 660, DurationMS: 250, GapMS: 600},
	}
}

func DefaultDevices() []DeviceConfig {
	devices := domain.DefaultDevices()
	out := make([]DeviceConfig, 0, len(devices))
	for _, d := range devices {
		out = append(out, DeviceConfig{ID: d.ID, Name: d.Name, Host: d.Endpoint.Host, Port: d.Endpoint.Port})
	}

	return out
}

// LoadDotEnv loads environment overrides from a .env file. A missing file
// is not an error. Variables already present in the environment win.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("load env file: %w", err)
	}

	return nil
}

// Load reads the YAML config at path, applies DRIPMON_* environment
// overrides and fills defaults. A missing file yields the defaults.
func Load(path string) (AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return AppConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.FillMissingDefaults()

	return cfg, nil
}

// setDefaults registers every scalar key so environment overrides apply
// even when the file does not mention the key. Lists are filled by
// FillMissingDefaults.
func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("connection.connector", string(def.Connection.Connector))
	v.SetDefault("connection.device", def.Connection.Device)
	v.SetDefault("connection.timeout_ms", def.Connection.TimeoutMS)
	v.SetDefault("connection.serial_port", def.Connection.SerialPort)
	v.SetDefault("connection.serial_baud", def.Connection.SerialBaud)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.log_to_file", def.Logging.LogToFile)
	v.SetDefault("alert.sound", def.Alert.Sound)
	v.SetDefault("alert.notify", def.Alert.Notify)
	v.SetDefault("history.enabled", def.History.Enabled)
	v.SetDefault("history.keep", def.History.Keep)
}

func (c *AppConfig) FillMissingDefaults() {
	c.Connection.Connector = ConnectorType(strings.ToLower(strings.TrimSpace(string(c.Connection.Connector))))
	if c.Connection.Connector == "" {
		c.Connection.Connector = ConnectorWebSocket
	}
	if c.Connection.TimeoutMS <= 0 {
		c.Connection.TimeoutMS = DefaultConnectTimeoutMS
	}
	if c.Connection.SerialBaud <= 0 {
		c.Connection.SerialBaud = DefaultSerialBaud
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if len(c.Alert.Tones) == 0 {
		c.Alert.Tones = DefaultTones()
	}
	if c.History.Keep <= 0 {
		c.History.Keep = DefaultHistoryKeep
	}
	if len(c.Devices) == 0 {
		c.Devices = DefaultDevices()
	}
	for i := range c.Devices {
		if c.Devices[i].ID <= 0 {
			c.Devices[i].ID = i + 1
		}
		if c.Devices[i].Port <= 0 {
			c.Devices[i].Port = domain.DefaultDevicePort
		}
	}
}

func (c AppConfig) Validate() error {
	switch c.Connection.Connector {
	case ConnectorWebSocket:
	case ConnectorSerial:
		if strings.TrimSpace(c.Connection.SerialPort) == "" {
			return errors.New("serial port is required")
		}
		if c.Connection.SerialBaud <= 0 {
			return errors.New("serial baud must be positive")
		}
	default:
		return fmt.Errorf("unknown connector: %s", c.Connection.Connector)
	}
	if c.Connection.TimeoutMS <= 0 {
		return errors.New("connect timeout must be positive")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.Logging.Level)
	}

	for i, tone := range c.Alert.Tones {
		if tone.FrequencyHz <= 0 || tone.DurationMS <= 0 || tone.GapMS < 0 {
			return fmt.Errorf("alert tone %d is invalid", i+1)
		}
	}
	if c.History.Keep < 0 {
		return errors.New("history keep must not be negative")
	}

	if len(c.Devices) == 0 {
		return errors.New("at least one device is required")
	}
	seen := make(map[int]struct{}, len(c.Devices))
	for _, d := range c.Devices {
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("device %d: name is required", d.ID)
		}
		if err := d.endpoint().Validate(); err != nil {
			return fmt.Errorf("device %q: %w", d.Name, err)
		}
		if _, ok := seen[d.ID]; ok {
			return fmt.Errorf("duplicate device id: %d", d.ID)
		}
		seen[d.ID] = struct{}{}
	}

	return nil
}

func (d DeviceConfig) endpoint() domain.DeviceEndpoint {
	return domain.DeviceEndpoint{Host: strings.TrimSpace(d.Host), Port: d.Port}
}

// DeviceCatalog converts the configured devices to domain devices.
func (c AppConfig) DeviceCatalog() []domain.Device {
	out := make([]domain.Device, 0, len(c.Devices))
	for _, d := range c.Devices {
		out = append(out, domain.Device{
			ID:       d.ID,
			Name:     strings.TrimSpace(d.Name),
			Endpoint: d.endpoint(),
		})
	}

	return out
}

func Save(path string, cfg AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp config: %w", err)
	}

	return nil
}
