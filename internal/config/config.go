// Package config loads device-bridge settings from defaults, an optional
// YAML file and DEVICE_BRIDGE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mj1618/device-bridge/internal/imaging"
	"github.com/mj1618/device-bridge/internal/model"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// DEVICE_BRIDGE_CAPTURE_TIMEOUT=5s.
const EnvPrefix = "DEVICE_BRIDGE"

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Tree      TreeConfig      `mapstructure:"tree" yaml:"tree"`
	Capture   CaptureConfig   `mapstructure:"capture" yaml:"capture"`
	Gesture   GestureConfig   `mapstructure:"gesture" yaml:"gesture"`
	Overlay   OverlayConfig   `mapstructure:"overlay" yaml:"overlay"`
	Bridge    BridgeConfig    `mapstructure:"bridge" yaml:"bridge"`
	Backend   BackendConfig   `mapstructure:"backend" yaml:"backend"`
	KeepAlive KeepAliveConfig `mapstructure:"keepalive" yaml:"keepalive"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
}

// LoggerConfig configures the zap logger and its rotating log file.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig names the console colour of each log level.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
}

// TreeConfig controls UI tree traversal.
type TreeConfig struct {
	ActionableFlags []string `mapstructure:"actionable_flags" yaml:"actionable_flags"`
	MaxDepth        int      `mapstructure:"max_depth" yaml:"max_depth"`
	MaxNodes        int      `mapstructure:"max_nodes" yaml:"max_nodes"`
}

// Triggers parses ActionableFlags.
func (t TreeConfig) Triggers() (model.Flag, error) {
	return model.ParseFlags(t.ActionableFlags)
}

// CaptureConfig controls screen capture.
type CaptureConfig struct {
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	CacheDir    string        `mapstructure:"cache_dir" yaml:"cache_dir"`
	Timestamped bool          `mapstructure:"timestamped" yaml:"timestamped"`
	Scale       float64       `mapstructure:"scale" yaml:"scale"`
	Annotate    bool          `mapstructure:"annotate" yaml:"annotate"`
	// Labels is what annotated captures draw per element: ids or coords.
	Labels string `mapstructure:"labels" yaml:"labels"`
}

// LabelMode parses Labels.
func (c CaptureConfig) LabelMode() (imaging.LabelMode, error) {
	return imaging.ParseLabelMode(c.Labels)
}

// GestureConfig controls tap injection.
type GestureConfig struct {
	Hold          time.Duration `mapstructure:"hold" yaml:"hold"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second" yaml:"rate_per_second"`
	Strict        bool          `mapstructure:"strict" yaml:"strict"`
}

// OverlayConfig controls the tap marker.
type OverlayConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	SizeDP  int           `mapstructure:"size_dp" yaml:"size_dp"`
	Density float64       `mapstructure:"density" yaml:"density"`
	Appear  time.Duration `mapstructure:"appear" yaml:"appear"`
	Dismiss time.Duration `mapstructure:"dismiss" yaml:"dismiss"`
	Ceiling time.Duration `mapstructure:"ceiling" yaml:"ceiling"`
}

// BridgeConfig controls command execution.
type BridgeConfig struct {
	MaxPending int `mapstructure:"max_pending" yaml:"max_pending"`
}

// BackendConfig selects and configures the device-state provider.
type BackendConfig struct {
	Name         string        `mapstructure:"name" yaml:"name"`
	Serial       string        `mapstructure:"serial" yaml:"serial"`
	ADBPath      string        `mapstructure:"adb_path" yaml:"adb_path"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// KeepAliveConfig controls the keep-alive host.
type KeepAliveConfig struct {
	DefaultStatus     string        `mapstructure:"default_status" yaml:"default_status"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" yaml:"heartbeat_interval"`
}

// ServerConfig controls the MCP transport.
type ServerConfig struct {
	Transport string `mapstructure:"transport" yaml:"transport"`
	Port      int    `mapstructure:"port" yaml:"port"`
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "device-bridge")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Tree --
	v.SetDefault("tree.actionable_flags", []string{"clickable", "focusable", "editable", "checkable"})
	v.SetDefault("tree.max_depth", model.DefaultMaxDepth)
	v.SetDefault("tree.max_nodes", model.DefaultMaxNodes)

	// -- Capture --
	v.SetDefault("capture.timeout", "3s")
	v.SetDefault("capture.cache_dir", "")
	v.SetDefault("capture.timestamped", false)
	v.SetDefault("capture.scale", 1.0)
	v.SetDefault("capture.annotate", false)
	v.SetDefault("capture.labels", "ids")

	// -- Gesture --
	v.SetDefault("gesture.hold", "50ms")
	v.SetDefault("gesture.timeout", "3s")
	v.SetDefault("gesture.rate_per_second", 0.0)
	v.SetDefault("gesture.strict", false)

	// -- Overlay --
	v.SetDefault("overlay.enabled", true)
	v.SetDefault("overlay.size_dp", 88)
	v.SetDefault("overlay.density", 1.0)
	v.SetDefault("overlay.appear", "120ms")
	v.SetDefault("overlay.dismiss", "520ms")
	v.SetDefault("overlay.ceiling", "900ms")

	// -- Bridge --
	v.SetDefault("bridge.max_pending", 16)

	// -- Backend --
	v.SetDefault("backend.name", "adb")
	v.SetDefault("backend.serial", "")
	v.SetDefault("backend.adb_path", "adb")
	v.SetDefault("backend.poll_interval", "2s")

	// -- KeepAlive --
	v.SetDefault("keepalive.default_status", "Agent running")
	v.SetDefault("keepalive.heartbeat_interval", "30s")

	// -- Server --
	v.SetDefault("server.transport", "stdio")
	v.SetDefault("server.port", 8080)
}

// NewViper returns a viper instance with defaults and environment
// overrides wired up.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// NewDefaultConfig returns the configuration made of defaults only.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// ReadFile loads path into v. An empty path searches the working
// directory for device-bridge.yaml; not finding it is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("device-bridge")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if _, err := c.Tree.Triggers(); err != nil {
		return fmt.Errorf("tree.actionable_flags: %w", err)
	}
	if len(c.Tree.ActionableFlags) == 0 {
		return fmt.Errorf("tree.actionable_flags must name at least one capability")
	}
	if c.Tree.MaxDepth <= 0 || c.Tree.MaxNodes <= 0 {
		return fmt.Errorf("tree.max_depth and tree.max_nodes must be positive")
	}
	if c.Capture.Timeout <= 0 {
		return fmt.Errorf("capture.timeout must be a positive duration")
	}
	if _, err := c.Capture.LabelMode(); err != nil {
		return fmt.Errorf("capture.labels: %w", err)
	}
	if c.Capture.Scale <= 0 || c.Capture.Scale > 1 {
		return fmt.Errorf("capture.scale must be in (0, 1]")
	}
	if c.Gesture.Hold <= 0 || c.Gesture.Timeout <= c.Gesture.Hold {
		return fmt.Errorf("gesture.hold must be positive and shorter than gesture.timeout")
	}
	if c.Gesture.RatePerSecond < 0 {
		return fmt.Errorf("gesture.rate_per_second must not be negative")
	}
	if c.Overlay.Appear <= 0 || c.Overlay.Dismiss <= 0 || c.Overlay.Ceiling <= 0 {
		return fmt.Errorf("overlay durations must be positive")
	}
	if c.Overlay.SizeDP <= 0 || c.Overlay.Density <= 0 {
		return fmt.Errorf("overlay.size_dp and overlay.density must be positive")
	}
	if c.Bridge.MaxPending <= 0 {
		return fmt.Errorf("bridge.max_pending must be a positive integer")
	}
	switch c.Server.Transport {
	case "stdio", "streamable-http":
	default:
		return fmt.Errorf("unsupported server.transport %q (use stdio or streamable-http)", c.Server.Transport)
	}
	return nil
}
