package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Client  ClientConfig  `mapstructure:"client" yaml:"client"`
	TUI     TUIConfig     `mapstructure:"tui" yaml:"tui"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig defines where the collaborator listens
type ServerConfig struct {
	BindAddress string   `mapstructure:"bind_address" yaml:"bind_address"`
	Port        int      `mapstructure:"port" yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// StorageConfig selects and configures the record store
type StorageConfig struct {
	Type   string       `mapstructure:"type" yaml:"type"` // sqlite, redis or file
	SQLite SQLiteConfig `mapstructure:"sqlite" yaml:"sqlite"`
	File   FileConfig   `mapstructure:"file" yaml:"file"`
	Redis  RedisConfig  `mapstructure:"redis" yaml:"redis"`
}

type SQLiteConfig struct {
	Path   string `mapstructure:"path" yaml:"path"`
	Driver string `mapstructure:"driver" yaml:"driver"` // sqlite (pure Go) or sqlite3 (cgo)
}

type FileConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr" yaml:"addr"`
	Password  string `mapstructure:"password" yaml:"password"`
	DB        int    `mapstructure:"db" yaml:"db"`
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix"`
}

// ClientConfig points clients at a collaborator
type ClientConfig struct {
	ServerURL string `mapstructure:"server_url" yaml:"server_url"`
	Timeout   string `mapstructure:"timeout" yaml:"timeout"`
}

// TUIConfig tunes the terminal client
type TUIConfig struct {
	RepeatWindow string `mapstructure:"repeat_window" yaml:"repeat_window"`
	LogFile      string `mapstructure:"log_file" yaml:"log_file"`
	LiveUpdates  bool   `mapstructure:"live_updates" yaml:"live_updates"`
}

// LoggingConfig defines log level and output format
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // json or text
}

// Load loads configuration from file and environment variables. An empty
// configPath uses defaults and the environment only; a named file must exist.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("CUBETIMER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.bind_address", "127.0.0.1")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.cors_origins", []string{})

	v.SetDefault("storage.type", "sqlite")
	v.SetDefault("storage.sqlite.path", "./data/cubetimer.db")
	v.SetDefault("storage.sqlite.driver", "sqlite")
	v.SetDefault("storage.file.path", "times.txt")
	v.SetDefault("storage.redis.addr", "127.0.0.1:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.key_prefix", "cubetimer")

	v.SetDefault("client.server_url", "http://127.0.0.1:5000")
	v.SetDefault("client.timeout", "5s")

	// Above the usual desktop autorepeat delays (X11 660ms, macOS and Windows
	// 500ms). Two deliberate presses closer than this count as one.
	v.SetDefault("tui.repeat_window", "1s")
	v.SetDefault("tui.log_file", "cubetimer.log")
	v.SetDefault("tui.live_updates", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	switch cfg.Storage.Type {
	case "sqlite":
		if cfg.Storage.SQLite.Driver != "sqlite" && cfg.Storage.SQLite.Driver != "sqlite3" {
			return fmt.Errorf("invalid sqlite driver: %q", cfg.Storage.SQLite.Driver)
		}
	case "redis", "file":
	default:
		return fmt.Errorf("invalid storage type: %q", cfg.Storage.Type)
	}

	if !strings.HasPrefix(cfg.Client.ServerURL, "http://") && !strings.HasPrefix(cfg.Client.ServerURL, "https://") {
		return fmt.Errorf("client server_url must be http(s): %q", cfg.Client.ServerURL)
	}

	for name, value := range map[string]string{
		"client.timeout":    cfg.Client.Timeout,
		"tui.repeat_window": cfg.TUI.RepeatWindow,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	return nil
}

// ListenAddr is the host:port the server binds.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// ParseDuration parses a duration string with a fallback
func ParseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
