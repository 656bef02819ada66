package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"escpos-print/internal/layout"
	"escpos-print/internal/logger"
	"escpos-print/internal/printer"
)

// Config holds the application configuration
type Config struct {
	HTTP      HTTPConfig
	Log       LogConfig
	Pool      PoolConfig
	Bluetooth BluetoothConfig
	Printer   PrinterConfig
}

// HTTPConfig holds the HTTP front settings
type HTTPConfig struct {
	Host string
	Port int
	Mode string // gin mode: debug, release, test
}

// Addr returns the listen address
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// PoolConfig holds connection pool settings
type PoolConfig struct {
	GracePeriod  time.Duration
	WriteTimeout time.Duration
	DialTimeout  time.Duration
}

// BluetoothConfig holds Bluetooth transport and discovery settings
type BluetoothConfig struct {
	Channel          int
	BaudRate         int
	ScanTimeout      time.Duration
	WatchConnections bool // report adapter connect/disconnect events
}

// PrinterConfig holds what new sessions start with
type PrinterConfig struct {
	DefaultPaperSize layout.PaperSize
	DefaultCharCode  string
}

// Load reads configuration from config.toml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with ESCPOS_ prefix (e.g., ESCPOS_HTTP_PORT)
// 2. config.toml in the given paths, or in . and /etc/escpos-print
// 3. Built-in defaults
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	if len(paths) == 0 {
		paths = []string{".", "/etc/escpos-print"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("ESCPOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		HTTP: HTTPConfig{
			Host: v.GetString("http.host"),
			Port: v.GetInt("http.port"),
			Mode: v.GetString("http.mode"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Pool: PoolConfig{
			GracePeriod:  v.GetDuration("pool.grace_period"),
			WriteTimeout: v.GetDuration("pool.write_timeout"),
			DialTimeout:  v.GetDuration("pool.dial_timeout"),
		},
		Bluetooth: BluetoothConfig{
			Channel:          v.GetInt("bluetooth.channel"),
			BaudRate:         v.GetInt("bluetooth.baud_rate"),
			ScanTimeout:      v.GetDuration("bluetooth.scan_timeout"),
			WatchConnections: v.GetBool("bluetooth.watch_connections"),
		},
		Printer: PrinterConfig{
			DefaultPaperSize: layout.ParsePaperSize(v.GetString("printer.default_paper_size")),
			DefaultCharCode:  v.GetString("printer.default_char_code"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.host", "127.0.0.1")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.mode", "release")

	lc := logger.DefaultConfig()
	v.SetDefault("log.level", lc.Level)
	v.SetDefault("log.format", lc.Format)
	v.SetDefault("log.output", lc.Output)

	v.SetDefault("pool.grace_period", printer.DefaultGracePeriod)
	v.SetDefault("pool.write_timeout", printer.DefaultWriteTimeout)
	v.SetDefault("pool.dial_timeout", 15*time.Second)

	v.SetDefault("bluetooth.channel", printer.DefaultBluetoothChannel)
	v.SetDefault("bluetooth.baud_rate", printer.DefaultBaudRate)
	v.SetDefault("bluetooth.scan_timeout", 10*time.Second)
	v.SetDefault("bluetooth.watch_connections", true)

	v.SetDefault("printer.default_paper_size", string(layout.PaperSize58mm))
	v.SetDefault("printer.default_char_code", printer.DefaultCharCode)
}

func (c *Config) validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Pool.GracePeriod < 0 {
		return fmt.Errorf("pool.grace_period cannot be negative")
	}
	if c.Pool.WriteTimeout < 0 {
		return fmt.Errorf("pool.write_timeout cannot be negative")
	}
	if c.Bluetooth.Channel < 1 || c.Bluetooth.Channel > 30 {
		return fmt.Errorf("bluetooth.channel must be between 1 and 30, got %d", c.Bluetooth.Channel)
	}
	if _, err := printer.LookupCodePage(c.Printer.DefaultCharCode); err != nil {
		return fmt.Errorf("printer.default_char_code: %w", err)
	}
	return nil
}

// TransportOptions returns the transport settings for the printer pool
func (c *Config) TransportOptions() printer.TransportOptions {
	return printer.TransportOptions{
		WriteTimeout:     c.Pool.WriteTimeout,
		BluetoothChannel: c.Bluetooth.Channel,
		BaudRate:         c.Bluetooth.BaudRate,
	}
}
