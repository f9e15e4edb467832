package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rebelice/lazyview/internal/buffer"
	"github.com/rebelice/lazyview/internal/logging"
	"github.com/rebelice/lazyview/internal/search"
)

// Config holds all application configuration
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Buffer     BufferConfig     `mapstructure:"buffer"`
	Search     SearchConfig     `mapstructure:"search"`
	Connection ConnectionConfig `mapstructure:"connection"`
	Date       DateConfig       `mapstructure:"date"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Caller bool   `mapstructure:"caller"`
}

type BufferConfig struct {
	RowHeight        int `mapstructure:"row_height"`
	RowPadding       int `mapstructure:"row_padding"`
	RequestSize      int `mapstructure:"buffer_request_size"`
	ScrollIntervalMS int `mapstructure:"scroll_interval_ms"`
}

type SearchConfig struct {
	Mode            string `mapstructure:"mode"`
	HideNonMatching bool   `mapstructure:"hide_non_matching"`
}

type ConnectionConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	SSLMode  string `mapstructure:"sslmode"`
	PoolSize int    `mapstructure:"pool_size"`
	// QueryTimeout is in milliseconds
	QueryTimeout int `mapstructure:"query_timeout"`
}

type DateConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Buffer: BufferConfig{
			RowHeight:        33,
			RowPadding:       16,
			RequestSize:      40,
			ScrollIntervalMS: 100,
		},
		Search: SearchConfig{
			Mode:            string(search.DefaultMode),
			HideNonMatching: true,
		},
		Connection: ConnectionConfig{
			Host:         "localhost",
			Port:         5432,
			Database:     "postgres",
			User:         "postgres",
			SSLMode:      "prefer",
			PoolSize:     10,
			QueryTimeout: 30000,
		},
		Date: DateConfig{
			Timezone: "UTC",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := GetDefaults()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.caller", d.Log.Caller)
	v.SetDefault("buffer.row_height", d.Buffer.RowHeight)
	v.SetDefault("buffer.row_padding", d.Buffer.RowPadding)
	v.SetDefault("buffer.buffer_request_size", d.Buffer.RequestSize)
	v.SetDefault("buffer.scroll_interval_ms", d.Buffer.ScrollIntervalMS)
	v.SetDefault("search.mode", d.Search.Mode)
	v.SetDefault("search.hide_non_matching", d.Search.HideNonMatching)
	v.SetDefault("connection.host", d.Connection.Host)
	v.SetDefault("connection.port", d.Connection.Port)
	v.SetDefault("connection.database", d.Connection.Database)
	v.SetDefault("connection.user", d.Connection.User)
	v.SetDefault("connection.sslmode", d.Connection.SSLMode)
	v.SetDefault("connection.pool_size", d.Connection.PoolSize)
	v.SetDefault("connection.query_timeout", d.Connection.QueryTimeout)
	v.SetDefault("date.timezone", d.Date.Timezone)
}

// Load loads configuration from the default locations
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from path, or from the default locations when
// path is empty. LAZYVIEW_* environment variables override file values.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("lazyview")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 1. User config directory
		if configDir, err := GetConfigPath(); err == nil {
			v.AddConfigPath(configDir)
		}

		// 2. Current directory
		v.AddConfigPath(".")
	}

	// Read config (it's okay if file doesn't exist, we have defaults)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks values that cannot be corrected silently
func (c *Config) Validate() error {
	if _, err := search.ParseMode(c.Search.Mode); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Date.Timezone); err != nil {
		return fmt.Errorf("unknown timezone %q: %w", c.Date.Timezone, err)
	}
	return nil
}

// LoggingConfig converts the log section for logging.Init
func (c *Config) LoggingConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.Log.Level
	lc.Format = c.Log.Format
	lc.EnableCaller = c.Log.Caller
	return lc
}

// ScrollBuffer converts the buffer section for buffer.New
func (c *Config) ScrollBuffer() buffer.Config {
	return buffer.Config{
		RowHeight:         c.Buffer.RowHeight,
		RowPadding:        c.Buffer.RowPadding,
		BufferRequestSize: c.Buffer.RequestSize,
		ScrollInterval:    time.Duration(c.Buffer.ScrollIntervalMS) * time.Millisecond,
	}
}

// Location returns the default timezone for date filters
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Date.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "lazyview"), nil
}
