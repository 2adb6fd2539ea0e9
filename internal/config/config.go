package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Session    SessionConfig    `mapstructure:"session"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Search     SearchConfig     `mapstructure:"search"`
	Pagination PaginationConfig `mapstructure:"pagination"`
	UI         UIConfig         `mapstructure:"ui"`
	Logging    LoggingConfig    `mapstructure:"logging"`

	File string `mapstructure:"-"` // config file read, empty when none was found
}

// ServerConfig holds catalog server connection settings
type ServerConfig struct {
	URL               string        `mapstructure:"url" validate:"required,url"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gte=0"` // 0 disables limiting
	Burst             int           `mapstructure:"burst" validate:"gte=1"`
}

// SessionConfig holds credential storage settings
type SessionConfig struct {
	StorePath string `mapstructure:"store_path"` // empty = memory only
}

// CatalogConfig holds list paging settings
type CatalogConfig struct {
	PageSize     int `mapstructure:"page_size" validate:"gte=1,lte=100"`
	BulkPageSize int `mapstructure:"bulk_page_size" validate:"gte=1"`
}

// SearchConfig holds search input settings
type SearchConfig struct {
	Debounce  time.Duration `mapstructure:"debounce" validate:"gt=0"`
	MinLength int           `mapstructure:"min_length" validate:"gte=1"`
}

// PaginationConfig holds page window settings
type PaginationConfig struct {
	WindowRange int `mapstructure:"window_range" validate:"gte=0"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	DefaultTab string `mapstructure:"default_tab" validate:"oneof=all liked disliked recommended"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:               "http://localhost:8000",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 10,
			Burst:             5,
		},
		Session: SessionConfig{
			StorePath: filepath.Join(defaultDataPath(), "session.db"),
		},
		Catalog: CatalogConfig{
			PageSize:     10,
			BulkPageSize: 1000,
		},
		Search: SearchConfig{
			Debounce:  500 * time.Millisecond,
			MinLength: 2,
		},
		Pagination: PaginationConfig{
			WindowRange: 2,
		},
		UI: UIConfig{
			DefaultTab: "all",
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "reel.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "reel")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "reel")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "reel")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "reel")
	}
}

// LoadConfig loads configuration from the default locations and environment
func LoadConfig() (*Config, error) {
	return load(viper.GetViper(), "")
}

// LoadConfigFile loads configuration from an explicit file (plus environment)
func LoadConfigFile(path string) (*Config, error) {
	return load(viper.New(), path)
}

func load(v *viper.Viper, file string) (*Config, error) {
	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	// Environment variable overrides (REEL_SERVER_URL, ...)
	v.SetEnvPrefix("REEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys absent from the file
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.url", cfg.Server.URL)
	v.SetDefault("server.timeout", cfg.Server.Timeout)
	v.SetDefault("server.requests_per_second", cfg.Server.RequestsPerSecond)
	v.SetDefault("server.burst", cfg.Server.Burst)
	v.SetDefault("session.store_path", cfg.Session.StorePath)
	v.SetDefault("catalog.page_size", cfg.Catalog.PageSize)
	v.SetDefault("catalog.bulk_page_size", cfg.Catalog.BulkPageSize)
	v.SetDefault("search.debounce", cfg.Search.Debounce)
	v.SetDefault("search.min_length", cfg.Search.MinLength)
	v.SetDefault("pagination.window_range", cfg.Pagination.WindowRange)
	v.SetDefault("ui.default_tab", cfg.UI.DefaultTab)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SaveConfig saves cfg to the default config file and returns its path
func SaveConfig(cfg *Config) (string, error) {
	path := filepath.Join(defaultConfigPath(), "config.yaml")
	if err := SaveConfigFile(cfg, path); err != nil {
		return "", err
	}
	return path, nil
}

// SaveConfigFile writes cfg as YAML to path
func SaveConfigFile(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("server.url", cfg.Server.URL)
	v.Set("server.timeout", cfg.Server.Timeout.String())
	v.Set("server.requests_per_second", cfg.Server.RequestsPerSecond)
	v.Set("server.burst", cfg.Server.Burst)
	v.Set("session.store_path", cfg.Session.StorePath)
	v.Set("catalog.page_size", cfg.Catalog.PageSize)
	v.Set("catalog.bulk_page_size", cfg.Catalog.BulkPageSize)
	v.Set("search.debounce", cfg.Search.Debounce.String())
	v.Set("search.min_length", cfg.Search.MinLength)
	v.Set("pagination.window_range", cfg.Pagination.WindowRange)
	v.Set("ui.default_tab", cfg.UI.DefaultTab)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
