package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/scrapescript-lang/scrapescript/browser"
)

// Config represents the ScrapeScript configuration
type Config struct {
	Browser BrowserConfig `mapstructure:"browser"`
	Run     RunConfig     `mapstructure:"run"`
	Output  OutputConfig  `mapstructure:"output"`
	Log     LogConfig     `mapstructure:"log"`
}

// BrowserConfig represents browser driver configuration
type BrowserConfig struct {
	Impl           string `mapstructure:"impl"`
	Headless       bool   `mapstructure:"headless"`
	ClickTimeoutMS int    `mapstructure:"click_timeout_ms"`
}

// RunConfig represents interpreter configuration
type RunConfig struct {
	WhileCap int `mapstructure:"while_cap"`
}

// OutputConfig represents result output configuration
type OutputConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads the configuration from scrapescript.yml or scrapescript.yaml.
// Environment variables prefixed SCRAPESCRIPT_ override file values; a
// missing config file falls back to defaults.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("browser.impl", "chromedp")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.click_timeout_ms", 5000)
	v.SetDefault("run.while_cap", 1000)
	v.SetDefault("output.path", "")
	v.SetDefault("log.level", "info")

	// Set config name and paths
	v.SetConfigName("scrapescript")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Enable environment variable support
	v.SetEnvPrefix("SCRAPESCRIPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if _, err := browser.New(cfg.Browser.Impl); err != nil {
		return fmt.Errorf("browser.impl: %w", err)
	}
	if cfg.Run.WhileCap <= 0 {
		return fmt.Errorf("run.while_cap must be positive, got: %d", cfg.Run.WhileCap)
	}
	if cfg.Browser.ClickTimeoutMS <= 0 {
		return fmt.Errorf("browser.click_timeout_ms must be positive, got: %d", cfg.Browser.ClickTimeoutMS)
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got: %s", cfg.Log.Level)
	}
}
