// Package config loads scraper configuration from defaults, environment
// variables (PARCEL_SCRAPER_*) and an optional config file.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"parcel-scraper/internal/carriers"
	"parcel-scraper/internal/scraper"
)

// BrowserConfig configures the headless browser instances.
type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	DisableImages  bool
	UserAgent      string
	ViewportWidth  int64
	ViewportHeight int64
}

// PoolConfig bounds the browser pool.
type PoolConfig struct {
	MaxBrowsers     int
	IdleTimeout     time.Duration
	MaxIdleBrowsers int
}

// CarrierConfig carries per-carrier overrides. Unset fields keep the
// carrier's built-in behavior.
type CarrierConfig struct {
	RollYearOnRegression *bool
}

// Config is the full scraper configuration.
type Config struct {
	LogLevel string
	Browser  BrowserConfig
	Pool     PoolConfig
	Carriers map[string]CarrierConfig
}

// Load loads configuration from defaults, environment and the default
// config file search paths.
func Load() (*Config, error) {
	return LoadWithViper(viper.New())
}

// LoadWithFile loads configuration from a specific file.
func LoadWithFile(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	return LoadWithViper(v)
}

// LoadWithViper loads configuration through the given Viper instance.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	setupEnvBinding(v)

	if err := loadConfigFile(v); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	config := unmarshal(v)
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.timeout", "30s")
	v.SetDefault("browser.disable_images", true)
	v.SetDefault("browser.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("browser.viewport_width", 1920)
	v.SetDefault("browser.viewport_height", 1080)

	v.SetDefault("pool.max_browsers", 3)
	v.SetDefault("pool.idle_timeout", "5m")
	v.SetDefault("pool.max_idle_browsers", 1)
}

func setupEnvBinding(v *viper.Viper) {
	v.SetEnvPrefix("PARCEL_SCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	envBindings := map[string]string{
		"log_level":               "LOG_LEVEL",
		"browser.headless":        "BROWSER_HEADLESS",
		"browser.timeout":         "BROWSER_TIMEOUT",
		"browser.disable_images":  "BROWSER_DISABLE_IMAGES",
		"browser.user_agent":      "BROWSER_USER_AGENT",
		"browser.viewport_width":  "BROWSER_VIEWPORT_WIDTH",
		"browser.viewport_height": "BROWSER_VIEWPORT_HEIGHT",
		"pool.max_browsers":       "POOL_MAX_BROWSERS",
		"pool.idle_timeout":       "POOL_IDLE_TIMEOUT",
		"pool.max_idle_browsers":  "POOL_MAX_IDLE_BROWSERS",
	}
	for configKey, envSuffix := range envBindings {
		v.BindEnv(configKey, "PARCEL_SCRAPER_"+envSuffix)
	}
}

func loadConfigFile(v *viper.Viper) error {
	if v.ConfigFileUsed() == "" {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.config/parcel-scraper")
		v.SetConfigName("parcel-scraper")
	}

	if err := v.ReadInConfig(); err != nil {
		// The config file is optional.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}
	return nil
}

func unmarshal(v *viper.Viper) *Config {
	config := &Config{
		LogLevel: strings.ToLower(v.GetString("log_level")),
		Browser: BrowserConfig{
			Headless:       v.GetBool("browser.headless"),
			Timeout:        v.GetDuration("browser.timeout"),
			DisableImages:  v.GetBool("browser.disable_images"),
			UserAgent:      v.GetString("browser.user_agent"),
			ViewportWidth:  v.GetInt64("browser.viewport_width"),
			ViewportHeight: v.GetInt64("browser.viewport_height"),
		},
		Pool: PoolConfig{
			MaxBrowsers:     v.GetInt("pool.max_browsers"),
			IdleTimeout:     v.GetDuration("pool.idle_timeout"),
			MaxIdleBrowsers: v.GetInt("pool.max_idle_browsers"),
		},
		Carriers: map[string]CarrierConfig{},
	}

	for _, id := range carriers.IDs() {
		key := "carriers." + id + ".roll_year_on_regression"
		if v.IsSet(key) {
			roll := v.GetBool(key)
			config.Carriers[id] = CarrierConfig{RollYearOnRegression: &roll}
		}
	}
	return config
}

func (c *Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	if c.Browser.Timeout <= 0 {
		return fmt.Errorf("browser timeout must be positive")
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return fmt.Errorf("browser viewport must be positive")
	}
	if c.Pool.MaxBrowsers <= 0 {
		return fmt.Errorf("pool must allow at least one browser")
	}
	if c.Pool.MaxIdleBrowsers < 0 || c.Pool.MaxIdleBrowsers > c.Pool.MaxBrowsers {
		return fmt.Errorf("max idle browsers must be between 0 and max browsers")
	}
	if c.Pool.IdleTimeout <= 0 {
		return fmt.Errorf("pool idle timeout must be positive")
	}
	return nil
}

// SlogLevel maps the configured log level onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// BrowserOptions converts the browser section into pool options.
func (c *Config) BrowserOptions() *scraper.BrowserOptions {
	return &scraper.BrowserOptions{
		Headless:       c.Browser.Headless,
		Timeout:        c.Browser.Timeout,
		DisableImages:  c.Browser.DisableImages,
		UserAgent:      c.Browser.UserAgent,
		ViewportWidth:  c.Browser.ViewportWidth,
		ViewportHeight: c.Browser.ViewportHeight,
	}
}

// PoolSettings converts the pool section into pool configuration.
func (c *Config) PoolSettings() *scraper.PoolConfig {
	return &scraper.PoolConfig{
		MaxBrowsers:     c.Pool.MaxBrowsers,
		IdleTimeout:     c.Pool.IdleTimeout,
		MaxIdleBrowsers: c.Pool.MaxIdleBrowsers,
	}
}

// ApplyOverrides pushes per-carrier overrides onto a carrier that accepts
// policies.
func (c *Config) ApplyOverrides(car carriers.Carrier) {
	override, ok := c.Carriers[car.ID()]
	if !ok || override.RollYearOnRegression == nil {
		return
	}
	if target, ok := car.(interface{ SetPolicies(carriers.Policies) }); ok {
		target.SetPolicies(carriers.Policies{
			RollYearOnRegression: *override.RollYearOnRegression,
		})
	}
}
