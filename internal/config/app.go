// internal/config/app.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/valpere/tatooine/internal/browser"
	"github.com/valpere/tatooine/internal/monitoring"
	"github.com/valpere/tatooine/internal/scraper"
	"github.com/valpere/tatooine/internal/security"
	"github.com/valpere/tatooine/internal/utils"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding AppConfig
const (
	EnvLogLevel    = "TATOOINE_LOG_LEVEL"
	EnvLogFormat   = "TATOOINE_LOG_FORMAT"
	EnvLogFile     = "TATOOINE_LOG_FILE"
	EnvHTTPTimeout = "TATOOINE_HTTP_TIMEOUT"
	EnvHTTPProxy   = "TATOOINE_HTTP_PROXY"
	EnvChromePath  = "TATOOINE_CHROME_PATH"
	EnvNoSandbox   = "TATOOINE_NO_SANDBOX"
	EnvServerAddr  = "TATOOINE_ADDR"
)

// DefaultAppConfig returns the settings used when nothing is configured
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Log: utils.LogConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: monitoring.MetricsConfig{
			Namespace:            "tatooine",
			Subsystem:            "engine",
			EnableGoMetrics:      true,
			EnableProcessMetrics: true,
		},
		HTTP: scraper.ClientConfig{
			Timeout: 30 * time.Second,
		},
		Browser: *browser.DefaultLauncherConfig(),
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			URLPolicy:       security.DefaultURLPolicy(),
		},
	}
}

// LoadAppConfig reads settings from an optional YAML file on top of the
// defaults, then applies environment overrides
func LoadAppConfig(filename string) (*AppConfig, error) {
	cfg := DefaultAppConfig()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(expandEnvironmentVariables(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse settings file: %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from TATOOINE_* environment variables
func (c *AppConfig) ApplyEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv(EnvHTTPTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHTTPTimeout, err)
		}
		c.HTTP.Timeout = d
	}
	if v := os.Getenv(EnvHTTPProxy); v != "" {
		c.HTTP.Proxy = v
	}
	if v := os.Getenv(EnvChromePath); v != "" {
		c.Browser.ExecPath = v
	}
	if v := os.Getenv(EnvNoSandbox); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvNoSandbox, err)
		}
		c.Browser.NoSandbox = b
	}
	if v := os.Getenv(EnvServerAddr); v != "" {
		c.Server.Addr = v
	}
	return nil
}
