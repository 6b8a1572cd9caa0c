// internal/config/types.go
package config

import (
	"time"

	"github.com/valpere/tatooine/internal/browser"
	"github.com/valpere/tatooine/internal/monitoring"
	"github.com/valpere/tatooine/internal/scraper"
	"github.com/valpere/tatooine/internal/security"
	"github.com/valpere/tatooine/internal/utils"
	"github.com/valpere/tatooine/pkg/types"
)

// SchemaFile is a batch of schemas dispatched together
type SchemaFile struct {
	Schemas []*types.Schema `yaml:"schemas" json:"schemas"`
}

// AppConfig holds runtime settings of the CLI and the server
type AppConfig struct {
	Log     utils.LogConfig          `yaml:"log" json:"log"`
	Metrics monitoring.MetricsConfig `yaml:"metrics" json:"metrics"`
	HTTP    scraper.ClientConfig     `yaml:"http" json:"http"`
	Browser browser.LauncherConfig   `yaml:"browser" json:"browser"`
	Server  ServerConfig             `yaml:"server" json:"server"`
}

// ServerConfig configures cmd/server
type ServerConfig struct {
	Addr            string        `yaml:"addr" json:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	// StrictEngines rejects batches naming unknown engines.
	StrictEngines bool `yaml:"strict_engines" json:"strict_engines"`
	// URLPolicy restricts where client-supplied schemas may point.
	URLPolicy security.URLPolicy `yaml:"url_policy" json:"url_policy"`
}
