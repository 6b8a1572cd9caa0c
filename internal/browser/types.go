// internal/browser/types.go
package browser

import (
	"time"

	"github.com/valpere/tatooine/pkg/types"
)

// Defaults applied when a schema leaves the window size unset
const (
	DefaultWindowWidth  = 1920
	DefaultWindowHeight = 1080
)

// LauncherConfig holds process-wide launch settings merged under every
// schema's own launch options.
type LauncherConfig struct {
	// ExecPath is used when a schema does not name a browser binary.
	ExecPath string `yaml:"exec_path,omitempty" json:"exec_path,omitempty"`
	// NoSandbox is required in most container environments.
	NoSandbox bool `yaml:"no_sandbox" json:"no_sandbox"`
	// DisableImages speeds up rendering of image-heavy pages.
	DisableImages bool `yaml:"disable_images" json:"disable_images"`
	// CloseTimeout bounds the graceful shutdown of a browser.
	CloseTimeout time.Duration `yaml:"close_timeout" json:"close_timeout"`
}

// DefaultLauncherConfig returns default launcher configuration
func DefaultLauncherConfig() *LauncherConfig {
	return &LauncherConfig{
		NoSandbox:     false,
		DisableImages: true,
		CloseTimeout:  10 * time.Second,
	}
}

// windowSize resolves the viewport for a launch
func windowSize(opts types.LaunchOptions) (int, int) {
	width, height := opts.WindowWidth, opts.WindowHeight
	if width <= 0 {
		width = DefaultWindowWidth
	}
	if height <= 0 {
		height = DefaultWindowHeight
	}
	return width, height
}
