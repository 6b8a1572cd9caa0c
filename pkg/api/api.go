// pkg/api/api.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/valpere/tatooine/internal/browser"
	"github.com/valpere/tatooine/internal/config"
	"github.com/valpere/tatooine/internal/monitoring"
	"github.com/valpere/tatooine/internal/scraper"
	"github.com/valpere/tatooine/internal/utils"
	"go.uber.org/zap"
)

type clientOptions struct {
	fetcher   Fetcher
	launcher  Launcher
	logger    *zap.Logger
	engines   []Engine
	strict    bool
	metrics   bool
	timeout   time.Duration
	userAgent string
	chromeBin string
}

// Option configures a Client
type Option func(*clientOptions)

// WithFetcher replaces the HTTP collaborator of the json and markup engines
func WithFetcher(fetcher Fetcher) Option {
	return func(o *clientOptions) { o.fetcher = fetcher }
}

// WithLauncher replaces the browser collaborator of the spa engine
func WithLauncher(launcher Launcher) Option {
	return func(o *clientOptions) { o.launcher = launcher }
}

// WithLogger logs engine runs through logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

// WithEngines registers custom engines for every dispatch of the client
func WithEngines(engines ...Engine) Option {
	return func(o *clientOptions) { o.engines = append(o.engines, engines...) }
}

// WithStrictEngines makes Dispatch fail on schemas naming unknown engines
func WithStrictEngines() Option {
	return func(o *clientOptions) { o.strict = true }
}

// WithMetrics enables Prometheus metrics, served by Client.MetricsHandler
func WithMetrics() Option {
	return func(o *clientOptions) { o.metrics = true }
}

// WithTimeout sets the default timeout of requests that declare none
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) { o.timeout = timeout }
}

// WithUserAgent sets the default User-Agent of HTTP requests
func WithUserAgent(userAgent string) Option {
	return func(o *clientOptions) { o.userAgent = userAgent }
}

// WithChromePath points the spa engine at a specific Chrome binary
func WithChromePath(path string) Option {
	return func(o *clientOptions) { o.chromeBin = path }
}

// Client dispatches schemas to the built-in and custom engines. It is safe
// for concurrent use.
type Client struct {
	dispatcher *scraper.Dispatcher
	metrics    *monitoring.MetricsManager
}

// NewClient creates a new client
func NewClient(opts ...Option) *Client {
	o := &clientOptions{}
	for _, opt := range opts {
		opt(o)
	}

	logger := utils.NewNopLogger()
	if o.logger != nil {
		logger = utils.NewLoggerFromZap(o.logger)
	}

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = scraper.NewRestyFetcher(scraper.ClientConfig{
			Timeout:   o.timeout,
			UserAgent: o.userAgent,
		})
	}

	launcher := o.launcher
	if launcher == nil {
		launcherConfig := browser.DefaultLauncherConfig()
		launcherConfig.ExecPath = o.chromeBin
		launcher = browser.NewChromeLauncher(launcherConfig, logger)
	}

	dispatcherOpts := []scraper.Option{
		scraper.WithFetcher(fetcher),
		scraper.WithLauncher(launcher),
		scraper.WithLogger(logger),
		scraper.WithEngines(o.engines...),
	}
	if o.strict {
		dispatcherOpts = append(dispatcherOpts, scraper.WithStrictEngines())
	}

	client := &Client{}
	if o.metrics {
		client.metrics = monitoring.NewMetricsManager(monitoring.MetricsConfig{})
		dispatcherOpts = append(dispatcherOpts, scraper.WithMetrics(client.metrics))
	}

	client.dispatcher = scraper.NewDispatcher(dispatcherOpts...)
	return client
}

// Dispatch runs schemas concurrently and returns one envelope per schema
// whose engine is known, in schema order. Engine failures are reported in
// the envelopes; only a custom engine error or panic fails the call.
func (c *Client) Dispatch(ctx context.Context, schemas []*Schema, custom ...Engine) ([]*Envelope, error) {
	return c.dispatcher.Dispatch(ctx, schemas, custom...)
}

// Engines lists the engine names known to the client
func (c *Client) Engines() []string {
	return c.dispatcher.Engines()
}

// MetricsHandler serves the client metrics, or nil without WithMetrics
func (c *Client) MetricsHandler() http.Handler {
	if c.metrics == nil {
		return nil
	}
	return c.metrics.MetricsHandler()
}

// Dispatch runs schemas with a default client
func Dispatch(ctx context.Context, schemas []*Schema, custom ...Engine) ([]*Envelope, error) {
	return NewClient().Dispatch(ctx, schemas, custom...)
}

// LoadSchemas reads and validates a YAML or JSON schema file. Names of
// custom engines the caller will register must be listed in customEngines.
func LoadSchemas(filename string, customEngines ...string) ([]*Schema, error) {
	file, err := config.LoadFromFile(filename)
	if err != nil {
		return nil, err
	}
	if err := file.Validate(customEngines...); err != nil {
		return nil, err
	}
	return file.Schemas, nil
}

// ParseSchemas is LoadSchemas for in-memory data
func ParseSchemas(data []byte, customEngines ...string) ([]*Schema, error) {
	file, err := config.LoadFromBytes(data)
	if err != nil {
		return nil, err
	}
	if err := file.Validate(customEngines...); err != nil {
		return nil, err
	}
	return file.Schemas, nil
}
