// internal/scraper/dispatcher.go
package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/valpere/tatooine/internal/browser"
	"github.com/valpere/tatooine/internal/monitoring"
	"github.com/valpere/tatooine/internal/utils"
	"github.com/valpere/tatooine/pkg/types"
)

// Dispatcher routes schemas to engines by name and runs them concurrently
type Dispatcher struct {
	engines []types.Engine
	logger  utils.Logger
	metrics *monitoring.MetricsManager
	strict  bool
}

type dispatcherOptions struct {
	fetcher  types.Fetcher
	launcher types.Launcher
	logger   utils.Logger
	metrics  *monitoring.MetricsManager
	strict   bool
	engines  []types.Engine
}

// Option configures a Dispatcher
type Option func(*dispatcherOptions)

// WithFetcher sets the HTTP collaborator of the json and markup engines
func WithFetcher(fetcher types.Fetcher) Option {
	return func(o *dispatcherOptions) { o.fetcher = fetcher }
}

// WithLauncher sets the browser collaborator of the spa engine
func WithLauncher(launcher types.Launcher) Option {
	return func(o *dispatcherOptions) { o.launcher = launcher }
}

// WithLogger sets the logger shared by the dispatcher and built-in engines
func WithLogger(logger utils.Logger) Option {
	return func(o *dispatcherOptions) { o.logger = logger }
}

// WithMetrics records run and dispatch metrics into mm
func WithMetrics(mm *monitoring.MetricsManager) Option {
	return func(o *dispatcherOptions) { o.metrics = mm }
}

// WithStrictEngines fails a dispatch naming an unregistered engine instead
// of dropping the schema
func WithStrictEngines() Option {
	return func(o *dispatcherOptions) { o.strict = true }
}

// WithEngines registers custom engines after the built-in ones
func WithEngines(engines ...types.Engine) Option {
	return func(o *dispatcherOptions) { o.engines = append(o.engines, engines...) }
}

// NewDispatcher creates a dispatcher carrying the built-in engines. Missing
// collaborators default to a resty fetcher and a local Chrome launcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	o := &dispatcherOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = utils.NewNopLogger()
	}
	if o.fetcher == nil {
		o.fetcher = NewRestyFetcher(ClientConfig{})
	}
	if o.launcher == nil {
		o.launcher = browser.NewChromeLauncher(browser.DefaultLauncherConfig(), o.logger)
	}

	engines := []types.Engine{
		NewJSONEngine(o.fetcher, o.logger),
		NewMarkupEngine(o.fetcher, o.logger),
		NewSPAEngine(o.launcher, o.logger),
	}
	engines = append(engines, o.engines...)

	return &Dispatcher{
		engines: engines,
		logger:  o.logger,
		metrics: o.metrics,
		strict:  o.strict,
	}
}

// Engines lists the registered engine names in lookup order
func (d *Dispatcher) Engines() []string {
	names := make([]string, 0, len(d.engines))
	for _, engine := range d.engines {
		names = append(names, engine.Name())
	}
	return names
}

type dispatchJob struct {
	index  int
	engine types.Engine
	schema *types.Schema
}

type jobResult struct {
	index    int
	envelope *types.Envelope
	err      error
}

// Dispatch runs every schema on the first engine whose name matches its
// Engine field, looking at registered engines before custom ones. Envelopes
// come back in schema order; schemas matching no engine are skipped.
//
// All runs start at once and see the caller's context. The first engine
// error or panic fails the batch right away: runs already started are left
// to finish on their own and their results are discarded.
func (d *Dispatcher) Dispatch(ctx context.Context, schemas []*types.Schema, custom ...types.Engine) (results []*types.Envelope, err error) {
	defer func() { d.metrics.RecordDispatch(err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	engines := d.engines
	if len(custom) > 0 {
		engines = make([]types.Engine, 0, len(d.engines)+len(custom))
		engines = append(engines, d.engines...)
		engines = append(engines, custom...)
	}

	jobs := make([]dispatchJob, 0, len(schemas))
	for i, schema := range schemas {
		if schema == nil {
			d.logger.Warnf("schema %d is nil, skipping it", i)
			continue
		}

		engine := lookupEngine(engines, schema.Engine)
		if engine == nil {
			if d.strict {
				return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, schema.Engine)
			}
			d.logger.WithField("engine", schema.Engine).Warn("no engine registered, dropping schema")
			d.metrics.RecordDropped(schema.Engine)
			continue
		}

		jobs = append(jobs, dispatchJob{index: len(jobs), engine: engine, schema: schema})
	}

	d.logger.Debugf("dispatching %d of %d schemas", len(jobs), len(schemas))

	// buffered so runs finishing after a failed batch never block
	done := make(chan jobResult, len(jobs))
	for _, job := range jobs {
		go func(job dispatchJob) {
			envelope, err := d.runEngine(ctx, job.engine, job.schema)
			if err != nil {
				err = fmt.Errorf("engine %q: %w", job.engine.Name(), err)
			}
			done <- jobResult{index: job.index, envelope: envelope, err: err}
		}(job)
	}

	envelopes := make([]*types.Envelope, len(jobs))
	for range jobs {
		select {
		case res := <-done:
			if res.err != nil {
				d.logger.Errorf("dispatch failed: %v", res.err)
				return nil, res.err
			}
			envelopes[res.index] = res.envelope
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return envelopes, nil
}

// runEngine runs one schema, turning a panic into an error
func (d *Dispatcher) runEngine(ctx context.Context, engine types.Engine, schema *types.Schema) (envelope *types.Envelope, err error) {
	name := engine.Name()
	start := time.Now()
	d.metrics.RecordRunStart(name)

	defer func() {
		if r := recover(); r != nil {
			envelope = nil
			err = fmt.Errorf("engine panic: %v", r)
		}
		records := 0
		if envelope != nil {
			records = len(envelope.Sources)
		}
		d.metrics.RecordRun(name, err != nil || envelope.Failed(), records, time.Since(start))
	}()

	envelope, err = engine.Run(ctx, schema)
	if err == nil && envelope == nil {
		err = fmt.Errorf("engine returned no envelope")
	}
	return envelope, err
}

func lookupEngine(engines []types.Engine, name string) types.Engine {
	for _, engine := range engines {
		if engine.Name() == name {
			return engine
		}
	}
	return nil
}
