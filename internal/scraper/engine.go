// internal/scraper/engine.go
package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/valpere/tatooine/internal/extract"
	"github.com/valpere/tatooine/internal/utils"
	"github.com/valpere/tatooine/pkg/types"
)

// collectFunc gathers every source of a schema before limits apply
type collectFunc func(ctx context.Context, schema *types.Schema) ([]types.Record, error)

// run is the run contract shared by the built-in engines: failures become
// error envelopes, successful sources are truncated to the schema limit and
// the fork hook sees every envelope.
func run(ctx context.Context, logger utils.Logger, name string, schema *types.Schema, collect collectFunc) (*types.Envelope, error) {
	if schema == nil {
		return nil, ErrNilSchema
	}

	log := logger.WithFields(map[string]interface{}{
		"engine": name,
		"url":    schema.Options.Request.URL,
	})
	start := time.Now()
	log.Debug("run started")

	var envelope *types.Envelope
	sources, err := safeCollect(ctx, schema, collect)
	if err != nil {
		log.Warnf("run failed: %v", err)
		envelope = &types.Envelope{
			Sources:  []types.Record{},
			Metadata: schema.Metadata,
			Error:    err.Error(),
		}
	} else {
		sources = limitSources(sources, schema.Options.Limit)
		log.Debugf("run finished with %d sources in %s", len(sources), time.Since(start))
		envelope = &types.Envelope{
			Sources:  sources,
			Metadata: schema.Metadata,
		}
	}

	return applyFork(envelope, schema.Fork), nil
}

// safeCollect turns a panic inside an engine or a caller hook into an error
func safeCollect(ctx context.Context, schema *types.Schema, collect collectFunc) (sources []types.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			sources = nil
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	return collect(ctx, schema)
}

func limitSources(sources []types.Record, limit int) []types.Record {
	if sources == nil {
		return []types.Record{}
	}
	if limit > 0 && len(sources) > limit {
		return sources[:limit]
	}
	return sources
}

// applyFork passes envelope through fork. A fork returning nil keeps the
// envelope it was given.
func applyFork(envelope *types.Envelope, fork types.ResultTransform) *types.Envelope {
	if fork == nil {
		return envelope
	}
	if forked := fork(envelope); forked != nil {
		return forked
	}
	return envelope
}

// collectDocument runs the root selection and record collection shared by
// the markup and spa engines
func collectDocument(doc *goquery.Document, selectors types.Selectors) ([]types.Record, error) {
	root, ok := selectors.Root()
	if !ok {
		return nil, ErrMissingRoot
	}

	rules, err := extract.CompileRules(selectors.Fields())
	if err != nil {
		return nil, err
	}

	nodes, err := extract.SelectRoot(doc, root)
	if err != nil {
		return nil, err
	}

	return extract.Collect(nodes, rules), nil
}

// JSONEngine extracts sources from structured API payloads
type JSONEngine struct {
	fetcher types.Fetcher
	logger  utils.Logger
}

// NewJSONEngine creates the json engine
func NewJSONEngine(fetcher types.Fetcher, logger utils.Logger) *JSONEngine {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &JSONEngine{fetcher: fetcher, logger: logger}
}

// Name returns the engine name
func (e *JSONEngine) Name() string { return types.EngineJSON }

// Run executes schema; the error is only non-nil for a nil schema
func (e *JSONEngine) Run(ctx context.Context, schema *types.Schema) (*types.Envelope, error) {
	return run(ctx, e.logger, e.Name(), schema, e.collect)
}

func (e *JSONEngine) collect(ctx context.Context, schema *types.Schema) ([]types.Record, error) {
	resp, err := e.fetcher.Fetch(ctx, schema.Options.Request)
	if err != nil {
		return nil, err
	}

	data, err := decodeJSON(resp.Body)
	if err != nil {
		return nil, err
	}

	list := data
	if root, ok := schema.Selectors.Root(); ok {
		resolved, found := extract.Resolve(root.Value, data)
		if !found {
			return nil, fmt.Errorf("%w: %q", ErrNotAList, root.Value)
		}
		list = resolved
	}

	items, ok := list.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotAList, list)
	}

	return extract.CollectItems(items, schema.Selectors.Fields()), nil
}

// MarkupEngine extracts sources from static HTML
type MarkupEngine struct {
	fetcher types.Fetcher
	logger  utils.Logger
}

// NewMarkupEngine creates the markup engine
func NewMarkupEngine(fetcher types.Fetcher, logger utils.Logger) *MarkupEngine {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &MarkupEngine{fetcher: fetcher, logger: logger}
}

// Name returns the engine name
func (e *MarkupEngine) Name() string { return types.EngineMarkup }

// Run executes schema; the error is only non-nil for a nil schema
func (e *MarkupEngine) Run(ctx context.Context, schema *types.Schema) (*types.Envelope, error) {
	return run(ctx, e.logger, e.Name(), schema, e.collect)
}

func (e *MarkupEngine) collect(ctx context.Context, schema *types.Schema) ([]types.Record, error) {
	resp, err := e.fetcher.Fetch(ctx, schema.Options.Request)
	if err != nil {
		return nil, err
	}

	doc, err := extract.ParseDocument(resp.Body, resp.ContentType, schema.Options.DOM)
	if err != nil {
		return nil, err
	}

	return collectDocument(doc, schema.Selectors)
}
