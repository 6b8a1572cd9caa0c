// internal/scraper/spa.go
package scraper

import (
	"context"
	"strings"

	"github.com/valpere/tatooine/internal/extract"
	"github.com/valpere/tatooine/internal/utils"
	"github.com/valpere/tatooine/pkg/types"
)

// SPAEngine renders pages in a headless browser before extracting sources
type SPAEngine struct {
	launcher types.Launcher
	logger   utils.Logger
}

// NewSPAEngine creates the spa engine
func NewSPAEngine(launcher types.Launcher, logger utils.Logger) *SPAEngine {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &SPAEngine{launcher: launcher, logger: logger}
}

// Name returns the engine name
func (e *SPAEngine) Name() string { return types.EngineSPA }

// Run executes schema; the error is only non-nil for a nil schema
func (e *SPAEngine) Run(ctx context.Context, schema *types.Schema) (*types.Envelope, error) {
	return run(ctx, e.logger, e.Name(), schema, e.collect)
}

func (e *SPAEngine) collect(ctx context.Context, schema *types.Schema) ([]types.Record, error) {
	html, err := e.render(ctx, schema.Options.Request)
	if err != nil {
		return nil, err
	}

	doc, err := extract.ParseHTML(html)
	if err != nil {
		return nil, err
	}

	return collectDocument(doc, schema.Selectors)
}

// render drives one browser session through the hook points and returns
// the final HTML. The browser is closed before render returns, whether a
// hook failed, panicked or everything succeeded.
func (e *SPAEngine) render(ctx context.Context, req types.RequestOptions) (html string, err error) {
	if strings.TrimSpace(req.URL) == "" {
		return "", ErrMissingURL
	}

	browser, err := e.launcher.Launch(ctx, req.Launch)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := browser.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	hooks := req.Events
	if hooks == nil {
		hooks = &types.Hooks{}
	}

	if hooks.OnBrowserReady != nil {
		if err := hooks.OnBrowserReady(ctx, browser); err != nil {
			return "", err
		}
	}

	page, err := browser.NewPage()
	if err != nil {
		return "", err
	}

	if hooks.BeforeNavigation != nil {
		if err := hooks.BeforeNavigation(ctx, page); err != nil {
			return "", err
		}
	}

	if err := page.Goto(req.URL); err != nil {
		return "", err
	}

	if hooks.OnPageReady != nil {
		if err := hooks.OnPageReady(ctx, page); err != nil {
			return "", err
		}
	}

	content, err := page.Content()
	if err != nil {
		return "", err
	}

	if hooks.OnContentReady != nil {
		if err := hooks.OnContentReady(ctx, content, page); err != nil {
			return "", err
		}
	}

	return content, nil
}
