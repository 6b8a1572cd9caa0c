// pkg/types/engine.go
package types

import (
	"context"

	"github.com/chromedp/chromedp"
)

// Engine turns a schema into an envelope. Built-in engines report every
// failure inside the envelope; a non-nil error aborts the whole dispatch.
type Engine interface {
	Name() string
	Run(ctx context.Context, schema *Schema) (*Envelope, error)
}

// RunFunc is the function form of Engine.Run
type RunFunc func(ctx context.Context, schema *Schema) (*Envelope, error)

type funcEngine struct {
	name string
	run  RunFunc
}

// EngineFunc adapts a function into a named Engine
func EngineFunc(name string, run RunFunc) Engine {
	return &funcEngine{name: name, run: run}
}

func (e *funcEngine) Name() string { return e.name }

func (e *funcEngine) Run(ctx context.Context, schema *Schema) (*Envelope, error) {
	return e.run(ctx, schema)
}

// Response is what the HTTP collaborator hands back
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher performs remote requests for the json and markup engines
type Fetcher interface {
	Fetch(ctx context.Context, req RequestOptions) (*Response, error)
}

// Launcher starts browser sessions for the spa engine
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
}

// Browser is one running browser session. Its lifetime is bound to the
// context passed to Launch.
type Browser interface {
	NewPage() (Page, error)
	Close() error
}

// Page is a browser tab
type Page interface {
	Goto(url string) error
	Content() (string, error)
	// Run executes arbitrary chromedp actions against the tab.
	Run(actions ...chromedp.Action) error
}

// Hooks are optional extension points of the spa engine, called in
// declaration order within a single browser session.
type Hooks struct {
	OnBrowserReady   func(ctx context.Context, browser Browser) error
	BeforeNavigation func(ctx context.Context, page Page) error
	OnPageReady      func(ctx context.Context, page Page) error
	OnContentReady   func(ctx context.Context, html string, page Page) error
}
