// internal/browser/chromedp.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/valpere/tatooine/internal/utils"
	"github.com/valpere/tatooine/pkg/types"
)

// ChromeLauncher implements types.Launcher using chromedp. Every Launch
// starts a dedicated browser process.
type ChromeLauncher struct {
	config *LauncherConfig
	logger utils.Logger
}

// NewChromeLauncher creates a new Chrome launcher
func NewChromeLauncher(config *LauncherConfig, logger utils.Logger) *ChromeLauncher {
	if config == nil {
		config = DefaultLauncherConfig()
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &ChromeLauncher{config: config, logger: logger}
}

// Launch starts a browser whose lifetime is bound to ctx
func (l *ChromeLauncher) Launch(ctx context.Context, opts types.LaunchOptions) (types.Browser, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, l.allocatorOptions(opts)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Running no actions starts the process and opens the first tab.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	l.logger.Debug("browser launched")
	return &ChromeBrowser{
		ctx:          browserCtx,
		cancel:       browserCancel,
		allocCancel:  allocCancel,
		closeTimeout: l.config.CloseTimeout,
		logger:       l.logger,
	}, nil
}

// allocatorOptions translates launch options into chromedp flags
func (l *ChromeLauncher) allocatorOptions(opts types.LaunchOptions) []chromedp.ExecAllocatorOption {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
	}

	if opts.IsHeadless() {
		allocOpts = append(allocOpts, chromedp.Headless)
	}

	if opts.NoSandbox || l.config.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}

	execPath := opts.ExecPath
	if execPath == "" {
		execPath = l.config.ExecPath
	}
	if execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(execPath))
	}

	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}

	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	if l.config.DisableImages {
		allocOpts = append(allocOpts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}

	width, height := windowSize(opts)
	allocOpts = append(allocOpts, chromedp.WindowSize(width, height))

	for name, value := range opts.Flags {
		allocOpts = append(allocOpts, chromedp.Flag(name, value))
	}

	return allocOpts
}

// ChromeBrowser is a running Chrome process
type ChromeBrowser struct {
	ctx          context.Context
	cancel       context.CancelFunc
	allocCancel  context.CancelFunc
	closeTimeout time.Duration
	logger       utils.Logger

	mu        sync.Mutex
	pages     []*ChromePage
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// NewPage opens a new tab
func (b *ChromeBrowser) NewPage() (types.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("browser is closed")
	}

	pageCtx, pageCancel := chromedp.NewContext(b.ctx)
	if err := chromedp.Run(pageCtx); err != nil {
		pageCancel()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	page := &ChromePage{ctx: pageCtx, cancel: pageCancel}
	b.pages = append(b.pages, page)
	return page, nil
}

// Close shuts the browser down. It is safe to call more than once.
func (b *ChromeBrowser) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		pages := b.pages
		b.pages = nil
		b.mu.Unlock()

		for _, page := range pages {
			page.cancel()
		}

		err := b.shutdown()
		b.cancel()
		b.allocCancel()

		if err != nil && !errors.Is(err, context.Canceled) {
			b.closeErr = fmt.Errorf("failed to close browser: %w", err)
		}
		b.logger.Debug("browser closed")
	})
	return b.closeErr
}

// shutdown asks the browser to exit gracefully within closeTimeout
func (b *ChromeBrowser) shutdown() error {
	if b.closeTimeout <= 0 {
		return chromedp.Cancel(b.ctx)
	}

	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(b.ctx) }()

	select {
	case err := <-done:
		return err
	case <-time.After(b.closeTimeout):
		return fmt.Errorf("browser did not exit within %s", b.closeTimeout)
	}
}

// ChromePage is a single Chrome tab
type ChromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Goto navigates the tab and waits for the load event
func (p *ChromePage) Goto(url string) error {
	if err := chromedp.Run(p.ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// Content returns the serialized HTML of the current document
func (p *ChromePage) Content() (string, error) {
	var html string
	if err := chromedp.Run(p.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

// Run executes chromedp actions in the tab
func (p *ChromePage) Run(actions ...chromedp.Action) error {
	return chromedp.Run(p.ctx, actions...)
}
