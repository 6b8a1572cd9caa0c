// internal/scraper/fakes_test.go
package scraper

import (
	"context"
	"errors"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/valpere/tatooine/pkg/types"
)

// fakeFetcher serves canned responses keyed by URL
type fakeFetcher struct {
	responses map[string]*types.Response
	errs      map[string]error
}

func (f *fakeFetcher) Fetch(ctx context.Context, req types.RequestOptions) (*types.Response, error) {
	if err, ok := f.errs[req.URL]; ok {
		return nil, err
	}
	if resp, ok := f.responses[req.URL]; ok {
		return resp, nil
	}
	return nil, errors.New("request failed with status code 404")
}

func jsonResponse(body string) *types.Response {
	return &types.Response{StatusCode: 200, ContentType: "application/json", Body: []byte(body)}
}

func htmlResponse(body string) *types.Response {
	return &types.Response{StatusCode: 200, ContentType: "text/html; charset=utf-8", Body: []byte(body)}
}

// fakeLauncher hands out a fakeBrowser rendering html
type fakeLauncher struct {
	html      string
	launchErr error
	gotoErr   error
	closeErr  error

	mu       sync.Mutex
	browsers []*fakeBrowser
}

func (l *fakeLauncher) Launch(ctx context.Context, opts types.LaunchOptions) (types.Browser, error) {
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	b := &fakeBrowser{launcher: l}
	l.mu.Lock()
	l.browsers = append(l.browsers, b)
	l.mu.Unlock()
	return b, nil
}

func (l *fakeLauncher) allClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, b := range l.browsers {
		if !b.closed {
			return false
		}
	}
	return len(l.browsers) > 0
}

type fakeBrowser struct {
	launcher *fakeLauncher
	closed   bool
	visited  []string
}

func (b *fakeBrowser) NewPage() (types.Page, error) {
	return &fakePage{browser: b}, nil
}

func (b *fakeBrowser) Close() error {
	b.closed = true
	return b.launcher.closeErr
}

type fakePage struct {
	browser *fakeBrowser
}

func (p *fakePage) Goto(url string) error {
	if p.browser.launcher.gotoErr != nil {
		return p.browser.launcher.gotoErr
	}
	p.browser.visited = append(p.browser.visited, url)
	return nil
}

func (p *fakePage) Content() (string, error) {
	return p.browser.launcher.html, nil
}

func (p *fakePage) Run(actions ...chromedp.Action) error {
	return nil
}
