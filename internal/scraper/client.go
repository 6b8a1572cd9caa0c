// internal/scraper/client.go
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/valpere/tatooine/pkg/types"
)

// DefaultUserAgent is sent unless the client config or the request overrides it
const DefaultUserAgent = "tatooine/1.0 (+https://github.com/valpere/tatooine)"

// maxRedirects matches the net/http default
const maxRedirects = 10

// ClientConfig defines configuration options for the HTTP client
type ClientConfig struct {
	// Timeout applies to requests that carry no timeout of their own.
	// Zero disables it.
	Timeout   time.Duration     `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	UserAgent string            `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	Headers   map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	// Proxy routes every request through an HTTP proxy, e.g. http://proxy:3128.
	Proxy string `yaml:"proxy,omitempty" json:"proxy,omitempty"`
	// CheckRedirect vets every redirect target before it is followed.
	CheckRedirect func(rawURL string) error `yaml:"-" json:"-"`
	// Transport replaces the default transport, mostly for tests.
	Transport http.RoundTripper `yaml:"-" json:"-"`
}

// RestyFetcher implements types.Fetcher on top of resty. It is safe for
// concurrent use.
type RestyFetcher struct {
	client         *resty.Client
	defaultTimeout time.Duration
}

// NewRestyFetcher creates a new fetcher with the specified configuration
func NewRestyFetcher(config ClientConfig) *RestyFetcher {
	client := resty.New()
	if config.Transport != nil {
		client.SetTransport(config.Transport)
	}
	if config.Proxy != "" {
		client.SetProxy(config.Proxy)
	}
	if config.CheckRedirect != nil {
		check := config.CheckRedirect
		client.SetRedirectPolicy(
			resty.FlexibleRedirectPolicy(maxRedirects),
			resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
				if err := check(req.URL.String()); err != nil {
					return fmt.Errorf("redirect refused: %w", err)
				}
				return nil
			}),
		)
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	client.SetHeader("User-Agent", userAgent)
	client.SetHeaders(config.Headers)

	return &RestyFetcher{
		client:         client,
		defaultTimeout: config.Timeout,
	}
}

// Fetch performs the request described by req. Responses outside the 2xx
// range are reported as *HTTPError.
func (f *RestyFetcher) Fetch(ctx context.Context, req types.RequestOptions) (*types.Response, error) {
	if strings.TrimSpace(req.URL) == "" {
		return nil, ErrMissingURL
	}

	timeout, err := req.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	if timeout == 0 {
		timeout = f.defaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	r := f.client.R().
		SetContext(ctx).
		SetHeaders(req.Headers).
		SetQueryParams(req.Params)
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(method, req.URL)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			URL:        req.URL,
		}
	}

	return &types.Response{
		StatusCode:  resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        resp.Body(),
	}, nil
}

// HTTPError represents a response with a non-2xx status code
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("request failed with status code %d", e.StatusCode)
}
