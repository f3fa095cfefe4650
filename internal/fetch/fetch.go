package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/scriptmirror/scriptmirror/internal/branding"
)

// DefaultTimeout bounds a single fetch when none is configured.
const DefaultTimeout = 10 * time.Second

// Descriptor locates the bytes of one artifact variant.
type Descriptor struct {
	URL     string
	Headers map[string]string
}

// Fetcher streams the content addressed by a descriptor into w. On error,
// w may have received a partial body.
type Fetcher interface {
	Fetch(ctx context.Context, d Descriptor, w io.Writer) error
}

// Func adapts a plain function to the Fetcher interface.
type Func func(ctx context.Context, d Descriptor, w io.Writer) error

// Fetch calls f.
func (f Func) Fetch(ctx context.Context, d Descriptor, w io.Writer) error {
	return f(ctx, d, w)
}

// HTTPFetcher fetches descriptors with GET requests.
type HTTPFetcher struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(f *HTTPFetcher) {
		f.httpClient = c
	}
}

// WithTimeout bounds each fetch, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithUserAgent overrides the default User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// NewHTTP creates an HTTPFetcher with the given options.
func NewHTTP(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		userAgent:  branding.UserAgent(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, d Descriptor, w io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range d.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", d.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fetching %s: status %d", d.URL, resp.StatusCode)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("reading %s: %w", d.URL, err)
	}
	return nil
}
