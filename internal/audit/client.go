package audit

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"

	"github.com/Bahjat/seo-audit/internal/platform/netguard"
)

// Page is a fetched HTML document plus the response metadata the audit needs.
type Page struct {
	URL           *url.URL // as requested
	FinalURL      *url.URL // after redirects
	Body          []byte   // UTF-8
	ContentType   string
	ContentLength int64 // declared length, -1 when unknown
	StatusCode    int
}

// Fetcher defines how the engine retrieves a page.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string) (*Page, error)
}

var (
	// ErrNotHTML is returned when the response content type is not text/html.
	ErrNotHTML = errors.New("response is not HTML")
	// ErrTooLarge is returned when the declared or actual body exceeds the limit.
	ErrTooLarge = errors.New("response body exceeds size limit")

	errTooManyRedirects = errors.New("too many redirects")
	errBlockedRedirect  = errors.New("redirect to non-http(s) scheme blocked")
)

// StatusError reports an HTTP error status from the audited site.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error %d", e.Code)
}

const (
	defaultFetchTimeout = 30 * time.Second
	defaultMaxBody      = 10 << 20 // 10 MiB
	defaultMaxRedirects = 10
	defaultUserAgent    = "SEOAuditBot/1.0"
)

// FetchOptions configures HTTPClient. Zero values select the defaults.
type FetchOptions struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	MaxRedirects int
	UserAgent    string
	// Transport replaces the SSRF-safe transport; tests use it to reach httptest servers.
	Transport http.RoundTripper
}

// HTTPClient implements Fetcher with a single bounded GET.
type HTTPClient struct {
	client    *http.Client
	maxBody   int64
	userAgent string
}

// NewHTTPClient returns a Fetcher whose whole request, redirects included, is
// bounded by opts.Timeout. Connections to private/reserved addresses are refused.
func NewHTTPClient(opts FetchOptions) *HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultFetchTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBody
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = defaultMaxRedirects
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			DialContext:         netguard.Dialer(10 * time.Second).DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout:       opts.Timeout,
			Transport:     transport,
			CheckRedirect: redirectPolicy(opts.MaxRedirects),
		},
		maxBody:   opts.MaxBodyBytes,
		userAgent: opts.UserAgent,
	}
}

// redirectPolicy validates redirect targets and limits the redirect chain length.
func redirectPolicy(maxRedirects int) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("%w: stopped after %d", errTooManyRedirects, maxRedirects)
		}
		if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
			return fmt.Errorf("%w: %s", errBlockedRedirect, req.URL.Scheme)
		}
		return nil
	}
}

// Fetch retrieves the page at targetURL. The checks run in order: status,
// content type, declared length, then the actual body size.
func (c *HTTPClient) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, br")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("%w: %q", ErrNotHTML, contentType)
	}

	if resp.ContentLength > c.maxBody {
		return nil, fmt.Errorf("%w: declared %d bytes", ErrTooLarge, resp.ContentLength)
	}

	raw, err := c.readBody(resp)
	if err != nil {
		return nil, err
	}

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL
	}

	return &Page{
		URL:           req.URL,
		FinalURL:      finalURL,
		Body:          toUTF8(raw, contentType),
		ContentType:   contentType,
		ContentLength: resp.ContentLength,
		StatusCode:    resp.StatusCode,
	}, nil
}

func (c *HTTPClient) readBody(resp *http.Response) ([]byte, error) {
	reader := io.Reader(resp.Body)

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	}

	// Read one byte past the limit so an undeclared oversized body is detected.
	body, err := io.ReadAll(io.LimitReader(reader, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, c.maxBody)
	}
	return body, nil
}

// toUTF8 converts body to UTF-8 using the declared or sniffed charset. A
// guessed charset never overrides a body that is already valid UTF-8.
// Undecodable input is returned unchanged for the permissive parser.
func toUTF8(body []byte, contentType string) []byte {
	enc, _, certain := charset.DetermineEncoding(body, contentType)
	if !certain && utf8.Valid(body) {
		return body
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return body
	}
	return out
}
