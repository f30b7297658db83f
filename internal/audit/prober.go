package audit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"

	"github.com/Bahjat/seo-audit/internal/platform/netguard"
)

// Prober issues the secondary requests some checks need.
type Prober interface {
	Robots(ctx context.Context, base *url.URL) (*RobotsFile, error)
	CheckLinks(ctx context.Context, links []string) map[string]LinkResult
}

// ProbeKind classifies a probe failure.
type ProbeKind int

const (
	ProbeNetwork ProbeKind = iota // request could not be completed
	ProbeParse                    // response could not be interpreted
)

func (k ProbeKind) String() string {
	switch k {
	case ProbeNetwork:
		return "network"
	case ProbeParse:
		return "parse"
	}
	return fmt.Sprintf("probe_kind(%d)", int(k))
}

// ProbeError is a failed secondary request. Checks return it and the engine
// turns it into a failed verdict for that check only.
type ProbeError struct {
	Kind ProbeKind
	Op   string
	URL  string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// RobotsFile is a site's robots.txt.
type RobotsFile struct {
	URL      string
	Body     string
	Sitemaps []string
}

// DeclaresSitemap reports whether the file points crawlers at a sitemap.
func (r *RobotsFile) DeclaresSitemap() bool {
	return len(r.Sitemaps) > 0 || strings.Contains(strings.ToLower(r.Body), "sitemap:")
}

// LinkResult is the outcome of probing one link.
type LinkResult struct {
	Status int
	Err    error
}

// Broken reports whether the link errored or answered with status >= 400.
func (r LinkResult) Broken() bool {
	return r.Err != nil || r.Status >= 400
}

const (
	defaultLinkTimeout   = 5 * time.Second
	defaultRobotsTimeout = 10 * time.Second
	defaultRobotsTTL     = 10 * time.Minute
	maxRobotsBody        = 512 << 10
)

// ProberOptions configures LinkProber. Zero values select the defaults.
type ProberOptions struct {
	Concurrency    int
	LinkTimeout    time.Duration
	RobotsTimeout  time.Duration
	RobotsCacheTTL time.Duration
	UserAgent      string
	// HostRate limits requests per second to any single host; zero disables it.
	HostRate  rate.Limit
	HostBurst int
	// Transport replaces the SSRF-safe transport; tests use it to reach httptest servers.
	Transport http.RoundTripper
}

// LinkProber fetches robots.txt files and checks link health. It is safe for
// concurrent use and meant to be shared across audits.
type LinkProber struct {
	client *http.Client
	opts   ProberOptions
	robots *cache.Cache

	// per-host limiters; idle hosts expire
	limiters *cache.Cache
}

// NewLinkProber returns a prober whose every request is bounded by its own timeout.
func NewLinkProber(opts ProberOptions) *LinkProber {
	if opts.Concurrency < 1 {
		opts.Concurrency = 10
	}
	if opts.LinkTimeout <= 0 {
		opts.LinkTimeout = defaultLinkTimeout
	}
	if opts.RobotsTimeout <= 0 {
		opts.RobotsTimeout = defaultRobotsTimeout
	}
	if opts.RobotsCacheTTL <= 0 {
		opts.RobotsCacheTTL = defaultRobotsTTL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.HostBurst < 1 {
		opts.HostBurst = 1
	}

	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			DialContext:         netguard.Dialer(opts.LinkTimeout).DialContext,
			MaxConnsPerHost:     opts.Concurrency,
			MaxIdleConnsPerHost: opts.Concurrency,
			IdleConnTimeout:     90 * time.Second,
		}
	}

	return &LinkProber{
		client: &http.Client{
			Transport:     transport,
			CheckRedirect: redirectPolicy(defaultMaxRedirects),
		},
		opts:     opts,
		robots:   cache.New(opts.RobotsCacheTTL, 2*opts.RobotsCacheTTL),
		limiters: cache.New(time.Minute, 5*time.Minute),
	}
}

// Robots fetches base's /robots.txt. A missing file (any status other than
// 200) yields nil without error. Results are cached per origin, except misses
// caused by a 5xx or 429 answer.
func (p *LinkProber) Robots(ctx context.Context, base *url.URL) (*RobotsFile, error) {
	origin := base.Scheme + "://" + base.Host
	if v, ok := p.robots.Get(origin); ok {
		return v.(*RobotsFile), nil
	}

	robotsURL := origin + "/robots.txt"
	ctx, cancel := context.WithTimeout(ctx, p.opts.RobotsTimeout)
	defer cancel()

	if err := p.wait(ctx, base.Host); err != nil {
		return nil, &ProbeError{Kind: ProbeNetwork, Op: "robots", URL: robotsURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, &ProbeError{Kind: ProbeNetwork, Op: "robots", URL: robotsURL, Err: err}
	}
	req.Header.Set("User-Agent", p.opts.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &ProbeError{Kind: ProbeNetwork, Op: "robots", URL: robotsURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Server errors and throttling say nothing lasting about the file.
		if resp.StatusCode < http.StatusInternalServerError && resp.StatusCode != http.StatusTooManyRequests {
			p.robots.SetDefault(origin, (*RobotsFile)(nil))
		}
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBody))
	if err != nil {
		return nil, &ProbeError{Kind: ProbeNetwork, Op: "robots", URL: robotsURL, Err: err}
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, &ProbeError{Kind: ProbeParse, Op: "robots", URL: robotsURL, Err: err}
	}

	file := &RobotsFile{URL: robotsURL, Body: string(body), Sitemaps: data.Sitemaps}
	p.robots.SetDefault(origin, file)
	return file, nil
}

// Head performs a HEAD request, following redirects, and returns the final status.
func (p *LinkProber) Head(ctx context.Context, link string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.LinkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, link, nil)
	if err != nil {
		return 0, &ProbeError{Kind: ProbeNetwork, Op: "head", URL: link, Err: err}
	}
	req.Header.Set("User-Agent", p.opts.UserAgent)

	if err := p.wait(ctx, req.URL.Host); err != nil {
		return 0, &ProbeError{Kind: ProbeNetwork, Op: "head", URL: link, Err: err}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, &ProbeError{Kind: ProbeNetwork, Op: "head", URL: link, Err: err}
	}
	_ = resp.Body.Close()

	return resp.StatusCode, nil
}

// CheckLinks probes every distinct link with a pool of worker goroutines
// sized by the configured concurrency. The result is keyed by link.
func (p *LinkProber) CheckLinks(ctx context.Context, links []string) map[string]LinkResult {
	unique := make([]string, 0, len(links))
	seen := make(map[string]struct{}, len(links))
	for _, link := range links {
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		unique = append(unique, link)
	}

	results := make(map[string]LinkResult, len(unique))
	if len(unique) == 0 {
		return results
	}

	type outcome struct {
		link string
		res  LinkResult
	}

	jobs := make(chan string, len(unique))
	out := make(chan outcome, len(unique))

	var wg sync.WaitGroup
	for range min(len(unique), p.opts.Concurrency) {
		wg.Go(func() {
			for link := range jobs {
				status, err := p.Head(ctx, link)
				out <- outcome{link: link, res: LinkResult{Status: status, Err: err}}
			}
		})
	}

	for _, link := range unique {
		jobs <- link
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(out)
	}()

	for o := range out {
		results[o.link] = o.res
	}
	return results
}

// wait blocks until the per-host limiter admits one more request.
func (p *LinkProber) wait(ctx context.Context, host string) error {
	if p.opts.HostRate <= 0 {
		return nil
	}

	host = strings.ToLower(host)
	if v, ok := p.limiters.Get(host); ok {
		p.limiters.SetDefault(host, v)
		return v.(*rate.Limiter).Wait(ctx)
	}

	limiter := rate.NewLimiter(p.opts.HostRate, p.opts.HostBurst)
	if err := p.limiters.Add(host, limiter, cache.DefaultExpiration); err != nil {
		// Lost the race; share the limiter that won.
		if v, ok := p.limiters.Get(host); ok {
			limiter = v.(*rate.Limiter)
		}
	}
	return limiter.Wait(ctx)
}
