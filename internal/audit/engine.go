package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Bahjat/seo-audit/internal/model"
	"github.com/Bahjat/seo-audit/internal/platform/errs"
)

// Engine runs the audit pipeline: fetch, parse, check, aggregate.
type Engine struct {
	fetcher     Fetcher
	prober      Prober
	checks      []Check
	policy      Policy
	parallelism int
	logger      *slog.Logger
	now         func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithChecks replaces the default check battery.
func WithChecks(checks ...Check) Option {
	return func(e *Engine) { e.checks = checks }
}

// WithPolicy replaces the default thresholds.
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithParallelism bounds how many checks run at once. 1 runs them sequentially.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// WithLogger sets the logger used for degraded checks.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine returns an Engine backed by the given Fetcher and Prober.
func NewEngine(fetcher Fetcher, prober Prober, opts ...Option) *Engine {
	e := &Engine{
		fetcher: fetcher,
		prober:  prober,
		checks:  DefaultChecks(),
		policy:  DefaultPolicy(),
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.parallelism == 0 {
		e.parallelism = len(e.checks)
	}
	return e
}

// Analyze audits the page at targetURL. It returns either a complete report
// or an *errs.AppError; never both.
func (e *Engine) Analyze(ctx context.Context, targetURL string) (*model.AnalysisReport, error) {
	start := e.now()

	if _, err := parseTarget(targetURL); err != nil {
		return nil, err
	}

	page, err := e.fetcher.Fetch(ctx, targetURL)
	if err != nil {
		return nil, fetchError(err)
	}

	return e.evaluate(ctx, targetURL, page, start)
}

// Evaluate audits an already fetched page. Running it twice on the same page
// yields the same checks and page statistics apart from load_time.
func (e *Engine) Evaluate(ctx context.Context, page *Page) (*model.AnalysisReport, error) {
	subject := page.URL
	if subject == nil {
		subject = page.FinalURL
	}
	if subject == nil {
		return nil, &errs.AppError{Kind: errs.InvalidInput, Message: "Invalid URL format"}
	}
	return e.evaluate(ctx, subject.String(), page, e.now())
}

func (e *Engine) evaluate(ctx context.Context, targetURL string, page *Page, start time.Time) (*model.AnalysisReport, error) {
	subject, err := parseTarget(targetURL)
	if err != nil {
		return nil, err
	}
	finalURL := page.FinalURL
	if finalURL == nil {
		finalURL = subject
	}

	doc, err := Parse(page.Body)
	if err != nil {
		return nil, unexpected(errs.ParsingFailed, err)
	}

	env := &Env{
		URL:      subject,
		FinalURL: finalURL,
		Prober:   e.prober,
		Policy:   e.policy,
	}

	checks, err := e.runChecks(ctx, doc, env)
	if err != nil {
		return nil, err
	}

	end := e.now()
	return aggregate(targetURL, doc, finalURL, checks, end.Sub(start), end), nil
}

func (e *Engine) runChecks(ctx context.Context, doc *Document, env *Env) (model.Checks, error) {
	verdicts := make(model.Checks, len(e.checks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i, c := range e.checks {
		g.Go(func() error {
			v, err := e.runCheck(gctx, c, doc, env)
			if err != nil {
				return err
			}
			verdicts[i] = model.NamedVerdict{Name: c.Name, Verdict: v}
			return nil
		})
	}

	err := g.Wait()
	// Probes fail fast once the caller gives up; their verdicts would be noise.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, contextError(ctxErr)
	}
	if err != nil {
		return nil, unexpected(errs.Unknown, err)
	}
	return verdicts, nil
}

// runCheck is the single place where check errors are interpreted: probe
// failures become the check's Unverified verdict, everything else (including
// a panic) aborts the audit.
func (e *Engine) runCheck(ctx context.Context, c Check, doc *Document, env *Env) (v model.CheckVerdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("check %s panicked: %v", c.Name, r)
		}
	}()

	v, err = c.Run(ctx, doc, env)
	if err == nil {
		return v, nil
	}

	var probeErr *ProbeError
	if errors.As(err, &probeErr) {
		e.logger.WarnContext(ctx, "check degraded",
			"check", c.Name,
			"probe_kind", probeErr.Kind.String(),
			"probe_op", probeErr.Op,
			"error", err,
		)
		if c.Unverified.Status == "" {
			return model.Fail("Could not complete check", "Unable to verify", "Retry the audit"), nil
		}
		return c.Unverified, nil
	}
	return model.CheckVerdict{}, fmt.Errorf("check %s: %w", c.Name, err)
}

func parseTarget(targetURL string) (*url.URL, error) {
	u, err := url.Parse(targetURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "Invalid URL format",
			Cause:   err,
		}
	}
	return u, nil
}

// fetchError maps a Fetcher failure onto the user-facing taxonomy.
func fetchError(err error) error {
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr):
		return &errs.AppError{
			Kind:           errs.Unreachable,
			UpstreamStatus: statusErr.Code,
			Message:        statusErr.Error(),
		}
	case errors.Is(err, ErrNotHTML):
		return &errs.AppError{Kind: errs.UnsupportedContent, Message: "URL does not return HTML content", Cause: err}
	case errors.Is(err, ErrTooLarge):
		return &errs.AppError{Kind: errs.ContentTooLarge, Message: "Page content too large", Cause: err}
	case errors.Is(err, context.Canceled):
		return contextError(err)
	case isTimeout(err):
		return &errs.AppError{Kind: errs.Timeout, Message: "Request timeout - page took too long to load", Cause: err}
	}
	return &errs.AppError{Kind: errs.Unreachable, Message: "Connection error - could not reach the website", Cause: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &errs.AppError{Kind: errs.Timeout, Message: "Analysis timed out. The target URL may be slow to respond.", Cause: err}
	}
	return &errs.AppError{Kind: errs.Unknown, Message: "Analysis cancelled", Cause: err}
}

func unexpected(kind errs.Kind, err error) error {
	return &errs.AppError{Kind: kind, Message: "Analysis failed: " + err.Error(), Cause: err}
}
