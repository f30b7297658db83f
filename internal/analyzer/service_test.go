package analyzer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Bahjat/seo-audit/internal/model"
	"github.com/Bahjat/seo-audit/internal/platform/errs"
	"github.com/Bahjat/seo-audit/internal/platform/requestid"
)

// slowProvider blocks until the context is done.
type slowProvider struct{}

func (slowProvider) Analyze(ctx context.Context, _ string) (*model.AnalysisReport, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestService_Analyze_LogsOutcome(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	provider := &mockProvider{report: &model.AnalysisReport{
		URL: "https://example.com",
		Checks: model.Checks{
			{Name: "title_tag", Verdict: model.Pass("ok")},
			{Name: "h1_tag", Verdict: model.Fail("No H1 tag found", "i", "r")},
		},
	}}

	ctx := requestid.NewContext(context.Background(), "req-123")
	report, err := NewService(provider, logger).Analyze(ctx, "https://example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report != provider.report {
		t.Error("service must return the provider's report unchanged")
	}

	out := buf.String()
	for _, want := range []string{`"msg":"audit complete"`, `"failed_checks":1`, `"request_id":"req-123"`, `"url":"https://example.com"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
}

func TestService_Analyze_LogsFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	provider := &mockProvider{err: &errs.AppError{Kind: errs.Unreachable, UpstreamStatus: 404, Message: "HTTP error 404"}}
	_, err := NewService(provider, logger).Analyze(context.Background(), "https://example.com/missing")

	var appErr *errs.AppError
	if !errors.As(err, &appErr) || appErr.Kind != errs.Unreachable {
		t.Fatalf("err = %v, want the provider's AppError", err)
	}

	out := buf.String()
	for _, want := range []string{`"msg":"audit failed"`, `"kind":"unreachable"`, `"stage":"fetch"`, `"target_status":404`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
}

func TestService_Analyze_DeadlineBecomesTimeout(t *testing.T) {
	svc := NewService(slowProvider{}, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Analyze(ctx, "https://slow.example.com")

	var appErr *errs.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *errs.AppError, got %T", err)
	}
	if appErr.Kind != errs.Timeout {
		t.Errorf("Kind = %s, want %s", appErr.Kind, errs.Timeout)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("timeout error should wrap context.DeadlineExceeded")
	}
}

func TestService_Analyze_LogsAnalysisStage(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	provider := &mockProvider{err: &errs.AppError{Kind: errs.Unknown, Message: "Analysis failed: check panicked"}}
	if _, err := NewService(provider, logger).Analyze(context.Background(), "https://example.com"); err == nil {
		t.Fatal("expected error, got nil")
	}

	if out := buf.String(); !strings.Contains(out, `"stage":"analysis"`) {
		t.Errorf("log output missing analysis stage: %s", out)
	}
}
