package analyzer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Bahjat/seo-audit/internal/model"
	"github.com/Bahjat/seo-audit/internal/platform/errs"
	"github.com/Bahjat/seo-audit/internal/platform/requestid"
)

// Service orchestrates an AuditProvider and logs results.
type Service struct {
	provider AuditProvider
	logger   *slog.Logger
}

// NewService creates a Service backed by the given provider.
func NewService(provider AuditProvider, logger *slog.Logger) *Service {
	return &Service{provider: provider, logger: logger}
}

// Analyze delegates to the provider and logs the outcome.
func (s *Service) Analyze(ctx context.Context, targetURL string) (*model.AnalysisReport, error) {
	logger := s.logger.With("url", targetURL, "request_id", requestid.FromContext(ctx))

	report, err := s.provider.Analyze(ctx, targetURL)
	if err != nil {
		var appErr *errs.AppError
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && (!errors.As(err, &appErr) || appErr.Kind != errs.Timeout) {
			err = &errs.AppError{
				Kind:    errs.Timeout,
				Message: "Analysis timed out. The target URL may be slow to respond.",
				Cause:   err,
			}
		}

		attrs := []any{"error", err}
		if errors.As(err, &appErr) {
			stage := "analysis"
			if appErr.Fetch() {
				stage = "fetch"
			}
			attrs = append(attrs, "kind", appErr.Kind.String(), "stage", stage)
			if appErr.UpstreamStatus != 0 {
				attrs = append(attrs, "target_status", appErr.UpstreamStatus)
			}
		}
		logger.Error("audit failed", attrs...)
		return nil, err
	}

	failed := report.Checks.Failed()
	logger.Info("audit complete",
		"checks", len(report.Checks),
		"failed_checks", failed,
		"word_count", report.PageInfo.WordCount,
		"internal_links", report.PageInfo.InternalLinks,
		"external_links", report.PageInfo.ExternalLinks,
		"load_time", report.PageInfo.LoadTime,
	)
	return report, nil
}
