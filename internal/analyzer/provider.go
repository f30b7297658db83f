package analyzer

import (
	"context"

	"github.com/Bahjat/seo-audit/internal/model"
)

// AuditProvider defines the contract for any audit engine.
type AuditProvider interface {
	Analyze(ctx context.Context, targetURL string) (*model.AnalysisReport, error)
}
