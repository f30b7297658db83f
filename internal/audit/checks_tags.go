package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/Bahjat/seo-audit/internal/model"
)

func checkCanonicalURL(_ context.Context, doc *Document, _ *Env) (model.CheckVerdict, error) {
	href := strings.TrimSpace(doc.Find(`link[rel~="canonical"]`).First().AttrOr("href", ""))
	if href == "" {
		return model.Fail(
			"Canonical URL missing",
			"No canonical link tag found",
			"Add canonical URL to prevent duplicate content issues",
		), nil
	}

	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return model.Fail(
			"Invalid canonical URL format",
			"Canonical URL is not properly formatted",
			"Use absolute URLs for canonical tags",
		), nil
	}
	return model.Pass("Canonical URL properly set"), nil
}

func checkMetaRobots(_ context.Context, doc *Document, _ *Env) (model.CheckVerdict, error) {
	content, found := doc.MetaContent("robots")
	if !found {
		return model.Pass("No robots meta tag (defaults to index,follow)"), nil
	}

	content = strings.ToLower(content)
	if strings.Contains(content, "noindex") {
		return model.Fail(
			"Page set to noindex",
			"Meta robots prevents search engine indexing",
			"Remove noindex directive if you want page indexed",
		), nil
	}
	return model.Pass(fmt.Sprintf("Meta robots configured: %s", content)), nil
}

func checkSchemaMarkup(_ context.Context, doc *Document, _ *Env) (model.CheckVerdict, error) {
	blocks := doc.Find(`script[type="application/ld+json"]`).Length()
	if blocks == 0 {
		return model.Fail(
			"No structured data detected",
			"No JSON-LD schema markup found",
			"Implement relevant schema markup (Organization, Article, etc.)",
		), nil
	}
	return model.Pass(fmt.Sprintf("Schema markup found: JSON-LD (%d blocks)", blocks)), nil
}
