package audit

import (
	"context"
	"net/url"

	"github.com/Bahjat/seo-audit/internal/model"
)

// Env is what a check may know besides the document.
type Env struct {
	URL      *url.URL // as requested
	FinalURL *url.URL // after redirects; links resolve against it
	Prober   Prober
	Policy   Policy
}

// CheckFunc evaluates one aspect of a page. It must not mutate the document.
// Returning a *ProbeError degrades the check to its Unverified verdict; any
// other error aborts the audit.
type CheckFunc func(ctx context.Context, doc *Document, env *Env) (model.CheckVerdict, error)

// Check is a named entry in the check registry.
type Check struct {
	Name string
	Run  CheckFunc
	// Unverified is reported when the check could not complete its probes.
	Unverified model.CheckVerdict
}

// Check names, also the keys of the report's checks object.
const (
	CheckTitleTag        = "title_tag"
	CheckMetaDescription = "meta_description"
	CheckH1Tag           = "h1_tag"
	CheckHeaderHierarchy = "header_hierarchy"
	CheckContentLength   = "content_length"
	CheckKeywordDensity  = "keyword_density"
	CheckAltText         = "alt_text"
	CheckCanonicalURL    = "canonical_url"
	CheckMetaRobots      = "meta_robots"
	CheckXMLSitemap      = "xml_sitemap"
	CheckSchemaMarkup    = "schema_markup"
	CheckBrokenLinks     = "broken_links"
)

// DefaultChecks returns the standard battery in report order.
func DefaultChecks() []Check {
	return []Check{
		{Name: CheckTitleTag, Run: checkTitleTag},
		{Name: CheckMetaDescription, Run: checkMetaDescription},
		{Name: CheckH1Tag, Run: checkH1Tag},
		{Name: CheckHeaderHierarchy, Run: checkHeaderHierarchy},
		{Name: CheckContentLength, Run: checkContentLength},
		{Name: CheckKeywordDensity, Run: checkKeywordDensity},
		{Name: CheckAltText, Run: checkAltText},
		{Name: CheckCanonicalURL, Run: checkCanonicalURL},
		{Name: CheckMetaRobots, Run: checkMetaRobots},
		{
			Name: CheckXMLSitemap,
			Run:  checkXMLSitemap,
			Unverified: model.Fail(
				"Could not check for XML sitemap",
				"Unable to verify sitemap presence",
				"Ensure XML sitemap is accessible and referenced",
			),
		},
		{Name: CheckSchemaMarkup, Run: checkSchemaMarkup},
		{Name: CheckBrokenLinks, Run: checkBrokenLinks},
	}
}
