package audit

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/Bahjat/seo-audit/internal/model"
)

var sitemapHref = regexp.MustCompile(`(?i)sitemap.*\.xml`)

// Hrefs with these prefixes never point at another document.
var nonDocumentPrefixes = []string{"mailto:", "tel:", "javascript:", "#"}

func isNonDocumentHref(href string) bool {
	lower := strings.ToLower(href)
	for _, p := range nonDocumentPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func checkXMLSitemap(ctx context.Context, doc *Document, env *Env) (model.CheckVerdict, error) {
	robots, err := env.Prober.Robots(ctx, env.FinalURL)
	if err != nil {
		return model.CheckVerdict{}, err
	}
	if robots != nil && robots.DeclaresSitemap() {
		return model.Pass("XML sitemap referenced in robots.txt"), nil
	}

	if doc.Find(`link[type="application/xml"]`).Length() > 0 {
		return model.Pass("XML sitemap link found in HTML"), nil
	}
	for _, href := range doc.Anchors() {
		if sitemapHref.MatchString(href) {
			return model.Pass("XML sitemap link found in HTML"), nil
		}
	}

	return model.Fail(
		"XML sitemap reference not found",
		"No XML sitemap linked in robots.txt or HTML",
		"Create and submit an XML sitemap to search engines",
	), nil
}

// internalLinks resolves the first limit anchors against base and keeps the
// http(s) ones on base's host. Unparseable hrefs are returned in bad.
func internalLinks(hrefs []string, base *url.URL, limit int) (links []string, bad int) {
	if len(hrefs) > limit {
		hrefs = hrefs[:limit]
	}

	for _, href := range hrefs {
		href = strings.TrimSpace(href)
		if isNonDocumentHref(href) {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			bad++
			continue
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			continue
		}
		if !strings.EqualFold(resolved.Host, base.Host) {
			continue
		}
		resolved.Fragment = ""
		links = append(links, resolved.String())
	}
	return links, bad
}

func checkBrokenLinks(ctx context.Context, doc *Document, env *Env) (model.CheckVerdict, error) {
	hrefs := doc.Anchors()
	if len(hrefs) == 0 {
		return model.Pass("No links found to check"), nil
	}

	links, broken := internalLinks(hrefs, env.FinalURL, env.Policy.MaxLinksChecked)
	results := env.Prober.CheckLinks(ctx, links)
	for _, link := range links {
		if res, ok := results[link]; !ok || res.Broken() {
			broken++
		}
	}

	if broken > 0 {
		return model.Fail(
			fmt.Sprintf("%d broken internal links found", broken),
			"Some internal links return errors",
			"Fix or remove broken internal links",
		), nil
	}
	return model.Pass(fmt.Sprintf("No broken links detected (checked %d internal links)", len(links))), nil
}
