package audit

import (
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/Bahjat/seo-audit/internal/model"
)

// pageInfo derives the page statistics. Anchors are classified against the
// final URL; hrefs that never point at a document are not counted.
func pageInfo(doc *Document, finalURL *url.URL, elapsed time.Duration) model.PageInfo {
	title, _ := doc.Title()
	meta, _ := doc.MetaContent("description")

	internal, external := classifyLinks(doc.Anchors(), finalURL)

	return model.PageInfo{
		TitleLength:           runeLen(title),
		MetaDescriptionLength: runeLen(meta),
		WordCount:             len(doc.Words()),
		ImagesCount:           doc.Images().Length(),
		InternalLinks:         internal,
		ExternalLinks:         external,
		H1Count:               doc.Find("h1").Length(),
		LoadTime:              math.Round(elapsed.Seconds()*100) / 100,
	}
}

func classifyLinks(hrefs []string, base *url.URL) (internal, external int) {
	for _, href := range hrefs {
		href = strings.TrimSpace(href)
		if isNonDocumentHref(href) {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		if !ref.IsAbs() && ref.Host == "" {
			// root- or path-relative
			internal++
			continue
		}

		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			continue
		}
		if strings.EqualFold(resolved.Host, base.Host) {
			internal++
		} else {
			external++
		}
	}
	return internal, external
}

// aggregate assembles the immutable report. The timestamp is taken here,
// after every check has finished.
func aggregate(targetURL string, doc *Document, finalURL *url.URL, checks model.Checks, elapsed time.Duration, now time.Time) *model.AnalysisReport {
	return &model.AnalysisReport{
		URL:       targetURL,
		Timestamp: now,
		Checks:    checks,
		PageInfo:  pageInfo(doc, finalURL, elapsed),
	}
}
