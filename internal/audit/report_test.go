package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Bahjat/seo-audit/internal/model"
)

func TestPageInfo(t *testing.T) {
	html := `<!DOCTYPE html><html><head>
	<title>  Page title  </title>
	<meta name="description" content="Short description">
	</head><body>
	<header>Site header words</header>
	<h1>Main</h1><h1>Second</h1>
	<p>one two three four five</p>
	<img src="a.png"><img src="b.png" alt="b">
	<a href="/about">about</a>
	<a href="contact">contact</a>
	<a href="https://EXAMPLE.com/caps">caps</a>
	<a href="?page=2">next</a>
	<a href="https://other.org/">other</a>
	<a href="//cdn.example.net/file">cdn</a>
	<a href="mailto:team@example.com">mail</a>
	<a href="javascript:void(0)">js</a>
	<a href="#top">top</a>
	<a href="ftp://example.com/file">ftp</a>
	</body></html>`

	doc := mustParse(t, html)
	info := pageInfo(doc, mustParseURL("https://example.com/dir/page"), 1234567*time.Microsecond)

	assert.Equal(t, 10, info.TitleLength)
	assert.Equal(t, 17, info.MetaDescriptionLength)
	assert.Equal(t, 2, info.H1Count)
	assert.Equal(t, 2, info.ImagesCount)
	assert.Equal(t, 4, info.InternalLinks)
	assert.Equal(t, 2, info.ExternalLinks)
	assert.InDelta(t, 1.23, info.LoadTime, 1e-9)
	// header chrome excluded: Main Second one two three four five + anchor text
	assert.Equal(t, len(doc.Words()), info.WordCount)
	assert.NotContains(t, doc.Words(), "header")
}

func TestPageInfo_EmptyDocument(t *testing.T) {
	info := pageInfo(mustParse(t, ""), mustParseURL("https://example.com/"), 0)

	assert.Zero(t, info.TitleLength)
	assert.Zero(t, info.MetaDescriptionLength)
	assert.Zero(t, info.WordCount)
	assert.Zero(t, info.InternalLinks)
	assert.Zero(t, info.ExternalLinks)
}

func TestAggregate(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := mustParse(t, bodyHTML("<h1>x</h1>"))
	checks := model.Checks{{Name: CheckH1Tag, Verdict: model.Fail("H1 tag too short (1 characters)", "i", "r")}}

	report := aggregate("https://example.com", doc, mustParseURL("https://example.com/"), checks, 500*time.Millisecond, now)
	assert.Equal(t, "https://example.com", report.URL)
	assert.Equal(t, now, report.Timestamp)
	assert.Equal(t, 1, report.PageInfo.H1Count)
	assert.InDelta(t, 0.5, report.PageInfo.LoadTime, 1e-9)
	assert.Equal(t, checks, report.Checks)
}
