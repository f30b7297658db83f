package audit

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/Bahjat/seo-audit/internal/model"
)

func runeLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

func checkTitleTag(_ context.Context, doc *Document, env *Env) (model.CheckVerdict, error) {
	r := env.Policy.Title
	count := doc.Titles().Length()
	title, _ := doc.Title()

	switch {
	case count == 0 || title == "":
		return model.Fail(
			"Title tag missing",
			"No title tag found on the page",
			"Add a descriptive title tag between 50-60 characters",
		), nil
	case count > 1:
		return model.Fail(
			fmt.Sprintf("Multiple title tags found (%d)", count),
			"Page has more than one title tag",
			"Keep a single title tag in the document head",
		), nil
	}

	n := runeLen(title)
	switch {
	case n < r.Min:
		return model.Fail(
			fmt.Sprintf("Title tag too short (%d characters)", n),
			"Title tag is shorter than recommended minimum",
			"Expand title to 50-60 characters for better SEO",
		), nil
	case n > r.Max:
		return model.Fail(
			fmt.Sprintf("Title tag too long (%d characters)", n),
			"Title tag exceeds recommended maximum length",
			"Shorten title to 50-60 characters to prevent truncation",
		), nil
	}
	return model.Pass(fmt.Sprintf("Title tag present with %d characters", n)), nil
}

func checkMetaDescription(_ context.Context, doc *Document, env *Env) (model.CheckVerdict, error) {
	r := env.Policy.MetaDescription
	content, _ := doc.MetaContent("description")
	if content == "" {
		return model.Fail(
			"Meta description missing",
			"No meta description tag found on the page",
			"Add a compelling meta description between 150-160 characters",
		), nil
	}

	n := runeLen(content)
	switch {
	case n < r.Min:
		return model.Fail(
			fmt.Sprintf("Meta description too short (%d characters)", n),
			"Meta description is shorter than recommended",
			"Expand meta description to 150-160 characters",
		), nil
	case n > r.Max:
		return model.Fail(
			fmt.Sprintf("Meta description too long (%d characters)", n),
			"Meta description exceeds recommended length",
			"Shorten meta description to 150-160 characters",
		), nil
	}
	return model.Pass(fmt.Sprintf("Meta description present with %d characters", n)), nil
}

func checkH1Tag(_ context.Context, doc *Document, env *Env) (model.CheckVerdict, error) {
	r := env.Policy.H1
	h1 := doc.Find("h1")

	switch count := h1.Length(); {
	case count == 0:
		return model.Fail(
			"No H1 tag found",
			"Page is missing an H1 tag",
			"Add a single, descriptive H1 tag to the page",
		), nil
	case count > 1:
		return model.Fail(
			fmt.Sprintf("Multiple H1 tags found (%d)", count),
			"Page has multiple H1 tags",
			"Use only one H1 tag per page",
		), nil
	}

	n := runeLen(h1.Text())
	switch {
	case n < r.Min:
		return model.Fail(
			fmt.Sprintf("H1 tag too short (%d characters)", n),
			"H1 tag content is too brief",
			"Make H1 tag more descriptive (20-70 characters)",
		), nil
	case n > r.Max:
		return model.Fail(
			fmt.Sprintf("H1 tag too long (%d characters)", n),
			"H1 tag content is too lengthy",
			"Shorten H1 tag to 20-70 characters",
		), nil
	}
	return model.Pass(fmt.Sprintf("Single H1 tag found with %d characters", n)), nil
}

func checkHeaderHierarchy(_ context.Context, doc *Document, _ *Env) (model.CheckVerdict, error) {
	headings := doc.Headings()
	if len(headings) == 0 {
		return model.Fail(
			"No header tags found",
			"Page has no header structure",
			"Add proper header hierarchy starting with H1",
		), nil
	}

	if headings[0].Level != 1 {
		return model.Fail(
			"Header hierarchy does not start with H1",
			"First header is not H1",
			"Start header hierarchy with H1 tag",
		), nil
	}

	for i := 1; i < len(headings); i++ {
		prev, cur := headings[i-1].Level, headings[i].Level
		if cur > prev+1 {
			return model.Fail(
				fmt.Sprintf("Header hierarchy skips levels (H%d to H%d)", prev, cur),
				"Header hierarchy skips levels",
				"Maintain sequential header hierarchy (H1→H2→H3)",
			), nil
		}
	}
	return model.Pass(fmt.Sprintf("Proper header hierarchy with %d headers", len(headings))), nil
}

func checkContentLength(_ context.Context, doc *Document, env *Env) (model.CheckVerdict, error) {
	n := len(doc.Words())
	switch {
	case n < env.Policy.MinWords:
		return model.Fail(
			fmt.Sprintf("Content too short (%d words)", n),
			"Page has insufficient content for SEO",
			fmt.Sprintf("Add more quality content (aim for %d+ words)", env.Policy.MinWords),
		), nil
	case n > env.Policy.ComprehensiveWords:
		return model.Pass(fmt.Sprintf("Comprehensive content with %d words", n)), nil
	}
	return model.Pass(fmt.Sprintf("Good content length with %d words", n)), nil
}

// Keyword is a candidate keyword and its number of occurrences.
type Keyword struct {
	Word  string
	Count int
}

// TopKeywords ranks the non-stop-words of at least minLen runes by frequency.
// Ties keep the order of first occurrence. words must already be lower-cased.
func TopKeywords(words []string, p Policy) []Keyword {
	index := make(map[string]int)
	var ranked []Keyword
	for _, w := range words {
		if _, stop := p.StopWords[w]; stop || utf8.RuneCountInString(w) < p.KeywordMinLength {
			continue
		}
		if i, ok := index[w]; ok {
			ranked[i].Count++
			continue
		}
		index[w] = len(ranked)
		ranked = append(ranked, Keyword{Word: w, Count: 1})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	if len(ranked) > p.TopKeywords {
		ranked = ranked[:p.TopKeywords]
	}
	return ranked
}

func checkKeywordDensity(_ context.Context, doc *Document, env *Env) (model.CheckVerdict, error) {
	p := env.Policy
	words := doc.Words()
	if len(words) < p.KeywordMinWords {
		return model.Fail(
			"Insufficient content for keyword analysis",
			"Not enough content to analyze keywords",
			"Add more content to enable keyword analysis",
		), nil
	}

	lower := make([]string, len(words))
	for i, w := range words {
		lower[i] = strings.ToLower(w)
	}

	top := TopKeywords(lower, p)
	if len(top) == 0 {
		return model.Fail(
			"No meaningful keywords identified",
			"Content lacks focused keywords",
			"Include relevant keywords naturally in content",
		), nil
	}

	density := float64(top[0].Count) / float64(len(words)) * 100
	switch {
	case density > p.MaxDensity:
		return model.Fail(
			fmt.Sprintf("Keyword over-optimization detected (%.1f%%)", density),
			"Keyword density too high - may be considered spam",
			"Reduce keyword density to 1-2% for natural content",
		), nil
	case density < p.MinDensity:
		return model.Fail(
			fmt.Sprintf("Low keyword focus (%.1f%%)", density),
			"Primary keywords appear too infrequently",
			"Increase target keyword usage to 1-2% density",
		), nil
	}
	return model.Pass(fmt.Sprintf("Good keyword density (%.1f%%)", density)), nil
}

func checkAltText(_ context.Context, doc *Document, _ *Env) (model.CheckVerdict, error) {
	images := doc.Images()
	total := images.Length()
	if total == 0 {
		return model.Pass("No images found on page"), nil
	}

	var missing, empty int
	images.Each(func(_ int, img *goquery.Selection) {
		alt, ok := img.Attr("alt")
		switch {
		case !ok:
			missing++
		case strings.TrimSpace(alt) == "":
			empty++
		}
	})

	if issues := missing + empty; issues > 0 {
		return model.Fail(
			fmt.Sprintf("%d out of %d images missing alt text", issues, total),
			"Some images lack descriptive alt attributes",
			"Add descriptive alt text to all images for accessibility and SEO",
		), nil
	}
	return model.Pass(fmt.Sprintf("All %d images have alt text", total)), nil
}
