package audit

import (
	"strings"

	"github.com/Bahjat/seo-audit/internal/platform/config"
)

// Range is an inclusive length window measured in characters.
type Range struct {
	Min int
	Max int
}

// Policy holds the thresholds the checks judge against. The keyword heuristics
// in particular are opinions, so every value can be overridden from the policy file.
type Policy struct {
	Title           Range
	MetaDescription Range
	H1              Range

	MinWords           int // content_length fails below this
	ComprehensiveWords int // content_length reports "comprehensive" above this

	KeywordMinWords  int // keyword_density needs at least this many words
	KeywordMinLength int // shorter words are not keyword candidates
	TopKeywords      int
	MinDensity       float64 // percent
	MaxDensity       float64 // percent
	StopWords        map[string]struct{}

	MaxLinksChecked int
}

var defaultStopWords = []string{
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by", "is",
	"are", "was", "were", "be", "been", "have", "has", "had", "do", "does", "did", "will", "would",
	"could", "should", "may", "might", "must", "can", "this", "that", "these", "those",
}

// DefaultPolicy returns the built-in thresholds.
func DefaultPolicy() Policy {
	return Policy{
		Title:              Range{Min: 30, Max: 60},
		MetaDescription:    Range{Min: 120, Max: 160},
		H1:                 Range{Min: 10, Max: 70},
		MinWords:           300,
		ComprehensiveWords: 2000,
		KeywordMinWords:    100,
		KeywordMinLength:   4,
		TopKeywords:        5,
		MinDensity:         0.5,
		MaxDensity:         3.0,
		StopWords:          stopWordSet(defaultStopWords),
		MaxLinksChecked:    20,
	}
}

// With returns a copy of p with every non-zero override applied.
func (p Policy) With(o config.PolicyOverrides) Policy {
	p.Title = overrideRange(p.Title, o.Title)
	p.MetaDescription = overrideRange(p.MetaDescription, o.MetaDescription)
	p.H1 = overrideRange(p.H1, o.H1)

	setInt(&p.MinWords, o.Content.MinWords)
	setInt(&p.ComprehensiveWords, o.Content.ComprehensiveWords)

	k := o.Keywords
	setInt(&p.KeywordMinWords, k.MinWords)
	setInt(&p.KeywordMinLength, k.MinLength)
	setInt(&p.TopKeywords, k.Top)
	if k.MinDensity > 0 {
		p.MinDensity = k.MinDensity
	}
	if k.MaxDensity > 0 {
		p.MaxDensity = k.MaxDensity
	}
	if len(k.StopWords) > 0 {
		p.StopWords = stopWordSet(k.StopWords)
	}

	setInt(&p.MaxLinksChecked, o.Links.MaxChecked)
	return p
}

func overrideRange(r Range, o config.RangeOverride) Range {
	setInt(&r.Min, o.Min)
	setInt(&r.Max, o.Max)
	return r
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func stopWordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return set
}
