package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var errInvalidPolicy = errors.New("config: invalid audit policy")

// PolicyOverrides mirrors the audit thresholds. Zero values keep the built-in default.
type PolicyOverrides struct {
	Title           RangeOverride   `yaml:"title"`
	MetaDescription RangeOverride   `yaml:"meta_description"`
	H1              RangeOverride   `yaml:"h1"`
	Content         ContentOverride `yaml:"content"`
	Keywords        KeywordOverride `yaml:"keywords"`
	Links           LinksOverride   `yaml:"links"`
	Sitemap         SitemapOverride `yaml:"sitemap"`
}

// RangeOverride is an inclusive character-length window.
type RangeOverride struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// ContentOverride sets the word-count thresholds.
type ContentOverride struct {
	MinWords           int `yaml:"min_words"`
	ComprehensiveWords int `yaml:"comprehensive_words"`
}

// KeywordOverride sets the keyword density heuristic.
type KeywordOverride struct {
	MinWords   int      `yaml:"min_words"`
	MinLength  int      `yaml:"min_length"`
	Top        int      `yaml:"top"`
	MinDensity float64  `yaml:"min_density"`
	MaxDensity float64  `yaml:"max_density"`
	StopWords  []string `yaml:"stop_words"`
}

// LinksOverride controls the broken-link probe.
type LinksOverride struct {
	MaxChecked int      `yaml:"max_checked"`
	Timeout    Duration `yaml:"timeout"`
}

// SitemapOverride controls the robots.txt lookup.
type SitemapOverride struct {
	RobotsTimeout Duration `yaml:"robots_timeout"`
}

// LoadPolicyFile decodes a YAML policy file. Unknown keys are rejected.
func LoadPolicyFile(path string) (PolicyOverrides, error) {
	f, err := os.Open(path)
	if err != nil {
		return PolicyOverrides{}, fmt.Errorf("config: open policy file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var p PolicyOverrides
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return PolicyOverrides{}, fmt.Errorf("config: decode policy file %s: %w", path, err)
	}
	return p, nil
}

func (p PolicyOverrides) validate() error {
	for name, r := range map[string]RangeOverride{
		"title":            p.Title,
		"meta_description": p.MetaDescription,
		"h1":               p.H1,
	} {
		if r.Min < 0 || r.Max < 0 || (r.Max > 0 && r.Min > r.Max) {
			return fmt.Errorf("%w: %s range %d-%d", errInvalidPolicy, name, r.Min, r.Max)
		}
	}

	k := p.Keywords
	if k.MinDensity < 0 || k.MaxDensity < 0 || (k.MaxDensity > 0 && k.MinDensity > k.MaxDensity) {
		return fmt.Errorf("%w: keyword density %.2f-%.2f", errInvalidPolicy, k.MinDensity, k.MaxDensity)
	}

	if p.Links.MaxChecked < 0 || p.Links.Timeout.Duration < 0 || p.Sitemap.RobotsTimeout.Duration < 0 {
		return fmt.Errorf("%w: negative link or sitemap limit", errInvalidPolicy)
	}
	return nil
}
