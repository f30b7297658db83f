package audit

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Elements whose text never counts as page content.
var excludedTextElements = []string{"script", "style", "nav", "footer", "header"}

// wordPattern matches a run of word characters in any script.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Document is a parsed page. It is immutable once Parse returns and safe for
// concurrent reads by the checks.
type Document struct {
	dom   *goquery.Document
	text  string
	words []string
}

// Heading is one h1-h6 element in document order.
type Heading struct {
	Level int
	Text  string
}

// Parse builds the document tree and the normalized text view. Malformed
// markup is repaired the way browsers do; only a read failure is an error.
func Parse(body []byte) (*Document, error) {
	dom, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	// The normalized text comes from an independent tree so that removing
	// elements never affects the tree the tag checks query.
	textDom, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	textDom.Find(strings.Join(excludedTextElements, ", ")).Remove()
	text := textDom.Text()

	return &Document{
		dom:   dom,
		text:  text,
		words: wordPattern.FindAllString(text, -1),
	}, nil
}

// Text returns the normalized page text.
func (d *Document) Text() string { return d.text }

// Words returns the word tokens of the normalized text. Callers must not modify the slice.
func (d *Document) Words() []string { return d.words }

// Find returns every element matching the CSS selector.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.dom.Find(selector)
}

// Titles returns the document's <title> elements, ignoring SVG titles.
func (d *Document) Titles() *goquery.Selection {
	return d.dom.Find("title").Not("svg title")
}

// Title returns the trimmed text of the first <title> element.
func (d *Document) Title() (string, bool) {
	titles := d.Titles()
	if titles.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(titles.First().Text()), true
}

// MetaContent returns the content attribute of the first <meta> whose name
// matches. The boolean reports whether such a tag exists at all.
func (d *Document) MetaContent(name string) (content string, found bool) {
	d.dom.Find("meta[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(s.AttrOr("name", "")), name) {
			return true
		}
		content, found = s.AttrOr("content", ""), true
		return false
	})
	return content, found
}

// Headings returns h1-h6 elements in document order.
func (d *Document) Headings() []Heading {
	sel := d.dom.Find("h1, h2, h3, h4, h5, h6")
	headings := make([]Heading, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		name := goquery.NodeName(s)
		headings = append(headings, Heading{
			Level: int(name[1] - '0'),
			Text:  strings.TrimSpace(s.Text()),
		})
	})
	return headings
}

// Images returns every <img> element.
func (d *Document) Images() *goquery.Selection {
	return d.dom.Find("img")
}

// Anchors returns the href of every <a> that has one, in document order.
func (d *Document) Anchors() []string {
	sel := d.dom.Find("a[href]")
	hrefs := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		hrefs = append(hrefs, s.AttrOr("href", ""))
	})
	return hrefs
}
