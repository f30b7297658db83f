package audit

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

func mustParse(t *testing.T, html string) *Document {
	t.Helper()
	doc, err := Parse([]byte(html))
	require.NoError(t, err)
	return doc
}

// repeatWords returns n copies of w separated by spaces.
func repeatWords(w string, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSpace(strings.Repeat(w+" ", n))
}

func bodyHTML(inner string) string {
	return "<!DOCTYPE html><html><head></head><body>" + inner + "</body></html>"
}

// fakeProber records what it was asked and answers from canned data.
type fakeProber struct {
	robots    *RobotsFile
	robotsErr error
	statuses  map[string]int
	failures  map[string]error

	mu      sync.Mutex
	checked []string
}

func (f *fakeProber) Robots(_ context.Context, _ *url.URL) (*RobotsFile, error) {
	return f.robots, f.robotsErr
}

func (f *fakeProber) CheckLinks(_ context.Context, links []string) map[string]LinkResult {
	f.mu.Lock()
	f.checked = append(f.checked, links...)
	f.mu.Unlock()

	out := make(map[string]LinkResult, len(links))
	for _, link := range links {
		if err, ok := f.failures[link]; ok {
			out[link] = LinkResult{Err: err}
			continue
		}
		status := 200
		if s, ok := f.statuses[link]; ok {
			status = s
		}
		out[link] = LinkResult{Status: status}
	}
	return out
}

func testEnv(prober Prober) *Env {
	u := mustParseURL("https://example.com/")
	return &Env{URL: u, FinalURL: u, Prober: prober, Policy: DefaultPolicy()}
}
