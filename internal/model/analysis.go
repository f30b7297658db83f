package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Status is the outcome of a single check.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// CheckVerdict is the result of one check. Issue and Recommendation are set
// only when the check failed; use Pass and Fail to build one.
type CheckVerdict struct {
	Status         Status `json:"status"`
	Details        string `json:"details"`
	Issue          string `json:"issue,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

// Pass returns a passed verdict.
func Pass(details string) CheckVerdict {
	return CheckVerdict{Status: StatusPassed, Details: details}
}

// Fail returns a failed verdict with the reason and the suggested fix.
func Fail(details, issue, recommendation string) CheckVerdict {
	return CheckVerdict{
		Status:         StatusFailed,
		Details:        details,
		Issue:          issue,
		Recommendation: recommendation,
	}
}

// Passed reports whether the check passed.
func (v CheckVerdict) Passed() bool {
	return v.Status == StatusPassed
}

// NamedVerdict pairs a check name with its verdict.
type NamedVerdict struct {
	Name    string
	Verdict CheckVerdict
}

// Checks is an ordered set of verdicts. It encodes as a JSON object whose keys
// keep the order in which the checks were registered.
type Checks []NamedVerdict

// Get returns the verdict for the named check.
func (c Checks) Get(name string) (CheckVerdict, bool) {
	for _, nv := range c {
		if nv.Name == name {
			return nv.Verdict, true
		}
	}
	return CheckVerdict{}, false
}

// Failed returns the number of failed checks.
func (c Checks) Failed() int {
	var n int
	for _, nv := range c {
		if !nv.Verdict.Passed() {
			n++
		}
	}
	return n
}

func (c Checks) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, nv := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(nv.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(nv.Verdict)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *Checks) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("checks: expected object, got %v", tok)
	}

	out := Checks{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("checks: expected string key, got %v", tok)
		}
		var v CheckVerdict
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("checks: %s: %w", name, err)
		}
		out = append(out, NamedVerdict{Name: name, Verdict: v})
	}
	*c = out
	return nil
}

// PageInfo holds statistics derived from the audited page.
type PageInfo struct {
	TitleLength           int     `json:"title_length"`
	MetaDescriptionLength int     `json:"meta_description_length"`
	WordCount             int     `json:"word_count"`
	ImagesCount           int     `json:"images_count"`
	InternalLinks         int     `json:"internal_links"`
	ExternalLinks         int     `json:"external_links"`
	H1Count               int     `json:"h1_count"`
	LoadTime              float64 `json:"load_time"` // seconds, two decimals
}

// AnalysisReport is the complete result of auditing one page.
type AnalysisReport struct {
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
	Checks    Checks    `json:"checks"`
	PageInfo  PageInfo  `json:"page_info"`
}

// ErrorResponse is the JSON shape returned on failure.
type ErrorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}
