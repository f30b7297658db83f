package errs

import "fmt"

// Kind categorizes application errors for HTTP status mapping.
type Kind int

const (
	// Unknown represents an unclassified error (HTTP 500).
	Unknown Kind = iota
	// InvalidInput indicates the request was malformed or the URL is not allowed (HTTP 400).
	InvalidInput
	// Unreachable indicates the target URL could not be reached or answered with an error status (HTTP 502).
	Unreachable
	// Timeout indicates the target took too long to respond (HTTP 504).
	Timeout
	// ParsingFailed indicates the response could not be parsed (HTTP 500).
	ParsingFailed
	// UnsupportedContent indicates the target did not return HTML (HTTP 422).
	UnsupportedContent
	// ContentTooLarge indicates the target page exceeds the size limit (HTTP 422).
	ContentTooLarge
)

var kindNames = map[Kind]string{
	Unknown:            "unknown",
	InvalidInput:       "invalid_input",
	Unreachable:        "unreachable",
	Timeout:            "timeout",
	ParsingFailed:      "parsing_failed",
	UnsupportedContent: "unsupported_content",
	ContentTooLarge:    "content_too_large",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// AppError carries a category, user message, and original cause.
type AppError struct {
	Kind           Kind
	UpstreamStatus int // HTTP status code returned by the audited site
	Message        string
	Cause          error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Fetch reports whether the error aborted the audit while retrieving the page.
func (e *AppError) Fetch() bool {
	switch e.Kind {
	case Unreachable, Timeout, UnsupportedContent, ContentTooLarge:
		return true
	}
	return false
}
