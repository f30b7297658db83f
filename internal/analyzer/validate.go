package analyzer

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Bahjat/seo-audit/internal/platform/netguard"
)

var (
	errURLRequired   = errors.New("url is required")
	errInvalidURL    = errors.New("invalid url format")
	errURLNotAllowed = errors.New("url not allowed")
)

const maxURLLength = 2048

// validateTarget checks that raw is an absolute http(s) URL whose host is not
// obviously internal. The dialer repeats the address check after DNS.
func validateTarget(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errURLRequired
	}
	if len(raw) > maxURLLength {
		return "", errInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", errInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errInvalidURL
	}
	if u.Hostname() == "" || u.User != nil {
		return "", errInvalidURL
	}
	if strings.ContainsAny(u.Hostname(), " \t") {
		return "", errInvalidURL
	}

	if err := netguard.CheckHost(u.Hostname()); err != nil {
		return "", fmt.Errorf("%w: %w", errURLNotAllowed, err)
	}
	return u.String(), nil
}

// validationMessage is the user-facing text for a validateTarget error.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, errURLRequired):
		return "URL is required"
	case errors.Is(err, errURLNotAllowed):
		return "URL not allowed"
	}
	return "Invalid URL format"
}
