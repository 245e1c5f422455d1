// Package device condenses User-Agent headers into short display strings for
// the audit trail.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent turns a raw User-Agent header into a summary like
// "Chrome on Mac OS X". Unknown parts fall back so the result is never empty
// and never leaks the full header into the trail.
func ParseUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}

	os := ua.OSInfo().Name
	if os == "" {
		os = ua.Platform()
	}
	if os == "" {
		os = "Unknown OS"
	}

	return browser + " on " + os
}
