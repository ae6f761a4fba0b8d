// Package utils provides utility functions used throughout the application.
package utils

import (
	"regexp"
	"strings"
)

var (
	// nonAlphanumericRegex matches a single rune outside [A-Za-z0-9]
	nonAlphanumericRegex = regexp.MustCompile(`[^a-zA-Z0-9]`)

	// multipleSpacesRegex matches runs of whitespace
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
)

// SanitizeFilename replaces every rune outside [A-Za-z0-9] with "_", one for one.
// An empty title yields "download".
func SanitizeFilename(title string) string {
	if title == "" {
		return "download"
	}
	return nonAlphanumericRegex.ReplaceAllString(title, "_")
}

// NormalizeSpaces collapses whitespace runs and trims the result. Used for log fields.
func NormalizeSpaces(s string) string {
	return strings.TrimSpace(multipleSpacesRegex.ReplaceAllString(s, " "))
}
