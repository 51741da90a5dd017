// Copyright (c) 2026 The Folio Authors
// All rights reserved. See LICENSE for details.

// Package slug normalises free text into document-id-safe slugs.
package slug

import (
	"regexp"
	"strings"
)

// MaxLength caps the length of a generated document id.
const MaxLength = 64

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, space or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespace      = regexp.MustCompile(`[\s_]+`)
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Generate creates a lowercase hyphenated slug from s.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = whitespace.ReplaceAllString(result, " ")
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = strings.ReplaceAll(result, " ", "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// ID returns Generate(s) truncated to MaxLength, without a trailing hyphen.
// The result never contains a path separator.
func ID(s string) string {
	result := Generate(s)
	if len(result) > MaxLength {
		result = strings.TrimRight(result[:MaxLength], "-")
	}
	return result
}
