package usecase

import (
	"regexp"
	"strings"
)

// Package-level compiled regex patterns for performance.
// Whitespace follows the broad definition (ASCII, vertical tab, Unicode separators, BOM)
// so that separators are collapsed rather than silently dropped.
var (
	nonWordRegex    = regexp.MustCompile(`[^\w\s\v\p{Z}\x{FEFF}]`)
	whitespaceRegex = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}]+`)
)

// Normalize strips every character that is not a word character or whitespace,
// collapses whitespace runs to a single space, trims and lowercases.
//
// It is the single normalization used for keyword extraction and for cache keys;
// both call sites must go through it or cache lookups stop lining up.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	result := nonWordRegex.ReplaceAllString(text, "")
	result = whitespaceRegex.ReplaceAllString(result, " ")
	return strings.ToLower(strings.TrimSpace(result))
}
