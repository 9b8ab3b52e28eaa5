package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// --- Name Sanitization ---
var (
	invalidNameChars = regexp.MustCompile(`[^A-Za-z0-9\-_ .]`) // Anything outside the safe filename alphabet
	spacesAndDots    = regexp.MustCompile(`[ .]+`)             // Word separators folded into a single underscore
	underscoreRuns   = regexp.MustCompile(`_+`)                // Pattern to replace multiple underscores with one
)

// DefaultMaxNameLength is the stem/folder name length cap applied when the
// caller passes maxLen <= 0.
const DefaultMaxNameLength = 80

// asciiFold decomposes Unicode (NFKD) and drops combining marks plus any
// remaining non-ASCII runes. Characters with no ASCII fallback are deleted,
// not replaced.
var asciiFold = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
	runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
)

// SanitizeName maps an arbitrary string to a filesystem-safe stem or folder
// name. It never fails: unrepresentable input collapses to "unknown".
func SanitizeName(raw string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxNameLength
	}

	name := raw
	if folded, _, err := transform.String(asciiFold, raw); err == nil {
		name = folded
	}

	name = invalidNameChars.ReplaceAllString(name, "_")
	name = spacesAndDots.ReplaceAllString(name, "_")
	name = underscoreRuns.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_-")

	if len(name) > maxLen {
		name = name[:maxLen]
		name = strings.TrimRight(name, "_-")
	}

	if name == "" {
		return "unknown"
	}
	return name
}
