package strings

import (
	"strconv"
	"strings"
)

// DefaultDescriptionMaxLen is the default maximum length for values in table output.
const DefaultDescriptionMaxLen = 60

// MinTruncateLen is the minimum maxLen value for TruncateDescription.
// Values smaller than this would not leave room for meaningful content plus "...".
const MinTruncateLen = 4

// TruncateDescription truncates a string to maxLen characters and ensures single-line output.
// It collapses whitespace into single spaces and adds "..." if truncated.
// Runes, not bytes, are counted.
func TruncateDescription(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

// visibleSecretPrefix is how many leading characters MaskSecret keeps.
const visibleSecretPrefix = 6

// MaskSecret hides all but the first few characters of a token so it can be
// shown to the user without being copied from a terminal scrollback.
// Short values are masked entirely.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= visibleSecretPrefix*2 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:visibleSecretPrefix]) + "..." + "(" + strconv.Itoa(len(runes)) + " chars)"
}
