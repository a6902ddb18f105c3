package util

import (
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

// MaskSecret hides all but a few characters of a credential:
// up to 5 characters are fully masked, up to 20 keep the first and last,
// longer ones keep the first 3 and the last.
func MaskSecret(s string) string {
	n := len(s)
	switch {
	case n == 0:
		return ""
	case n <= 5:
		return strings.Repeat("*", n)
	case n <= 20:
		return s[:1] + strings.Repeat("*", n-2) + s[n-1:]
	default:
		return s[:3] + strings.Repeat("*", n-4) + s[n-1:]
	}
}

// RedactSecrets replaces every occurrence of the given secrets in text with their masked form.
func RedactSecrets(text string, secrets ...string) string {
	for _, secret := range lo.Compact(secrets) {
		text = strings.ReplaceAll(text, secret, MaskSecret(secret))
	}
	return text
}

// SplitComma splits a comma separated list, trimming blanks and dropping empty items.
func SplitComma(s string) []string {
	return lo.Compact(lo.Map(strings.Split(s, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	}))
}

// Truncate cuts s to at most maxLen bytes plus "...", never splitting a rune.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
