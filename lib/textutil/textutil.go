package textutil

import "unicode/utf8"

// Truncate cuts text to at most n bytes without splitting a rune.
func Truncate(text string, n int) string {
	if len(text) <= n {
		return text
	}
	cut := max(n, 0)
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
