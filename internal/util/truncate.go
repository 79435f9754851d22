// ABOUTME: Byte-bounded string truncation that never splits a UTF-8 rune
// ABOUTME: Used to cap the per-chunk copy of the full page text
package util

import "unicode/utf8"

// TruncateByBytes returns s capped at maxBytes without cutting through
// a multi-byte rune. maxBytes <= 0 returns the empty string.
func TruncateByBytes(s string, maxBytes int) string {
	if maxBytes <= 0 {
		return ""
	}
	if len(s) <= maxBytes {
		return s
	}
	// Back up to the start of the rune straddling the boundary.
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
