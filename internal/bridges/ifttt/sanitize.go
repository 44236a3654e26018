package ifttt

import "strings"

// Sanitize turns a free-text sensor label into an event name fragment.
//
// Characters other than ASCII letters, digits, underscore and whitespace are
// removed, the result is trimmed, and each run of whitespace becomes a single
// underscore. The output only contains [A-Za-z0-9_] and Sanitize(Sanitize(s))
// equals Sanitize(s).
//
//	Sanitize("Living Room!")  // "Living_Room"
//	Sanitize("  a \t b  ")    // "a_b"
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	pendingSpace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isWordByte(c):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSpace = false
			b.WriteByte(c)
		case isSpaceByte(c):
			pendingSpace = true
		}
	}

	return b.String()
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '_'
}

// isSpaceByte matches the ASCII whitespace class (\s).
func isSpaceByte(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
