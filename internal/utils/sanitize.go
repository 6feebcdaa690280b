package utils

import (
	"strings"
	"unicode"
)

// StripControl removes control characters from a string so external error
// text (yt-dlp stderr, transport errors) is safe to put on the wire.
func StripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
