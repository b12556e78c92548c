package recorder

import (
	"strings"
	"time"
	"unicode"
)

// timestampLayout renders as 2024-01-01_12h00m00s.
const timestampLayout = "2006-01-02_15h04m05s"

// BuildFilename returns <channel>_<timestamp>_<title>.mkv with spaces in the
// title turned into underscores, then sanitized as a whole.
func BuildFilename(channel, title string, at time.Time) string {
	name := channel + "_" + at.Format(timestampLayout) + "_" + strings.ReplaceAll(title, " ", "_") + ".mkv"
	return SanitizeFilename(name)
}

// SanitizeFilename drops every rune that is not a letter, a digit, space, '-',
// '_' or '.'. Kept runes stay in order and keep their case.
func SanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsNumber(r):
			return r
		case r == ' ', r == '-', r == '_', r == '.':
			return r
		default:
			return -1
		}
	}, s)
}
