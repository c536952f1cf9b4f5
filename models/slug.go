package models

import (
	"strings"
	"unicode"
)

// Slugify lowercases the input and replaces runs of non-alphanumeric runes
// with single hyphens, trimming leading and trailing hyphens.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// SlugifyMax behaves like Slugify but caps the result at max runes.
func SlugifyMax(s string, max int) string {
	slug := Slugify(s)
	r := []rune(slug)
	if len(r) > max {
		slug = strings.TrimRight(string(r[:max]), "-")
	}
	return slug
}
