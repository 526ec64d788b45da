package post

import (
	"strings"
)

const (
	wordsPerMinute = 200
	excerptLength  = 150
)

// Slugify derives a URL-safe identifier from a title: lowercase ASCII
// letters and digits kept, every other run of characters collapsed to a
// single hyphen. Returns "" when nothing usable remains.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// EstimateReadTime returns reading minutes at 200 words per minute,
// rounded up, never below 1.
func EstimateReadTime(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// DeriveExcerpt builds a short summary from content: markdown marker
// characters stripped, whitespace collapsed, cut at 150 runes with a
// trailing ellipsis when the content runs longer.
func DeriveExcerpt(content string) string {
	stripped := strings.Map(func(r rune) rune {
		switch r {
		case '#', '*', '_', '`', '>', '[', ']', '(', ')', '!', '~':
			return -1
		}
		return r
	}, content)
	plain := strings.Join(strings.Fields(stripped), " ")

	runes := []rune(plain)
	if len(runes) <= excerptLength {
		return plain
	}
	return string(runes[:excerptLength]) + "..."
}
