package blogs

import (
	"strings"
	"unicode/utf8"
)

const (
	wordsPerMinute = 200
	excerptLength  = 200
)

// ReadTimeMinutes estimates reading time at 200 words per minute, rounded up.
func ReadTimeMinutes(content string) int {
	words := len(strings.Fields(content))
	return (words + wordsPerMinute - 1) / wordsPerMinute
}

// DeriveExcerpt returns the first 200 characters of content.
func DeriveExcerpt(content string) string {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) <= excerptLength {
		return content
	}
	runes := []rune(content)
	return strings.TrimSpace(string(runes[:excerptLength]))
}
