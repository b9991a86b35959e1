package service

import (
	"strings"
	"unicode"
)

// Slugify lowercases, strips diacritic-free non-alphanumerics, and joins
// words with hyphens: "Go, the Good Parts!" -> "go-the-good-parts".
func Slugify(s string) string {
	var b strings.Builder
	prevHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevHyphen = false
		case !prevHyphen:
			b.WriteByte('-')
			prevHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}

const wordsPerMinute = 200

// ReadingTime estimates minutes to read content, never below one minute.
func ReadingTime(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
