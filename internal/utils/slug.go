package utils

import (
	"strings"
	"time"
	"unicode"
)

// Slugify lowercases the input and collapses runs of non-alphanumeric
// characters into single hyphens. An input with no usable characters falls
// back to a timestamped slug so the caller always gets something unique-ish.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "store-" + time.Now().UTC().Format("20060102150405")
	}
	return slug
}
