package generation

import (
	"regexp"
	"strings"
)

var reFenceOpen = regexp.MustCompile("(?i)```[a-z]*\\n?")

// Sanitize strips markdown code fences wherever they occur and trims the
// result. Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(text string) string {
	text = reFenceOpen.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}
