package format

import (
	"regexp"
	"strings"
)

var (
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
	allowedPattern = regexp.MustCompile(`(?i)^</?em>$`)
)

// Sanitize strips all markup from a free-text value except the <em> highlight
// tag. It is applied to titles, descriptions and highlight fragments from both
// backends, so stored or injected markup can never execute in a rendering
// context.
func Sanitize(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	return tagPattern.ReplaceAllStringFunc(s, func(tag string) string {
		if allowedPattern.MatchString(tag) {
			return strings.ToLower(tag)
		}
		return ""
	})
}
