package util

import "regexp"

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// FormatTemplate substitutes {key} placeholders with values from ctx.
// Placeholders with no matching key render as the empty string.
func FormatTemplate(template string, ctx map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]
		return ctx[key]
	})
}
