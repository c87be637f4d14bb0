package transform

import "regexp"

// HasPlaceholders reports whether pattern matches anywhere in template.
// A nil pattern matches nothing.
func HasPlaceholders(template string, pattern *regexp.Regexp) bool {
	if pattern == nil {
		return false
	}
	return pattern.MatchString(template)
}
