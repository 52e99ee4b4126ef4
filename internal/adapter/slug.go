package adapter

import (
	"strings"
	"unicode"
)

// Slug derives a filesystem-safe name from a section heading, used by
// multi-file formats to name per-section files.
func Slug(heading string) string {
	var sb strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(heading)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			lastDash = false
		case !lastDash:
			sb.WriteRune('-')
			lastDash = true
		}
	}
	return strings.Trim(sb.String(), "-")
}
