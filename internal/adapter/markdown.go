package adapter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rulealign/rulealign/internal/model"
)

// Identity markers let a later parse match sections exactly even after the
// user rewords a heading.
const (
	fingerprintMarkerPrefix = "<!-- rulealign:id="
	fingerprintMarkerSuffix = " -->"
)

var (
	headingRe     = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)
	fingerprintRe = regexp.MustCompile(`^<!-- rulealign:id=([A-Za-z0-9._:/-]+) -->$`)
)

// SplitMarkdownSections parses markdown into heading-delimited sections.
// Headings inside fenced code blocks are not section boundaries. Content
// before the first heading is ignored (it belongs to the file banner).
func SplitMarkdownSections(content string) []ParsedSection {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var sections []ParsedSection
	var current *ParsedSection
	var body []string
	inFence := false

	flush := func() {
		if current == nil {
			return
		}
		current.Content = NormalizeContent(strings.Join(body, "\n"))
		sections = append(sections, *current)
		current = nil
		body = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
		}

		if !inFence {
			if m := headingRe.FindStringSubmatch(line); m != nil {
				flush()
				current = &ParsedSection{
					Level:   len(m[1]),
					Heading: m[2],
				}
				continue
			}
			if current != nil && len(body) == 0 {
				if m := fingerprintRe.FindStringSubmatch(trimmed); m != nil {
					current.Fingerprint = m[1]
					continue
				}
			}
		}

		if current != nil {
			body = append(body, line)
		}
	}
	flush()

	return sections
}

// RenderMarkdownSections produces a combined markdown file from sections.
func RenderMarkdownSections(sections []model.Section, opts RenderOptions) string {
	var sb strings.Builder

	if opts.Banner != "" {
		sb.WriteString("<!-- " + opts.Banner + " -->\n\n")
	}

	for i, s := range sections {
		level := s.Level
		if level < 1 {
			level = 2
		}
		if level > 6 {
			level = 6
		}

		sb.WriteString(strings.Repeat("#", level))
		sb.WriteString(" ")
		sb.WriteString(strings.TrimSpace(s.Heading))
		sb.WriteString("\n")

		if opts.IncludeFingerprints && s.Fingerprint != "" {
			sb.WriteString(FingerprintMarker(s.Fingerprint) + "\n")
		}

		sb.WriteString("\n")
		content := NormalizeContent(s.Content)
		if content != "" {
			sb.WriteString(content)
			sb.WriteString("\n")
		}
		if i < len(sections)-1 {
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// FingerprintMarker renders the identity comment for a fingerprint.
func FingerprintMarker(fp string) string {
	return fmt.Sprintf("%s%s%s", fingerprintMarkerPrefix, fp, fingerprintMarkerSuffix)
}

// NormalizeContent trims excessive whitespace from content.
func NormalizeContent(content string) string {
	trimmed := strings.TrimSpace(content)
	return strings.ReplaceAll(trimmed, "\r\n", "\n")
}
