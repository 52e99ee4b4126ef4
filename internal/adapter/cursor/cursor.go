// Package cursor implements the adapter contract for Cursor .mdc rule
// files: one file per section under .cursor/rules, with YAML frontmatter
// carrying the section identity and Cursor-specific keys.
package cursor

import (
	"fmt"
	"strings"

	"github.com/rulealign/rulealign/internal/adapter"
	"github.com/rulealign/rulealign/internal/model"
)

// TargetName is the registry key for this adapter.
const TargetName = "cursor"

// vendorKey is the agent name under which Cursor metadata (globs,
// alwaysApply, description) lives in a section's vendor map.
const vendorKey = "cursor"

// Frontmatter keys written by Render and read back by Parse.
const (
	keyHeading     = "heading"
	keyLevel       = "level"
	keyFingerprint = "rulealign_id"
)

// Adapter renders and parses Cursor .mdc rule files.
type Adapter struct{}

// New creates the Cursor adapter.
func New() *Adapter {
	return &Adapter{}
}

// Name implements adapter.Adapter.
func (a *Adapter) Name() string {
	return TargetName
}

// MultiFile implements adapter.Adapter. Cursor rules are one file per
// section in a rules directory.
func (a *Adapter) MultiFile() bool {
	return true
}

// Parse decodes one .mdc file into a single section. Files written by other
// tools may omit the identity frontmatter; the heading then falls back to
// the first markdown heading in the body, or stays empty for the merge
// engine to treat as unmatched.
func (a *Adapter) Parse(content string) (adapter.ParseResult, error) {
	split := adapter.SplitFrontmatter([]byte(content))

	section := adapter.ParsedSection{
		Level:   2,
		Content: adapter.NormalizeContent(split.Content),
	}

	if split.HasFrontmatter {
		fm, err := adapter.DecodeFrontmatter(split)
		if err != nil {
			return adapter.ParseResult{}, err
		}
		if v, ok := fm[keyHeading].(string); ok {
			section.Heading = v
		}
		if v, ok := fm[keyLevel].(int); ok {
			section.Level = v
		}
		if v, ok := fm[keyFingerprint].(string); ok {
			section.Fingerprint = v
		}
	}

	if section.Heading == "" {
		if heading, level, body := leadingHeading(section.Content); heading != "" {
			section.Heading = heading
			section.Level = level
			section.Content = body
		}
	}

	return adapter.ParseResult{Sections: []adapter.ParsedSection{section}}, nil
}

// Render produces one .mdc file. Multi-file adapters are called with a
// single section per output file.
func (a *Adapter) Render(sections []model.Section, opts adapter.RenderOptions) string {
	if len(sections) == 0 {
		return ""
	}
	s := sections[0]

	fields := map[string]any{
		keyHeading: strings.TrimSpace(s.Heading),
		keyLevel:   s.Level,
	}
	if opts.IncludeFingerprints && s.Fingerprint != "" {
		fields[keyFingerprint] = s.Fingerprint
	}
	for k, v := range s.Vendor[vendorKey] {
		fields[k] = v
	}

	frontmatter, err := adapter.EncodeYAMLFrontmatter(fields)
	if err != nil {
		// Frontmatter fields are plain scalars and slices; encoding
		// cannot fail for documents that passed schema validation.
		frontmatter = "---\n" + fmt.Sprintf("%s: %s\n", keyHeading, s.Heading) + "---\n"
	}

	var sb strings.Builder
	sb.WriteString(frontmatter)
	sb.WriteString("\n")
	content := adapter.NormalizeContent(s.Content)
	if content != "" {
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	return sb.String()
}

// FileName returns the per-section file name for a rules directory.
func FileName(s *model.Section) string {
	return adapter.Slug(s.Heading) + ".mdc"
}

// FileName implements adapter.FileNamer.
func (a *Adapter) FileName(s *model.Section) string {
	return FileName(s)
}

// leadingHeading extracts a markdown heading from the first line of a body.
func leadingHeading(content string) (heading string, level int, rest string) {
	lines := strings.SplitN(content, "\n", 2)
	first := strings.TrimSpace(lines[0])
	if !strings.HasPrefix(first, "#") {
		return "", 0, content
	}
	for level < len(first) && first[level] == '#' {
		level++
	}
	if level > 6 || level == len(first) || first[level] != ' ' {
		return "", 0, content
	}
	heading = strings.TrimSpace(first[level:])
	if len(lines) == 2 {
		rest = adapter.NormalizeContent(lines[1])
	}
	return heading, level, rest
}
