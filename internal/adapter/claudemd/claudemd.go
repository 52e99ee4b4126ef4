// Package claudemd implements the adapter contract for CLAUDE.md.
// The format is the same markdown family as AGENTS.md; Claude-specific
// vendor notes are rendered as blockquotes under their section.
package claudemd

import (
	"strings"

	"github.com/rulealign/rulealign/internal/adapter"
	"github.com/rulealign/rulealign/internal/model"
)

// TargetName is the registry key for this adapter.
const TargetName = "claudemd"

// vendorKey is the agent name under which Claude metadata lives in a
// section's vendor map.
const vendorKey = "claude-code"

// Adapter renders and parses CLAUDE.md files.
type Adapter struct{}

// New creates the CLAUDE.md adapter.
func New() *Adapter {
	return &Adapter{}
}

// Name implements adapter.Adapter.
func (a *Adapter) Name() string {
	return TargetName
}

// MultiFile implements adapter.Adapter.
func (a *Adapter) MultiFile() bool {
	return false
}

// Parse splits a CLAUDE.md file into heading-delimited sections.
func (a *Adapter) Parse(content string) (adapter.ParseResult, error) {
	return adapter.ParseResult{
		Sections: adapter.SplitMarkdownSections(content),
	}, nil
}

// Render produces the combined CLAUDE.md content. A section carrying a
// vendor note for claude-code gets the note appended as a blockquote.
func (a *Adapter) Render(sections []model.Section, opts adapter.RenderOptions) string {
	expanded := make([]model.Section, len(sections))
	for i, s := range sections {
		expanded[i] = s
		if note := vendorNote(&s); note != "" {
			content := adapter.NormalizeContent(s.Content)
			if content != "" {
				content += "\n\n"
			}
			expanded[i].Content = content + "> " + strings.ReplaceAll(note, "\n", "\n> ")
		}
	}
	return adapter.RenderMarkdownSections(expanded, opts)
}

// vendorNote returns the claude-code note for a section, if present.
func vendorNote(s *model.Section) string {
	bag, ok := s.Vendor[vendorKey]
	if !ok {
		return ""
	}
	note, ok := bag["note"].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(note)
}
