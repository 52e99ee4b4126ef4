// Package agentsmd implements the adapter contract for AGENTS.md, the
// single-file markdown convention shared by several coding agents.
package agentsmd

import (
	"github.com/rulealign/rulealign/internal/adapter"
	"github.com/rulealign/rulealign/internal/model"
)

// TargetName is the registry key for this adapter.
const TargetName = "agentsmd"

// Adapter renders and parses AGENTS.md files.
type Adapter struct{}

// New creates the AGENTS.md adapter.
func New() *Adapter {
	return &Adapter{}
}

// Name implements adapter.Adapter.
func (a *Adapter) Name() string {
	return TargetName
}

// MultiFile implements adapter.Adapter. AGENTS.md is one combined file.
func (a *Adapter) MultiFile() bool {
	return false
}

// Parse splits an AGENTS.md file into heading-delimited sections.
func (a *Adapter) Parse(content string) (adapter.ParseResult, error) {
	return adapter.ParseResult{
		Sections: adapter.SplitMarkdownSections(content),
	}, nil
}

// Render produces the combined AGENTS.md content.
func (a *Adapter) Render(sections []model.Section, opts adapter.RenderOptions) string {
	return adapter.RenderMarkdownSections(sections, opts)
}
