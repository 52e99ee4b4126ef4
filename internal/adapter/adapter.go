// Package adapter defines the contract every native-format plugin
// implements, plus the shared parsing helpers the concrete adapters build on.
package adapter

import (
	"fmt"
	"sort"

	"github.com/rulealign/rulealign/internal/model"
)

// ParsedSection is one section recovered from a native file. It carries the
// minimum the merge engine needs to match it against the canonical document.
type ParsedSection struct {
	Heading string
	Level   int
	Content string

	// Fingerprint is the explicit identity hash when the format encodes
	// one; empty means match by normalized heading.
	Fingerprint string

	// SourceFile records which file the section came from, relevant for
	// multi-file formats.
	SourceFile string
}

// ParseResult is the outcome of parsing one native file.
type ParseResult struct {
	Sections []ParsedSection
}

// RenderOptions tunes rendering without changing section semantics.
type RenderOptions struct {
	// Banner is an optional generated-file notice placed at the top of
	// single-file output.
	Banner string
	// IncludeFingerprints embeds identity markers so a later parse can
	// match sections exactly. Formats that cannot carry them ignore this.
	IncludeFingerprints bool
}

// Adapter is the two-function contract per native format. New formats are
// added by registering a new implementation, never by extending shared base
// behavior.
type Adapter interface {
	// Name returns the target name this adapter is registered under.
	Name() string

	// Parse recovers sections from existing native-file content.
	Parse(content string) (ParseResult, error)

	// Render produces native-file content from merged sections.
	Render(sections []model.Section, opts RenderOptions) string

	// MultiFile reports whether the format is one file per section
	// (a rules directory) rather than a single combined file.
	MultiFile() bool
}

// FileNamer is implemented by multi-file adapters to name the per-section
// file a section renders into.
type FileNamer interface {
	FileName(s *model.Section) string
}

// Registry maps target names to adapters. The orchestrator looks adapters
// up here; registration happens at process start.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter under its name, replacing any previous one.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Name()] = a
}

// Lookup returns the adapter registered for the target name.
func (r *Registry) Lookup(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for target %q", name)
	}
	return a, nil
}

// Names returns the registered target names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
