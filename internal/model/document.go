// Package model defines the canonical rule document (IR) shared by every
// format adapter and the sync engine.
package model

import (
	"strconv"
	"strings"
)

// SpecVersions lists the document spec versions this build understands.
var SpecVersions = []string{"1", "1.0", "1.1"}

// Mode identifies how a project consumes the canonical document.
type Mode string

const (
	// ModeSolo is a single-user project with no trust gating.
	ModeSolo Mode = "solo"

	// ModeTeam is a shared ruleset gated by the allow-list before writes.
	ModeTeam Mode = "team"

	// ModeCatalog is a published ruleset consumed by other projects.
	ModeCatalog Mode = "catalog"
)

// IsValid returns true if the mode is recognized.
func (m Mode) IsValid() bool {
	switch m {
	case ModeSolo, ModeTeam, ModeCatalog:
		return true
	default:
		return false
	}
}

// AllModes returns all supported modes.
func AllModes() []Mode {
	return []Mode{ModeSolo, ModeTeam, ModeCatalog}
}

// Integrity declares the content hash stored inside the document itself.
type Integrity struct {
	Algo  string `yaml:"algo" json:"algo"`
	Value string `yaml:"value" json:"value"`
}

// IntegrityPlaceholder is accepted in place of a real hash while a document
// is still being authored, before the first hash has been computed.
const IntegrityPlaceholder = "<computed>"

// Document is the canonical intermediate representation all native agent
// files are generated from and reconciled into.
type Document struct {
	ID          string `yaml:"id" json:"id"`
	Version     string `yaml:"version" json:"version"`
	SpecVersion string `yaml:"spec_version" json:"spec_version"`

	// Summary, Owner, Source and SourceSHA are optional in solo mode and
	// required together in team/catalog modes.
	Summary   string `yaml:"summary,omitempty" json:"summary,omitempty"`
	Owner     string `yaml:"owner,omitempty" json:"owner,omitempty"`
	Source    string `yaml:"source,omitempty" json:"source,omitempty"`
	SourceSHA string `yaml:"source_sha,omitempty" json:"source_sha,omitempty"`

	Sections []Section `yaml:"sections" json:"sections"`

	Integrity *Integrity `yaml:"integrity,omitempty" json:"integrity,omitempty"`
	Overlays  []Overlay  `yaml:"overlays,omitempty" json:"overlays,omitempty"`
	Plugs     *Plugs     `yaml:"plugs,omitempty" json:"plugs,omitempty"`
}

// Section is one addressable unit of guidance content.
type Section struct {
	Heading string `yaml:"heading" json:"heading"`
	Level   int    `yaml:"level" json:"level"`
	Content string `yaml:"content" json:"content"`

	// Fingerprint is the stable identity key used to match this section
	// across parses. When empty it is derived from heading and position.
	Fingerprint string `yaml:"fingerprint,omitempty" json:"fingerprint,omitempty"`

	// Vendor carries per-agent metadata bags keyed by agent name. The
	// reserved "_meta" key may carry a "volatile" list of dotted paths
	// excluded from content hashing.
	Vendor map[string]map[string]any `yaml:"vendor,omitempty" json:"vendor,omitempty"`

	// SourceFile records where this section was extracted from, if anywhere.
	SourceFile string `yaml:"source_file,omitempty" json:"source_file,omitempty"`
}

// Plugs declares extension slots and the fills bound to them.
type Plugs struct {
	Slots []string          `yaml:"slots,omitempty" json:"slots,omitempty"`
	Fills map[string]string `yaml:"fills,omitempty" json:"fills,omitempty"`
}

// VolatilePaths returns the dotted vendor paths excluded from hashing,
// read from the section's reserved vendor._meta.volatile list.
func (s *Section) VolatilePaths() []string {
	meta, ok := s.Vendor["_meta"]
	if !ok {
		return nil
	}
	raw, ok := meta["volatile"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		paths := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				paths = append(paths, str)
			}
		}
		return paths
	default:
		return nil
	}
}

// EffectiveFingerprint returns the section's identity key: the explicit
// fingerprint when set, otherwise the normalized heading with the section's
// position appended for disambiguation.
func (s *Section) EffectiveFingerprint(position int) string {
	if s.Fingerprint != "" {
		return s.Fingerprint
	}
	return NormalizeHeading(s.Heading) + "@" + strconv.Itoa(position)
}

// NormalizeHeading lowercases a heading and trims surrounding whitespace,
// producing the fallback matching key used by the merge engine.
func NormalizeHeading(heading string) string {
	return strings.ToLower(strings.TrimSpace(heading))
}

// SectionByFingerprint returns the section with the given explicit
// fingerprint, or nil if none matches.
func (d *Document) SectionByFingerprint(fp string) *Section {
	for i := range d.Sections {
		if d.Sections[i].Fingerprint == fp {
			return &d.Sections[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the document. The overlay engine mutates a
// clone so the loaded document stays read-only for the rest of a sync pass.
func (d *Document) Clone() *Document {
	out := *d
	if d.Integrity != nil {
		integrity := *d.Integrity
		out.Integrity = &integrity
	}
	out.Sections = make([]Section, len(d.Sections))
	for i, s := range d.Sections {
		out.Sections[i] = s.Clone()
	}
	out.Overlays = make([]Overlay, len(d.Overlays))
	for i, o := range d.Overlays {
		out.Overlays[i] = o.Clone()
	}
	if d.Plugs != nil {
		plugs := Plugs{
			Slots: append([]string(nil), d.Plugs.Slots...),
			Fills: make(map[string]string, len(d.Plugs.Fills)),
		}
		for k, v := range d.Plugs.Fills {
			plugs.Fills[k] = v
		}
		out.Plugs = &plugs
	}
	return &out
}

// Clone returns a deep copy of the section.
func (s Section) Clone() Section {
	out := s
	if s.Vendor != nil {
		out.Vendor = make(map[string]map[string]any, len(s.Vendor))
		for agent, bag := range s.Vendor {
			out.Vendor[agent] = CloneBag(bag)
		}
	}
	return out
}

// CloneBag deep-copies a vendor bag, following nested maps and lists, so a
// caller can prune its copy without touching the loaded document.
func CloneBag(bag map[string]any) map[string]any {
	out := make(map[string]any, len(bag))
	for k, v := range bag {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneBag(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
