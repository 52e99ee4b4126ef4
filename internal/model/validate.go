package model

import (
	"fmt"
	"slices"
)

// ValidationResult collects every schema violation found in one pass, so a
// single bad section never hides its siblings.
type ValidationResult struct {
	Errors   []error
	Warnings []string
}

// Valid returns true when no errors were recorded.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// AddError records a schema violation.
func (r *ValidationResult) AddError(field, message string) {
	r.Errors = append(r.Errors, &SchemaValidationError{Field: field, Message: message})
}

// AddWarning records a non-fatal issue.
func (r *ValidationResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Validate checks the document against the schema invariants for the given
// mode. All violations are collected and returned together.
func (d *Document) Validate(mode Mode) *ValidationResult {
	result := &ValidationResult{}

	if d.ID == "" {
		result.AddError("id", "must be present")
	}
	if d.Version == "" {
		result.AddError("version", "must be present")
	}
	if d.SpecVersion == "" {
		result.AddError("spec_version", "must be present")
	} else if !slices.Contains(SpecVersions, d.SpecVersion) {
		result.AddError("spec_version", fmt.Sprintf("unknown value %q (known: %v)", d.SpecVersion, SpecVersions))
	}

	if mode == ModeTeam || mode == ModeCatalog {
		if d.Summary == "" {
			result.AddError("summary", fmt.Sprintf("required in %s mode", mode))
		}
		if d.Source != "" {
			if d.Owner == "" {
				result.AddError("owner", "required when source is set")
			}
			if d.SourceSHA == "" {
				result.AddError("source_sha", "required when source is set")
			}
		}
	}

	seen := make(map[string]int)
	for i := range d.Sections {
		s := &d.Sections[i]
		field := fmt.Sprintf("sections[%d]", i)

		if s.Heading == "" {
			result.AddError(field+".heading", "must not be empty")
		}
		if s.Level < 1 {
			result.AddError(field+".level", fmt.Sprintf("heading depth must be >= 1, got %d", s.Level))
		}

		fp := s.EffectiveFingerprint(i)
		if prev, dup := seen[fp]; dup {
			result.AddError(field+".fingerprint",
				fmt.Sprintf("fingerprint %q duplicates sections[%d]", fp, prev))
		}
		seen[fp] = i
	}

	for i := range d.Overlays {
		o := &d.Overlays[i]
		field := fmt.Sprintf("overlays[%d]", i)
		if o.Selector == "" {
			result.AddError(field+".selector", "must be present")
		}
		if !o.HasOperations() {
			result.AddError(field, "must carry at least one of set/remove")
		}
	}

	return result
}
