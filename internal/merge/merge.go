// Package merge reconciles canonical document sections against sections
// parsed from an existing native file.
package merge

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/rulealign/rulealign/internal/adapter"
	"github.com/rulealign/rulealign/internal/logging"
	"github.com/rulealign/rulealign/internal/model"
)

// Classification labels the origin of a merged section.
type Classification string

const (
	// ClassKept means the section matched and content was identical; the
	// existing content is retained verbatim.
	ClassKept Classification = "kept"

	// ClassUpdated means the section matched but content differed; the
	// canonical content won.
	ClassUpdated Classification = "updated"

	// ClassAdded means the section had no match in the existing file.
	ClassAdded Classification = "added"

	// ClassUserAdded means the section exists only in the native file and
	// is preserved after all canonical sections.
	ClassUserAdded Classification = "user-added"
)

// Stats counts merge outcomes for reporting.
type Stats struct {
	Kept      int
	Updated   int
	Added     int
	UserAdded int
}

// MergedSection pairs a section with how the merge classified it.
type MergedSection struct {
	Section        model.Section
	Classification Classification
}

// Result is the outcome of one merge pass.
type Result struct {
	// Sections holds canonical sections in document order followed by
	// user-added sections in their original relative order.
	Sections []MergedSection

	Stats    Stats
	Warnings []string
}

// OutputSections returns just the section values, in merged order.
func (r *Result) OutputSections() []model.Section {
	out := make([]model.Section, len(r.Sections))
	for i, ms := range r.Sections {
		out[i] = ms.Section
	}
	return out
}

// SummaryLines returns the human-readable notes the CLI prints after a sync.
func (r *Result) SummaryLines() []string {
	var lines []string
	if r.Stats.Updated > 0 {
		lines = append(lines, fmt.Sprintf("Updated %d section(s) from the rule document", r.Stats.Updated))
	}
	if r.Stats.UserAdded > 0 {
		lines = append(lines, fmt.Sprintf("Preserved %d personal section(s)", r.Stats.UserAdded))
	}
	return lines
}

// Engine matches and merges sections. It holds no cross-merge state; the
// same inputs always produce the same output.
type Engine struct{}

// NewEngine creates a merge engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Merge reconciles canonical sections with the sections parsed from an
// existing native file. managedHeadings lists headings whose existing
// content is locally owned: a matched managed section keeps its existing
// content even when the canonical content differs, and a warning is
// recorded. Output ordering is deterministic: canonical order first, then
// user-added sections in original file order, so repeated merges of
// unchanged input are byte-identical.
func (e *Engine) Merge(irSections []model.Section, existing []adapter.ParsedSection, managedHeadings []string) Result {
	logging.Debug("starting section merge",
		logging.Operation("merge"),
		slog.Int("ir_sections", len(irSections)),
		slog.Int("existing_sections", len(existing)),
	)

	result := Result{}
	managed := make(map[string]bool, len(managedHeadings))
	for _, h := range managedHeadings {
		managed[model.NormalizeHeading(h)] = true
	}

	consumed := make([]bool, len(existing))

	for _, ir := range irSections {
		idx := e.findMatch(&ir, existing, consumed)
		if idx == -1 {
			result.Sections = append(result.Sections, MergedSection{
				Section:        ir,
				Classification: ClassAdded,
			})
			result.Stats.Added++
			continue
		}
		consumed[idx] = true
		match := existing[idx]

		if contentEqual(ir.Content, match.Content) {
			merged := ir
			merged.Content = match.Content
			result.Sections = append(result.Sections, MergedSection{
				Section:        merged,
				Classification: ClassKept,
			})
			result.Stats.Kept++
			continue
		}

		if managed[model.NormalizeHeading(match.Heading)] {
			// Locally-owned section: the existing content wins, once,
			// here. The canonical update is reported, not applied.
			merged := ir
			merged.Content = match.Content
			result.Sections = append(result.Sections, MergedSection{
				Section:        merged,
				Classification: ClassKept,
			})
			result.Stats.Kept++
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"section %q is locally owned; kept existing content over a changed upstream version", match.Heading))
			continue
		}

		result.Sections = append(result.Sections, MergedSection{
			Section:        ir,
			Classification: ClassUpdated,
		})
		result.Stats.Updated++
	}

	for i, ex := range existing {
		if consumed[i] {
			continue
		}
		result.Sections = append(result.Sections, MergedSection{
			Section: model.Section{
				Heading:     ex.Heading,
				Level:       ex.Level,
				Content:     ex.Content,
				Fingerprint: ex.Fingerprint,
				SourceFile:  ex.SourceFile,
			},
			Classification: ClassUserAdded,
		})
		result.Stats.UserAdded++
	}

	logging.Debug("section merge completed",
		logging.Operation("merge"),
		slog.Int("kept", result.Stats.Kept),
		slog.Int("updated", result.Stats.Updated),
		slog.Int("added", result.Stats.Added),
		slog.Int("user_added", result.Stats.UserAdded),
	)

	return result
}

// findMatch locates the existing section matching an IR section: by
// explicit fingerprint when both sides carry one, otherwise by normalized
// heading. Returns -1 when nothing matches.
func (e *Engine) findMatch(ir *model.Section, existing []adapter.ParsedSection, consumed []bool) int {
	if ir.Fingerprint != "" {
		for i, ex := range existing {
			if !consumed[i] && ex.Fingerprint != "" && ex.Fingerprint == ir.Fingerprint {
				return i
			}
		}
	}

	want := model.NormalizeHeading(ir.Heading)
	for i, ex := range existing {
		if !consumed[i] && model.NormalizeHeading(ex.Heading) == want {
			return i
		}
	}
	return -1
}

// contentEqual compares section bodies modulo whitespace normalization.
func contentEqual(a, b string) bool {
	return normalize(a) == normalize(b)
}

// normalize collapses line-ending and trailing-whitespace differences.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
