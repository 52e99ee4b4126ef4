// Package overlay applies declarative, selector-addressed patches to the
// canonical document before export.
package overlay

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/rulealign/rulealign/internal/model"
)

// SelectorError reports an overlay selector that matched nothing. It is a
// partial failure: remaining overlays still apply.
type SelectorError struct {
	Selector string
	Reason   string
}

// Error returns a formatted selector failure message.
func (e *SelectorError) Error() string {
	return fmt.Sprintf("selector %q matched nothing: %s", e.Selector, e.Reason)
}

// Resolution is the outcome of evaluating a selector against a document.
type Resolution struct {
	// Success is true when the selector resolves to a live target.
	Success bool
	// SectionIndex is the matched section's index, or -1.
	SectionIndex int
	// Reason explains a failed resolution.
	Reason string
}

var (
	positionalRe = regexp.MustCompile(`^sections\[(\d+)\]$`)
	ruleIDRe     = regexp.MustCompile(`^rule\[id=([^\]]+)\]$`)
)

// EvaluateSelector resolves a selector expression against the document.
// Supported grammar: "sections[<index>]" (positional) and "rule[id=<value>]"
// (fingerprint-keyed). Evaluation is read-only.
func EvaluateSelector(selector string, doc *model.Document) Resolution {
	if m := positionalRe.FindStringSubmatch(selector); m != nil {
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx < 0 || idx >= len(doc.Sections) {
			return Resolution{
				SectionIndex: -1,
				Reason:       fmt.Sprintf("index out of range (document has %d sections)", len(doc.Sections)),
			}
		}
		return Resolution{Success: true, SectionIndex: idx}
	}

	if m := ruleIDRe.FindStringSubmatch(selector); m != nil {
		id := m[1]
		for i := range doc.Sections {
			if doc.Sections[i].Fingerprint == id {
				return Resolution{Success: true, SectionIndex: i}
			}
		}
		return Resolution{
			SectionIndex: -1,
			Reason:       fmt.Sprintf("no section with fingerprint %q", id),
		}
	}

	return Resolution{
		SectionIndex: -1,
		Reason:       "unrecognized selector grammar (expected sections[N] or rule[id=...])",
	}
}

// Health is the read-only diagnostic for one configured overlay.
type Health struct {
	Selector string
	Healthy  bool
	Reason   string
}

// CheckHealth evaluates each overlay's selector against the live document.
// A selector that resolves is healthy; one that does not is stale (for
// example, the referenced section was removed upstream). Nothing is
// repaired here.
func CheckHealth(doc *model.Document, overlays []model.Overlay) []Health {
	out := make([]Health, 0, len(overlays))
	for _, o := range overlays {
		res := EvaluateSelector(o.Selector, doc)
		out = append(out, Health{
			Selector: o.Selector,
			Healthy:  res.Success,
			Reason:   res.Reason,
		})
	}
	return out
}
