// Package hashing computes the deterministic content hash of a canonical
// rule document and verifies declared integrity values.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/rulealign/rulealign/internal/model"
)

// Algo is the only digest algorithm this engine produces.
const Algo = "sha256"

// ComputeContentHash returns the hex-encoded sha256 digest over the
// canonical serialization of the document: object keys sorted, whitespace
// normalized, volatile vendor fields excluded, and the integrity block
// neutralized. Two documents differing only in field order or in volatile
// vendor fields hash identically.
func ComputeContentHash(doc *model.Document) string {
	canonical := canonicalize(doc)

	// encoding/json emits map keys in sorted order, which gives the
	// canonical byte stream for free.
	data, err := json.Marshal(canonical)
	if err != nil {
		// The canonical form is built from plain maps, slices and
		// scalars; marshaling cannot fail for well-formed documents.
		return ""
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Prefixed returns the hash in the "sha256:<hex>" form used by allow-list
// entries and lockfiles.
func Prefixed(hash string) string {
	if strings.HasPrefix(hash, Algo+":") {
		return hash
	}
	return Algo + ":" + hash
}

// Unprefixed strips a leading "sha256:" if present.
func Unprefixed(hash string) string {
	return strings.TrimPrefix(hash, Algo+":")
}

// canonicalize reduces the document to plain maps and slices carrying only
// hash-relevant fields.
func canonicalize(doc *model.Document) map[string]any {
	out := map[string]any{
		"id":           doc.ID,
		"version":      doc.Version,
		"spec_version": doc.SpecVersion,
	}
	if doc.Summary != "" {
		out["summary"] = normalizeText(doc.Summary)
	}
	if doc.Owner != "" {
		out["owner"] = doc.Owner
	}
	if doc.Source != "" {
		out["source"] = doc.Source
	}
	if doc.SourceSHA != "" {
		out["source_sha"] = doc.SourceSHA
	}

	sections := make([]any, 0, len(doc.Sections))
	for i := range doc.Sections {
		sections = append(sections, canonicalizeSection(&doc.Sections[i]))
	}
	out["sections"] = sections

	if len(doc.Overlays) > 0 {
		overlays := make([]any, 0, len(doc.Overlays))
		for _, o := range doc.Overlays {
			entry := map[string]any{"selector": o.Selector}
			if len(o.Set) > 0 {
				entry["set"] = o.Set
			}
			if len(o.Remove) > 0 {
				entry["remove"] = sortedCopy(o.Remove)
			}
			overlays = append(overlays, entry)
		}
		out["overlays"] = overlays
	}

	if doc.Plugs != nil {
		plugs := map[string]any{}
		if len(doc.Plugs.Slots) > 0 {
			plugs["slots"] = sortedCopy(doc.Plugs.Slots)
		}
		if len(doc.Plugs.Fills) > 0 {
			plugs["fills"] = doc.Plugs.Fills
		}
		out["plugs"] = plugs
	}

	return out
}

// canonicalizeSection normalizes one section and strips its volatile
// vendor paths before hashing.
func canonicalizeSection(s *model.Section) map[string]any {
	out := map[string]any{
		"heading": strings.TrimSpace(s.Heading),
		"level":   s.Level,
		"content": normalizeText(s.Content),
	}
	if s.Fingerprint != "" {
		out["fingerprint"] = s.Fingerprint
	}

	if len(s.Vendor) > 0 {
		vendor := make(map[string]any, len(s.Vendor))
		for agent, bag := range s.Vendor {
			if agent == "_meta" {
				// Reserved metadata (the volatile declaration itself) never
				// contributes to the content hash.
				continue
			}
			// Volatile pruning must work on a deep copy; the loaded document
			// is read-only for the rest of the pass and still feeds the
			// adapter renders.
			vendor[agent] = model.CloneBag(bag)
		}
		for _, path := range s.VolatilePaths() {
			removeDottedPath(vendor, strings.Split(path, "."))
		}
		vendor = pruneEmpty(vendor)
		if len(vendor) > 0 {
			out["vendor"] = vendor
		}
	}

	return out
}

// removeDottedPath deletes the value addressed by parts from nested maps.
func removeDottedPath(node map[string]any, parts []string) {
	if len(parts) == 0 {
		return
	}
	if len(parts) == 1 {
		delete(node, parts[0])
		return
	}
	child, ok := node[parts[0]]
	if !ok {
		return
	}
	childMap, ok := child.(map[string]any)
	if !ok {
		return
	}
	removeDottedPath(childMap, parts[1:])
	if len(childMap) == 0 {
		delete(node, parts[0])
	}
}

// pruneEmpty drops vendor bags that became empty after volatile removal.
func pruneEmpty(vendor map[string]any) map[string]any {
	for agent, bag := range vendor {
		if m, ok := bag.(map[string]any); ok && len(m) == 0 {
			delete(vendor, agent)
		}
	}
	return vendor
}

// normalizeText normalizes line endings, trims trailing whitespace on each
// line and surrounding blank lines, so cosmetic edits do not change the hash.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// sortedCopy returns a sorted copy of the slice.
func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	for i := 0; i < len(out)-1; i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j] < out[i] {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}
