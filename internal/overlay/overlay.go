package overlay

import (
	"fmt"
	"strings"

	"github.com/rulealign/rulealign/internal/logging"
	"github.com/rulealign/rulealign/internal/model"
)

// Operation is one validated patch step compiled from an overlay's
// set/remove declarations.
type Operation interface {
	// Apply mutates the target section.
	Apply(s *model.Section) error
	// Describe names the operation for diagnostics.
	Describe() string
}

// SetOperation merges one key into the target (shallow overwrite).
type SetOperation struct {
	Key   string
	Value any
}

// Apply implements Operation.
func (op SetOperation) Apply(s *model.Section) error {
	switch op.Key {
	case "heading":
		v, ok := op.Value.(string)
		if !ok {
			return fmt.Errorf("set heading: value must be a string")
		}
		s.Heading = v
	case "content":
		v, ok := op.Value.(string)
		if !ok {
			return fmt.Errorf("set content: value must be a string")
		}
		s.Content = v
	case "level":
		v, ok := toInt(op.Value)
		if !ok || v < 1 {
			return fmt.Errorf("set level: value must be a positive integer")
		}
		s.Level = v
	case "fingerprint":
		v, ok := op.Value.(string)
		if !ok {
			return fmt.Errorf("set fingerprint: value must be a string")
		}
		s.Fingerprint = v
	default:
		agent, key, ok := splitVendorKey(op.Key)
		if !ok {
			return fmt.Errorf("set %q: unknown field (use heading, content, level, fingerprint or vendor.<agent>.<key>)", op.Key)
		}
		if s.Vendor == nil {
			s.Vendor = make(map[string]map[string]any)
		}
		if s.Vendor[agent] == nil {
			s.Vendor[agent] = make(map[string]any)
		}
		s.Vendor[agent][key] = op.Value
	}
	return nil
}

// Describe implements Operation.
func (op SetOperation) Describe() string {
	return "set " + op.Key
}

// RemoveOperation deletes one key from the target.
type RemoveOperation struct {
	Key string
}

// Apply implements Operation.
func (op RemoveOperation) Apply(s *model.Section) error {
	switch op.Key {
	case "fingerprint":
		s.Fingerprint = ""
	case "heading", "content", "level":
		return fmt.Errorf("remove %q: required section field cannot be removed", op.Key)
	default:
		agent, key, ok := splitVendorKey(op.Key)
		if !ok {
			return fmt.Errorf("remove %q: unknown field", op.Key)
		}
		if bag, exists := s.Vendor[agent]; exists {
			delete(bag, key)
			if len(bag) == 0 {
				delete(s.Vendor, agent)
			}
		}
	}
	return nil
}

// Describe implements Operation.
func (op RemoveOperation) Describe() string {
	return "remove " + op.Key
}

// ApplyResult reports the outcome of applying a list of overlays.
type ApplyResult struct {
	// Document is the patched copy; the input document is not mutated.
	Document *model.Document

	// Applied counts overlays whose selector matched.
	Applied int

	// Errors collects selector failures and invalid operations. These are
	// partial failures: remaining overlays were still applied.
	Errors []error
}

// Success returns true when every overlay applied cleanly.
func (r *ApplyResult) Success() bool {
	return len(r.Errors) == 0
}

// Apply applies overlays to a clone of the document, in list order. An
// overlay whose selector matches nothing is skipped and counted as a
// failure without aborting the rest.
func Apply(doc *model.Document, overlays []model.Overlay) ApplyResult {
	defer logging.Timer("overlay_apply")()

	result := ApplyResult{Document: doc.Clone()}

	for _, o := range overlays {
		res := EvaluateSelector(o.Selector, result.Document)
		if !res.Success {
			result.Errors = append(result.Errors, &SelectorError{
				Selector: o.Selector,
				Reason:   res.Reason,
			})
			continue
		}
		// A matched selector counts as applied even when some of its
		// operations fail; the failures stay visible in Errors.
		result.Applied++

		ops, err := compile(&o)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("overlay %q: %w", o.Selector, err))
			continue
		}

		target := &result.Document.Sections[res.SectionIndex]
		for _, op := range ops {
			if err := op.Apply(target); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("overlay %q: %s: %w", o.Selector, op.Describe(), err))
			}
		}
	}

	logging.Debug("overlays applied",
		logging.Operation("overlay_apply"),
		logging.Count(result.Applied),
		logging.Err(joinErrs(result.Errors)),
	)

	return result
}

// compile turns an overlay's declarative set/remove maps into tagged
// operations so shape errors surface before any mutation.
func compile(o *model.Overlay) ([]Operation, error) {
	if !o.HasOperations() {
		return nil, fmt.Errorf("overlay carries neither set nor remove")
	}

	ops := make([]Operation, 0, len(o.Set)+len(o.Remove))
	for _, key := range sortedKeys(o.Set) {
		ops = append(ops, SetOperation{Key: key, Value: o.Set[key]})
	}
	for _, key := range o.Remove {
		ops = append(ops, RemoveOperation{Key: key})
	}
	return ops, nil
}

// splitVendorKey parses "vendor.<agent>.<key>" dotted paths.
func splitVendorKey(key string) (agent, field string, ok bool) {
	parts := strings.SplitN(key, ".", 3)
	if len(parts) != 3 || parts[0] != "vendor" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// toInt accepts the integer types YAML decoding produces.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// sortedKeys returns map keys in sorted order for deterministic application.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 0; i < len(keys)-1; i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	return keys
}

// joinErrs returns nil for an empty slice so logging.Err stays quiet.
func joinErrs(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%d overlay error(s)", len(errs))
}
