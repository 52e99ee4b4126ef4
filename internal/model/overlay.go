package model

// Overlay is a declarative, selector-addressed patch applied to the
// document before export. At least one of Set/Remove must be present.
type Overlay struct {
	// Selector identifies the target, e.g. "sections[2]" or "rule[id=t1]".
	Selector string `yaml:"selector" json:"selector"`

	// Set merges the given keys into the target (shallow overwrite).
	Set map[string]any `yaml:"set,omitempty" json:"set,omitempty"`

	// Remove deletes the named keys from the target.
	Remove []string `yaml:"remove,omitempty" json:"remove,omitempty"`
}

// HasOperations returns true if the overlay carries at least one operation.
func (o *Overlay) HasOperations() bool {
	return len(o.Set) > 0 || len(o.Remove) > 0
}

// Clone returns a deep copy of the overlay.
func (o Overlay) Clone() Overlay {
	out := o
	if o.Set != nil {
		out.Set = make(map[string]any, len(o.Set))
		for k, v := range o.Set {
			out.Set[k] = v
		}
	}
	out.Remove = append([]string(nil), o.Remove...)
	return out
}
