// Package trust gates team-mode syncs behind an allow-list of approved
// bundle hashes and records the approved state in a lockfile.
package trust

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rulealign/rulealign/internal/hashing"
)

// AllowEntry is one approved bundle hash in the allow-list file.
type AllowEntry struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

// AllowList is the set of approved bundle hashes for team mode.
type AllowList struct {
	Entries []AllowEntry
}

// AllowListViolationError reports a team-mode bundle hash that is not
// approved. It is fatal unless the caller forces the sync.
type AllowListViolationError struct {
	BundleHash string
}

// Error returns the violation message with its remediation hint.
func (e *AllowListViolationError) Error() string {
	return fmt.Sprintf("bundle hash %s is not in the allow-list; run 'rulealign approve %s' to approve it or re-run with --force",
		hashing.Prefixed(e.BundleHash), hashing.Prefixed(e.BundleHash))
}

// LoadAllowList reads the YAML allow-list file. A missing file is an empty
// list, not an error, so a fresh project can run check before any approval.
func LoadAllowList(path string) (*AllowList, error) {
	// #nosec G304 - path is the configured allow-list
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &AllowList{}, nil
		}
		return nil, fmt.Errorf("failed to read allow-list %q: %w", path, err)
	}

	var entries []AllowEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse allow-list %q: %w", path, err)
	}
	return &AllowList{Entries: entries}, nil
}

// Save writes the allow-list back as YAML.
func (l *AllowList) Save(path string) error {
	data, err := yaml.Marshal(l.Entries)
	if err != nil {
		return fmt.Errorf("failed to encode allow-list: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create allow-list directory: %w", err)
	}
	// #nosec G306 - allow-list is shared project configuration
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write allow-list %q: %w", path, err)
	}
	return nil
}

// Contains reports whether the bundle hash is approved. Hashes compare with
// or without the algorithm prefix.
func (l *AllowList) Contains(bundleHash string) bool {
	want := hashing.Unprefixed(bundleHash)
	for _, e := range l.Entries {
		if !strings.EqualFold(e.Type, "hash") && e.Type != "" {
			continue
		}
		if hashing.Unprefixed(e.Value) == want {
			return true
		}
	}
	return false
}

// Approve adds a bundle hash to the list. Adding an already-approved hash
// is a no-op.
func (l *AllowList) Approve(bundleHash string) bool {
	if l.Contains(bundleHash) {
		return false
	}
	l.Entries = append(l.Entries, AllowEntry{
		Type:  "hash",
		Value: hashing.Prefixed(bundleHash),
	})
	return true
}

// CheckAllowed is the team-mode trust gate: it returns nil when the bundle
// hash is approved or force is set, and an AllowListViolationError
// otherwise. This is the only point where untrusted upstream content is
// gated before it may overwrite local agent files.
func CheckAllowed(bundleHash string, list *AllowList, force bool) error {
	if force {
		return nil
	}
	if list != nil && list.Contains(bundleHash) {
		return nil
	}
	return &AllowListViolationError{BundleHash: hashing.Unprefixed(bundleHash)}
}
