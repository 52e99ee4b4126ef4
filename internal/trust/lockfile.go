package trust

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rulealign/rulealign/internal/hashing"
)

// LockfileVersion is the current lockfile schema version.
const LockfileVersion = 1

// LockedRule is one section's audit record in the lockfile.
type LockedRule struct {
	Fingerprint string `json:"fingerprint"`
	Heading     string `json:"heading"`
	ContentHash string `json:"content_hash"`
}

// Lockfile records the bundle hash of the last successful team-mode sync.
// The trust gate consults it on the next sync to detect upstream drift.
type Lockfile struct {
	Version     int          `json:"version"`
	GeneratedAt time.Time    `json:"generated_at"`
	Mode        string       `json:"mode"`
	BundleHash  string       `json:"bundle_hash"`
	Rules       []LockedRule `json:"rules"`
}

// NewLockfile builds a lockfile for a completed sync pass.
func NewLockfile(mode, bundleHash string, rules []LockedRule) *Lockfile {
	return &Lockfile{
		Version:     LockfileVersion,
		GeneratedAt: time.Now().UTC(),
		Mode:        mode,
		BundleHash:  hashing.Prefixed(bundleHash),
		Rules:       rules,
	}
}

// LoadLockfile reads a lockfile. A missing file returns (nil, nil) so the
// first sync of a project is not an error.
func LoadLockfile(path string) (*Lockfile, error) {
	// #nosec G304 - path is the configured lockfile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read lockfile %q: %w", path, err)
	}

	var lf Lockfile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("failed to parse lockfile %q: %w", path, err)
	}
	if lf.Version > LockfileVersion {
		return nil, fmt.Errorf("lockfile %q has unsupported version %d", path, lf.Version)
	}
	return &lf, nil
}

// Save writes the lockfile as indented JSON.
func (lf *Lockfile) Save(path string) error {
	data, err := json.MarshalIndent(lf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode lockfile: %w", err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create lockfile directory: %w", err)
	}
	// #nosec G306 - lockfile is shared project state
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write lockfile %q: %w", path, err)
	}
	return nil
}

// Matches reports whether the lockfile's bundle hash equals the given one,
// ignoring the algorithm prefix.
func (lf *Lockfile) Matches(bundleHash string) bool {
	return hashing.Unprefixed(lf.BundleHash) == hashing.Unprefixed(bundleHash)
}
