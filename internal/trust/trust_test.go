package trust

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testHash = "0f9c2a3a4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8"

func TestCheckAllowed(t *testing.T) {
	list := &AllowList{Entries: []AllowEntry{
		{Type: "hash", Value: "sha256:" + testHash},
	}}

	if err := CheckAllowed(testHash, list, false); err != nil {
		t.Errorf("approved hash rejected: %v", err)
	}

	err := CheckAllowed(strings.Repeat("1", 64), list, false)
	var violation *AllowListViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("error = %v, want *AllowListViolationError", err)
	}
	if !strings.Contains(violation.Error(), "--force") {
		t.Error("violation message carries no remediation hint")
	}

	// Force always bypasses the gate.
	if err := CheckAllowed(strings.Repeat("1", 64), list, true); err != nil {
		t.Errorf("forced check rejected: %v", err)
	}
}

func TestContainsNormalizesPrefix(t *testing.T) {
	list := &AllowList{Entries: []AllowEntry{
		{Type: "hash", Value: testHash},
	}}

	if !list.Contains("sha256:" + testHash) {
		t.Error("prefixed query did not match bare entry")
	}
	if !list.Contains(testHash) {
		t.Error("bare query did not match bare entry")
	}
}

func TestAllowListRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "allowed.yaml")

	list := &AllowList{}
	if !list.Approve(testHash) {
		t.Fatal("first approval reported no-op")
	}
	if list.Approve(testHash) {
		t.Error("second approval of the same hash not a no-op")
	}
	if err := list.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadAllowList(path)
	if err != nil {
		t.Fatalf("LoadAllowList failed: %v", err)
	}
	if !loaded.Contains(testHash) {
		t.Error("saved approval lost on reload")
	}
}

func TestLoadAllowListMissingFile(t *testing.T) {
	list, err := LoadAllowList(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing allow-list treated as error: %v", err)
	}
	if list.Contains(testHash) {
		t.Error("empty allow-list contains a hash")
	}
}

func TestLockfileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rulealign.lock")

	lf := NewLockfile("team", testHash, []LockedRule{
		{Fingerprint: "t1", Heading: "Testing", ContentHash: strings.Repeat("a", 64)},
	})
	if err := lf.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadLockfile(path)
	if err != nil {
		t.Fatalf("LoadLockfile failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("lockfile loaded as nil")
	}
	if loaded.Mode != "team" || loaded.Version != LockfileVersion {
		t.Errorf("lockfile header drifted: %+v", loaded)
	}
	if !loaded.Matches(testHash) {
		t.Error("lockfile does not match its own bundle hash")
	}
	if len(loaded.Rules) != 1 || loaded.Rules[0].Fingerprint != "t1" {
		t.Errorf("rules not preserved: %+v", loaded.Rules)
	}
}

func TestLoadLockfileMissingFile(t *testing.T) {
	lf, err := LoadLockfile(filepath.Join(t.TempDir(), "missing.lock"))
	if err != nil {
		t.Fatalf("missing lockfile treated as error: %v", err)
	}
	if lf != nil {
		t.Error("missing lockfile loaded as non-nil")
	}
}

func TestLoadLockfileUnsupportedVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rulealign.lock")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadLockfile(path); err == nil {
		t.Error("future lockfile version accepted")
	}
}
