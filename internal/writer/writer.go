// Package writer commits rendered native files atomically, detecting edits
// made outside the current sync session.
package writer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rulealign/rulealign/internal/logging"
)

// Decision is a caller's answer to one checksum conflict.
type Decision string

const (
	// DecisionOverwrite replaces the on-disk content.
	DecisionOverwrite Decision = "overwrite"

	// DecisionKeep leaves the on-disk content untouched.
	DecisionKeep Decision = "keep"

	// DecisionAbort stops the sync pass.
	DecisionAbort Decision = "abort"
)

// ConflictInfo describes one detected checksum conflict for the decision
// callback.
type ConflictInfo struct {
	Path             string
	RecordedChecksum string
	CurrentChecksum  string
	ExistingContent  string
	NewContent       string
}

// DecisionFunc resolves one conflict. It is supplied by the prompt
// collaborator; the writer never talks to a terminal itself.
type DecisionFunc func(ConflictInfo) (Decision, error)

// ChecksumConflictError reports that a file the engine previously wrote has
// since been modified by something else.
type ChecksumConflictError struct {
	Path string
}

// Error returns the conflict message with its remediation hint.
func (e *ChecksumConflictError) Error() string {
	return fmt.Sprintf("checksum conflict: %s was modified outside this sync session; re-run with --force to overwrite or --interactive to resolve", e.Path)
}

// ErrAborted is returned when a decision callback chooses to abort.
var ErrAborted = errors.New("sync aborted by conflict resolution")

// Options controls conflict resolution for one write.
type Options struct {
	// Force overwrites unconditionally.
	Force bool

	// Interactive delegates conflicts to OnConflict. Setting Interactive
	// without a callback is a fatal configuration error.
	Interactive bool

	// OnConflict is the per-conflict decision callback.
	OnConflict DecisionFunc
}

// Result reports one committed (or refused) write.
type Result struct {
	Path string

	// Committed is true when new content landed on disk.
	Committed bool

	// Unchanged is true when the on-disk content already matched.
	Unchanged bool

	// Kept is true when a conflict was resolved by keeping the on-disk
	// content.
	Kept bool

	// BackupPath names the timestamped backup taken before an overwrite,
	// when one was needed.
	BackupPath string
}

// Session tracks path checksums for the duration of one sync pass. It is
// created at the start of a pass and discarded at the end; there is no
// process-wide state, so repeated or concurrent test runs cannot leak into
// each other.
type Session struct {
	mu        sync.Mutex
	records   map[string]string
	backupDir string
}

// NewSession creates a write session. backupDir receives pre-overwrite
// backups; it is created lazily on first use.
func NewSession(backupDir string) *Session {
	return &Session{
		records:   make(map[string]string),
		backupDir: backupDir,
	}
}

// Checksum returns the hex-encoded sha256 of content.
func Checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// RecordedChecksum returns the checksum recorded for a path in this
// session, if any.
func (s *Session) RecordedChecksum(path string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, ok := s.records[path]
	return sum, ok
}

// Write commits content to path atomically. Before writing to a path with
// a recorded checksum it verifies the on-disk content still matches; a
// mismatch is a checksum conflict resolved per opts. A brand-new target
// whose existing content differs from both the record (none) and the new
// content gets a full backup before its first overwrite.
func (s *Session) Write(path, content string, opts Options) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := Result{Path: path}
	newSum := Checksum([]byte(content))

	existing, existingSum, exists, err := readExisting(path)
	if err != nil {
		return result, err
	}

	if exists && existingSum == newSum {
		// Content already current; refresh the record and do nothing.
		s.records[path] = newSum
		result.Unchanged = true
		return result, nil
	}

	recorded, hasRecord := s.records[path]

	if hasRecord && exists && existingSum != recorded {
		decision, err := s.resolveConflict(ConflictInfo{
			Path:             path,
			RecordedChecksum: recorded,
			CurrentChecksum:  existingSum,
			ExistingContent:  string(existing),
			NewContent:       content,
		}, opts)
		if err != nil {
			return result, err
		}
		switch decision {
		case DecisionKeep:
			logging.Info("kept on-disk content after conflict", logging.Path(path))
			result.Kept = true
			return result, nil
		case DecisionAbort:
			return result, ErrAborted
		}
		// DecisionOverwrite falls through to the backup + commit path.
	}

	// Preserve content that would otherwise be silently discarded: the
	// on-disk bytes differ from both the recorded checksum and the new
	// content. A path with no record at all is a newly adopted target and
	// always gets a full backup before its first conflicting write.
	if exists && existingSum != newSum && (!hasRecord || existingSum != recorded) {
		backupPath, err := s.backup(path, existing, existingSum)
		if err != nil {
			return result, err
		}
		result.BackupPath = backupPath
	}

	if err := commitAtomic(path, []byte(content)); err != nil {
		return result, err
	}

	s.records[path] = newSum
	result.Committed = true

	logging.Debug("committed file",
		logging.Path(path),
		logging.Operation("write"),
	)
	return result, nil
}

// resolveConflict applies the conflict policy: force wins, then the
// interactive callback, otherwise the write is refused.
func (s *Session) resolveConflict(info ConflictInfo, opts Options) (Decision, error) {
	if opts.Force {
		return DecisionOverwrite, nil
	}
	if opts.Interactive {
		if opts.OnConflict == nil {
			return "", fmt.Errorf("interactive conflict resolution requested for %s but no decision callback is registered", info.Path)
		}
		decision, err := opts.OnConflict(info)
		if err != nil {
			return "", fmt.Errorf("conflict resolution failed for %s: %w", info.Path, err)
		}
		switch decision {
		case DecisionOverwrite, DecisionKeep, DecisionAbort:
			return decision, nil
		default:
			return "", fmt.Errorf("conflict callback returned unknown decision %q for %s", decision, info.Path)
		}
	}
	return "", &ChecksumConflictError{Path: info.Path}
}

// readExisting loads the current on-disk content, tolerating absence.
func readExisting(path string) (content []byte, sum string, exists bool, err error) {
	// #nosec G304 - path is a configured sync target
	content, err = os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", false, nil
		}
		return nil, "", false, fmt.Errorf("failed to read %q: %w", path, err)
	}
	return content, Checksum(content), true, nil
}

// commitAtomic writes content to a temporary file in the target directory
// and renames it into place, so a crash never leaves a half-written file.
func commitAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".rulealign-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %q: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	// #nosec G302 - rule files should be readable
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to commit %q: %w", path, err)
	}
	return nil
}
