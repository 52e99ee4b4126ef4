package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rulealign/rulealign/internal/logging"
)

// backup copies the current on-disk content into the session's backup
// directory before an overwrite. The backup name embeds a timestamp and a
// content hash prefix so repeated conflicts on the same file never collide.
func (s *Session) backup(path string, content []byte, sum string) (string, error) {
	if s.backupDir == "" {
		// Backups disabled by configuration.
		return "", nil
	}
	if err := os.MkdirAll(s.backupDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create backup directory %q: %w", s.backupDir, err)
	}

	backupID := time.Now().Format("20060102-150405") + "-" + sum[:8]
	name := fmt.Sprintf("%s.%s.bak", filepath.Base(path), backupID)
	backupPath := filepath.Join(s.backupDir, name)

	// #nosec G306 - backups mirror the original file's readability
	if err := os.WriteFile(backupPath, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup %q: %w", backupPath, err)
	}

	logging.Info("backed up file before overwrite",
		logging.Path(path),
		logging.Operation("backup"),
	)
	return backupPath, nil
}

// ListBackups returns every backup taken for a file name, in glob order
// (the timestamped names sort oldest first).
func ListBackups(backupDir, base string) ([]string, error) {
	pattern := filepath.Join(backupDir, base+".*.bak")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	return matches, nil
}
