package writer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "AGENTS.md")
	session := NewSession(filepath.Join(dir, "backups"))

	res, err := session.Write(path, "# Rules\n", Options{})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !res.Committed {
		t.Error("write not committed")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# Rules\n" {
		t.Errorf("on-disk content = %q", string(data))
	}
}

func TestWriteUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "AGENTS.md")
	session := NewSession(filepath.Join(dir, "backups"))

	if _, err := session.Write(path, "# Rules\n", Options{}); err != nil {
		t.Fatal(err)
	}
	res, err := session.Write(path, "# Rules\n", Options{})
	if err != nil {
		t.Fatalf("second write failed: %v", err)
	}
	if !res.Unchanged || res.Committed {
		t.Errorf("identical rewrite not reported unchanged: %+v", res)
	}
}

func TestChecksumConflictDetection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "AGENTS.md")
	backupDir := filepath.Join(dir, "backups")
	session := NewSession(backupDir)

	if _, err := session.Write(path, "# v1\n", Options{}); err != nil {
		t.Fatal(err)
	}

	// Someone else edits the file behind the session's back.
	if err := os.WriteFile(path, []byte("# edited outside\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := session.Write(path, "# v2\n", Options{})
	var conflict *ChecksumConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error = %v, want *ChecksumConflictError", err)
	}
	if conflict.Path != path {
		t.Errorf("conflict names %q, want %q", conflict.Path, path)
	}

	// The refused write left the outside edit intact.
	data, _ := os.ReadFile(path)
	if string(data) != "# edited outside\n" {
		t.Error("refused write modified the file")
	}
}

func TestForceOverwritesAndBacksUp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "AGENTS.md")
	backupDir := filepath.Join(dir, "backups")
	session := NewSession(backupDir)

	if _, err := session.Write(path, "# v1\n", Options{}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("# edited outside\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := session.Write(path, "# v2\n", Options{Force: true})
	if err != nil {
		t.Fatalf("forced write failed: %v", err)
	}
	if !res.Committed {
		t.Error("forced write not committed")
	}
	if res.BackupPath == "" {
		t.Fatal("no backup taken of the outside edit")
	}

	backup, err := os.ReadFile(res.BackupPath)
	if err != nil {
		t.Fatalf("backup unreadable: %v", err)
	}
	if string(backup) != "# edited outside\n" {
		t.Errorf("backup content = %q, want the pre-overwrite content", string(backup))
	}

	data, _ := os.ReadFile(path)
	if string(data) != "# v2\n" {
		t.Errorf("file content = %q, want %q", string(data), "# v2\n")
	}

	backups, err := ListBackups(backupDir, filepath.Base(path))
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 1 || backups[0] != res.BackupPath {
		t.Errorf("ListBackups = %v, want [%s]", backups, res.BackupPath)
	}
}

func TestInteractiveDecisions(t *testing.T) {
	tests := []struct {
		name     string
		decision Decision
		wantKept bool
		wantErr  error
	}{
		{"overwrite", DecisionOverwrite, false, nil},
		{"keep", DecisionKeep, true, nil},
		{"abort", DecisionAbort, false, ErrAborted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "AGENTS.md")
			session := NewSession(filepath.Join(dir, "backups"))

			if _, err := session.Write(path, "# v1\n", Options{}); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(path, []byte("# edited\n"), 0o644); err != nil {
				t.Fatal(err)
			}

			var asked bool
			res, err := session.Write(path, "# v2\n", Options{
				Interactive: true,
				OnConflict: func(info ConflictInfo) (Decision, error) {
					asked = true
					if info.Path != path {
						t.Errorf("callback got path %q", info.Path)
					}
					if info.ExistingContent != "# edited\n" {
						t.Errorf("callback got existing %q", info.ExistingContent)
					}
					return tt.decision, nil
				},
			})

			if !asked {
				t.Fatal("decision callback never invoked")
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			if res.Kept != tt.wantKept {
				t.Errorf("Kept = %v, want %v", res.Kept, tt.wantKept)
			}
		})
	}
}

func TestInteractiveWithoutCallbackIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "AGENTS.md")
	session := NewSession(filepath.Join(dir, "backups"))

	if _, err := session.Write(path, "# v1\n", Options{}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("# edited\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := session.Write(path, "# v2\n", Options{Interactive: true})
	if err == nil {
		t.Fatal("interactive mode without a callback did not fail")
	}
}

func TestNewTargetWithForeignContentGetsBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "AGENTS.md")
	session := NewSession(filepath.Join(dir, "backups"))

	// The file predates the session; no checksum is on record.
	if err := os.WriteFile(path, []byte("# hand-written\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := session.Write(path, "# generated\n", Options{})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if res.BackupPath == "" {
		t.Fatal("first write over a foreign file took no backup")
	}

	backup, _ := os.ReadFile(res.BackupPath)
	if string(backup) != "# hand-written\n" {
		t.Errorf("backup content = %q", string(backup))
	}
}

func TestBackupDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "AGENTS.md")
	session := NewSession("")

	if err := os.WriteFile(path, []byte("# hand-written\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := session.Write(path, "# generated\n", Options{})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if res.BackupPath != "" {
		t.Errorf("backup taken with backups disabled: %q", res.BackupPath)
	}
}
