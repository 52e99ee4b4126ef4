package syncer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rulealign/rulealign/internal/adapter"
	"github.com/rulealign/rulealign/internal/adapter/agentsmd"
	"github.com/rulealign/rulealign/internal/adapter/claudemd"
	"github.com/rulealign/rulealign/internal/adapter/cursor"
	"github.com/rulealign/rulealign/internal/config"
	"github.com/rulealign/rulealign/internal/trust"
)

const soloDoc = `
id: project-rules
version: 1.0.0
spec_version: "1.0"
integrity:
  algo: sha256
  value: "<computed>"
sections:
  - heading: Testing
    level: 2
    content: Run tests before pushing.
    fingerprint: testing
  - heading: Code Style
    level: 2
    content: Prefer small functions.
    fingerprint: style
`

const teamDoc = `
id: team-rules
version: 2.0.0
spec_version: "1.0"
summary: Shared team rules.
integrity:
  algo: sha256
  value: "<computed>"
sections:
  - heading: Testing
    level: 2
    content: Run tests before pushing.
    fingerprint: testing
`

// newTestProject lays out a temp project with the canonical document and a
// resolved configuration covering all three built-in targets.
func newTestProject(t *testing.T, mode, doc string) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "rules.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default(dir)
	cfg.Mode = mode
	cfg.Source = "rules.yaml"
	cfg.ResolvePaths(dir)
	return cfg, dir
}

func newTestRegistry() *adapter.Registry {
	r := adapter.NewRegistry()
	r.Register(agentsmd.New())
	r.Register(claudemd.New())
	r.Register(cursor.New())
	return r
}

func runSync(t *testing.T, cfg *config.Config, opts Options) *Result {
	t.Helper()
	result, err := New(cfg, newTestRegistry()).Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if !result.Success() {
		t.Fatalf("sync had failed files:\n%s", result.Summary())
	}
	return result
}

func TestSyncCreatesAllTargets(t *testing.T) {
	cfg, dir := newTestProject(t, "solo", soloDoc)

	result := runSync(t, cfg, Options{})

	if len(result.Targets) != 3 {
		t.Fatalf("synced %d targets, want 3", len(result.Targets))
	}
	for _, path := range []string{
		filepath.Join(dir, "AGENTS.md"),
		filepath.Join(dir, "CLAUDE.md"),
		filepath.Join(dir, ".cursor", "rules", "testing.mdc"),
		filepath.Join(dir, ".cursor", "rules", "code-style.mdc"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("target file not written: %s", path)
		}
	}

	for _, tr := range result.Targets {
		for _, f := range tr.Files {
			if f.Action != ActionCreated {
				t.Errorf("%s: action = %s, want created", f.Path, f.Action)
			}
		}
	}
}

func TestSyncTwiceIsIdempotent(t *testing.T) {
	cfg, dir := newTestProject(t, "solo", soloDoc)

	runSync(t, cfg, Options{})

	agentsPath := filepath.Join(dir, "AGENTS.md")
	firstPass, err := os.ReadFile(agentsPath)
	if err != nil {
		t.Fatal(err)
	}

	second := runSync(t, cfg, Options{})

	for _, tr := range second.Targets {
		for _, f := range tr.Files {
			if f.Action != ActionUnchanged {
				t.Errorf("second pass rewrote %s (action %s)", f.Path, f.Action)
			}
		}
	}

	secondPass, err := os.ReadFile(agentsPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(firstPass) != string(secondPass) {
		t.Error("second pass changed AGENTS.md bytes")
	}
}

func TestEditSourceKeepsUserSections(t *testing.T) {
	cfg, dir := newTestProject(t, "solo", soloDoc)
	runSync(t, cfg, Options{})

	agentsPath := filepath.Join(dir, "AGENTS.md")
	appendToFile(t, agentsPath, "\n## My Local Rule\n\nNever commit on Fridays.\n")

	result := runSync(t, cfg, Options{})

	var agents TargetResult
	for _, tr := range result.Targets {
		if tr.Target == "agentsmd" {
			agents = tr
		}
	}
	if agents.Stats.UserAdded != 1 {
		t.Errorf("UserAdded = %d, want 1", agents.Stats.UserAdded)
	}
	if agents.Extracted != 0 {
		t.Errorf("edit source extracted %d sections, want 0", agents.Extracted)
	}

	content, err := os.ReadFile(agentsPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "Never commit on Fridays.") {
		t.Error("user section dropped from edit source")
	}
}

func TestReadOnlyTargetRoutesForeignSectionsToExtractionLog(t *testing.T) {
	cfg, dir := newTestProject(t, "solo", soloDoc)
	runSync(t, cfg, Options{})

	claudePath := filepath.Join(dir, "CLAUDE.md")
	appendToFile(t, claudePath, "\n## Hand Edit\n\nTyped straight into CLAUDE.md.\n")

	result := runSync(t, cfg, Options{})

	var claude TargetResult
	for _, tr := range result.Targets {
		if tr.Target == "claudemd" {
			claude = tr
		}
	}
	if claude.Extracted != 1 {
		t.Fatalf("Extracted = %d, want 1", claude.Extracted)
	}

	logContent, err := os.ReadFile(cfg.Extraction.Log)
	if err != nil {
		t.Fatalf("extraction log not written: %v", err)
	}
	if !strings.Contains(string(logContent), "Typed straight into CLAUDE.md.") {
		t.Error("extracted content missing from log")
	}

	regenerated, err := os.ReadFile(claudePath)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(regenerated), "Hand Edit") {
		t.Error("foreign section survived in regenerated read-only target")
	}

	// A third pass must not extract the same content again.
	third := runSync(t, cfg, Options{})
	for _, tr := range third.Targets {
		if tr.Extracted != 0 {
			t.Errorf("%s re-extracted %d sections", tr.Target, tr.Extracted)
		}
	}
}

func TestStaleCursorFilesRemoved(t *testing.T) {
	cfg, dir := newTestProject(t, "solo", soloDoc)
	runSync(t, cfg, Options{})

	stalePath := filepath.Join(dir, ".cursor", "rules", "code-style.mdc")
	if _, err := os.Stat(stalePath); err != nil {
		t.Fatalf("expected first pass to write %s", stalePath)
	}

	// Drop the Code Style section from the document.
	shrunk := `
id: project-rules
version: 1.1.0
spec_version: "1.0"
sections:
  - heading: Testing
    level: 2
    content: Run tests before pushing.
    fingerprint: testing
`
	if err := os.WriteFile(cfg.Source, []byte(shrunk), 0o644); err != nil {
		t.Fatal(err)
	}

	result := runSync(t, cfg, Options{})

	if _, err := os.Stat(stalePath); !os.IsNotExist(err) {
		t.Errorf("stale rule file still on disk: %s", stalePath)
	}

	removed := false
	for _, tr := range result.Targets {
		for _, f := range tr.Files {
			if f.Action == ActionRemoved && f.Path == stalePath {
				removed = true
			}
		}
	}
	if !removed {
		t.Error("removal not reported in results")
	}
}

func TestCollidingRuleFileNamesGetSuffixed(t *testing.T) {
	doc := `
id: project-rules
version: 1.0.0
spec_version: "1.0"
sections:
  - heading: "Testing!"
    level: 2
    content: Run the fast suite.
    fingerprint: fast
  - heading: "Testing?"
    level: 2
    content: Run the slow suite too.
    fingerprint: slow
`
	cfg, dir := newTestProject(t, "solo", doc)

	result := runSync(t, cfg, Options{})

	first := filepath.Join(dir, ".cursor", "rules", "testing.mdc")
	second := filepath.Join(dir, ".cursor", "rules", "testing-2.mdc")
	for _, path := range []string{first, second} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("rule file not written: %s", path)
		}
	}

	content, err := os.ReadFile(second)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "Run the slow suite too.") {
		t.Errorf("suffixed file carries the wrong section:\n%s", content)
	}

	warned := false
	for _, w := range result.Warnings() {
		if strings.Contains(w, "testing-2.mdc") {
			warned = true
		}
	}
	if !warned {
		t.Error("file-name collision not surfaced as a warning")
	}

	// The suffix is stable, so a second pass rewrites nothing.
	second2 := runSync(t, cfg, Options{})
	for _, tr := range second2.Targets {
		for _, f := range tr.Files {
			if f.Action != ActionUnchanged {
				t.Errorf("second pass rewrote %s (action %s)", f.Path, f.Action)
			}
		}
	}
}

func TestDryRunCommitsNothing(t *testing.T) {
	cfg, dir := newTestProject(t, "solo", soloDoc)

	result := runSync(t, cfg, Options{DryRun: true})

	if !result.DryRun {
		t.Error("result not flagged as dry run")
	}
	for _, tr := range result.Targets {
		for _, f := range tr.Files {
			if f.Action != ActionSkipped {
				t.Errorf("%s: action = %s, want skipped", f.Path, f.Action)
			}
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "AGENTS.md")); !os.IsNotExist(err) {
		t.Error("dry run wrote AGENTS.md")
	}
}

func TestTeamModeRequiresApproval(t *testing.T) {
	cfg, dir := newTestProject(t, "team", teamDoc)

	result, err := New(cfg, newTestRegistry()).Run(context.Background(), Options{})
	if err == nil {
		t.Fatal("unapproved team bundle synced without error")
	}
	var violation *trust.AllowListViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("error is %T, want *trust.AllowListViolationError", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "AGENTS.md")); !os.IsNotExist(statErr) {
		t.Error("trust gate failed but files were written")
	}

	// Approve the bundle hash the failed pass reported, then retry.
	list, loadErr := trust.LoadAllowList(cfg.Trust.AllowList)
	if loadErr != nil {
		t.Fatal(loadErr)
	}
	list.Approve(result.BundleHash)
	if err := list.Save(cfg.Trust.AllowList); err != nil {
		t.Fatal(err)
	}

	approved := runSync(t, cfg, Options{})

	if approved.LockfilePath == "" {
		t.Error("team pass did not report a lockfile")
	}
	lock, err := trust.LoadLockfile(cfg.Trust.Lockfile)
	if err != nil || lock == nil {
		t.Fatalf("lockfile not written: %v", err)
	}
	if !lock.Matches(approved.BundleHash) {
		t.Errorf("lockfile hash %q does not match bundle %q", lock.BundleHash, approved.BundleHash)
	}
}

func TestForceBypassesTrustGate(t *testing.T) {
	cfg, dir := newTestProject(t, "team", teamDoc)

	result := runSync(t, cfg, Options{Force: true})

	if result.BundleHash == "" {
		t.Error("bundle hash missing from result")
	}
	if _, err := os.Stat(filepath.Join(dir, "AGENTS.md")); err != nil {
		t.Error("forced team sync wrote nothing")
	}
}

func TestSyncFailsOnInvalidDocument(t *testing.T) {
	cfg, _ := newTestProject(t, "team", soloDoc) // solo doc lacks the team summary

	_, err := New(cfg, newTestRegistry()).Run(context.Background(), Options{})
	if err == nil {
		t.Fatal("schema-invalid document synced")
	}
	if !strings.Contains(err.Error(), "schema validation") {
		t.Errorf("unexpected error: %v", err)
	}
}

func appendToFile(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
}
