package syncer

import (
	"fmt"
	"strings"

	"github.com/rulealign/rulealign/internal/merge"
)

// Action represents what happened to one written file during sync.
type Action string

const (
	// ActionCreated indicates the file did not exist before.
	ActionCreated Action = "created"

	// ActionUpdated indicates the file existed and its content changed.
	ActionUpdated Action = "updated"

	// ActionUnchanged indicates the on-disk content already matched.
	ActionUnchanged Action = "unchanged"

	// ActionKept indicates a conflict was resolved by keeping on-disk content.
	ActionKept Action = "kept"

	// ActionSkipped indicates a dry run computed but did not commit content.
	ActionSkipped Action = "skipped"

	// ActionRemoved indicates a stale per-section file was deleted from a
	// regenerated rules directory.
	ActionRemoved Action = "removed"

	// ActionFailed indicates an error occurred writing the file.
	ActionFailed Action = "failed"
)

// FileResult is the outcome for one native file.
type FileResult struct {
	// Path is the file the engine wrote (or refused to write).
	Path string

	// Action is what happened.
	Action Action

	// Checksum is the content hash recorded for audit, when content was
	// produced.
	Checksum string

	// BackupPath names the pre-overwrite backup, when one was taken.
	BackupPath string

	// Error holds the failure when Action is ActionFailed.
	Error error
}

// TargetResult is the outcome for one configured target format.
type TargetResult struct {
	// Target is the adapter name.
	Target string

	// Files holds per-file outcomes; single-file formats have one entry.
	Files []FileResult

	// Stats are the merge classification counts for this target.
	Stats merge.Stats

	// Extracted counts sections routed to the extraction log from this
	// read-only target.
	Extracted int

	// Warnings are non-fatal notes (locally-owned sections, stale
	// selectors) surfaced to the user.
	Warnings []string
}

// Failed returns the file results that errored.
func (tr *TargetResult) Failed() []FileResult {
	var failed []FileResult
	for _, f := range tr.Files {
		if f.Action == ActionFailed {
			failed = append(failed, f)
		}
	}
	return failed
}

// Changed returns the number of files created or updated.
func (tr *TargetResult) Changed() int {
	n := 0
	for _, f := range tr.Files {
		if f.Action == ActionCreated || f.Action == ActionUpdated {
			n++
		}
	}
	return n
}

// Result contains the complete outcome of one sync pass.
type Result struct {
	// Mode is the sync mode the pass ran in.
	Mode string

	// BundleHash is the canonical hash of the overlay-applied document.
	BundleHash string

	// Targets holds the per-target outcomes in configured order.
	Targets []TargetResult

	// OverlayWarnings collects selector failures and invalid overlay
	// operations; they are reported, not fatal.
	OverlayWarnings []string

	// LockfilePath is the lockfile written after a team-mode pass.
	LockfilePath string

	// DryRun indicates no files were committed.
	DryRun bool
}

// Success returns true if no target had a failed file.
func (r *Result) Success() bool {
	for _, tr := range r.Targets {
		if len(tr.Failed()) > 0 {
			return false
		}
	}
	return true
}

// TotalChanged returns the number of files created or updated across all
// targets.
func (r *Result) TotalChanged() int {
	n := 0
	for _, tr := range r.Targets {
		n += tr.Changed()
	}
	return n
}

// Warnings returns every warning from the pass, overlay warnings first.
func (r *Result) Warnings() []string {
	out := append([]string{}, r.OverlayWarnings...)
	for _, tr := range r.Targets {
		out = append(out, tr.Warnings...)
	}
	return out
}

// Summary returns a human-readable summary of the sync pass.
func (r *Result) Summary() string {
	var sb strings.Builder

	if r.DryRun {
		sb.WriteString("Dry run - no changes made\n")
	}

	sb.WriteString(fmt.Sprintf("Synced %d target(s) in %s mode\n", len(r.Targets), r.Mode))

	for _, tr := range r.Targets {
		sb.WriteString(fmt.Sprintf("  %s:", tr.Target))
		counts := map[Action]int{}
		for _, f := range tr.Files {
			counts[f.Action]++
		}
		for _, a := range []Action{ActionCreated, ActionUpdated, ActionUnchanged, ActionKept, ActionRemoved, ActionSkipped, ActionFailed} {
			if counts[a] > 0 {
				sb.WriteString(fmt.Sprintf(" %d %s", counts[a], a))
			}
		}
		if tr.Extracted > 0 {
			sb.WriteString(fmt.Sprintf(" (%d section(s) extracted)", tr.Extracted))
		}
		sb.WriteString("\n")
	}

	if warnings := r.Warnings(); len(warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, w := range warnings {
			sb.WriteString("  - " + w + "\n")
		}
	}

	if !r.Success() {
		sb.WriteString("\nErrors:\n")
		for _, tr := range r.Targets {
			for _, f := range tr.Failed() {
				sb.WriteString(fmt.Sprintf("  - %s: %v\n", f.Path, f.Error))
			}
		}
	}

	return sb.String()
}
