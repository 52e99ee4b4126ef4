// Package syncer drives one sync pass: it loads the canonical document,
// applies overlays, gates team-mode content behind the allow-list, and
// reconciles every configured native target.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rulealign/rulealign/internal/adapter"
	"github.com/rulealign/rulealign/internal/config"
	"github.com/rulealign/rulealign/internal/hashing"
	"github.com/rulealign/rulealign/internal/logging"
	"github.com/rulealign/rulealign/internal/merge"
	"github.com/rulealign/rulealign/internal/model"
	"github.com/rulealign/rulealign/internal/overlay"
	"github.com/rulealign/rulealign/internal/trust"
	"github.com/rulealign/rulealign/internal/writer"
)

// Options tunes one sync pass.
type Options struct {
	// Force overwrites conflicting files and bypasses the trust gate.
	Force bool

	// Interactive resolves checksum conflicts through OnConflict.
	Interactive bool

	// OnConflict is the per-conflict decision callback supplied by the CLI.
	OnConflict writer.DecisionFunc

	// DryRun computes everything but commits nothing.
	DryRun bool

	// OnTarget, when set, is called before each target is processed. The
	// CLI uses it to drive its progress display.
	OnTarget func(name string)
}

// Syncer runs sync passes for one project configuration. Each Run creates
// its own write session; nothing persists between passes.
type Syncer struct {
	cfg      *config.Config
	registry *adapter.Registry
	engine   *merge.Engine
}

// New creates a syncer for a resolved configuration and adapter registry.
func New(cfg *config.Config, registry *adapter.Registry) *Syncer {
	return &Syncer{
		cfg:      cfg,
		registry: registry,
		engine:   merge.NewEngine(),
	}
}

// Run executes one sync pass: load document, validate, apply overlays,
// check trust (team mode), then merge/render/write each target in
// configured order. Targets are processed sequentially; a failed target is
// recorded and the pass continues to the next one.
func (s *Syncer) Run(ctx context.Context, opts Options) (*Result, error) {
	defer logging.Timer("sync")()

	doc, err := s.loadDocument()
	if err != nil {
		return nil, err
	}

	applied := overlay.Apply(doc, doc.Overlays)
	patched := applied.Document

	result := &Result{
		Mode:       s.cfg.Mode,
		BundleHash: hashing.ComputeContentHash(patched),
		DryRun:     opts.DryRun,
	}
	for _, overlayErr := range applied.Errors {
		result.OverlayWarnings = append(result.OverlayWarnings, overlayErr.Error())
	}

	if s.cfg.SyncMode() == model.ModeTeam {
		if err := s.checkTrust(result.BundleHash, opts.Force); err != nil {
			return result, err
		}
	}

	backupDir := s.cfg.Backup.Location
	if !s.cfg.Backup.Enabled {
		backupDir = ""
	}
	session := writer.NewSession(backupDir)

	for _, target := range s.cfg.Targets {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if opts.OnTarget != nil {
			opts.OnTarget(target.Name)
		}
		tr := s.syncTarget(session, target, patched, opts)
		result.Targets = append(result.Targets, tr)
	}

	if s.cfg.SyncMode() == model.ModeTeam && result.Success() && !opts.DryRun {
		if err := s.writeLockfile(patched, result.BundleHash); err != nil {
			return result, err
		}
		result.LockfilePath = s.cfg.Trust.Lockfile
	}

	logging.Info("sync pass completed",
		logging.Operation("sync"),
		logging.Count(result.TotalChanged()),
	)
	return result, nil
}

// loadDocument reads and validates the canonical document.
func (s *Syncer) loadDocument() (*model.Document, error) {
	doc, err := model.LoadDocumentFile(s.cfg.Source)
	if err != nil {
		return nil, err
	}

	if vr := doc.Validate(s.cfg.SyncMode()); !vr.Valid() {
		return nil, fmt.Errorf("document %s failed schema validation: %w", s.cfg.Source, errors.Join(vr.Errors...))
	}

	// A declared integrity hash must verify before any overlay or write; the
	// placeholder value is the pre-hash authoring state and always passes.
	if doc.Integrity != nil && doc.Integrity.Value != "" {
		res := hashing.ValidateDocumentIntegrity(doc)
		if !res.Valid {
			return nil, &hashing.IntegrityMismatchError{
				Path:         s.cfg.Source,
				StoredHash:   res.StoredHash,
				ComputedHash: res.ComputedHash,
			}
		}
	}

	return doc, nil
}

// checkTrust enforces the team-mode allow-list gate.
func (s *Syncer) checkTrust(bundleHash string, force bool) error {
	list, err := trust.LoadAllowList(s.cfg.Trust.AllowList)
	if err != nil {
		return err
	}
	if err := trust.CheckAllowed(bundleHash, list, force); err != nil {
		return err
	}
	if force {
		logging.Warn("trust gate bypassed with force",
			logging.Operation("trust"),
		)
	}
	return nil
}

// syncTarget reconciles one configured target.
func (s *Syncer) syncTarget(session *writer.Session, target config.TargetConfig, doc *model.Document, opts Options) TargetResult {
	tr := TargetResult{Target: target.Name}

	a, err := s.registry.Lookup(target.Name)
	if err != nil {
		tr.Files = append(tr.Files, FileResult{Path: target.Path, Action: ActionFailed, Error: err})
		return tr
	}

	existing, err := s.parseExisting(a, target.Path)
	if err != nil {
		tr.Files = append(tr.Files, FileResult{Path: target.Path, Action: ActionFailed, Error: err})
		return tr
	}

	merged := s.engine.Merge(doc.Sections, existing, s.cfg.ManagedHeadings)
	tr.Stats = merged.Stats
	tr.Warnings = append(tr.Warnings, merged.Warnings...)

	sections := merged.OutputSections()

	// A read-only target is regenerated purely from the canonical document.
	// Sections someone typed into it are recovered into the extraction log
	// first, then dropped from the rendered output.
	if !s.cfg.IsEditSource(target.Path) && merged.Stats.UserAdded > 0 {
		extracted, err := s.extractForeign(doc.Sections, existing, target.Path, opts.DryRun)
		if err != nil {
			tr.Files = append(tr.Files, FileResult{Path: target.Path, Action: ActionFailed, Error: err})
			return tr
		}
		tr.Extracted = extracted
		sections = canonicalOnly(merged)
	}

	renderOpts := adapter.RenderOptions{IncludeFingerprints: true}
	if target.Banner {
		renderOpts.Banner = fmt.Sprintf("Generated by rulealign from %s. Edit %s instead.",
			filepath.Base(s.cfg.Source), s.cfg.EditSource)
	}

	if a.MultiFile() {
		s.writeMultiFile(session, a, target, sections, renderOpts, opts, &tr)
	} else {
		content := a.Render(sections, renderOpts)
		tr.Files = append(tr.Files, s.writeFile(session, target.Path, content, opts))
	}

	return tr
}

// parseExisting recovers sections from the target's current on-disk state.
// A missing file or directory parses as empty.
func (s *Syncer) parseExisting(a adapter.Adapter, path string) ([]adapter.ParsedSection, error) {
	if a.MultiFile() {
		return s.parseRulesDir(a, path)
	}

	// #nosec G304 - path is a configured sync target
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	res, err := a.Parse(string(data))
	if err != nil {
		return nil, err
	}
	for i := range res.Sections {
		res.Sections[i].SourceFile = path
	}
	return res.Sections, nil
}

// parseRulesDir parses every file in a multi-file target directory, in
// sorted name order so merges are deterministic.
func (s *Syncer) parseRulesDir(a adapter.Adapter, dir string) ([]adapter.ParsedSection, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read rules directory %q: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var sections []adapter.ParsedSection
	for _, name := range names {
		path := filepath.Join(dir, name)
		// #nosec G304 - path is inside a configured rules directory
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", path, err)
		}
		res, err := a.Parse(string(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %q: %w", path, err)
		}
		for i := range res.Sections {
			res.Sections[i].SourceFile = path
			sections = append(sections, res.Sections[i])
		}
	}
	return sections, nil
}

// writeMultiFile renders one file per section into the target directory and
// removes stale generated files left behind by sections that no longer
// exist. The on-disk content of removed files was already routed through
// extraction or matched a live section.
func (s *Syncer) writeMultiFile(session *writer.Session, a adapter.Adapter, target config.TargetConfig, sections []model.Section, renderOpts adapter.RenderOptions, opts Options, tr *TargetResult) {
	namer, ok := a.(adapter.FileNamer)
	if !ok {
		tr.Files = append(tr.Files, FileResult{
			Path:   target.Path,
			Action: ActionFailed,
			Error:  fmt.Errorf("adapter %q is multi-file but names no files", a.Name()),
		})
		return
	}

	expected := make(map[string]bool, len(sections))
	for i := range sections {
		name := namer.FileName(&sections[i])
		// Distinct headings can slug to the same file name. The later
		// section gets a position suffix so it never silently overwrites
		// the earlier one.
		if expected[name] {
			ext := filepath.Ext(name)
			name = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), i+1, ext)
			tr.Warnings = append(tr.Warnings, fmt.Sprintf(
				"section %q shares a file name with an earlier section; writing %s instead", sections[i].Heading, name))
		}
		expected[name] = true
		path := filepath.Join(target.Path, name)
		content := a.Render(sections[i:i+1], renderOpts)
		tr.Files = append(tr.Files, s.writeFile(session, path, content, opts))
	}

	if s.cfg.IsEditSource(target.Path) {
		return
	}
	entries, err := os.ReadDir(target.Path)
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || expected[name] || filepath.Ext(name) != ".mdc" {
			continue
		}
		stale := filepath.Join(target.Path, name)
		if opts.DryRun {
			tr.Files = append(tr.Files, FileResult{Path: stale, Action: ActionSkipped})
			continue
		}
		if err := os.Remove(stale); err != nil {
			tr.Files = append(tr.Files, FileResult{Path: stale, Action: ActionFailed, Error: err})
			continue
		}
		tr.Files = append(tr.Files, FileResult{Path: stale, Action: ActionRemoved})
	}
}

// writeFile commits one file through the session writer and classifies the
// outcome for reporting.
func (s *Syncer) writeFile(session *writer.Session, path, content string, opts Options) FileResult {
	checksum := writer.Checksum([]byte(content))

	if opts.DryRun {
		return FileResult{Path: path, Action: ActionSkipped, Checksum: checksum}
	}

	_, statErr := os.Stat(path)
	existed := statErr == nil

	res, err := session.Write(path, content, writer.Options{
		Force:       opts.Force,
		Interactive: opts.Interactive,
		OnConflict:  opts.OnConflict,
	})
	if err != nil {
		return FileResult{Path: path, Action: ActionFailed, Error: err}
	}

	fr := FileResult{Path: path, Checksum: checksum, BackupPath: res.BackupPath}
	switch {
	case res.Unchanged:
		fr.Action = ActionUnchanged
	case res.Kept:
		fr.Action = ActionKept
	case existed:
		fr.Action = ActionUpdated
	default:
		fr.Action = ActionCreated
	}
	return fr
}

// extractForeign routes sections found only in a read-only target into the
// append-only extraction log. The native file is never backed up on this
// path; the log is the preservation mechanism.
func (s *Syncer) extractForeign(irSections []model.Section, existing []adapter.ParsedSection, sourcePath string, dryRun bool) (int, error) {
	res := s.engine.Extract(irSections, foreignSections(irSections, existing), sourcePath)
	if len(res.Extracted) == 0 {
		return 0, nil
	}
	if dryRun {
		return len(res.Extracted), nil
	}
	if err := merge.AppendLog(s.cfg.Extraction.Log, res); err != nil {
		return 0, err
	}
	logging.Info("extracted foreign sections from read-only target",
		logging.Path(sourcePath),
		logging.Count(len(res.Extracted)),
	)
	return len(res.Extracted), nil
}

// foreignSections returns the parsed sections that have no canonical
// counterpart by fingerprint or normalized heading.
func foreignSections(irSections []model.Section, existing []adapter.ParsedSection) []adapter.ParsedSection {
	headings := make(map[string]bool, len(irSections))
	fingerprints := make(map[string]bool, len(irSections))
	for _, s := range irSections {
		headings[model.NormalizeHeading(s.Heading)] = true
		if s.Fingerprint != "" {
			fingerprints[s.Fingerprint] = true
		}
	}

	var foreign []adapter.ParsedSection
	for _, ex := range existing {
		if ex.Fingerprint != "" && fingerprints[ex.Fingerprint] {
			continue
		}
		if headings[model.NormalizeHeading(ex.Heading)] {
			continue
		}
		foreign = append(foreign, ex)
	}
	return foreign
}

// canonicalOnly drops user-added sections from a merge result, for
// read-only targets that are regenerated purely from the document.
func canonicalOnly(merged merge.Result) []model.Section {
	var out []model.Section
	for _, ms := range merged.Sections {
		if ms.Classification == merge.ClassUserAdded {
			continue
		}
		out = append(out, ms.Section)
	}
	return out
}

// writeLockfile records the approved bundle state after a team-mode pass.
func (s *Syncer) writeLockfile(doc *model.Document, bundleHash string) error {
	rules := make([]trust.LockedRule, 0, len(doc.Sections))
	for i := range doc.Sections {
		sec := &doc.Sections[i]
		rules = append(rules, trust.LockedRule{
			Fingerprint: sec.EffectiveFingerprint(i),
			Heading:     sec.Heading,
			ContentHash: writer.Checksum([]byte(strings.TrimSpace(sec.Content))),
		})
	}
	return trust.NewLockfile(s.cfg.Mode, bundleHash, rules).Save(s.cfg.Trust.Lockfile)
}
