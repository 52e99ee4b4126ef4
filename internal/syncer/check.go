package syncer

import (
	"github.com/rulealign/rulealign/internal/hashing"
	"github.com/rulealign/rulealign/internal/model"
	"github.com/rulealign/rulealign/internal/overlay"
	"github.com/rulealign/rulealign/internal/trust"
)

// CheckReport is the read-only health report for a project: schema,
// integrity, overlay selectors and trust state in one pass. Nothing is
// repaired or written.
type CheckReport struct {
	// Source is the canonical document path that was checked.
	Source string

	// Schema holds every schema violation and warning found.
	Schema *model.ValidationResult

	// Integrity is the stored-vs-recomputed hash comparison.
	Integrity hashing.IntegrityResult

	// OverlayHealth reports each configured overlay as healthy or stale.
	OverlayHealth []overlay.Health

	// BundleHash is the canonical hash of the overlay-applied document.
	BundleHash string

	// BundleApproved reports whether the bundle hash is in the allow-list
	// (team mode only; true otherwise).
	BundleApproved bool

	// LockfileCurrent reports whether the lockfile matches the bundle hash.
	// True when no lockfile exists yet.
	LockfileCurrent bool
}

// Healthy returns true when nothing in the report needs attention.
func (r *CheckReport) Healthy() bool {
	if !r.Schema.Valid() || !r.Integrity.Valid {
		return false
	}
	for _, h := range r.OverlayHealth {
		if !h.Healthy {
			return false
		}
	}
	return r.BundleApproved && r.LockfileCurrent
}

// Check runs the read-only project health check.
func (s *Syncer) Check() (*CheckReport, error) {
	doc, err := model.LoadDocumentFile(s.cfg.Source)
	if err != nil {
		return nil, err
	}

	report := &CheckReport{
		Source:          s.cfg.Source,
		Schema:          doc.Validate(s.cfg.SyncMode()),
		Integrity:       hashing.ValidateDocumentIntegrity(doc),
		OverlayHealth:   overlay.CheckHealth(doc, doc.Overlays),
		BundleApproved:  true,
		LockfileCurrent: true,
	}

	applied := overlay.Apply(doc, doc.Overlays)
	report.BundleHash = hashing.ComputeContentHash(applied.Document)

	if s.cfg.SyncMode() == model.ModeTeam {
		list, err := trust.LoadAllowList(s.cfg.Trust.AllowList)
		if err != nil {
			return nil, err
		}
		report.BundleApproved = list.Contains(report.BundleHash)

		lf, err := trust.LoadLockfile(s.cfg.Trust.Lockfile)
		if err != nil {
			return nil, err
		}
		if lf != nil {
			report.LockfileCurrent = lf.Matches(report.BundleHash)
		}
	}

	return report, nil
}
