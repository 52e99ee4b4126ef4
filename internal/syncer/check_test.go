package syncer

import (
	"context"
	"testing"

	"github.com/rulealign/rulealign/internal/trust"
)

func TestCheckHealthySoloProject(t *testing.T) {
	cfg, _ := newTestProject(t, "solo", soloDoc)

	report, err := New(cfg, newTestRegistry()).Check()
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !report.Healthy() {
		t.Errorf("fresh solo project reported unhealthy: %+v", report)
	}
	if report.BundleHash == "" {
		t.Error("bundle hash missing from report")
	}
}

func TestCheckReportsUnapprovedTeamBundle(t *testing.T) {
	cfg, _ := newTestProject(t, "team", teamDoc)
	s := New(cfg, newTestRegistry())

	report, err := s.Check()
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if report.BundleApproved {
		t.Error("unapproved bundle reported as approved")
	}
	if report.Healthy() {
		t.Error("report healthy despite missing approval")
	}

	list := &trust.AllowList{}
	list.Approve(report.BundleHash)
	if err := list.Save(cfg.Trust.AllowList); err != nil {
		t.Fatal(err)
	}

	report, err = s.Check()
	if err != nil {
		t.Fatalf("check failed after approval: %v", err)
	}
	if !report.BundleApproved || !report.Healthy() {
		t.Error("approved bundle still reported unhealthy")
	}
}

func TestExtractTarget(t *testing.T) {
	cfg, dir := newTestProject(t, "solo", soloDoc)
	s := New(cfg, newTestRegistry())

	if _, err := s.Run(context.Background(), Options{}); err != nil {
		t.Fatal(err)
	}
	appendToFile(t, dir+"/CLAUDE.md", "\n## Scratch Notes\n\nKeep these somewhere safe.\n")

	// Dry run counts without writing the log.
	n, err := s.ExtractTarget("claudemd", true)
	if err != nil {
		t.Fatalf("dry-run extract failed: %v", err)
	}
	if n != 1 {
		t.Errorf("dry-run extracted %d sections, want 1", n)
	}

	n, err = s.ExtractTarget("claudemd", false)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if n != 1 {
		t.Errorf("extracted %d sections, want 1", n)
	}

	if _, err := s.ExtractTarget("nope", false); err == nil {
		t.Error("unknown target accepted")
	}
}
