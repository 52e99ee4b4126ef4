package merge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rulealign/rulealign/internal/adapter"
	"github.com/rulealign/rulealign/internal/model"
)

func TestExtractSkipsKnownContent(t *testing.T) {
	ir := []model.Section{
		{Heading: "Testing", Level: 2, Content: "Run tests"},
	}
	parsed := []adapter.ParsedSection{
		// Same guidance under a reworded heading: already represented.
		{Heading: "Tests & CI", Level: 2, Content: "Run tests"},
		{Heading: "Local quirks", Level: 2, Content: "Use the staging database"},
	}

	res := NewEngine().Extract(ir, parsed, "CLAUDE.md")

	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
	if len(res.Extracted) != 1 {
		t.Fatalf("Extracted %d sections, want 1", len(res.Extracted))
	}
	if res.Extracted[0].Heading != "Local quirks" {
		t.Errorf("extracted wrong section: %q", res.Extracted[0].Heading)
	}
	if res.Extracted[0].SourceFile != "CLAUDE.md" {
		t.Errorf("source file not recorded: %q", res.Extracted[0].SourceFile)
	}
}

func TestExtractContentEqualityIgnoresWhitespace(t *testing.T) {
	ir := []model.Section{
		{Heading: "Testing", Level: 2, Content: "Run tests\n"},
	}
	parsed := []adapter.ParsedSection{
		{Heading: "Testing", Level: 2, Content: "Run tests  \r\n"},
	}

	res := NewEngine().Extract(ir, parsed, "CLAUDE.md")
	if len(res.Extracted) != 0 {
		t.Errorf("whitespace variant extracted as new: %+v", res.Extracted)
	}
}

func TestAppendLogCreatesAndAppends(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "state", "extracted.md")

	res := ExtractionResult{
		SourceFile: "CLAUDE.md",
		Extracted: []model.Section{
			{Heading: "Local quirks", Level: 2, Content: "Use the staging database"},
		},
	}

	if err := AppendLog(logPath, res); err != nil {
		t.Fatalf("AppendLog failed: %v", err)
	}
	if err := AppendLog(logPath, res); err != nil {
		t.Fatalf("second AppendLog failed: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	if got := strings.Count(content, "## Local quirks"); got != 2 {
		t.Errorf("log holds %d entries, want 2 (append-only)", got)
	}
	if !strings.Contains(content, "source_file: CLAUDE.md") {
		t.Error("log entry missing source attribution")
	}
}

func TestAppendLogNoOpWhenNothingExtracted(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "extracted.md")

	if err := AppendLog(logPath, ExtractionResult{SourceFile: "CLAUDE.md"}); err != nil {
		t.Fatalf("AppendLog failed: %v", err)
	}
	if _, err := os.Stat(logPath); !os.IsNotExist(err) {
		t.Error("empty extraction created a log file")
	}
}

func TestDiffSummaryCounts(t *testing.T) {
	hunks := Diff("a\nb\nc", "a\nB\nc\nd")
	summary := DiffSummary(hunks)

	if !strings.Contains(summary, "+2") || !strings.Contains(summary, "-1") {
		t.Errorf("DiffSummary = %q, want +2/-1", summary)
	}
}
