package merge

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rulealign/rulealign/internal/adapter"
	"github.com/rulealign/rulealign/internal/logging"
	"github.com/rulealign/rulealign/internal/model"
)

// ExtractionResult holds the sections recovered from a read-only native
// file that are genuinely new relative to the canonical document.
type ExtractionResult struct {
	SourceFile string
	Timestamp  time.Time

	// Extracted are sections whose content is not already represented in
	// the canonical document.
	Extracted []model.Section

	// Skipped counts native sections that were already represented (by
	// content equality, not just heading).
	Skipped int
}

// Extract scans a read-only native file for sections not already present in
// the canonical document. Presence is judged by content equality so a
// reworded heading over identical guidance is not duplicated. This is a
// one-shot import path: it never writes the native file and never creates a
// full-file backup.
func (e *Engine) Extract(irSections []model.Section, parsed []adapter.ParsedSection, sourceFile string) ExtractionResult {
	defer logging.Timer("extract")()

	result := ExtractionResult{
		SourceFile: sourceFile,
		Timestamp:  time.Now(),
	}

	known := make(map[string]bool, len(irSections))
	for _, s := range irSections {
		known[normalize(s.Content)] = true
	}

	for _, p := range parsed {
		if known[normalize(p.Content)] {
			result.Skipped++
			continue
		}
		result.Extracted = append(result.Extracted, model.Section{
			Heading:     p.Heading,
			Level:       p.Level,
			Content:     p.Content,
			Fingerprint: p.Fingerprint,
			SourceFile:  sourceFile,
		})
	}

	logging.Debug("extraction completed",
		logging.Path(sourceFile),
		slog.Int("extracted", len(result.Extracted)),
		slog.Int("skipped", result.Skipped),
	)

	return result
}

// FormatLogEntry renders one append-only extraction log entry: frontmatter
// recording the source file, timestamp and counts, followed by the
// extracted sections as markdown.
func FormatLogEntry(res ExtractionResult) string {
	var sb strings.Builder

	sb.WriteString("---\n")
	sb.WriteString(fmt.Sprintf("source_file: %s\n", res.SourceFile))
	sb.WriteString(fmt.Sprintf("extracted_at: %s\n", res.Timestamp.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("extracted: %d\n", len(res.Extracted)))
	sb.WriteString(fmt.Sprintf("skipped: %d\n", res.Skipped))
	sb.WriteString("---\n\n")

	for _, s := range res.Extracted {
		level := s.Level
		if level < 1 {
			level = 2
		}
		sb.WriteString(strings.Repeat("#", level))
		sb.WriteString(" ")
		sb.WriteString(strings.TrimSpace(s.Heading))
		sb.WriteString("\n\n")
		if content := normalize(s.Content); content != "" {
			sb.WriteString(content)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// AppendLog appends an extraction entry to the log file, creating it and
// its directory on first use. The log is append-only; nothing already in it
// is ever rewritten.
func AppendLog(path string, res ExtractionResult) error {
	if len(res.Extracted) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create extraction log directory: %w", err)
	}

	// #nosec G304 - path is the configured extraction log
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open extraction log %q: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLogEntry(res)); err != nil {
		return fmt.Errorf("failed to append extraction log: %w", err)
	}
	return nil
}
