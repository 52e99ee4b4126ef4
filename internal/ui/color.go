// Package ui renders the status lines rulealign prints for sync outcomes:
// written files, trust and integrity checks, extractions and conflicts.
package ui

import (
	"github.com/fatih/color"
)

var (
	success  = color.New(color.FgGreen).SprintFunc()
	failure  = color.New(color.FgRed).SprintFunc()
	caution  = color.New(color.FgYellow).SprintFunc()
	conflict = color.New(color.FgRed, color.Bold).SprintFunc()
	dim      = color.New(color.Faint).SprintFunc()

	// Header styles a report heading (bold cyan).
	Header = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// Symbols prefixing each status line. Conflict and extraction get their own
// marks so a sync summary reads at a glance.
const (
	SymbolSuccess   = "✓"
	SymbolError     = "✗"
	SymbolWarning   = "⚠"
	SymbolSkipped   = "-"
	SymbolConflict  = "!"
	SymbolExtracted = "»"
)

// StatusSuccess marks a completed step: a verified hash, a written file, an
// approved bundle.
func StatusSuccess(msg string) string {
	return success(SymbolSuccess) + " " + msg
}

// StatusError marks a failed check or write.
func StatusError(msg string) string {
	return failure(SymbolError) + " " + msg
}

// StatusWarning marks a non-fatal finding: a stale overlay selector, a
// locally-owned section the sync left alone.
func StatusWarning(msg string) string {
	return caution(SymbolWarning) + " " + msg
}

// StatusSkipped marks a step that had nothing to do.
func StatusSkipped(msg string) string {
	return dim(SymbolSkipped) + " " + msg
}

// StatusConflict marks a checksum conflict awaiting a decision.
func StatusConflict(msg string) string {
	return conflict(SymbolConflict) + " " + msg
}

// StatusExtracted marks content recovered into the extraction log.
func StatusExtracted(msg string) string {
	return success(SymbolExtracted) + " " + msg
}

// DisableColors turns all color output off, for piped output or --no-color.
func DisableColors() {
	color.NoColor = true
}

// IsColorEnabled reports whether colors are currently enabled.
func IsColorEnabled() bool {
	return !color.NoColor
}
