package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/rulealign/rulealign/internal/merge"
	"github.com/rulealign/rulealign/internal/ui"
	"github.com/rulealign/rulealign/internal/ui/tui"
	"github.com/rulealign/rulealign/internal/writer"
)

// ConflictResolver supplies the writer's per-conflict decision callback.
// On a color-capable terminal it runs the full-screen picker; otherwise it
// falls back to a plain line prompt.
type ConflictResolver struct {
	reader   *bufio.Reader
	terminal bool
}

// NewConflictResolver creates the resolver. It fails when stdin is not a
// terminal at all, because interactive resolution then has nobody to ask.
func NewConflictResolver() (*ConflictResolver, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, fmt.Errorf("interactive conflict resolution requires a terminal; re-run with --force or without --interactive")
	}
	return &ConflictResolver{
		reader:   bufio.NewReader(os.Stdin),
		terminal: true,
	}, nil
}

// Decide resolves one checksum conflict.
func (cr *ConflictResolver) Decide(info writer.ConflictInfo) (writer.Decision, error) {
	if ui.IsColorEnabled() {
		return tui.RunConflictPicker(info)
	}
	return cr.promptPlain(info)
}

// promptPlain is the no-color fallback: a unified diff preview and a single
// letter choice.
func (cr *ConflictResolver) promptPlain(info writer.ConflictInfo) (writer.Decision, error) {
	hunks := merge.Diff(info.ExistingContent, info.NewContent)

	fmt.Println()
	fmt.Println(ui.StatusConflict(fmt.Sprintf("%s was modified outside this sync session", info.Path)))
	fmt.Printf("Changes (on-disk vs synced): %s\n", merge.DiffSummary(hunks))

	for {
		fmt.Print("\n[o]verwrite, [k]eep on-disk, [a]bort, [d]iff: ")
		response, err := cr.reader.ReadString('\n')
		if err != nil {
			return writer.DecisionAbort, fmt.Errorf("failed to read input: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(response)) {
		case "o", "overwrite":
			return writer.DecisionOverwrite, nil
		case "k", "keep":
			return writer.DecisionKeep, nil
		case "a", "abort":
			return writer.DecisionAbort, nil
		case "d", "diff":
			cr.showDiff(hunks)
		default:
			fmt.Print("Invalid choice.")
		}
	}
}

// showDiff prints the full diff between on-disk and synced content.
func (cr *ConflictResolver) showDiff(hunks []merge.DiffHunk) {
	fmt.Println(strings.Repeat("-", 50))
	for _, hunk := range hunks {
		fmt.Println(hunk.Header())
		for _, line := range hunk.Lines {
			fmt.Println(line.String())
		}
	}
	fmt.Println(strings.Repeat("-", 50))
}
