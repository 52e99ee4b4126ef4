// Package tui provides interactive terminal UI components using BubbleTea.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rulealign/rulealign/internal/merge"
	"github.com/rulealign/rulealign/internal/writer"
)

// conflictKeyMap defines the key bindings for the conflict picker.
type conflictKeyMap struct {
	Overwrite key.Binding
	Keep      key.Binding
	Abort     key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultConflictKeyMap() conflictKeyMap {
	return conflictKeyMap{
		Overwrite: key.NewBinding(
			key.WithKeys("o", "1"),
			key.WithHelp("o/1", "overwrite with synced content"),
		),
		Keep: key.NewBinding(
			key.WithKeys("k", "2"),
			key.WithHelp("k/2", "keep on-disk content"),
		),
		Abort: key.NewBinding(
			key.WithKeys("a", "3", "esc"),
			key.WithHelp("a/3", "abort sync"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit (abort)"),
		),
	}
}

// Styles for the conflict picker.
var conflictStyles = struct {
	Title      lipgloss.Style
	Help       lipgloss.Style
	Status     lipgloss.Style
	Added      lipgloss.Style
	Removed    lipgloss.Style
	Context    lipgloss.Style
	HunkHeader lipgloss.Style
	Info       lipgloss.Style
}{
	Title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1),
	Help:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Status:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1),
	Added:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	Removed:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	Context:    lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	HunkHeader: lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true),
	Info:       lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Italic(true),
}

// ConflictPickerModel is the BubbleTea model for resolving one checksum
// conflict: it shows the on-disk vs synced diff and asks for a decision.
type ConflictPickerModel struct {
	info     writer.ConflictInfo
	hunks    []merge.DiffHunk
	viewport viewport.Model
	keys     conflictKeyMap
	decision writer.Decision
	showHelp bool
	quitting bool
	ready    bool
	width    int
	height   int
}

// NewConflictPickerModel creates a picker for one conflict.
func NewConflictPickerModel(info writer.ConflictInfo) ConflictPickerModel {
	return ConflictPickerModel{
		info:     info,
		hunks:    merge.Diff(info.ExistingContent, info.NewContent),
		keys:     defaultConflictKeyMap(),
		decision: writer.DecisionAbort,
	}
}

// Init implements tea.Model.
func (m ConflictPickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ConflictPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 5
		footerHeight := 4
		viewportHeight := max(msg.Height-headerHeight-footerHeight, 5)

		if !m.ready {
			m.viewport = viewport.New(msg.Width-2, viewportHeight)
			m.viewport.SetContent(m.buildDiffContent())
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 2
			m.viewport.Height = viewportHeight
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Overwrite):
			m.decision = writer.DecisionOverwrite
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Keep):
			m.decision = writer.DecisionKeep
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Abort), key.Matches(msg, m.keys.Quit):
			m.decision = writer.DecisionAbort
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m ConflictPickerModel) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(conflictStyles.Title.Render(fmt.Sprintf("Checksum conflict: %s", m.info.Path)))
	b.WriteString("\n\n")
	b.WriteString(conflictStyles.Info.Render("The file changed outside this sync session. On-disk (-) vs synced (+):"))
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	scrollPercent := int(m.viewport.ScrollPercent() * 100)
	status := fmt.Sprintf("%s • Scroll: %d%%", merge.DiffSummary(m.hunks), scrollPercent)
	b.WriteString(conflictStyles.Status.Render(status))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(m.renderFullHelp())
	} else {
		b.WriteString(m.renderShortHelp())
	}

	return b.String()
}

func (m ConflictPickerModel) buildDiffContent() string {
	if len(m.hunks) == 0 {
		return conflictStyles.Context.Render("No textual differences (whitespace or encoding only).")
	}

	var b strings.Builder
	for i, hunk := range m.hunks {
		b.WriteString(conflictStyles.HunkHeader.Render(hunk.Header()))
		b.WriteString("\n")
		for _, line := range hunk.Lines {
			var styled string
			switch line.Type {
			case merge.DiffLineAdded:
				styled = conflictStyles.Added.Render("+" + line.Content)
			case merge.DiffLineRemoved:
				styled = conflictStyles.Removed.Render("-" + line.Content)
			default:
				styled = conflictStyles.Context.Render(" " + line.Content)
			}
			b.WriteString(styled)
			b.WriteString("\n")
		}
		if i < len(m.hunks)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m ConflictPickerModel) renderShortHelp() string {
	keys := []string{
		"↑/↓ scroll",
		"o overwrite",
		"k keep",
		"a abort",
		"? help",
	}
	return conflictStyles.Help.Render(strings.Join(keys, " • "))
}

func (m ConflictPickerModel) renderFullHelp() string {
	help := `Navigation:
  ↑/k      Scroll up
  ↓/j      Scroll down
  PgUp     Page up
  PgDown   Page down

Decision:
  o/1      Overwrite the file with the synced content (a backup is taken)
  k/2      Keep the on-disk content, skip this file
  a/3      Abort the whole sync pass

General:
  ?        Toggle full help
  q        Quit (aborts)`
	return conflictStyles.Help.Render(help)
}

// Decision returns the user's choice after the program exits.
func (m ConflictPickerModel) Decision() writer.Decision {
	return m.decision
}

// RunConflictPicker runs the interactive picker for one conflict and
// returns the decision.
func RunConflictPicker(info writer.ConflictInfo) (writer.Decision, error) {
	mdl := NewConflictPickerModel(info)
	finalModel, err := tea.NewProgram(mdl, tea.WithAltScreen()).Run()
	if err != nil {
		return writer.DecisionAbort, err
	}

	if m, ok := finalModel.(ConflictPickerModel); ok {
		return m.Decision(), nil
	}
	return writer.DecisionAbort, nil
}
