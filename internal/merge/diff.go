package merge

import (
	"fmt"
	"strings"
)

// DiffLineType indicates the type of a diff line.
type DiffLineType string

const (
	// DiffLineContext is an unchanged line (context).
	DiffLineContext DiffLineType = " "

	// DiffLineAdded is a line added in the incoming content.
	DiffLineAdded DiffLineType = "+"

	// DiffLineRemoved is a line removed from the existing content.
	DiffLineRemoved DiffLineType = "-"
)

// DiffLine represents a single line in a diff.
type DiffLine struct {
	Type    DiffLineType
	Content string
}

// String returns a human-readable representation of the diff line.
func (dl DiffLine) String() string {
	return string(dl.Type) + dl.Content
}

// DiffHunk represents a contiguous block of changes in a diff.
type DiffHunk struct {
	ExistingStart int
	ExistingCount int
	IncomingStart int
	IncomingCount int
	Lines         []DiffLine
}

// Header returns the unified-diff style hunk header.
func (h DiffHunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@",
		h.ExistingStart, h.ExistingCount,
		h.IncomingStart, h.IncomingCount)
}

// Diff computes the hunks between existing and incoming content. It backs
// the conflict prompt and the check report; the merge itself works on whole
// sections, not lines.
func Diff(existing, incoming string) []DiffHunk {
	return computeDiff(strings.Split(existing, "\n"), strings.Split(incoming, "\n"))
}

// DiffSummary returns a one-line "+N/-M lines in K hunk(s)" description.
func DiffSummary(hunks []DiffHunk) string {
	added, removed := 0, 0
	for _, hunk := range hunks {
		for _, line := range hunk.Lines {
			switch line.Type {
			case DiffLineAdded:
				added++
			case DiffLineRemoved:
				removed++
			}
		}
	}
	return fmt.Sprintf("%d hunk(s), +%d/-%d lines", len(hunks), added, removed)
}

// computeDiff computes the diff hunks between existing and incoming lines
// using a longest-common-subsequence walk.
func computeDiff(existing, incoming []string) []DiffHunk {
	lcs := longestCommonSubsequence(existing, incoming)

	var hunks []DiffHunk
	var currentHunk *DiffHunk

	exIdx, inIdx, lcsIdx := 0, 0, 0

	for exIdx < len(existing) || inIdx < len(incoming) {
		inLCS := lcsIdx < len(lcs) &&
			exIdx < len(existing) &&
			inIdx < len(incoming) &&
			existing[exIdx] == lcs[lcsIdx] &&
			incoming[inIdx] == lcs[lcsIdx]

		if inLCS {
			if currentHunk != nil {
				currentHunk.Lines = append(currentHunk.Lines, DiffLine{
					Type:    DiffLineContext,
					Content: existing[exIdx],
				})
				hunks = append(hunks, *currentHunk)
				currentHunk = nil
			}
			exIdx++
			inIdx++
			lcsIdx++
		} else {
			if currentHunk == nil {
				currentHunk = &DiffHunk{
					ExistingStart: exIdx + 1,
					IncomingStart: inIdx + 1,
				}
			}

			if exIdx < len(existing) && (lcsIdx >= len(lcs) || existing[exIdx] != lcs[lcsIdx]) {
				currentHunk.Lines = append(currentHunk.Lines, DiffLine{
					Type:    DiffLineRemoved,
					Content: existing[exIdx],
				})
				currentHunk.ExistingCount++
				exIdx++
			}

			if inIdx < len(incoming) && (lcsIdx >= len(lcs) || incoming[inIdx] != lcs[lcsIdx]) {
				currentHunk.Lines = append(currentHunk.Lines, DiffLine{
					Type:    DiffLineAdded,
					Content: incoming[inIdx],
				})
				currentHunk.IncomingCount++
				inIdx++
			}
		}
	}

	if currentHunk != nil {
		hunks = append(hunks, *currentHunk)
	}

	return hunks
}

// longestCommonSubsequence finds the LCS of two string slices.
func longestCommonSubsequence(a, b []string) []string {
	m, n := len(a), len(b)
	if m == 0 || n == 0 {
		return nil
	}

	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else {
				dp[i][j] = max(dp[i-1][j], dp[i][j-1])
			}
		}
	}

	lcs := make([]string, dp[m][n])
	i, j, idx := m, n, dp[m][n]-1

	for i > 0 && j > 0 {
		if a[i-1] == b[j-1] {
			lcs[idx] = a[i-1]
			i--
			j--
			idx--
		} else if dp[i-1][j] > dp[i][j-1] {
			i--
		} else {
			j--
		}
	}

	return lcs
}
