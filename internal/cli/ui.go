package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ahrav/go-schulze/internal/application"
	"github.com/ahrav/go-schulze/internal/domain"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorGold  = lipgloss.Color("220")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleWinner for the first tier.
	StyleWinner = lipgloss.NewStyle().Bold(true).Foreground(colorGold)

	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleHeader   = lipgloss.NewStyle().Bold(true)
)

const (
	iconCached = "cached"
	iconFresh  = "fresh"
)

// printOutcome writes the ranking of outcome as styled text.
func printOutcome(w io.Writer, outcome *application.Outcome, ballots int) {
	status := styleComputed.Render(iconFresh)
	if outcome.Cached {
		status = styleCached.Render(iconCached)
	}

	fmt.Fprintf(w, "%s %s\n",
		StyleTitle.Render(outcome.ElectionName),
		StyleDim.Render(fmt.Sprintf("(%d candidates, %d ballots, %s)", len(outcome.Candidates), ballots, status)))

	for _, tier := range outcome.Ranking {
		names := make([]string, len(tier.Candidates))
		for i, c := range tier.Candidates {
			names[i] = c.DisplayName()
		}
		line := strings.Join(names, " = ")
		if tier.Rank == 1 {
			line = StyleWinner.Render(line)
		}
		fmt.Fprintf(w, "  %2d. %s %s\n", tier.Rank, line,
			StyleDim.Render(fmt.Sprintf("(%s wins)", StyleNumber.Render(fmt.Sprint(tier.Wins)))))
	}
}

// printMatrix writes m as a table labelled with candidate IDs. Diagonal
// cells are shown as "-".
func printMatrix(w io.Writer, title string, m domain.Matrix, candidates []domain.Candidate) {
	width := 3
	for _, c := range candidates {
		width = max(width, len(c.ID))
	}
	for _, row := range m {
		for _, v := range row {
			width = max(width, len(fmt.Sprint(v)))
		}
	}

	fmt.Fprintln(w, StyleTitle.Render(title))

	var header strings.Builder
	header.WriteString(strings.Repeat(" ", width+2))
	for _, c := range candidates {
		fmt.Fprintf(&header, " %*s", width, c.ID)
	}
	fmt.Fprintln(w, styleHeader.Render(header.String()))

	for i, row := range m {
		var line strings.Builder
		fmt.Fprintf(&line, "  %-*s", width, candidates[i].ID)
		for j, v := range row {
			cell := fmt.Sprint(v)
			if i == j {
				cell = "-"
			}
			fmt.Fprintf(&line, " %*s", width, cell)
		}
		fmt.Fprintln(w, line.String())
	}
}
