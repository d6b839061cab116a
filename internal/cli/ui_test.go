package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-schulze/internal/application"
	"github.com/ahrav/go-schulze/internal/domain"
)

func TestPrintOutcome(t *testing.T) {
	candidates := []domain.Candidate{{ID: "a", Name: "Alice"}, {ID: "b"}, {ID: "c"}}
	outcome := &application.Outcome{
		ElectionName: "demo",
		Candidates:   candidates,
		Cached:       true,
		Ranking: []domain.RankedTier{
			{Rank: 1, Wins: 2, Candidates: candidates[:1]},
			{Rank: 2, Wins: 0, Candidates: candidates[1:]},
		},
	}

	var buf bytes.Buffer
	printOutcome(&buf, outcome, 4)
	out := buf.String()

	assert.Contains(t, out, "demo")
	assert.Contains(t, out, "3 candidates, 4 ballots")
	assert.Contains(t, out, iconCached)
	assert.Contains(t, out, " 1. ")
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "b = c")
	assert.Contains(t, out, "wins)")
}

func TestPrintMatrix(t *testing.T) {
	candidates := []domain.Candidate{{ID: "x"}, {ID: "long-id"}}
	m := domain.Matrix{{0, 3}, {12, 0}}

	var buf bytes.Buffer
	printMatrix(&buf, "Defeats", m, candidates)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Defeats")
	assert.Contains(t, lines[1], "long-id")

	assert.Equal(t, []string{"x", "-", "3"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"long-id", "12", "-"}, strings.Fields(lines[3]))
}
