package render

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-schulze/internal/domain"
)

func chainResult(t *testing.T) (*domain.Result, []domain.Candidate) {
	t.Helper()

	// a > b > c on every ballot.
	res, err := domain.Evaluate([]domain.Vote{
		domain.NewVote(0, 1, 2).WithWeight(3),
	}, 3)
	require.NoError(t, err)

	return res, []domain.Candidate{
		{ID: "a", Name: "Alice"},
		{ID: "b"},
		{ID: "c", Name: "Carol"},
	}
}

func TestToDOT_Basic(t *testing.T) {
	res, cands := chainResult(t)

	dot := ToDOT(res, cands, Options{})

	assert.True(t, strings.HasPrefix(dot, "digraph G {"))
	assert.Contains(t, dot, `"a" [label="Alice", fillcolor=gold, penwidth=2];`)
	assert.Contains(t, dot, `"b" [label="b"];`)
	assert.Contains(t, dot, `"a" -> "b" [label="3"];`)
	assert.Contains(t, dot, `"b" -> "c" [label="3"];`)
	assert.Contains(t, dot, `"a" -> "c" [label="3"];`)
	assert.NotContains(t, dot, `"c" -> "a"`)
}

func TestToDOT_Reduce(t *testing.T) {
	res, cands := chainResult(t)

	dot := ToDOT(res, cands, Options{Reduce: true})

	assert.Contains(t, dot, `"a" -> "b"`)
	assert.Contains(t, dot, `"b" -> "c"`)
	assert.NotContains(t, dot, `"a" -> "c"`)
}

func TestToDOT_Detailed(t *testing.T) {
	res, cands := chainResult(t)

	dot := ToDOT(res, cands, Options{Detailed: true})

	assert.Contains(t, dot, `label="Carol\nrank: 3\nwins: 0"`)
	assert.Contains(t, dot, `label="Alice\nrank: 1\nwins: 2"`)
}

func TestToDOT_TiesShareRank(t *testing.T) {
	res, err := domain.Evaluate(nil, 2)
	require.NoError(t, err)

	dot := ToDOT(res, []domain.Candidate{{ID: "x"}, {ID: "y"}}, Options{})

	assert.Contains(t, dot, `{ rank=same; "x"; "y"; }`)
	assert.NotContains(t, dot, "->")
}

func TestRenderSVG(t *testing.T) {
	res, cands := chainResult(t)

	svg, err := RenderSVG(context.Background(), ToDOT(res, cands, Options{}))
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
	assert.Contains(t, string(svg), "Alice")
}
