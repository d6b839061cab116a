package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/ahrav/go-schulze/internal/domain"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds tier and win count to node labels.
	Detailed bool

	// Reduce drops an edge i -> k whenever some j gives i -> j -> k. The
	// Schulze relation is transitive, so the reduced graph keeps the same
	// order with far fewer edges.
	Reduce bool
}

// ToDOT converts a result over candidates to Graphviz DOT. candidates must
// be in index order and cover result.Candidates() entries.
func ToDOT(result *domain.Result, candidates []domain.Candidate, opts Options) string {
	n := result.Candidates()
	paths := result.Paths()
	wins := result.Wins()

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=12];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for pos, tier := range result.Tiers() {
		for _, i := range tier {
			attrs := []string{fmt.Sprintf("label=%q", nodeLabel(candidates[i], pos, wins[i], opts.Detailed))}
			if pos == 0 {
				attrs = append(attrs, "fillcolor=gold", "penwidth=2")
			}
			fmt.Fprintf(&buf, "  %q [%s];\n", candidates[i].ID, strings.Join(attrs, ", "))
		}
		if len(tier) > 1 {
			ids := make([]string, len(tier))
			for k, i := range tier {
				ids[k] = fmt.Sprintf("%q", candidates[i].ID)
			}
			fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(ids, "; "))
		}
	}

	buf.WriteString("\n")
	for i := range n {
		for j := range n {
			if !result.Beats(i, j) {
				continue
			}
			if opts.Reduce && implied(result, n, i, j) {
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q [label=\"%d\"];\n", candidates[i].ID, candidates[j].ID, paths[i][j])
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(c domain.Candidate, tier, wins int, detailed bool) string {
	if !detailed {
		return c.DisplayName()
	}
	return fmt.Sprintf("%s\nrank: %d\nwins: %d", c.DisplayName(), tier+1, wins)
}

// implied reports whether i -> j also follows from some i -> k -> j.
func implied(result *domain.Result, n, i, j int) bool {
	for k := range n {
		if k != i && k != j && result.Beats(i, k) && result.Beats(k, j) {
			return true
		}
	}
	return false
}

// RenderSVG renders DOT source to SVG using the embedded Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
