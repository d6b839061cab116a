// Package render draws Schulze results as Graphviz node-link diagrams.
//
// # Overview
//
// Each candidate becomes a node and each pair where one candidate beats the
// other under the Schulze relation becomes an edge from winner to loser,
// labelled with the winning path strength. Candidates in the same tier are
// placed on the same rank so the drawing reads top to bottom from winners
// to losers.
//
// # Usage
//
//	dot := render.ToDOT(result, candidates, render.Options{Reduce: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// The DOT source can also be written to disk and processed with external
// Graphviz tools.
//
// # Dependencies
//
// SVG output uses [github.com/goccy/go-graphviz], which embeds Graphviz and
// needs no system installation.
package render
