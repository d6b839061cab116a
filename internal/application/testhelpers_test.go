package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// wikipediaYAML is the five-candidate example from the German Wikipedia
// article on the Schulze method. The ranking is e > a > c > b > d.
const wikipediaYAML = `version: "1.0.0"
metadata:
  name: wikipedia
  description: Schulze method example one
  tags: [example]
candidates:
  - {id: a, name: Alice}
  - {id: b, name: Bob}
  - {id: c, name: Carol}
  - {id: d, name: Dave}
  - {id: e, name: Eve}
ballots:
  - {ranking: "a > c > b > e > d", count: 5}
  - {ranking: "a > d > e > c > b", count: 5}
  - {ranking: "b > e > d > a > c", count: 8}
  - {ranking: "c > a > b > e > d", count: 3}
  - {ranking: "c > a > e > b > d", count: 7}
  - {ranking: "c > b > a > d > e", count: 2}
  - {ranking: "d > c > e > b > a", count: 7}
  - {ranking: "e > b > a > d > c", count: 8}
`

// wikipediaTOML is wikipediaYAML written as TOML.
const wikipediaTOML = `version = "1.0.0"

[metadata]
name = "wikipedia"
description = "Schulze method example one"
tags = ["example"]

[[candidates]]
id = "a"
name = "Alice"

[[candidates]]
id = "b"
name = "Bob"

[[candidates]]
id = "c"
name = "Carol"

[[candidates]]
id = "d"
name = "Dave"

[[candidates]]
id = "e"
name = "Eve"

[[ballots]]
ranking = "a > c > b > e > d"
count = 5

[[ballots]]
ranking = "a > d > e > c > b"
count = 5

[[ballots]]
ranking = "b > e > d > a > c"
count = 8

[[ballots]]
ranking = "c > a > b > e > d"
count = 3

[[ballots]]
ranking = "c > a > e > b > d"
count = 7

[[ballots]]
ranking = "c > b > a > d > e"
count = 2

[[ballots]]
ranking = "d > c > e > b > a"
count = 7

[[ballots]]
ranking = "e > b > a > d > c"
count = 8
`

func newTestLoader(t *testing.T) *ElectionLoader {
	t.Helper()
	loader, err := NewElectionLoader(NewDefaultUnitRegistry(), nil)
	require.NoError(t, err)
	return loader
}

func loadYAML(t *testing.T, doc string) *Election {
	t.Helper()
	election, err := newTestLoader(t).Load(context.Background(), []byte(doc), FormatYAML)
	require.NoError(t, err)
	return election
}
