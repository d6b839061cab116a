package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// wikipediaYAML is the five-candidate example from the German Wikipedia
// article on the Schulze method. Eve wins outright.
const wikipediaYAML = `version: "1.0.0"
metadata:
  name: wikipedia
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

// strictYAML loads but fails evaluation: its parser rejects ballots that
// leave a candidate unranked.
const strictYAML = `version: "1.0.0"
metadata:
  name: strict
candidates:
  - {id: a}
  - {id: b}
  - {id: c}
ballots:
  - {ranking: "a > b"}
units:
  - id: parse
    type: ballot_parser
    parameters:
      unranked: error
  - id: rank
    type: schulze
`

const tinyTOML = `version = "1.0.0"

[metadata]
name = "tiny"

[[candidates]]
id = "x"

[[candidates]]
id = "y"

[[ballots]]
ranking = "y > x"
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
