// Package units provides the election pipeline units that implement
// ports.Unit: turning labelled ballots into votes and running the Schulze
// evaluation over them.
package units

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// Unit type names as used in election files and the unit registry.
const (
	TypeBallotParser = "ballot_parser"
	TypeSchulze      = "schulze"
)

// TieOrder selects how candidates inside one tier are listed.
type TieOrder string

const (
	// TieOrderIndex keeps candidates in declaration order.
	TieOrderIndex TieOrder = "index"
	// TieOrderName sorts candidates by display name.
	TieOrderName TieOrder = "name"
)

// UnrankedPolicy decides what happens to candidates a ballot leaves out.
type UnrankedPolicy string

const (
	// UnrankedLast ties every omitted candidate below the ranked ones.
	UnrankedLast UnrankedPolicy = "last"
	// UnrankedError rejects ballots that omit a candidate.
	UnrankedError UnrankedPolicy = "error"
)

var (
	// ErrEmptyUnitName is returned when a unit is created without a name.
	ErrEmptyUnitName = errors.New("unit name cannot be empty")

	// ErrUnknownCandidate is returned when a ballot names a candidate that
	// is not on the candidate list.
	ErrUnknownCandidate = errors.New("unknown candidate")

	// ErrDuplicateCandidate is returned when a ballot ranks a candidate twice.
	ErrDuplicateCandidate = errors.New("candidate ranked more than once")

	// ErrAmbiguousCandidate is returned when two candidates collapse to
	// the same reference under case folding.
	ErrAmbiguousCandidate = errors.New("ambiguous candidate reference")

	// ErrUnrankedCandidate is returned under UnrankedError when a ballot
	// omits a candidate.
	ErrUnrankedCandidate = errors.New("candidate not ranked")

	// ErrNoVotes is returned when require_votes is set and there is
	// nothing to count.
	ErrNoVotes = errors.New("no votes to evaluate")
)

var validate = validator.New()

// fold applies Unicode case folding. A cases.Caser keeps internal state,
// so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// decodeStrict re-encodes params and decodes them over out, rejecting
// unknown fields. An empty node leaves out untouched.
func decodeStrict(params yaml.Node, out any) error {
	if params.Kind == 0 {
		return nil
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	if err := encoder.Encode(&params); err != nil {
		return fmt.Errorf("failed to encode YAML node: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to close YAML encoder: %w", err)
	}

	decoder := yaml.NewDecoder(&buf)
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("failed to decode parameters (check for typos): %w", err)
	}
	return nil
}

// intParam reads an integer parameter that may have been decoded from YAML
// (int) or JSON (float64).
func intParam(config map[string]any, key string) (int, bool) {
	switch v := config[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
