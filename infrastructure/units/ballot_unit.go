package units

import (
	"context"
	"fmt"

	"github.com/agnivade/levenshtein"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-schulze/internal/domain"
	"github.com/ahrav/go-schulze/internal/ports"
)

var _ ports.Unit = (*BallotUnit)(nil)

// BallotUnit converts labelled ballots into index-based votes.
// It reads domain.KeyCandidates and domain.KeyBallots and writes
// domain.KeyVotes. The unit is stateless and safe for concurrent use.
type BallotUnit struct {
	name   string
	config BallotConfig
	tracer trace.Tracer
}

// BallotConfig defines how ballot references are resolved.
type BallotConfig struct {
	// CaseSensitive disables Unicode case folding of candidate references.
	CaseSensitive bool `yaml:"case_sensitive" json:"case_sensitive"`

	// Unranked decides what happens to candidates a ballot omits.
	Unranked UnrankedPolicy `yaml:"unranked" json:"unranked" validate:"required,oneof=last error"`

	// MaxSuggestionDistance bounds the edit distance of the "did you mean"
	// hint attached to unknown references. Zero disables suggestions.
	MaxSuggestionDistance int `yaml:"max_suggestion_distance" json:"max_suggestion_distance" validate:"min=0,max=10"`
}

// DefaultBallotConfig returns a BallotConfig with case-insensitive matching,
// unranked candidates placed last and suggestions up to distance 2.
func DefaultBallotConfig() BallotConfig {
	return BallotConfig{
		CaseSensitive:         false,
		Unranked:              UnrankedLast,
		MaxSuggestionDistance: 2,
	}
}

// NewBallotUnit creates a BallotUnit after validating config.
func NewBallotUnit(name string, config BallotConfig) (*BallotUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &BallotUnit{
		name:   name,
		config: config,
		tracer: otel.Tracer("ballot-unit"),
	}, nil
}

// Name returns the unit's identifier.
func (bu *BallotUnit) Name() string { return bu.name }

// Execute resolves every ballot against the candidate list and stores the
// resulting votes. Ballot i becomes vote i; a ballot that cannot be
// resolved fails the whole step.
func (bu *BallotUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := bu.tracer.Start(ctx, "BallotUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", TypeBallotParser),
			attribute.String("unit.id", bu.name),
			attribute.Bool("config.case_sensitive", bu.config.CaseSensitive),
			attribute.String("config.unranked", string(bu.config.Unranked)),
		),
	)
	defer span.End()

	fail := func(err error) (domain.State, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return state, err
	}

	candidates, err := domain.Require(state, domain.KeyCandidates)
	if err != nil {
		return fail(err)
	}
	ballots, err := domain.Require(state, domain.KeyBallots)
	if err != nil {
		return fail(err)
	}

	votes, err := bu.Parse(candidates, ballots)
	if err != nil {
		return fail(err)
	}

	span.SetAttributes(
		attribute.Int("election.candidates", len(candidates)),
		attribute.Int("election.ballots", len(ballots)),
	)

	return domain.With(state, domain.KeyVotes, votes), nil
}

// Parse converts ballots into votes over candidates. Within a ballot the
// first group gets position 0, the next position 1 and so on; omitted
// candidates share the position after the last group.
func (bu *BallotUnit) Parse(candidates []domain.Candidate, ballots []domain.Ballot) ([]domain.Vote, error) {
	index, err := bu.buildIndex(candidates)
	if err != nil {
		return nil, err
	}

	votes := make([]domain.Vote, 0, len(ballots))
	for bi, ballot := range ballots {
		ranking, err := bu.rank(index, candidates, ballot)
		if err != nil {
			return nil, fmt.Errorf("ballot %d: %w", bi, err)
		}
		votes = append(votes, domain.Vote{Ranking: ranking, Weight: ballot.Weight})
	}
	return votes, nil
}

// buildIndex maps each normalized candidate ID to its position.
func (bu *BallotUnit) buildIndex(candidates []domain.Candidate) (map[string]int, error) {
	index := make(map[string]int, len(candidates))
	for i, c := range candidates {
		key := bu.normalize(c.ID)
		if prev, ok := index[key]; ok {
			return nil, fmt.Errorf("%w: %q and %q", ErrAmbiguousCandidate, candidates[prev].ID, c.ID)
		}
		index[key] = i
	}
	return index, nil
}

func (bu *BallotUnit) rank(index map[string]int, candidates []domain.Candidate, ballot domain.Ballot) ([]int, error) {
	const unset = -1

	ranking := make([]int, len(candidates))
	for i := range ranking {
		ranking[i] = unset
	}

	for pos, group := range ballot.Groups {
		for _, ref := range group {
			idx, ok := index[bu.normalize(ref)]
			if !ok {
				return nil, bu.unknown(ref, index, candidates)
			}
			if ranking[idx] != unset {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateCandidate, candidates[idx].ID)
			}
			ranking[idx] = pos
		}
	}

	last := len(ballot.Groups)
	for i, pos := range ranking {
		if pos != unset {
			continue
		}
		if bu.config.Unranked == UnrankedError {
			return nil, fmt.Errorf("%w: %q", ErrUnrankedCandidate, candidates[i].ID)
		}
		ranking[i] = last
	}
	return ranking, nil
}

// unknown builds the error for an unresolved reference, naming the closest
// candidate when it is within the configured distance.
func (bu *BallotUnit) unknown(ref string, index map[string]int, candidates []domain.Candidate) error {
	if bu.config.MaxSuggestionDistance == 0 {
		return fmt.Errorf("%w: %q", ErrUnknownCandidate, ref)
	}

	target := bu.normalize(ref)
	best, bestDist := -1, bu.config.MaxSuggestionDistance+1
	for key, i := range index {
		d := levenshtein.ComputeDistance(target, key)
		if d < bestDist || (d == bestDist && best >= 0 && i < best) {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownCandidate, ref)
	}
	return fmt.Errorf("%w: %q (did you mean %q?)", ErrUnknownCandidate, ref, candidates[best].ID)
}

func (bu *BallotUnit) normalize(ref string) string {
	if bu.config.CaseSensitive {
		return ref
	}
	return fold(ref)
}

// Validate checks the unit configuration.
func (bu *BallotUnit) Validate() error {
	if err := validate.Struct(bu.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters decodes YAML parameters over the current
// configuration and returns a new unit carrying them.
func (bu *BallotUnit) UnmarshalParameters(params yaml.Node) (*BallotUnit, error) {
	config := bu.config
	if err := decodeStrict(params, &config); err != nil {
		return nil, err
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("parameter validation failed: %w", err)
	}

	return &BallotUnit{
		name:   bu.name,
		config: config,
		tracer: bu.tracer,
	}, nil
}

// CreateBallotUnit builds a BallotUnit from a configuration map, following
// the UnitFactory pattern.
func CreateBallotUnit(id string, config map[string]any) (*BallotUnit, error) {
	ballotConfig := DefaultBallotConfig()

	if caseSensitive, ok := config["case_sensitive"].(bool); ok {
		ballotConfig.CaseSensitive = caseSensitive
	}
	if unranked, ok := config["unranked"].(string); ok {
		ballotConfig.Unranked = UnrankedPolicy(unranked)
	}
	if dist, ok := intParam(config, "max_suggestion_distance"); ok {
		ballotConfig.MaxSuggestionDistance = dist
	}

	return NewBallotUnit(id, ballotConfig)
}
