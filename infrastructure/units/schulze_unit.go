package units

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-schulze/internal/domain"
	"github.com/ahrav/go-schulze/internal/ports"
)

var (
	_ ports.Unit            = (*SchulzeUnit)(nil)
	_ domain.RankAggregator = (*SchulzeUnit)(nil)
)

// SchulzeUnit runs the Schulze evaluation. It reads domain.KeyCandidates
// and domain.KeyVotes and writes domain.KeyResult together with the
// labelled domain.KeyRanking.
type SchulzeUnit struct {
	name   string
	config SchulzeConfig
	tracer trace.Tracer
}

// SchulzeConfig defines the parameters of a SchulzeUnit.
type SchulzeConfig struct {
	// TieOrder lists tied candidates by declaration index or by name.
	TieOrder TieOrder `yaml:"tie_order" json:"tie_order" validate:"required,oneof=index name"`

	// RequireVotes makes an empty ballot box an error instead of a
	// single tier holding everyone.
	RequireVotes bool `yaml:"require_votes" json:"require_votes"`
}

// DefaultSchulzeConfig returns a SchulzeConfig listing ties by index and
// accepting an empty ballot box.
func DefaultSchulzeConfig() SchulzeConfig {
	return SchulzeConfig{TieOrder: TieOrderIndex}
}

// NewSchulzeUnit creates a SchulzeUnit after validating config.
func NewSchulzeUnit(name string, config SchulzeConfig) (*SchulzeUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &SchulzeUnit{
		name:   name,
		config: config,
		tracer: otel.Tracer("schulze-unit"),
	}, nil
}

// Name returns the unit's identifier.
func (su *SchulzeUnit) Name() string { return su.name }

// Execute evaluates the votes in state over its candidates.
func (su *SchulzeUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := su.tracer.Start(ctx, "SchulzeUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", TypeSchulze),
			attribute.String("unit.id", su.name),
			attribute.String("config.tie_order", string(su.config.TieOrder)),
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
	votes, err := domain.Require(state, domain.KeyVotes)
	if err != nil {
		return fail(err)
	}

	result, err := su.Aggregate(votes, len(candidates))
	if err != nil {
		return fail(fmt.Errorf("schulze evaluation failed: %w", err))
	}
	ranking := su.Label(result, candidates)

	span.SetAttributes(
		attribute.Int("election.candidates", len(candidates)),
		attribute.Int("election.votes", len(votes)),
		attribute.Int("result.tiers", len(ranking)),
		attribute.Int("result.winners", len(result.Winners())),
	)

	next := domain.With(state, domain.KeyResult, result)
	return domain.With(next, domain.KeyRanking, ranking), nil
}

// Aggregate implements domain.RankAggregator.
func (su *SchulzeUnit) Aggregate(votes []domain.Vote, n int) (*domain.Result, error) {
	if su.config.RequireVotes && len(votes) == 0 {
		return nil, ErrNoVotes
	}
	return domain.Evaluate(votes, n)
}

// Label resolves the tiers of result to candidates, ordering members of a
// tier according to the configured TieOrder.
func (su *SchulzeUnit) Label(result *domain.Result, candidates []domain.Candidate) []domain.RankedTier {
	wins := result.Wins()
	tiers := result.Tiers()

	ranking := make([]domain.RankedTier, len(tiers))
	for pos, tier := range tiers {
		members := make([]domain.Candidate, len(tier))
		for i, idx := range tier {
			members[i] = candidates[idx]
		}
		if su.config.TieOrder == TieOrderName {
			slices.SortStableFunc(members, func(a, b domain.Candidate) int {
				return cmp.Compare(fold(a.DisplayName()), fold(b.DisplayName()))
			})
		}
		ranking[pos] = domain.RankedTier{
			Rank:       pos + 1,
			Wins:       wins[tier[0]],
			Candidates: members,
		}
	}
	return ranking
}

// Validate checks the unit configuration.
func (su *SchulzeUnit) Validate() error {
	if err := validate.Struct(su.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters decodes YAML parameters over the current
// configuration and returns a new unit carrying them.
func (su *SchulzeUnit) UnmarshalParameters(params yaml.Node) (*SchulzeUnit, error) {
	config := su.config
	if err := decodeStrict(params, &config); err != nil {
		return nil, err
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("parameter validation failed: %w", err)
	}

	return &SchulzeUnit{
		name:   su.name,
		config: config,
		tracer: su.tracer,
	}, nil
}

// CreateSchulzeUnit builds a SchulzeUnit from a configuration map,
// following the UnitFactory pattern.
func CreateSchulzeUnit(id string, config map[string]any) (*SchulzeUnit, error) {
	schulzeConfig := DefaultSchulzeConfig()

	if order, ok := config["tie_order"].(string); ok {
		schulzeConfig.TieOrder = TieOrder(order)
	}
	if requireVotes, ok := config["require_votes"].(bool); ok {
		schulzeConfig.RequireVotes = requireVotes
	}

	return NewSchulzeUnit(id, schulzeConfig)
}
