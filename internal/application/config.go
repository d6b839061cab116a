package application

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ElectionConfig is the declarative description of one election: who is
// standing, how people voted, and which units turn the ballots into a
// ranking. It is the root of both YAML and TOML election files.
type ElectionConfig struct {
	// Version is the schema version of the file in X.Y.Z form.
	Version string `yaml:"version" validate:"required,semver"`
	// Metadata names and describes the election.
	Metadata Metadata `yaml:"metadata" validate:"required"`
	// Candidates lists the candidates in index order. The position of a
	// candidate in this list is its index in every matrix and tier.
	Candidates []CandidateConfig `yaml:"candidates" validate:"required,min=1,max=1000,dive"`
	// Ballots holds the cast ballots. An empty list is a valid election in
	// which every candidate ties.
	Ballots []BallotConfig `yaml:"ballots" validate:"max=100000,dive"`
	// Units overrides the evaluation pipeline. When empty the default
	// ballot_parser -> schulze pipeline is used.
	Units []UnitConfig `yaml:"units,omitempty" validate:"max=20,dive"`
}

// Metadata provides descriptive information about an election.
type Metadata struct {
	// Name identifies the election in logs, metrics and outcomes.
	Name string `yaml:"name" validate:"required,min=1,max=255"`
	// Description is free text shown alongside results.
	Description string `yaml:"description,omitempty" validate:"max=1000"`
	// Tags are categorical labels for grouping elections.
	Tags []string `yaml:"tags,omitempty" validate:"max=20,dive,min=1,max=50"`
	// Labels are arbitrary key-value pairs for external systems.
	Labels map[string]string `yaml:"labels,omitempty" validate:"max=50"`
}

// CandidateConfig declares one candidate.
type CandidateConfig struct {
	// ID is the short reference used in ballot rankings.
	ID string `yaml:"id" validate:"required,max=64,candidateid"`
	// Name is the display name. It defaults to ID.
	Name string `yaml:"name,omitempty" validate:"max=255"`
}

// BallotConfig is one ballot, or Count identical ballots.
type BallotConfig struct {
	// Ranking orders candidate references from most to least preferred.
	Ranking Ranking `yaml:"ranking" validate:"required,min=1,dive,min=1,dive,required"`
	// Weight multiplies the ballot's contribution. Zero means 1.
	Weight int `yaml:"weight,omitempty" validate:"min=0,max=1000000"`
	// Count repeats the ballot. Zero means 1.
	Count int `yaml:"count,omitempty" validate:"min=0,max=1000000"`
}

// EffectiveWeight returns Weight * Count with zero values read as 1.
func (b BallotConfig) EffectiveWeight() int {
	weight, count := b.Weight, b.Count
	if weight == 0 {
		weight = 1
	}
	if count == 0 {
		count = 1
	}
	return weight * count
}

// UnitConfig selects and configures one pipeline unit.
type UnitConfig struct {
	// ID is the unit's name within the pipeline.
	ID string `yaml:"id" validate:"required,min=1,max=100,candidateid"`
	// Type is a unit type known to the registry, such as ballot_parser or
	// schulze.
	Type string `yaml:"type" validate:"required"`
	// Parameters holds type-specific settings decoded by the unit itself.
	Parameters yaml.Node `yaml:"parameters,omitempty"`
}

// Ranking is a ballot ordering: groups of candidate references from most
// to least preferred, where references within one group are tied.
//
// In configuration files a Ranking is written either as a string using
// ">" between groups and "=" inside a group:
//
//	ranking: "alice > bob = carol > dave"
//
// or as a list whose items are single references or lists of tied ones:
//
//	ranking: [alice, [bob, carol], dave]
type Ranking [][]string

// ParseRanking parses the string form of a Ranking.
func ParseRanking(s string) (Ranking, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("empty ranking")
	}

	parts := strings.Split(s, ">")
	ranking := make(Ranking, 0, len(parts))
	for pos, part := range parts {
		group, err := parseGroup(part)
		if err != nil {
			return nil, fmt.Errorf("group %d of %q: %w", pos+1, s, err)
		}
		ranking = append(ranking, group)
	}
	return ranking, nil
}

func parseGroup(s string) ([]string, error) {
	refs := strings.Split(s, "=")
	group := make([]string, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			return nil, fmt.Errorf("empty candidate reference")
		}
		group = append(group, ref)
	}
	return group, nil
}

// String formats the ranking in its string form.
func (r Ranking) String() string {
	groups := make([]string, len(r))
	for i, g := range r {
		groups[i] = strings.Join(g, " = ")
	}
	return strings.Join(groups, " > ")
}

// UnmarshalYAML accepts both the string and the list form.
func (r *Ranking) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		parsed, err := ParseRanking(s)
		if err != nil {
			return err
		}
		*r = parsed
		return nil

	case yaml.SequenceNode:
		ranking := make(Ranking, 0, len(value.Content))
		for _, item := range value.Content {
			switch item.Kind {
			case yaml.ScalarNode:
				var s string
				if err := item.Decode(&s); err != nil {
					return err
				}
				group, err := parseGroup(s)
				if err != nil {
					return fmt.Errorf("line %d: %w", item.Line, err)
				}
				ranking = append(ranking, group)
			case yaml.SequenceNode:
				var group []string
				if err := item.Decode(&group); err != nil {
					return err
				}
				ranking = append(ranking, group)
			default:
				return fmt.Errorf("line %d: ranking entries must be references or lists of references", item.Line)
			}
		}
		*r = ranking
		return nil

	default:
		return fmt.Errorf("line %d: ranking must be a string or a list", value.Line)
	}
}

// MarshalYAML writes the list form so normalized configs hash the same
// regardless of how the ranking was spelled.
func (r Ranking) MarshalYAML() (any, error) {
	return [][]string(r), nil
}
