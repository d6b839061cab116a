package domain

// Vote is a single weighted individual ranking over n candidates.
// Ranking[i] is the position this voter assigns to candidate i: a lower
// value is more preferred and equal values are an explicit tie.
type Vote struct {
	// Ranking holds one position per candidate index.
	Ranking []int `json:"ranking" yaml:"ranking"`

	// Weight scales the voter's influence and must be positive.
	Weight int `json:"weight" yaml:"weight"`
}

// NewVote creates a Vote with weight 1.
//
// Example: with candidates A, B, C and D, the preference A > B = D > C is
//
//	vote := NewVote(0, 1, 2, 1)
func NewVote(ranking ...int) Vote {
	return Vote{Ranking: ranking, Weight: 1}
}

// WithWeight returns a copy of v carrying the given weight.
func (v Vote) WithWeight(weight int) Vote {
	v.Weight = weight
	return v
}

// Candidate identifies an option on the ballot. Its position in the
// candidate list is the index used by the ranking core.
type Candidate struct {
	// ID is the short stable reference used in ballots.
	ID string `json:"id" yaml:"id" toml:"id"`

	// Name is the display name; it falls back to ID when empty.
	Name string `json:"name,omitempty" yaml:"name,omitempty" toml:"name"`
}

// DisplayName returns Name, or ID when no name is set.
func (c Candidate) DisplayName() string {
	if c.Name == "" {
		return c.ID
	}
	return c.Name
}

// Ballot is a labelled ranking: Groups lists candidate references from most
// to least preferred, and references inside one group are tied.
type Ballot struct {
	Groups [][]string `json:"groups"`
	Weight int        `json:"weight"`
}

// RankedTier is a Tier resolved to candidates for presentation.
type RankedTier struct {
	// Rank is the 1-based position of the tier.
	Rank int `json:"rank"`

	// Wins is the shared Schulze win count of every member.
	Wins int `json:"wins"`

	// Candidates are the tier members.
	Candidates []Candidate `json:"candidates"`
}
