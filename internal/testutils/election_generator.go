// Package testutils generates synthetic elections for tests, benchmarks
// and load generation. Nothing here is used by production code paths.
package testutils

import (
	"cmp"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/ahrav/go-schulze/internal/domain"
)

// GeneratorConfig controls the shape of a generated election.
type GeneratorConfig struct {
	Candidates int
	Ballots    int

	// TieRate is the chance that a candidate joins the previous group
	// instead of starting a new one.
	TieRate float64

	// TruncateRate is the chance that a ballot ranks only a prefix of
	// the candidates.
	TruncateRate float64

	// MaxWeight bounds ballot weights; values below 2 give every ballot
	// weight 1.
	MaxWeight int
}

// DefaultGeneratorConfig returns a mid-sized election with occasional ties
// and truncated ballots.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Candidates:   DefaultCandidates,
		Ballots:      DefaultBallots,
		TieRate:      0.1,
		TruncateRate: 0.2,
		MaxWeight:    1,
	}
}

// GenerateElection creates an election from cfg. The same seed always
// gives the same election.
//
// Candidates and voters are placed on a line and every voter ranks
// candidates by distance, so nearby candidates are preferred together and
// the outcome is rarely a uniform tie. Negative counts are treated as zero.
func GenerateElection(cfg GeneratorConfig, seed int64) *GeneratedElection {
	cfg.Candidates = max(cfg.Candidates, 0)
	cfg.Ballots = max(cfg.Ballots, 0)
	rng := rand.New(rand.NewSource(seed))

	election := &GeneratedElection{
		Name:       fmt.Sprintf("synthetic-%d", seed),
		Seed:       seed,
		Candidates: make([]domain.Candidate, cfg.Candidates),
		Ballots:    make([]domain.Ballot, 0, cfg.Ballots),
	}

	positions := make([]float64, cfg.Candidates)
	for i := range cfg.Candidates {
		election.Candidates[i] = domain.Candidate{
			ID:   candidateID(i),
			Name: candidateNames[i%len(candidateNames)],
		}
		positions[i] = rng.Float64()
	}

	for range cfg.Ballots {
		election.Ballots = append(election.Ballots, generateBallot(rng, cfg, election.Candidates, positions))
	}
	return election
}

// GenerateElectionDefault creates an election from the default config with
// a time-based seed.
func GenerateElectionDefault() *GeneratedElection {
	return GenerateElection(DefaultGeneratorConfig(), time.Now().UnixNano())
}

func generateBallot(rng *rand.Rand, cfg GeneratorConfig, candidates []domain.Candidate, positions []float64) domain.Ballot {
	voter := rng.Float64()

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		return cmp.Compare(math.Abs(positions[a]-voter), math.Abs(positions[b]-voter))
	})

	ranked := len(order)
	if ranked > 1 && rng.Float64() < cfg.TruncateRate {
		ranked = 1 + rng.Intn(ranked-1)
	}

	var groups [][]string
	for i, idx := range order[:ranked] {
		id := candidates[idx].ID
		if i > 0 && rng.Float64() < cfg.TieRate {
			groups[len(groups)-1] = append(groups[len(groups)-1], id)
			continue
		}
		groups = append(groups, []string{id})
	}

	weight := 1
	if cfg.MaxWeight > 1 {
		weight = 1 + rng.Intn(cfg.MaxWeight)
	}
	return domain.Ballot{Groups: groups, Weight: weight}
}

// candidateID returns "c01", "c02" and so on, widening past 99.
func candidateID(i int) string {
	return fmt.Sprintf("c%02d", i+1)
}
