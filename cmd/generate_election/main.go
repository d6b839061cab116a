// Command generate_election writes a synthetic election file for load
// testing and benchmarks.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/ahrav/go-schulze/internal/testutils"
)

func main() {
	defaults := testutils.DefaultGeneratorConfig()

	var (
		candidates   = flag.Int("candidates", defaults.Candidates, "Number of candidates")
		ballots      = flag.Int("ballots", defaults.Ballots, "Number of ballots")
		seed         = flag.Int64("seed", 0, "Random seed (0 uses the current time)")
		tieRate      = flag.Float64("tie-rate", defaults.TieRate, "Chance that a candidate ties with the previous group")
		truncateRate = flag.Float64("truncate-rate", defaults.TruncateRate, "Chance that a ballot ranks only a prefix")
		maxWeight    = flag.Int("max-weight", defaults.MaxWeight, "Largest ballot weight")
		outputPath   = flag.String("output", "testdata/elections/synthetic.yaml", "Output file path (.yaml or .toml)")
	)
	flag.Parse()

	if *candidates < 1 || *ballots < 0 {
		log.Fatalf("candidates must be positive and ballots non-negative")
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	election := testutils.GenerateElection(testutils.GeneratorConfig{
		Candidates:   *candidates,
		Ballots:      *ballots,
		TieRate:      *tieRate,
		TruncateRate: *truncateRate,
		MaxWeight:    *maxWeight,
	}, *seed)

	if err := testutils.SaveElection(election, *outputPath); err != nil {
		log.Fatalf("Failed to save election: %v", err)
	}

	stats := testutils.ComputeElectionStatistics(election)

	fmt.Printf("Generated election %s:\n", election.Name)
	fmt.Printf("- Path: %s\n", *outputPath)
	fmt.Printf("- Candidates: %d\n", stats.Candidates)
	fmt.Printf("- Ballots: %d (total weight %d)\n", stats.Ballots, stats.TotalWeight)
	fmt.Printf("- Tied ballots: %d\n", stats.TiedBallots)
	fmt.Printf("- Truncated ballots: %d\n", stats.TruncatedBallots)
	fmt.Printf("- Average groups per ballot: %.2f\n", stats.AvgGroups)
}
