package domain

import (
	"fmt"
	"maps"
	"slices"
)

// ComputeDefeats builds the pairwise defeat matrix d, where d[i][j] is the
// total weight of votes ranking candidate i strictly ahead of candidate j.
// Every vote must carry at least n ranking entries; use ValidateVotes (or
// Evaluate) to check that first, otherwise a short ranking panics.
func ComputeDefeats(votes []Vote, n int) Matrix {
	d := NewMatrix(n)
	for _, v := range votes {
		r := v.Ranking
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				switch {
				case r[i] < r[j]:
					d[i][j] += v.Weight
				case r[j] < r[i]:
					d[j][i] += v.Weight
				}
			}
		}
	}
	return d
}

// ComputeStrongestPaths derives the path-strength matrix p from d. An edge
// i→j exists only when d[i][j] > d[j][i]; the strength of a path is its
// weakest edge and p[i][j] is the strongest path from i to j, or 0.
//
// This is the widest-path variant of Floyd–Warshall. The intermediate
// candidate must stay in the outer loop; any other nesting leaves the
// closure incomplete on some inputs.
func ComputeStrongestPaths(d Matrix, n int) Matrix {
	p := NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j && d[i][j] > d[j][i] {
				p[i][j] = d[i][j]
			}
		}
	}
	relax(p, n)
	return p
}

// relax runs one full max-min pass over p in place and reports whether
// any entry changed.
func relax(p Matrix, n int) bool {
	changed := false
	for m := 0; m < n; m++ {
		for j := 0; j < n; j++ {
			if j == m {
				continue
			}
			for k := 0; k < n; k++ {
				if k == m || k == j {
					continue
				}
				if via := min(p[j][m], p[m][k]); via > p[j][k] {
					p[j][k] = via
					changed = true
				}
			}
		}
	}
	return changed
}

// WinCounts returns, for every candidate i, the number of candidates j with
// p[i][j] > p[j][i].
func WinCounts(p Matrix, n int) []int {
	wins := make([]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j && p[i][j] > p[j][i] {
				wins[i]++
			}
		}
	}
	return wins
}

// RankTiers groups candidates by Schulze win count and orders the groups
// from most to fewest wins. Members of a tier are listed by ascending index.
func RankTiers(p Matrix, n int) []Tier {
	return tiersFromWins(WinCounts(p, n))
}

func tiersFromWins(wins []int) []Tier {
	groups := make(map[int]Tier)
	for i, w := range wins {
		groups[w] = append(groups[w], i)
	}

	keys := slices.Sorted(maps.Keys(groups))
	slices.Reverse(keys)

	tiers := make([]Tier, 0, len(keys))
	for _, k := range keys {
		tiers = append(tiers, groups[k])
	}
	return tiers
}

// ValidateVotes checks the preconditions of the ranking core: n must not
// be negative, and every vote needs exactly n ranking entries and a
// positive weight. The first offending vote is reported as an
// *InvalidVoteError. With zero candidates there is nothing to compare and
// the votes are not inspected.
func ValidateVotes(votes []Vote, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCandidateCount, n)
	}
	if n == 0 {
		return nil
	}
	for i, v := range votes {
		if len(v.Ranking) != n {
			return NewInvalidVoteError(i, fmt.Sprintf("ranking has %d entries, want %d", len(v.Ranking), n))
		}
		if v.Weight <= 0 {
			return NewInvalidVoteError(i, fmt.Sprintf("weight must be positive, got %d", v.Weight))
		}
	}
	return nil
}

// Evaluate runs the full Schulze pipeline over votes for n candidates:
// defeat matrix, strongest paths, then tiers. Input is validated before any
// computation starts, so an error never comes with a partial result.
func Evaluate(votes []Vote, n int) (*Result, error) {
	if err := ValidateVotes(votes, n); err != nil {
		return nil, err
	}

	d := ComputeDefeats(votes, n)
	p := ComputeStrongestPaths(d, n)
	wins := WinCounts(p, n)

	return &Result{
		n:     n,
		d:     d,
		p:     p,
		wins:  wins,
		tiers: tiersFromWins(wins),
	}, nil
}

// SchulzeAggregator is the stateless RankAggregator backed by Evaluate.
type SchulzeAggregator struct{}

var _ RankAggregator = SchulzeAggregator{}

// Aggregate implements RankAggregator.
func (SchulzeAggregator) Aggregate(votes []Vote, n int) (*Result, error) {
	return Evaluate(votes, n)
}
