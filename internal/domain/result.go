package domain

import (
	"encoding/json"
	"slices"
)

// Tier is a set of candidate indices tied in Schulze win count.
type Tier []int

// Result holds every artifact of one Schulze evaluation: the defeat matrix,
// the strongest-path matrix, per-candidate win counts and the ordered tiers.
// A Result is never modified after Evaluate returns it; accessors hand out
// copies so callers cannot alter it either.
type Result struct {
	n     int
	d     Matrix
	p     Matrix
	wins  []int
	tiers []Tier
}

// Candidates returns the number of candidates evaluated.
func (r *Result) Candidates() int { return r.n }

// Defeats returns a copy of the defeat matrix d.
func (r *Result) Defeats() Matrix { return r.d.Clone() }

// Paths returns a copy of the path-strength matrix p.
func (r *Result) Paths() Matrix { return r.p.Clone() }

// Wins returns a copy of the per-candidate win counts.
func (r *Result) Wins() []int { return slices.Clone(r.wins) }

// Tiers returns a copy of the ranking, strongest tier first.
func (r *Result) Tiers() []Tier {
	out := make([]Tier, len(r.tiers))
	for i, t := range r.tiers {
		out[i] = slices.Clone(t)
	}
	return out
}

// Winners returns the first tier, or nil when there are no candidates.
func (r *Result) Winners() Tier {
	if len(r.tiers) == 0 {
		return nil
	}
	return slices.Clone(r.tiers[0])
}

// Beats reports whether candidate i defeats candidate j under the Schulze
// relation, that is p[i][j] > p[j][i].
func (r *Result) Beats(i, j int) bool {
	if i == j || i < 0 || j < 0 || i >= r.n || j >= r.n {
		return false
	}
	return r.p[i][j] > r.p[j][i]
}

// TierOf returns the 0-based tier position of candidate i, or -1 if i is
// out of range.
func (r *Result) TierOf(i int) int {
	for pos, t := range r.tiers {
		if slices.Contains(t, i) {
			return pos
		}
	}
	return -1
}

type resultJSON struct {
	Candidates int    `json:"candidates"`
	D          Matrix `json:"d"`
	P          Matrix `json:"p"`
	Wins       []int  `json:"wins"`
	Tiers      []Tier `json:"tiers"`
}

// MarshalJSON encodes the result with its matrices and tiers.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		Candidates: r.n,
		D:          r.d,
		P:          r.p,
		Wins:       r.wins,
		Tiers:      r.tiers,
	})
}

// UnmarshalJSON restores a result encoded by MarshalJSON. Tiers are
// recomputed from p so a decoded result is always self-consistent.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw resultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.D.Size() != raw.Candidates || raw.P.Size() != raw.Candidates {
		return NewStateError(KeyResult.name, "UnmarshalJSON", ErrInvalidState)
	}
	for i := range raw.Candidates {
		if len(raw.D[i]) != raw.Candidates || len(raw.P[i]) != raw.Candidates {
			return NewStateError(KeyResult.name, "UnmarshalJSON", ErrInvalidState)
		}
	}
	wins := WinCounts(raw.P, raw.Candidates)
	*r = Result{
		n:     raw.Candidates,
		d:     raw.D.Clone(),
		p:     raw.P.Clone(),
		wins:  wins,
		tiers: tiersFromWins(wins),
	}
	return nil
}
