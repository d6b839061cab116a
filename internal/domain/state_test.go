package domain

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState(t *testing.T) {
	state := NewState()

	assert.NotNil(t, state.data, "NewState() should initialize the data map.")
	assert.Empty(t, state.Keys(), "NewState() should create an empty state.")
}

// TestState_Get covers retrieval of the election keys and missing keys.
func TestState_Get(t *testing.T) {
	tests := []struct {
		name   string
		setup  func() State
		assert func(t *testing.T, state State)
	}{
		{
			name: "get election name",
			setup: func() State {
				return With(NewState(), KeyElection, "board 2026")
			},
			assert: func(t *testing.T, state State) {
				got, ok := Get(state, KeyElection)
				assert.True(t, ok, "Get() should find an existing key.")
				assert.Equal(t, "board 2026", got)
			},
		},
		{
			name:  "get non-existent key",
			setup: NewState,
			assert: func(t *testing.T, state State) {
				_, ok := Get(state, KeyVotes)
				assert.False(t, ok, "Get() should not find a non-existent key.")
			},
		},
		{
			name: "get candidates",
			setup: func() State {
				return With(NewState(), KeyCandidates, []Candidate{{ID: "a"}, {ID: "b", Name: "Bravo"}})
			},
			assert: func(t *testing.T, state State) {
				got, ok := Get(state, KeyCandidates)
				assert.True(t, ok)
				require.Len(t, got, 2)
				assert.Equal(t, "Bravo", got[1].DisplayName())
			},
		},
		{
			name: "get result pointer",
			setup: func() State {
				res, err := Evaluate([]Vote{NewVote(0, 1)}, 2)
				require.NoError(t, err)
				return With(NewState(), KeyResult, res)
			},
			assert: func(t *testing.T, state State) {
				got, ok := Get(state, KeyResult)
				require.True(t, ok)
				assert.Equal(t, Tier{0}, got.Winners())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.assert(t, tt.setup())
		})
	}
}

func TestState_With(t *testing.T) {
	original := NewState()

	updated := With(original, KeyElection, "first")
	_, ok := Get(original, KeyElection)
	assert.False(t, ok, "With() should not modify the original state.")

	updated2 := With(updated, KeyElection, "second")

	v, _ := Get(updated, KeyElection)
	assert.Equal(t, "first", v, "With() should not modify the previous state when updating.")
	v2, _ := Get(updated2, KeyElection)
	assert.Equal(t, "second", v2)

	var zero State
	assert.NotPanics(t, func() {
		s := With(zero, KeyElection, "from zero value")
		got, _ := Get(s, KeyElection)
		assert.Equal(t, "from zero value", got)
	})
}

func TestState_Require(t *testing.T) {
	state := With(NewState(), KeyVotes, []Vote{NewVote(0, 1)})

	votes, err := Require(state, KeyVotes)
	require.NoError(t, err)
	assert.Len(t, votes, 1)

	_, err = Require(state, KeyResult)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "result", stateErr.Key)
}

func TestState_Keys(t *testing.T) {
	state := With(With(With(NewState(),
		KeyVotes, []Vote{}),
		KeyElection, "e"),
		KeyCandidates, []Candidate{{ID: "x"}})

	assert.Equal(t, []string{"candidates", "election", "votes"}, state.Keys())
}

// TestState_Immutability checks that neither the caller's slice nor a
// retrieved copy can alter what the State holds.
func TestState_Immutability(t *testing.T) {
	votes := []Vote{NewVote(0, 1, 2), NewVote(2, 1, 0).WithWeight(3)}
	state := With(NewState(), KeyVotes, votes)

	votes[0].Ranking[0] = 9
	votes[1].Weight = 100

	got, ok := Get(state, KeyVotes)
	require.True(t, ok)
	assert.Equal(t, []int{0, 1, 2}, got[0].Ranking, "State should not be affected by external slice modifications.")
	assert.Equal(t, 3, got[1].Weight)

	got[1].Ranking[2] = 7
	again, _ := Get(state, KeyVotes)
	assert.Equal(t, []int{2, 1, 0}, again[1].Ranking, "State should not be affected by modifying a retrieved copy.")
}

func TestState_DeepCopy(t *testing.T) {
	t.Run("nested slices", func(t *testing.T) {
		key := Key[[][]string]{"groups"}
		original := [][]string{{"a", "b"}, {"c"}}
		state := With(NewState(), key, original)

		original[0][0] = "modified"
		got, _ := Get(state, key)
		assert.Equal(t, "a", got[0][0])
	})

	t.Run("map with slice values", func(t *testing.T) {
		key := Key[map[string][]int]{"complex"}
		original := map[string][]int{"a": {1, 2, 3}}
		state := With(NewState(), key, original)

		original["a"][0] = 99
		original["b"] = nil
		got, _ := Get(state, key)
		assert.Equal(t, 1, got["a"][0])
		assert.NotContains(t, got, "b")
	})

	t.Run("struct with slice field", func(t *testing.T) {
		key := Key[RankedTier]{"tier"}
		original := RankedTier{Rank: 1, Wins: 2, Candidates: []Candidate{{ID: "a"}}}
		state := With(NewState(), key, original)

		original.Candidates[0].ID = "z"
		got, _ := Get(state, key)
		assert.Equal(t, "a", got.Candidates[0].ID)
	})

	t.Run("pointers are shared", func(t *testing.T) {
		res, err := Evaluate(nil, 2)
		require.NoError(t, err)
		state := With(NewState(), KeyResult, res)

		got, _ := Get(state, KeyResult)
		assert.Same(t, res, got)
	})

	t.Run("nil slice stays nil", func(t *testing.T) {
		state := With(NewState(), KeyVotes, nil)
		got, ok := Get(state, KeyVotes)
		assert.True(t, ok)
		assert.Nil(t, got)
	})
}

func TestState_String(t *testing.T) {
	str := With(NewState(), KeyElection, "test").String()

	assert.Contains(t, str, "State", "String() should contain 'State'.")
	assert.Contains(t, str, "election")
}

// TestState_ConcurrentAccess runs concurrent readers and writers against
// one base State; with copy-on-write no writer can observe another.
func TestState_ConcurrentAccess(t *testing.T) {
	base := With(With(NewState(),
		KeyElection, "initial"),
		KeyVotes, []Vote{NewVote(0, 1), NewVote(1, 0)})

	const workers = 50
	states := make([]State, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			votes, ok := Get(base, KeyVotes)
			assert.True(t, ok)
			assert.Len(t, votes, 2)

			key := Key[int]{fmt.Sprintf("worker_%d", id)}
			states[id] = With(base, key, id)
		}(i)
	}
	wg.Wait()

	for i, s := range states {
		assert.Len(t, s.Keys(), 3, "State %d should have 3 keys.", i)
		got, ok := Get(s, Key[int]{fmt.Sprintf("worker_%d", i)})
		assert.True(t, ok)
		assert.Equal(t, i, got)
	}
	assert.Len(t, base.Keys(), 2, "Base state must stay untouched.")
}

// TestState_TypedKeys confirms that keys sharing a name overwrite each
// other and that Get reports a type mismatch as missing.
func TestState_TypedKeys(t *testing.T) {
	intKey := Key[int]{"shared"}
	stringKey := Key[string]{"shared"}

	state := With(With(NewState(), intKey, 100), stringKey, "hundred")

	_, ok := Get(state, intKey)
	assert.False(t, ok, "The int value should be overwritten.")

	got, ok := Get(state, stringKey)
	require.True(t, ok)
	assert.Equal(t, "hundred", got)
	assert.Equal(t, "shared", NewKey[float64]("shared").Name())
}
