// Package domain contains the pure, dependency-free model of a Schulze
// election: votes, the defeat and path-strength matrices, tiers, and the
// immutable State that carries them between pipeline units.
package domain

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// Key is a typed key for values held in a State. The type parameter keeps
// Get and With free of runtime type assertions at the call site.
type Key[T any] struct{ name string }

// NewKey creates a Key with the given name.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the key's string form.
func (k Key[T]) Name() string { return k.name }

// Keys shared by the election pipeline.
var (
	// KeyElection stores the election name.
	KeyElection = Key[string]{"election"}

	// KeyCandidates stores the candidate list; positions are candidate indices.
	KeyCandidates = Key[[]Candidate]{"candidates"}

	// KeyBallots stores labelled ballots awaiting conversion to votes.
	KeyBallots = Key[[]Ballot]{"ballots"}

	// KeyVotes stores index-based votes ready for evaluation.
	KeyVotes = Key[[]Vote]{"votes"}

	// KeyResult stores the Schulze evaluation result.
	KeyResult = Key[*Result]{"result"}

	// KeyRanking stores the tiers resolved to candidates.
	KeyRanking = Key[[]RankedTier]{"ranking"}

	// KeyExecutionID stores the identifier of the current evaluation run.
	KeyExecutionID = Key[string]{"execution.execution_id"}
)

// State is an immutable bag of pipeline data with copy-on-write updates.
// Slices, maps and struct fields are deep-copied on the way in and out;
// pointers are shared, so pointer values (such as *Result) must themselves
// be immutable.
type State struct {
	data map[string]any
}

// NewState creates an empty State.
func NewState() State {
	return State{data: make(map[string]any)}
}

// Get retrieves the value stored under key. The boolean is false when the
// key is missing or holds a value of another type.
func Get[T any](s State, key Key[T]) (T, bool) {
	var zero T
	value, ok := s.data[key.name]
	if !ok {
		return zero, false
	}
	val, ok := deepCopy(value).(T)
	return val, ok
}

// With returns a new State with key set to value; s is left unchanged.
func With[T any](s State, key Key[T], value T) State {
	data := maps.Clone(s.data)
	if data == nil {
		data = make(map[string]any)
	}
	data[key.name] = deepCopy(value)
	return State{data: data}
}

// Require is Get that reports a missing key as a *StateError.
func Require[T any](s State, key Key[T]) (T, error) {
	v, ok := Get(s, key)
	if !ok {
		return v, NewStateError(key.name, "Get", ErrKeyNotFound)
	}
	return v, nil
}

// Keys returns the stored key names in sorted order.
func (s State) Keys() []string {
	return slices.Sorted(maps.Keys(s.data))
}

// String returns a string representation of the State for debugging.
func (s State) String() string {
	return fmt.Sprintf("State%v", s.data)
}

func deepCopy(value any) any {
	if value == nil {
		return nil
	}
	return copyValue(reflect.ValueOf(value)).Interface()
}

func copyValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := range v.Len() {
			out.Index(i).Set(copyValue(v.Index(i)))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), copyValue(iter.Value()))
		}
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := range v.NumField() {
			if f := out.Field(i); f.CanSet() {
				f.Set(copyValue(v.Field(i)))
			}
		}
		return out
	default:
		return v
	}
}
