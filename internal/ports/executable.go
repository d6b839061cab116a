package ports

import (
	"context"

	"github.com/ahrav/go-schulze/internal/domain"
)

// Executable is anything that can run against a State: a single unit or a
// whole pipeline.
type Executable interface {
	// Execute processes state and returns the updated copy. The input
	// State is immutable; use domain.With to derive a new one. Execute
	// must be safe to call concurrently with different states.
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// ID returns the identifier of the executable. It must be unique
	// within the containing pipeline and never change.
	ID() string
}

// Pipeline runs its executables in order, feeding each one the State
// produced by the previous one.
type Pipeline interface {
	Executable

	// Add appends exec to the end of the pipeline. It fails when the ID
	// is already taken.
	Add(exec Executable) error

	// Executables returns the pipeline steps in execution order.
	// The returned slice should not be modified by callers.
	Executables() []Executable
}
