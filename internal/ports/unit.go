// Package ports defines the interfaces that connect the election pipeline
// to its infrastructure: evaluation units, result caches and metrics.
package ports

import (
	"context"

	"github.com/ahrav/go-schulze/internal/domain"
)

// Unit is one step of the election pipeline. A Unit reads what it needs
// from the State and returns a new State with its output added.
// Units must be stateless and safe for concurrent use.
type Unit interface {
	// Name returns the unit's identifier within its pipeline.
	Name() string

	// Execute transforms state. The input State must not be modified and
	// errors are returned rather than raised as panics. Implementations
	// should return promptly once ctx is cancelled.
	//
	// Example:
	//
	//	next, err := unit.Execute(ctx, state)
	//	if err != nil {
	//	    return domain.State{}, fmt.Errorf("unit %s failed: %w", unit.Name(), err)
	//	}
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// Validate checks that the unit is configured well enough to run.
	Validate() error
}

// UnitFactory builds a Unit with the given id from its decoded parameters.
type UnitFactory func(id string, config map[string]any) (Unit, error)

// UnitRegistry maps unit type names to factories.
type UnitRegistry interface {
	// CreateUnit builds a unit of the registered type.
	CreateUnit(unitType, id string, config map[string]any) (Unit, error)

	// RegisterUnitFactory adds or replaces the factory for unitType.
	RegisterUnitFactory(unitType string, factory UnitFactory) error

	// GetSupportedTypes lists the registered unit types in sorted order.
	GetSupportedTypes() []string
}
