package application

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/ahrav/go-schulze/infrastructure/units"
	"github.com/ahrav/go-schulze/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.UnitRegistry = (*DefaultUnitRegistry)(nil)

// DefaultUnitRegistry maps unit type names to factories. It comes with the
// ballot_parser and schulze types registered and accepts more at runtime.
type DefaultUnitRegistry struct {
	// factories maps unit type strings to their factory functions.
	factories map[string]ports.UnitFactory
	// mu protects concurrent access to the factories map.
	mu sync.RWMutex
}

// NewDefaultUnitRegistry creates a registry with the built-in unit types.
func NewDefaultUnitRegistry() *DefaultUnitRegistry {
	registry := &DefaultUnitRegistry{
		factories: make(map[string]ports.UnitFactory),
	}
	registry.registerBuiltinFactories()
	return registry
}

func (r *DefaultUnitRegistry) registerBuiltinFactories() {
	r.factories[units.TypeBallotParser] = func(id string, config map[string]any) (ports.Unit, error) {
		unit, err := units.CreateBallotUnit(id, config)
		if err != nil {
			return nil, err
		}
		return unit, nil
	}

	r.factories[units.TypeSchulze] = func(id string, config map[string]any) (ports.Unit, error) {
		unit, err := units.CreateSchulzeUnit(id, config)
		if err != nil {
			return nil, err
		}
		return unit, nil
	}
}

// CreateUnit builds a unit of unitType with the given id and parameters.
func (r *DefaultUnitRegistry) CreateUnit(
	unitType string,
	id string,
	config map[string]any,
) (ports.Unit, error) {
	r.mu.RLock()
	factory, exists := r.factories[unitType]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported unit type: %s", unitType)
	}

	if id == "" {
		return nil, fmt.Errorf("unit ID cannot be empty")
	}

	if config == nil {
		config = make(map[string]any)
	}

	unit, err := factory(id, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create unit %s of type %s: %w", id, unitType, err)
	}

	return unit, nil
}

// RegisterUnitFactory registers or replaces the factory for unitType.
func (r *DefaultUnitRegistry) RegisterUnitFactory(
	unitType string,
	factory ports.UnitFactory,
) error {
	if unitType == "" {
		return fmt.Errorf("unit type cannot be empty")
	}

	if factory == nil {
		return fmt.Errorf("factory function cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[unitType] = factory
	return nil
}

// GetSupportedTypes returns the registered unit types in sorted order.
func (r *DefaultUnitRegistry) GetSupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.factories))
}

// Supports reports whether unitType has a registered factory.
func (r *DefaultUnitRegistry) Supports(unitType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[unitType]
	return ok
}
