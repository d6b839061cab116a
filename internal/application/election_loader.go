package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-schulze/infrastructure/cache"
	"github.com/ahrav/go-schulze/infrastructure/middleware"
	"github.com/ahrav/go-schulze/infrastructure/units"
	"github.com/ahrav/go-schulze/internal/domain"
	"github.com/ahrav/go-schulze/internal/ports"
)

// Format is the syntax of an election file.
type Format string

const (
	// FormatYAML is YAML, which also covers JSON documents.
	FormatYAML Format = "yaml"
	// FormatTOML is TOML.
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from a file extension, defaulting to
// YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Election is a compiled election: the candidate list, the ballots with
// counts folded into weights, and the pipeline that evaluates them.
// Elections returned by the loader are shared and must not be modified.
type Election struct {
	// Name is the election's metadata name.
	Name string
	// Description is the election's metadata description.
	Description string
	// Hash is the SHA-256 of the normalized configuration. Configurations
	// that differ only in formatting share a hash.
	Hash string
	// Candidates lists the candidates in index order.
	Candidates []domain.Candidate
	// Ballots holds one labelled ballot per configured ballot entry.
	Ballots []domain.Ballot
	// Pipeline evaluates the initial State into a result.
	Pipeline ports.Pipeline
}

// InitialState returns the State the pipeline starts from.
func (e *Election) InitialState() domain.State {
	state := domain.With(domain.NewState(), domain.KeyElection, e.Name)
	state = domain.With(state, domain.KeyCandidates, e.Candidates)
	return domain.With(state, domain.KeyBallots, e.Ballots)
}

// DefaultUnits is the pipeline used when a configuration names no units.
func DefaultUnits() []UnitConfig {
	return []UnitConfig{
		{ID: "ballots", Type: units.TypeBallotParser},
		{ID: "schulze", Type: units.TypeSchulze},
	}
}

// DefaultElectionCacheSize is the number of compiled elections a loader
// keeps unless WithElectionCacheSize says otherwise.
const DefaultElectionCacheSize = 128

// LoaderOption configures an ElectionLoader.
type LoaderOption func(*ElectionLoader)

// WithElectionCacheSize bounds the compiled-election cache to n entries.
// Non-positive values keep the default.
func WithElectionCacheSize(n int) LoaderOption {
	return func(el *ElectionLoader) {
		if n > 0 {
			el.cacheSize = n
		}
	}
}

// ElectionLoader parses, validates and compiles election files, caching
// compiled elections by configuration hash in a bounded LRU.
type ElectionLoader struct {
	validator    *validator.Validate
	unitRegistry ports.UnitRegistry
	// metrics is handed to the tracing wrapper around every unit. May be nil.
	metrics ports.MetricsCollector
	// cache holds compiled elections by hash. Cached elections MUST NOT be
	// mutated.
	cache     *cache.LRU[*Election]
	cacheSize int
	cacheMu   sync.Mutex
	// sf collapses concurrent compilations of the same configuration.
	sf singleflight.Group
}

// NewElectionLoader creates a loader that builds units from unitRegistry.
// metrics may be nil.
func NewElectionLoader(unitRegistry ports.UnitRegistry, metrics ports.MetricsCollector, opts ...LoaderOption) (*ElectionLoader, error) {
	v := validator.New()
	if err := RegisterElectionValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	el := &ElectionLoader{
		validator:    v,
		unitRegistry: unitRegistry,
		metrics:      metrics,
		cacheSize:    DefaultElectionCacheSize,
	}
	for _, opt := range opts {
		opt(el)
	}
	el.cache = cache.NewLRU[*Election](el.cacheSize)
	return el, nil
}

// LoadFromFile loads the election at path, choosing the format from its
// extension.
func (el *ElectionLoader) LoadFromFile(ctx context.Context, path string) (*Election, error) {
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ports.NewConfigError(cleanPath, fmt.Errorf("%w: %v", ports.ErrConfigNotFound, err))
		}
		return nil, ports.NewConfigError(cleanPath, err)
	}

	return el.Load(ctx, data, FormatFromPath(cleanPath))
}

// LoadFromReader reads an election in the given format from r.
func (el *ElectionLoader) LoadFromReader(ctx context.Context, r io.Reader, format Format) (*Election, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	return el.Load(ctx, data, format)
}

// Load parses, validates and compiles data. Identical configurations are
// compiled once and then served from the cache.
func (el *ElectionLoader) Load(ctx context.Context, data []byte, format Format) (*Election, error) {
	config, err := ParseConfig(data, format)
	if err != nil {
		return nil, err
	}

	hash, err := calculateConfigHash(config)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}

	v, err, _ := el.sf.Do(hash, func() (any, error) {
		if election, ok := el.getCachedElection(hash); ok {
			return election, nil
		}

		if err := el.ValidateConfig(config); err != nil {
			return nil, err
		}

		election, err := el.buildElection(ctx, config, hash)
		if err != nil {
			return nil, fmt.Errorf("failed to build election: %w", err)
		}

		el.cacheElection(hash, election)
		return election, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Election), nil
}

// ParseConfig decodes an election configuration. YAML is decoded strictly
// so misspelled fields fail instead of being ignored; TOML is transcoded to
// YAML first and goes through the same strict decoder.
func ParseConfig(data []byte, format Format) (*ElectionConfig, error) {
	switch format {
	case FormatTOML:
		var raw map[string]any
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
		transcoded, err := yaml.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to transcode TOML: %w", err)
		}
		data = transcoded
	case FormatYAML, "":
	default:
		return nil, fmt.Errorf("unsupported format: %q", format)
	}

	var config ElectionConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse YAML: empty document")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &config, nil
}

// ValidateConfig runs struct-tag validation followed by the semantic
// checks tags cannot express. Failures unwrap to
// domain.ErrInvalidConfiguration.
func (el *ElectionLoader) ValidateConfig(config *ElectionConfig) error {
	if err := el.validator.Struct(config); err != nil {
		return fmt.Errorf("%w: struct validation failed: %w", domain.ErrInvalidConfiguration, err)
	}

	if verr := el.validateSemantics(config); verr.HasErrors() {
		return fmt.Errorf("semantic validation failed: %w", verr)
	}
	return nil
}

// validateSemantics checks uniqueness of IDs, that ballots reference
// declared candidates and that units are known and well configured.
// Candidate IDs and ballot references are compared the way the election's
// ballot_parser units will match them: case-folded unless every such unit
// sets case_sensitive.
func (el *ElectionLoader) validateSemantics(config *ElectionConfig) *domain.ValidationError {
	verr := domain.NewValidationError("election " + config.Metadata.Name)

	normalize := func(id string) string { return id }
	if foldsCandidateIDs(config) {
		fold := cases.Fold()
		normalize = fold.String
	}

	known := make(map[string]string, len(config.Candidates))
	for _, c := range config.Candidates {
		key := normalize(c.ID)
		switch prev, dup := known[key]; {
		case dup && prev == c.ID:
			verr.AddError("duplicate candidate ID %q", c.ID)
		case dup:
			verr.AddError("candidate IDs %q and %q collide under case folding", prev, c.ID)
		default:
			known[key] = c.ID
		}
	}

	for i, b := range config.Ballots {
		for _, group := range b.Ranking {
			for _, ref := range group {
				if _, ok := known[normalize(ref)]; !ok {
					verr.AddError("ballot %d references unknown candidate %q", i, ref)
				}
			}
		}
	}

	supported := el.unitRegistry.GetSupportedTypes()
	unitIDs := make(map[string]struct{}, len(config.Units))
	for _, u := range config.Units {
		if _, dup := unitIDs[u.ID]; dup {
			verr.AddError("duplicate unit ID %q", u.ID)
		}
		unitIDs[u.ID] = struct{}{}

		if !slices.Contains(supported, u.Type) {
			verr.AddError("unit %s has unsupported type %q (supported: %s)", u.ID, u.Type, strings.Join(supported, ", "))
			continue
		}
		if err := ValidateUnitParameters(u.Type, u.Parameters); err != nil {
			verr.AddError("unit %s parameter validation failed: %v", u.ID, err)
		}
	}

	return verr
}

// foldsCandidateIDs reports whether any ballot_parser unit in the election
// matches candidate references case-insensitively. Elections without units
// use the default parser, which folds.
func foldsCandidateIDs(config *ElectionConfig) bool {
	if len(config.Units) == 0 {
		return true
	}
	for _, u := range config.Units {
		if u.Type != units.TypeBallotParser {
			continue
		}
		var params struct {
			CaseSensitive bool `yaml:"case_sensitive"`
		}
		if u.Parameters.Kind != 0 {
			// Malformed parameters are reported by ValidateUnitParameters.
			_ = u.Parameters.Decode(&params)
		}
		if !params.CaseSensitive {
			return true
		}
	}
	return false
}

// buildElection instantiates the units through the registry, wraps each
// one for tracing and assembles them into the election pipeline.
func (el *ElectionLoader) buildElection(_ context.Context, config *ElectionConfig, hash string) (*Election, error) {
	unitConfigs := config.Units
	if len(unitConfigs) == 0 {
		unitConfigs = DefaultUnits()
	}

	pipeline := NewPipeline(config.Metadata.Name)
	for _, uc := range unitConfigs {
		unit, err := el.createUnit(uc)
		if err != nil {
			return nil, fmt.Errorf("failed to create unit %s: %w", uc.ID, err)
		}
		traced := middleware.NewTracingUnit(unit, uc.Type, el.metrics)
		if err := pipeline.Add(NewUnitAdapter(traced, uc.ID)); err != nil {
			return nil, fmt.Errorf("failed to add unit to pipeline: %w", err)
		}
	}

	candidates := make([]domain.Candidate, len(config.Candidates))
	for i, c := range config.Candidates {
		candidates[i] = domain.Candidate{ID: c.ID, Name: c.Name}
	}

	ballots := make([]domain.Ballot, len(config.Ballots))
	for i, b := range config.Ballots {
		groups := make([][]string, len(b.Ranking))
		for g, group := range b.Ranking {
			groups[g] = slices.Clone(group)
		}
		ballots[i] = domain.Ballot{Groups: groups, Weight: b.EffectiveWeight()}
	}

	return &Election{
		Name:        config.Metadata.Name,
		Description: config.Metadata.Description,
		Hash:        hash,
		Candidates:  candidates,
		Ballots:     ballots,
		Pipeline:    pipeline,
	}, nil
}

// createUnit decodes the unit's parameters and hands them to the registry.
func (el *ElectionLoader) createUnit(config UnitConfig) (ports.Unit, error) {
	params := make(map[string]any)
	if config.Parameters.Kind != 0 {
		if err := config.Parameters.Decode(&params); err != nil {
			return nil, fmt.Errorf("failed to decode parameters: %w", err)
		}
	}

	unit, err := el.unitRegistry.CreateUnit(config.Type, config.ID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create unit: %w", err)
	}
	return unit, nil
}

// calculateConfigHash hashes a re-encoded config so formatting, key order
// and ranking spelling do not change the result.
func calculateConfigHash(config *ElectionConfig) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(config); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}

	hash := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(hash[:]), nil
}

func (el *ElectionLoader) getCachedElection(hash string) (*Election, bool) {
	el.cacheMu.Lock()
	defer el.cacheMu.Unlock()

	return el.cache.Get(hash)
}

func (el *ElectionLoader) cacheElection(hash string, election *Election) {
	el.cacheMu.Lock()
	defer el.cacheMu.Unlock()

	el.cache.Add(hash, election)
}

// ClearCache drops every compiled election.
func (el *ElectionLoader) ClearCache() {
	el.cacheMu.Lock()
	defer el.cacheMu.Unlock()

	el.cache.Purge()
}

// CachedElections returns the number of compiled elections held.
func (el *ElectionLoader) CachedElections() int {
	el.cacheMu.Lock()
	defer el.cacheMu.Unlock()

	return el.cache.Len()
}
