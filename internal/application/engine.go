package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-schulze/infrastructure/middleware"
	"github.com/ahrav/go-schulze/internal/domain"
	"github.com/ahrav/go-schulze/internal/ports"
)

// Outcome is the result of evaluating one election.
type Outcome struct {
	// ID identifies this evaluation run. Cached outcomes get a fresh ID.
	ID string `json:"id"`
	// ElectionName is the evaluated election's name.
	ElectionName string `json:"election"`
	// Hash is the election's configuration hash.
	Hash string `json:"hash"`
	// Candidates lists the candidates in index order.
	Candidates []domain.Candidate `json:"candidates"`
	// Result holds the matrices, win counts and index tiers.
	Result *domain.Result `json:"result"`
	// Ranking resolves Result's tiers to candidates.
	Ranking []domain.RankedTier `json:"ranking"`
	// Duration is the time spent computing the result.
	Duration time.Duration `json:"duration_ns"`
	// Cached reports whether the result came from the cache.
	Cached bool `json:"cached"`
}

// Winners returns the candidates of the first tier.
func (o *Outcome) Winners() []domain.Candidate {
	if len(o.Ranking) == 0 {
		return nil
	}
	return o.Ranking[0].Candidates
}

// Engine evaluates compiled elections, consulting an optional result
// cache and reporting to an optional metrics collector.
type Engine struct {
	cache       ports.CacheStore
	cacheName   string
	cacheTTL    time.Duration
	metrics     ports.MetricsCollector
	concurrency int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithCache stores outcomes in store under name for ttl. A zero ttl keeps
// them until evicted.
func WithCache(store ports.CacheStore, name string, ttl time.Duration) EngineOption {
	return func(e *Engine) {
		e.cache = store
		e.cacheName = name
		e.cacheTTL = ttl
	}
}

// WithMetrics reports evaluations to m.
func WithMetrics(m ports.MetricsCollector) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithConcurrency bounds the number of elections EvaluateAll runs at once.
func WithConcurrency(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewEngine creates an Engine. Without options it neither caches nor
// records metrics.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{concurrency: runtime.NumCPU()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// cacheKey is the cache key of an election's outcome.
func cacheKey(election *Election) string { return "outcome:" + election.Hash }

// Evaluate runs election's pipeline and returns its outcome. A cached
// outcome for the same configuration hash is returned instead when one
// exists. Cache failures are reported to metrics and otherwise ignored.
func (e *Engine) Evaluate(ctx context.Context, election *Election) (*Outcome, error) {
	if election == nil || election.Pipeline == nil {
		return nil, fmt.Errorf("%w: election has no pipeline", domain.ErrInvalidConfiguration)
	}
	id := uuid.NewString()

	if outcome, ok := e.lookup(ctx, election); ok {
		outcome.ID = id
		outcome.Cached = true
		e.count("cached")
		return outcome, nil
	}

	start := time.Now()
	state := domain.With(election.InitialState(), domain.KeyExecutionID, id)
	final, err := election.Pipeline.Execute(ctx, state)
	if err != nil {
		e.count("error")
		return nil, fmt.Errorf("election %s: %w", election.Name, err)
	}

	result, err := domain.Require(final, domain.KeyResult)
	if err != nil {
		e.count("error")
		return nil, fmt.Errorf("election %s: pipeline produced no result: %w", election.Name, err)
	}
	ranking, _ := domain.Get(final, domain.KeyRanking)
	elapsed := time.Since(start)

	outcome := &Outcome{
		ID:           id,
		ElectionName: election.Name,
		Hash:         election.Hash,
		Candidates:   election.Candidates,
		Result:       result,
		Ranking:      ranking,
		Duration:     elapsed,
	}

	e.record(election, outcome)
	e.store(ctx, election, outcome)
	return outcome, nil
}

// EvaluateAll evaluates elections concurrently and returns their outcomes
// in input order. The first failure cancels the remaining evaluations.
func (e *Engine) EvaluateAll(ctx context.Context, elections []*Election) ([]*Outcome, error) {
	outcomes := make([]*Outcome, len(elections))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, election := range elections {
		g.Go(func() error {
			outcome, err := e.Evaluate(gctx, election)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (e *Engine) lookup(ctx context.Context, election *Election) (*Outcome, bool) {
	if e.cache == nil {
		return nil, false
	}

	data, ok, err := e.cache.Get(ctx, cacheKey(election))
	switch {
	case err != nil:
		e.cacheResult("error")
		return nil, false
	case !ok:
		e.cacheResult("miss")
		return nil, false
	}

	outcome, err := DecodeOutcome(data)
	if err != nil {
		e.cacheResult("corrupt")
		_ = e.cache.Delete(ctx, cacheKey(election))
		return nil, false
	}
	e.cacheResult("hit")
	return outcome, true
}

func (e *Engine) store(ctx context.Context, election *Election, outcome *Outcome) {
	if e.cache == nil {
		return
	}
	data, err := json.Marshal(outcome)
	if err == nil {
		err = e.cache.Set(ctx, cacheKey(election), data, e.cacheTTL)
	}
	if err != nil {
		e.cacheResult("error")
	}
}

// DecodeOutcome decodes an Outcome written by encoding/json, reporting
// malformed data as ports.ErrCacheCorrupted.
func DecodeOutcome(data []byte) (*Outcome, error) {
	var outcome Outcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		return nil, errors.Join(ports.ErrCacheCorrupted, err)
	}
	if outcome.Result == nil {
		return nil, fmt.Errorf("%w: outcome has no result", ports.ErrCacheCorrupted)
	}
	return &outcome, nil
}

func (e *Engine) count(status string) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordCounter(middleware.MetricEvaluations, 1, map[string]string{"status": status})
}

func (e *Engine) cacheResult(result string) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordCounter(middleware.MetricCacheRequests, 1, map[string]string{
		"store":  e.cacheName,
		"result": result,
	})
}

func (e *Engine) record(election *Election, outcome *Outcome) {
	e.count("success")
	if e.metrics == nil {
		return
	}

	labels := map[string]string{"unit": "engine"}
	e.metrics.RecordLatency("evaluate", outcome.Duration, labels)
	e.metrics.RecordGauge(middleware.MetricCandidates, float64(len(election.Candidates)), labels)
	e.metrics.RecordGauge(middleware.MetricBallots, float64(len(election.Ballots)), labels)
	e.metrics.RecordGauge(middleware.MetricTiers, float64(len(outcome.Ranking)), labels)
	e.metrics.RecordHistogram(middleware.MetricCandidates, float64(len(election.Candidates)), nil)
	e.metrics.RecordHistogram(middleware.MetricBallots, float64(len(election.Ballots)), nil)
}
