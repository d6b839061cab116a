package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ahrav/go-schulze/internal/ports"
)

var _ ports.CacheStore = (*BreakerStore)(nil)

// ErrCircuitOpen is returned while a BreakerStore is rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerState is the state of a BreakerStore's circuit.
type BreakerState int

const (
	// StateClosed passes every call through.
	StateClosed BreakerState = iota

	// StateOpen rejects calls until the cooldown has passed.
	StateOpen

	// StateHalfOpen lets one trial call through; its result closes or
	// reopens the circuit.
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Default breaker settings.
const (
	DefaultMaxFailures = 5
	DefaultCooldown    = 30 * time.Second
)

// BreakerStore wraps a CacheStore with a circuit breaker. After
// maxFailures consecutive errors it stops calling the wrapped store for
// the cooldown period and fails fast with ErrCircuitOpen, so an
// unreachable backend does not add its timeout to every evaluation.
// A cache miss counts as success.
type BreakerStore struct {
	next        ports.CacheStore
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time

	mu          sync.Mutex
	state       BreakerState
	failures    int
	lastFailure time.Time
	trial       bool
}

// NewBreakerStore wraps next. Non-positive arguments select the defaults.
func NewBreakerStore(next ports.CacheStore, maxFailures int, cooldown time.Duration) *BreakerStore {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &BreakerStore{
		next:        next,
		maxFailures: maxFailures,
		cooldown:    cooldown,
		now:         time.Now,
	}
}

// State returns the current circuit state.
func (b *BreakerStore) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.lastFailure) >= b.cooldown {
		return StateHalfOpen
	}
	return b.state
}

// allow reports whether a call may proceed. In the half-open state only
// one trial call is in flight at a time.
func (b *BreakerStore) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.lastFailure) < b.cooldown {
			return false
		}
		b.state = StateHalfOpen
		b.trial = true
		return true
	case StateHalfOpen:
		if b.trial {
			return false
		}
		b.trial = true
		return true
	default:
		return true
	}
}

func (b *BreakerStore) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.trial = false
	if err == nil {
		b.failures = 0
		b.state = StateClosed
		return
	}

	b.failures++
	b.lastFailure = b.now()
	if b.state == StateHalfOpen || b.failures >= b.maxFailures {
		b.state = StateOpen
	}
}

func (b *BreakerStore) call(key, op string, fn func() error) error {
	if !b.allow() {
		return ports.NewCacheError(key, op, ErrCircuitOpen)
	}
	err := fn()
	// A cancelled caller says nothing about the backend's health.
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		b.mu.Lock()
		b.trial = false
		b.mu.Unlock()
		return err
	}
	b.record(err)
	return err
}

// Get reads key from the wrapped store.
func (b *BreakerStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value []byte
		found bool
	)
	err := b.call(key, "Get", func() error {
		var err error
		value, found, err = b.next.Get(ctx, key)
		return err
	})
	return value, found, err
}

// Set writes key to the wrapped store.
func (b *BreakerStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.call(key, "Set", func() error {
		return b.next.Set(ctx, key, value, ttl)
	})
}

// Delete removes key from the wrapped store.
func (b *BreakerStore) Delete(ctx context.Context, key string) error {
	return b.call(key, "Delete", func() error {
		return b.next.Delete(ctx, key)
	})
}

// Clear empties the wrapped store.
func (b *BreakerStore) Clear(ctx context.Context) error {
	return b.call("*", "Clear", func() error {
		return b.next.Clear(ctx)
	})
}
