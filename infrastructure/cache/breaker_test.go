package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-schulze/internal/ports"
)

// flakyStore fails every call while down is set.
type flakyStore struct {
	*MemoryStore
	down  bool
	calls int
}

var errBackend = errors.New("connection refused")

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.calls++
	if f.down {
		return nil, false, errBackend
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.calls++
	if f.down {
		return errBackend
	}
	return f.MemoryStore.Set(ctx, key, value, ttl)
}

func newBreaker(t *testing.T, maxFailures int, cooldown time.Duration) (*BreakerStore, *flakyStore, *time.Time) {
	t.Helper()
	inner := &flakyStore{MemoryStore: NewMemoryStore(8)}
	b := NewBreakerStore(inner, maxFailures, cooldown)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, inner, &now
}

func TestBreakerStore_PassesThrough(t *testing.T) {
	ctx := context.Background()
	b, _, _ := newBreaker(t, 2, time.Minute)

	_, found, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, b.Set(ctx, "k", []byte("v"), 0))
	got, found, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, b.Delete(ctx, "k"))
	require.NoError(t, b.Clear(ctx))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerStore_OpensAndRecovers(t *testing.T) {
	ctx := context.Background()
	b, inner, now := newBreaker(t, 3, time.Minute)
	inner.down = true

	for range 3 {
		_, _, err := b.Get(ctx, "k")
		require.ErrorIs(t, err, errBackend)
	}
	assert.Equal(t, StateOpen, b.State())

	calls := inner.calls
	_, _, err := b.Get(ctx, "k")
	require.ErrorIs(t, err, ErrCircuitOpen)
	var cacheErr *ports.CacheError
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, "Get", cacheErr.Operation)
	assert.Equal(t, calls, inner.calls, "open circuit must not reach the backend")

	// Trial call after the cooldown fails and reopens.
	*now = now.Add(time.Minute)
	assert.Equal(t, StateHalfOpen, b.State())
	require.ErrorIs(t, b.Set(ctx, "k", nil, 0), errBackend)
	assert.Equal(t, StateOpen, b.State())
	require.ErrorIs(t, b.Set(ctx, "k", nil, 0), ErrCircuitOpen)

	// Successful trial closes the circuit.
	*now = now.Add(time.Minute)
	inner.down = false
	require.NoError(t, b.Set(ctx, "k", []byte("v"), 0))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerStore_SuccessResetsFailures(t *testing.T) {
	ctx := context.Background()
	b, inner, _ := newBreaker(t, 2, time.Minute)

	inner.down = true
	_, _, _ = b.Get(ctx, "k")
	inner.down = false
	_, _, err := b.Get(ctx, "k")
	require.NoError(t, err)
	inner.down = true
	_, _, _ = b.Get(ctx, "k")

	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerStore_IgnoresCancellation(t *testing.T) {
	b := NewBreakerStore(failingStore{err: context.Canceled}, 1, time.Minute)

	for range 3 {
		_, _, err := b.Get(context.Background(), "k")
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerStore_Defaults(t *testing.T) {
	b := NewBreakerStore(NewMemoryStore(1), 0, 0)
	assert.Equal(t, DefaultMaxFailures, b.maxFailures)
	assert.Equal(t, DefaultCooldown, b.cooldown)
}

func TestBreakerState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", BreakerState(9).String())
}

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.err }
func (f failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return f.err
}
func (f failingStore) Delete(context.Context, string) error { return f.err }
func (f failingStore) Clear(context.Context) error          { return f.err }
