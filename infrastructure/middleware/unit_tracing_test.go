package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-schulze/internal/domain"
)

type stubUnit struct {
	name string
	err  error
}

func (s *stubUnit) Name() string    { return s.name }
func (s *stubUnit) Validate() error { return s.err }

func (s *stubUnit) Execute(_ context.Context, state domain.State) (domain.State, error) {
	if s.err != nil {
		return state, s.err
	}
	return domain.With(state, domain.KeyElection, "done by "+s.name), nil
}

func TestTracingUnit_Execute(t *testing.T) {
	pm, _ := newTestMetrics(t)
	unit := NewTracingUnit(&stubUnit{name: "ballots"}, "ballot_parser", pm)

	assert.Equal(t, "ballots", unit.Name())
	assert.NoError(t, unit.Validate())

	state := domain.With(domain.NewState(), domain.KeyExecutionID, "run-1")
	next, err := unit.Execute(context.Background(), state)
	require.NoError(t, err)

	got, ok := domain.Get(next, domain.KeyElection)
	require.True(t, ok)
	assert.Equal(t, "done by ballots", got)

	assert.Equal(t, 1.0, testutil.ToFloat64(pm.operationCounter.WithLabelValues("unit_executions", "success", "ballot_parser")))
}

func TestTracingUnit_Error(t *testing.T) {
	pm, _ := newTestMetrics(t)
	boom := errors.New("boom")
	unit := NewTracingUnit(&stubUnit{name: "rank", err: boom}, "schulze", pm)

	_, err := unit.Execute(context.Background(), domain.NewState())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, unit.Validate(), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(pm.operationCounter.WithLabelValues("unit_executions", "error", "schulze")))
}

func TestTracingUnit_NilMetrics(t *testing.T) {
	inner := &stubUnit{name: "plain"}
	unit := NewTracingUnit(inner, "schulze", nil)

	assert.NotPanics(t, func() {
		_, err := unit.Execute(context.Background(), domain.NewState())
		assert.NoError(t, err)
	})
	assert.Same(t, inner, unit.Unwrap())
}

func TestTracingUnit_LabelsByType(t *testing.T) {
	pm, reg := newTestMetrics(t)

	for _, id := range []string{"parse", "ballots", "step-1", "step-2"} {
		_, err := NewTracingUnit(&stubUnit{name: id}, "ballot_parser", pm).Execute(context.Background(), domain.NewState())
		require.NoError(t, err)
	}

	count, err := testutil.GatherAndCount(reg, "schulze_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 4.0, testutil.ToFloat64(pm.operationCounter.WithLabelValues("unit_executions", "success", "ballot_parser")))
}
