package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-schulze/internal/domain"
	"github.com/ahrav/go-schulze/internal/ports"
)

var _ ports.Unit = (*TracingUnit)(nil)

// TracingUnit wraps a ports.Unit in an OpenTelemetry span and records its
// latency and outcome on a MetricsCollector. Metrics are labelled by unit
// type; the unit ID only goes on the span.
type TracingUnit struct {
	next     ports.Unit
	unitType string
	metrics  ports.MetricsCollector
	tracer   trace.Tracer
}

// NewTracingUnit decorates next, a unit of the registered type unitType.
// metrics may be nil.
func NewTracingUnit(next ports.Unit, unitType string, metrics ports.MetricsCollector) *TracingUnit {
	return &TracingUnit{
		next:     next,
		unitType: unitType,
		metrics:  metrics,
		tracer:   otel.Tracer("schulze-pipeline"),
	}
}

// Name returns the wrapped unit's name.
func (tu *TracingUnit) Name() string { return tu.next.Name() }

// Validate delegates to the wrapped unit.
func (tu *TracingUnit) Validate() error { return tu.next.Validate() }

// Unwrap returns the decorated unit.
func (tu *TracingUnit) Unwrap() ports.Unit { return tu.next }

// Execute runs the wrapped unit inside a "unit.Execute" span.
func (tu *TracingUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	ctx, span := tu.tracer.Start(ctx, "unit.Execute",
		trace.WithAttributes(
			attribute.String("unit.id", tu.next.Name()),
			attribute.String("unit.type", tu.unitType),
		),
	)
	defer span.End()

	if id, ok := domain.Get(state, domain.KeyExecutionID); ok {
		span.SetAttributes(attribute.String("execution.id", id))
	}

	start := time.Now()
	next, err := tu.next.Execute(ctx, state)
	elapsed := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.Int64("unit.latency_ms", elapsed.Milliseconds()))

	if tu.metrics != nil {
		labels := map[string]string{"unit": tu.unitType, "status": status}
		tu.metrics.RecordLatency("unit_execute", elapsed, labels)
		tu.metrics.RecordCounter("unit_executions", 1, labels)
	}

	return next, err
}
