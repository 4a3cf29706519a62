package observers

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/canopystate/canopy"
)

const tracerName = "github.com/canopystate/canopy"

// TracingObserver records one OpenTelemetry span per active state, from
// enter to exit, and annotates it with dispatched events.
type TracingObserver struct {
	tracer trace.Tracer
	spans  map[canopy.StateType]trace.Span
}

// NewTracingObserver creates a tracing observer. A nil provider falls back
// to the global tracer provider.
func NewTracingObserver(provider trace.TracerProvider) *TracingObserver {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &TracingObserver{
		tracer: provider.Tracer(tracerName),
		spans:  make(map[canopy.StateType]trace.Span),
	}
}

// OnTransition annotates the target state's span with its source
func (o *TracingObserver) OnTransition(from canopy.StateType, to canopy.StateType, ctx canopy.Context) {
	if span, ok := o.spans[to]; ok {
		span.SetAttributes(attribute.String("canopy.transition.from", string(from)))
	}
}

// OnStateEnter starts a span covering the state's active period
func (o *TracingObserver) OnStateEnter(state canopy.StateType, ctx canopy.Context) {
	_, span := o.tracer.Start(ctx, "state/"+string(state),
		trace.WithAttributes(attribute.String("canopy.state", string(state))))
	o.spans[state] = span
}

// OnStateExit ends the state's span
func (o *TracingObserver) OnStateExit(state canopy.StateType, ctx canopy.Context) {
	if span, ok := o.spans[state]; ok {
		span.End()
		delete(o.spans, state)
	}
}

// OnEventDispatched adds the event to every open state span
func (o *TracingObserver) OnEventDispatched(event canopy.Event, ctx canopy.Context) {
	for _, span := range o.spans {
		span.AddEvent(event.GetName(), trace.WithAttributes(
			attribute.String("canopy.event.id", event.GetID())))
	}
}

// OnEventSkipped implements the ExtendedObserver interface
func (o *TracingObserver) OnEventSkipped(state canopy.StateType, event canopy.Event, ctx canopy.Context) {
}

// OnError records the error on every open state span
func (o *TracingObserver) OnError(err error, ctx canopy.Context) {
	for _, span := range o.spans {
		span.RecordError(err)
	}
}

// OnMachineStarted implements the ExtendedObserver interface
func (o *TracingObserver) OnMachineStarted(ctx canopy.Context) {}

// OnMachineStopped implements the ExtendedObserver interface
func (o *TracingObserver) OnMachineStopped(ctx canopy.Context) {}
