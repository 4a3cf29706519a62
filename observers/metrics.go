package observers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/canopystate/canopy"
)

// MetricsObserver exports state machine activity as Prometheus metrics
type MetricsObserver struct {
	entersTotal      *prometheus.CounterVec
	exitsTotal       *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	eventsTotal      *prometheus.CounterVec
	skippedTotal     *prometheus.CounterVec
	errorsTotal      prometheus.Counter
	activeStates     prometheus.Gauge
	stateDuration    *prometheus.HistogramVec

	entered map[canopy.StateType]time.Time
}

// NewMetricsObserver creates a metrics observer and registers its collectors
// with the given registerer. A nil registerer falls back to the default
// Prometheus registerer.
func NewMetricsObserver(reg prometheus.Registerer) *MetricsObserver {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &MetricsObserver{
		entersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_state_enters_total",
			Help: "Number of times each state type was entered.",
		}, []string{"state"}),
		exitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_state_exits_total",
			Help: "Number of times each state type was exited.",
		}, []string{"state"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_transitions_total",
			Help: "Number of completed transitions by source and target.",
		}, []string{"from", "to"}),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_events_dispatched_total",
			Help: "Number of dispatched events by event name.",
		}, []string{"event"}),
		skippedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_events_skipped_total",
			Help: "Number of snapshot entries skipped because the state exited mid-pass.",
		}, []string{"state"}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "canopy_errors_total",
			Help: "Number of hook panics and rejected operations.",
		}),
		activeStates: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "canopy_active_states",
			Help: "Number of currently active state instances.",
		}),
		stateDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "canopy_state_duration_seconds",
			Help:    "Time spent in each state type between enter and exit.",
			Buckets: prometheus.DefBuckets,
		}, []string{"state"}),
		entered: make(map[canopy.StateType]time.Time),
	}

	reg.MustRegister(
		o.entersTotal, o.exitsTotal, o.transitionsTotal, o.eventsTotal,
		o.skippedTotal, o.errorsTotal, o.activeStates, o.stateDuration,
	)
	return o
}

// OnTransition records a completed transition
func (o *MetricsObserver) OnTransition(from canopy.StateType, to canopy.StateType, ctx canopy.Context) {
	o.transitionsTotal.WithLabelValues(string(from), string(to)).Inc()
}

// OnStateEnter records state entry
func (o *MetricsObserver) OnStateEnter(state canopy.StateType, ctx canopy.Context) {
	o.entersTotal.WithLabelValues(string(state)).Inc()
	o.activeStates.Inc()
	o.entered[state] = time.Now()
}

// OnStateExit records state exit and the time spent in the state
func (o *MetricsObserver) OnStateExit(state canopy.StateType, ctx canopy.Context) {
	o.exitsTotal.WithLabelValues(string(state)).Inc()
	o.activeStates.Dec()
	if enteredAt, ok := o.entered[state]; ok {
		o.stateDuration.WithLabelValues(string(state)).Observe(time.Since(enteredAt).Seconds())
		delete(o.entered, state)
	}
}

// OnEventDispatched records a dispatched event
func (o *MetricsObserver) OnEventDispatched(event canopy.Event, ctx canopy.Context) {
	o.eventsTotal.WithLabelValues(event.GetName()).Inc()
}

// OnEventSkipped records a snapshot entry skipped mid-pass
func (o *MetricsObserver) OnEventSkipped(state canopy.StateType, event canopy.Event, ctx canopy.Context) {
	o.skippedTotal.WithLabelValues(string(state)).Inc()
}

// OnError records a hook panic or rejected operation
func (o *MetricsObserver) OnError(err error, ctx canopy.Context) {
	o.errorsTotal.Inc()
}

// OnMachineStarted implements the ExtendedObserver interface
func (o *MetricsObserver) OnMachineStarted(ctx canopy.Context) {}

// OnMachineStopped implements the ExtendedObserver interface
func (o *MetricsObserver) OnMachineStopped(ctx canopy.Context) {}
