// Package observers provides ready-made observers for monitoring canopy
// state machines: structured logging, Prometheus metrics, and OpenTelemetry
// tracing.
package observers

import (
	"log/slog"

	"github.com/canopystate/canopy"
)

// LoggingObserver logs machine lifecycle through a slog.Logger
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver creates a new logging observer. A nil logger falls back
// to slog.Default().
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{logger: logger}
}

// OnTransition logs a completed transition
func (o *LoggingObserver) OnTransition(from canopy.StateType, to canopy.StateType, ctx canopy.Context) {
	o.logger.Info("transition", "from", string(from), "to", string(to))
}

// OnStateEnter logs state entry
func (o *LoggingObserver) OnStateEnter(state canopy.StateType, ctx canopy.Context) {
	o.logger.Info("state entered", "state", string(state))
}

// OnStateExit logs state exit
func (o *LoggingObserver) OnStateExit(state canopy.StateType, ctx canopy.Context) {
	o.logger.Info("state exited", "state", string(state))
}

// OnEventDispatched logs a completed dispatch pass
func (o *LoggingObserver) OnEventDispatched(event canopy.Event, ctx canopy.Context) {
	o.logger.Debug("event dispatched", "event", event.GetName(), "id", event.GetID())
}

// OnEventSkipped logs an instance removed mid-pass
func (o *LoggingObserver) OnEventSkipped(state canopy.StateType, event canopy.Event, ctx canopy.Context) {
	o.logger.Debug("event skipped", "state", string(state), "event", event.GetName())
}

// OnError logs hook panics and rejected operations
func (o *LoggingObserver) OnError(err error, ctx canopy.Context) {
	o.logger.Error("state machine error", "error", err)
}

// OnMachineStarted logs machine start
func (o *LoggingObserver) OnMachineStarted(ctx canopy.Context) {
	o.logger.Info("machine started")
}

// OnMachineStopped logs machine stop
func (o *LoggingObserver) OnMachineStopped(ctx canopy.Context) {
	o.logger.Info("machine stopped")
}
