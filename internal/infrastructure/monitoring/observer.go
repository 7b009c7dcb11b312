package monitoring

import (
	"github.com/flowscape/flowscape/backend/internal/shared/types"
)

// Emitter matches the controller's event sink.
type Emitter interface {
	Emit(ev types.UIEvent)
}

// Observer wraps an emitter and counts capture and restore events on their
// way to the UI, so the domain layer never sees the metrics collector.
type Observer struct {
	next    Emitter
	metrics *Metrics
}

// NewObserver creates an observer forwarding to next.
func NewObserver(next Emitter, metrics *Metrics) *Observer {
	return &Observer{next: next, metrics: metrics}
}

// Emit records the event's metrics and forwards it.
func (o *Observer) Emit(ev types.UIEvent) {
	switch e := ev.(type) {
	case types.StateCaptured:
		o.metrics.IncStatesCaptured()
	case types.RestoreResult:
		o.metrics.RecordRestore(string(e.Method), e.Success)
	}
	o.next.Emit(ev)
}
