package tracing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/flowscape/flowscape/backend/internal/shared/id"
)

// Header names the desktop shell uses to correlate backend work with its
// own timeline.
const (
	HeaderTraceID = "X-Trace-ID"
	HeaderSpanID  = "X-Span-ID"
)

// TraceID ties every span of one command flow together.
type TraceID string

// SpanID identifies a single operation within a trace.
type SpanID string

type contextKey int

const (
	traceKey contextKey = iota
	spanKey
)

// Span is one timed operation inside a trace.
type Span struct {
	Trace  TraceID
	ID     SpanID
	Parent SpanID
	Name   string

	started time.Time
	tags    []zap.Field
	err     error
}

// Tag attaches a key/value pair to the span's log line.
func (s *Span) Tag(key, value string) {
	s.tags = append(s.tags, zap.String(key, value))
}

// Fail records the error that ended the span.
func (s *Span) Fail(err error) {
	s.err = err
}

// Tracer starts and logs spans. There is no exporter: completed spans land
// in the structured log, where the trace id makes a whole command flow
// greppable.
type Tracer struct {
	service string
	logger  *zap.Logger
}

// New creates a tracer for the named service.
func New(service string, logger *zap.Logger) *Tracer {
	return &Tracer{service: service, logger: logger}
}

// Start opens a span under the trace carried by ctx, minting a fresh trace
// when there is none. The returned context carries the new span as parent
// for anything started beneath it.
func (t *Tracer) Start(ctx context.Context, name string) (*Span, context.Context) {
	trace, _ := ctx.Value(traceKey).(TraceID)
	if trace == "" {
		trace = TraceID(id.NewRequestID())
	}
	parent, _ := ctx.Value(spanKey).(SpanID)

	s := &Span{
		Trace:   trace,
		ID:      SpanID(id.NewRequestID()),
		Parent:  parent,
		Name:    name,
		started: time.Now(),
	}

	ctx = context.WithValue(ctx, traceKey, trace)
	ctx = context.WithValue(ctx, spanKey, s.ID)
	return s, ctx
}

// End closes the span and writes its log line. Failed spans log at Error,
// the rest at Debug so routine traffic stays out of production logs.
func (t *Tracer) End(s *Span) {
	fields := []zap.Field{
		zap.String("trace_id", string(s.Trace)),
		zap.String("span_id", string(s.ID)),
		zap.String("service", t.service),
		zap.String("operation", s.Name),
		zap.Duration("duration", time.Since(s.started)),
	}
	if s.Parent != "" {
		fields = append(fields, zap.String("parent_id", string(s.Parent)))
	}
	fields = append(fields, s.tags...)

	if s.err != nil {
		fields = append(fields, zap.Error(s.err))
		t.logger.Error("span failed", fields...)
		return
	}
	t.logger.Debug("span completed", fields...)
}

// WithRemote seeds ctx with trace identifiers received from a caller.
// Empty values are ignored.
func WithRemote(ctx context.Context, trace TraceID, parent SpanID) context.Context {
	if trace != "" {
		ctx = context.WithValue(ctx, traceKey, trace)
	}
	if parent != "" {
		ctx = context.WithValue(ctx, spanKey, parent)
	}
	return ctx
}

// FromContext returns the trace and span ids carried by ctx, empty when
// the context is untraced.
func FromContext(ctx context.Context) (TraceID, SpanID) {
	trace, _ := ctx.Value(traceKey).(TraceID)
	span, _ := ctx.Value(spanKey).(SpanID)
	return trace, span
}
