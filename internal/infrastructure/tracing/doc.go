/*
Package tracing provides lightweight request tracing.

# Overview

Shell commands are tracked through the backend with trace and span
identifiers, following OpenTelemetry concepts with a minimal
implementation: spans are logged through zap and correlated via HTTP
headers. There is no exporter.

# Usage

	tracer := tracing.New("backend", logger)

	// HTTP middleware
	router.Use(tracing.HTTPMiddleware(tracer))

	// Manual spans
	span, ctx := tracer.Start(ctx, "restore")
	defer tracer.End(span)

# Propagation

Traces use HTTP headers:
  - X-Trace-ID: identifier for the whole command flow
  - X-Span-ID: identifier for the current operation
*/
package tracing
