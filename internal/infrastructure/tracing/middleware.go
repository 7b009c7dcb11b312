package tracing

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// HTTPMiddleware traces every request, honoring trace headers sent by the
// shell and echoing the assigned ids back so both sides log the same flow.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithRemote(c.Request.Context(),
			TraceID(c.GetHeader(HeaderTraceID)),
			SpanID(c.GetHeader(HeaderSpanID)),
		)

		span, ctx := tracer.Start(ctx, c.FullPath())
		span.Tag("http.method", c.Request.Method)
		span.Tag("http.url", c.Request.URL.String())

		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderTraceID, string(span.Trace))
		c.Header(HeaderSpanID, string(span.ID))

		c.Next()

		span.Tag("http.status", strconv.Itoa(c.Writer.Status()))
		if len(c.Errors) > 0 {
			span.Fail(c.Errors.Last())
		}
		tracer.End(span)
	}
}
