package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/coinagedev/coinage/common/logging"
	"github.com/coinagedev/coinage/issuer/knobs"
)

// statusRecorder captures the status code written by downstream handlers.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogMiddleware attaches a request-scoped logger to the context and
// logs failed requests. Successful requests are only logged when the debug
// sampling knob selects them.
func RequestLogMiddleware(knobsService knobs.Knobs) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			// Ignore health check requests, these are noisy and we don't care about logging them.
			if strings.HasPrefix(req.URL.Path, "/-/") {
				next.ServeHTTP(w, req)
				return
			}

			ctx := req.Context()
			requestID := uuid.New().String()
			traceID := req.Header.Get("X-Amzn-Trace-Id")

			var otelTraceID string
			span := trace.SpanFromContext(ctx)
			if span != nil {
				sc := span.SpanContext()
				if sc.HasTraceID() {
					otelTraceID = sc.TraceID().String()
				}
			}

			logger := slog.Default().With(
				"request_id", requestID,
				"method", req.Method,
				"path", req.URL.Path,
				"x_amzn_trace_id", traceID,
				"otel_trace_id", otelTraceID,
				"component", "http",
			)

			ctx = logging.Inject(ctx, logger)

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			startTime := time.Now()
			next.ServeHTTP(recorder, req.WithContext(ctx))
			duration := time.Since(startTime)

			if recorder.status >= http.StatusInternalServerError {
				logger.Error("error in http", "status", recorder.status, "duration", duration.Seconds())
				return
			}

			if knobsService != nil && knobsService.RolloutRandom(knobs.KnobDebugSampling, 0) {
				logger.Debug("Request complete", "status", recorder.status, "duration", duration.Seconds())
			}
		})
	}
}
