package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/coinagedev/coinage/common/logging"
	"github.com/coinagedev/coinage/issuer/errors"
)

var globalPanicCounter metric.Int64Counter

func init() {
	meter := otel.GetMeterProvider().Meter("coinage.issuer")
	panicCounter, err := meter.Int64Counter(
		"http.server.panics_total",
		metric.WithDescription("Count of recovered handler panics"),
		metric.WithUnit("{count}"),
	)
	if err != nil {
		otel.Handle(err)
		if panicCounter == nil {
			panicCounter = noop.Int64Counter{}
		}
	}

	globalPanicCounter = panicCounter
}

func PanicRecoveryMiddleware(returnDetailedPanicErrors bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			logger := logging.GetLoggerFromContext(ctx)

			// Wrap the entire handler in a recover block
			defer func() {
				if r := recover(); r != nil {
					stack := debug.Stack()
					logger.Error("Panic in handler",
						"panic", fmt.Sprintf("%v", r),
						"stack", string(stack),
					)

					route := req.Pattern
					if route == "" {
						route = req.URL.Path
					}
					globalPanicCounter.Add(
						ctx,
						1,
						metric.WithAttributes(attribute.String("http.route", route)),
					)

					// Convert the panic to an error response instead of re-panicking
					if returnDetailedPanicErrors {
						// Include details in testing/development
						errors.WriteHTTP(ctx, w, errors.InternalErrorf("internal server error: %v", r), true)
					} else {
						// Generic message for production
						errors.WriteHTTP(ctx, w, errors.InternalErrorf("internal server error"), false)
					}
				}
			}()

			// Pass the request on down the chain
			next.ServeHTTP(w, req)
		})
	}
}
