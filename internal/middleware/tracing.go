package middleware

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// Tracing instruments requests with OpenTelemetry spans. The span starts
// under a generic name and is renamed to chi's matched route pattern once
// routing has run, keeping span-name cardinality bounded.
func Tracing() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		renamed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			// chi fills in the route pattern while next runs.
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				span := trace.SpanFromContext(r.Context())
				span.SetName(fmt.Sprintf("%s %s", r.Method, rctx.RoutePattern()))
			}
		})

		return otelhttp.NewHandler(renamed, "http.server")
	}
}
