package httpmiddleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry provides the OpenTelemetry providers used for instrumentation.
// *app.Telemetry from go-faster/sdk satisfies it.
type Telemetry interface {
	TracerProvider() trace.TracerProvider
	MeterProvider() metric.MeterProvider
}

// Instrument traces and meters requests with otelhttp. Spans are renamed to
// "<METHOD> <route pattern>" once routing is done, and every response is
// counted by route and status code. It must run inside a chi router.
func Instrument(service string, tel Telemetry) Middleware {
	meter := tel.MeterProvider().Meter("github.com/xenking/merchant-orders/pkg/httpmiddleware")
	responses, err := meter.Int64Counter("http.server.responses",
		metric.WithDescription("Number of responses by route and status code"),
		metric.WithUnit("{response}"),
	)
	if err != nil {
		responses, _ = metricnoop.Meter{}.Int64Counter("http.server.responses")
	}

	return func(next http.Handler) http.Handler {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			route := RoutePattern(r)
			trace.SpanFromContext(r.Context()).SetName(r.Method + " " + route)
			responses.Add(r.Context(), 1, metric.WithAttributes(
				attribute.String("http.route", route),
				attribute.Int("http.response.status_code", sw.status),
			))
		})
		return otelhttp.NewHandler(inner, service,
			otelhttp.WithTracerProvider(tel.TracerProvider()),
			otelhttp.WithMeterProvider(tel.MeterProvider()),
		)
	}
}
