// Package observability wires OpenTelemetry metrics and tracing.
//
// Setup installs OTLP/HTTP exporters as the global providers when enabled;
// otherwise the global no-op providers stay in place and instruments created
// through Meter and Tracer cost nothing.
//
//	shutdown, err := observability.Setup(ctx, cfg.Observability, observability.Resource{
//	    ServiceName: "voicegate", ServiceVersion: version.Version,
//	})
//	defer shutdown(context.Background())
//
//	ctx, span := observability.StartSpan(ctx, "capture.record")
//	defer span.End()
package observability
