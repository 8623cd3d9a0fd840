// Package observability wires OpenTelemetry tracing and metrics.
//
// Setup installs OTLP/HTTP exporters as the global providers; without it
// spans and instruments are no-ops.
//
//	p, err := observability.Setup(ctx, cfg.Telemetry, observability.Service{Name: "authclient"})
//	if err != nil {
//	    return err
//	}
//	defer p.Shutdown(ctx)
//
//	coordinator, err := refresh.New(store, renewer, refresh.WithMeter(observability.Meter("authclient")))
package observability
