package refresh

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/kbukum/authclient/refresh"

// metrics holds the coordinator instruments.
type metrics struct {
	renewals metric.Int64Counter
	failures metric.Int64Counter
	waiters  metric.Int64UpDownCounter
	signOuts metric.Int64Counter
	duration metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	renewals, err := meter.Int64Counter("authclient.refresh.renewals",
		metric.WithDescription("Renewal calls issued"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating renewals counter: %w", err)
	}

	failures, err := meter.Int64Counter("authclient.refresh.failures",
		metric.WithDescription("Renewal calls that failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failures counter: %w", err)
	}

	waiters, err := meter.Int64UpDownCounter("authclient.refresh.waiters",
		metric.WithDescription("Callers queued behind a renewal"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating waiters gauge: %w", err)
	}

	signOuts, err := meter.Int64Counter("authclient.refresh.signouts",
		metric.WithDescription("Sign-outs triggered by unrecoverable failures"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating signouts counter: %w", err)
	}

	duration, err := meter.Float64Histogram("authclient.refresh.duration",
		metric.WithDescription("Duration of renewal calls in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return &metrics{
		renewals: renewals,
		failures: failures,
		waiters:  waiters,
		signOuts: signOuts,
		duration: duration,
	}, nil
}

func (m *metrics) recordRenewal(ctx context.Context, err error, d time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
		m.failures.Add(ctx, 1)
	}
	m.renewals.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	m.duration.Record(ctx, float64(d)/float64(time.Millisecond), metric.WithAttributes(attribute.String("status", status)))
}
